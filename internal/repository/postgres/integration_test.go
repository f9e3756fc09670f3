//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/propsight/propsight-server/internal/model"
	repo "github.com/propsight/propsight-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "propsight_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/propsight_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newUser(email string) model.User {
	now := time.Now()
	return model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		FullName:     "Test User",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newToken(userID, familyID uuid.UUID, hash string) model.RefreshToken {
	now := time.Now()
	return model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hash,
		FamilyID:  familyID,
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
		UserAgent: "integration-test",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)

	u := newUser("user@example.com")
	saved, err := ur.Create(ctx, u)
	require.NoError(t, err)
	require.Equal(t, u.ID, saved.ID)

	byEmail, err := ur.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, u.PasswordHash, byEmail.PasswordHash)

	byID, err := ur.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)

	_, err = ur.GetByEmail(ctx, "absent@example.com")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = ur.Create(ctx, newUser("user@example.com"))
	require.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestRefreshTokenRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)
	tr := repo.NewRefreshTokenRepository(conn)

	owner, err := ur.Create(ctx, newUser("tokens@example.com"))
	require.NoError(t, err)

	familyID := uuid.New()
	first := newToken(owner.ID, familyID, "hash-1")
	require.NoError(t, tr.Create(ctx, first))

	require.ErrorIs(t, tr.Create(ctx, newToken(owner.ID, familyID, "hash-1")), model.ErrDuplicateHash)

	got, err := tr.GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	require.False(t, got.Revoked)

	_, err = tr.GetByHash(ctx, "no-such-hash")
	require.ErrorIs(t, err, model.ErrNotFound)

	// Rotation marks the old row revoked and inserts the successor atomically.
	successor := newToken(owner.ID, familyID, "hash-2")
	require.NoError(t, tr.Rotate(ctx, "hash-1", successor))

	rotated, err := tr.GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	require.True(t, rotated.Revoked)

	fresh, err := tr.GetByHash(ctx, "hash-2")
	require.NoError(t, err)
	require.False(t, fresh.Revoked)

	// A second rotation of the spent token loses the conditional update.
	require.ErrorIs(t, tr.Rotate(ctx, "hash-1", newToken(owner.ID, familyID, "hash-3")), model.ErrTokenRevoked)

	require.NoError(t, tr.RevokeFamily(ctx, familyID))
	afterFamily, err := tr.GetByHash(ctx, "hash-2")
	require.NoError(t, err)
	require.True(t, afterFamily.Revoked)

	list, err := tr.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, tr.DeleteByHash(ctx, "hash-2"))
	_, err = tr.GetByHash(ctx, "hash-2")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRefreshTokenRepository_ConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)
	tr := repo.NewRefreshTokenRepository(conn)

	owner, err := ur.Create(ctx, newUser("race@example.com"))
	require.NoError(t, err)

	familyID := uuid.New()
	require.NoError(t, tr.Create(ctx, newToken(owner.ID, familyID, "race-hash")))

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tr.Rotate(ctx, "race-hash", newToken(owner.ID, familyID, fmt.Sprintf("race-successor-%d", i)))
		}(i)
	}
	wg.Wait()

	var winners int
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			require.ErrorIs(t, err, model.ErrTokenRevoked)
		}
	}
	require.Equal(t, 1, winners)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)
	tr := repo.NewRefreshTokenRepository(conn)

	owner, err := ur.Create(ctx, newUser("sweep@example.com"))
	require.NoError(t, err)

	expired := newToken(owner.ID, uuid.New(), "sweep-expired")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, tr.Create(ctx, expired))
	require.NoError(t, tr.Create(ctx, newToken(owner.ID, uuid.New(), "sweep-live")))

	n, err := tr.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, int64(1))

	_, err = tr.GetByHash(ctx, "sweep-expired")
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = tr.GetByHash(ctx, "sweep-live")
	require.NoError(t, err)
}

func TestDocumentRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)
	dr := repo.NewDocumentRepository(conn)

	owner, err := ur.Create(ctx, newUser("docs@example.com"))
	require.NoError(t, err)

	doc := model.Document{
		ID:          uuid.New(),
		OwnerID:     owner.ID,
		FileName:    "deed.pdf",
		ObjectKey:   "documents/" + owner.ID.String() + "/deed.pdf",
		ContentType: "application/pdf",
		Size:        1024,
	}
	saved, err := dr.Create(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, doc.ID, saved.ID)

	got, err := dr.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, doc.ObjectKey, got.ObjectKey)

	list, err := dr.GetByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, dr.Delete(ctx, doc.ID))
	_, err = dr.GetByID(ctx, doc.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	require.ErrorIs(t, dr.Delete(ctx, uuid.New()), model.ErrNotFound)
}
