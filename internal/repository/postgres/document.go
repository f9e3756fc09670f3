package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/propsight/propsight-server/internal/model"
)

var _ model.DocumentStore = (*DocumentRepository)(nil)

type DocumentRepository struct {
	db *Connection
}

func NewDocumentRepository(db *Connection) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc model.Document) (model.Document, error) {
	const query = `
        INSERT INTO documents (id, owner_id, file_name, object_key, content_type, size, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,NOW())
        RETURNING id, owner_id, file_name, object_key, content_type, size, created_at
    `

	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	var saved model.Document
	err := r.db.QueryRow(ctx, query,
		doc.ID, doc.OwnerID, doc.FileName, doc.ObjectKey, doc.ContentType, doc.Size,
	).Scan(
		&saved.ID, &saved.OwnerID, &saved.FileName, &saved.ObjectKey,
		&saved.ContentType, &saved.Size, &saved.CreatedAt,
	)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to create document: %w", err)
	}
	return saved, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Document, error) {
	const query = `
        SELECT id, owner_id, file_name, object_key, content_type, size, created_at
        FROM documents WHERE id = $1
    `
	var doc model.Document
	err := r.db.QueryRow(ctx, query, id).Scan(
		&doc.ID, &doc.OwnerID, &doc.FileName, &doc.ObjectKey,
		&doc.ContentType, &doc.Size, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Document{}, model.ErrNotFound
		}
		return model.Document{}, fmt.Errorf("failed to get document by id: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Document, error) {
	const query = `
        SELECT id, owner_id, file_name, object_key, content_type, size, created_at
        FROM documents WHERE owner_id = $1 ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(
			&doc.ID, &doc.OwnerID, &doc.FileName, &doc.ObjectKey,
			&doc.ContentType, &doc.Size, &doc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM documents WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
