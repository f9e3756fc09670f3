package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DocumentStore defines persistence operations for property-document
// metadata. Bytes live in object storage; only metadata is kept here.
type DocumentStore interface {
	Create(ctx context.Context, doc Document) (Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (Document, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Document is a stored property document.
type Document struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	FileName    string
	ObjectKey   string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}
