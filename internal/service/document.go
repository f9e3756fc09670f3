package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/propsight/propsight-server/internal/logger"
	"github.com/propsight/propsight-server/internal/model"
)

// presignExpiry is how long a generated download link stays valid.
const presignExpiry = 15 * time.Minute

// Document manages property-document bytes in object storage and their
// metadata rows.
type Document struct {
	docs    model.DocumentStore
	storage model.Storage
	logger  *logger.Logger
}

// NewDocument creates a Document service.
func NewDocument(docs model.DocumentStore, storage model.Storage, logger *logger.Logger) *Document {
	return &Document{docs: docs, storage: storage, logger: logger}
}

// Upload stores the document bytes and records its metadata.
func (d *Document) Upload(ctx context.Context, ownerID uuid.UUID, fileName, contentType string, size int64, reader io.Reader) (model.Document, error) {
	key := fmt.Sprintf("documents/%s/%s_%s", ownerID, uuid.New(), fileName)

	if err := d.storage.Upload(ctx, key, reader, size, contentType); err != nil {
		return model.Document{}, fmt.Errorf("failed to store document bytes: %w", err)
	}

	doc := model.Document{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		FileName:    fileName,
		ObjectKey:   key,
		ContentType: contentType,
		Size:        size,
	}

	saved, err := d.docs.Create(ctx, doc)
	if err != nil {
		// Metadata insert failed; the orphaned object is removed so storage
		// and metadata stay consistent.
		if delErr := d.storage.Delete(ctx, key); delErr != nil {
			d.logger.Error("Document service: failed to clean up orphaned object",
				"key", key,
				"error", delErr.Error())
		}
		return model.Document{}, fmt.Errorf("failed to create document record: %w", err)
	}

	d.logger.Info("Document service: document uploaded",
		"owner_id", ownerID,
		"document_id", saved.ID,
		"size", size)
	return saved, nil
}

// List returns the caller's documents.
func (d *Document) List(ctx context.Context, ownerID uuid.UUID) ([]model.Document, error) {
	docs, err := d.docs.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Get returns the document metadata plus a presigned download URL. Foreign
// documents are reported as not found.
func (d *Document) Get(ctx context.Context, ownerID, docID uuid.UUID) (model.Document, string, error) {
	doc, err := d.getOwned(ctx, ownerID, docID)
	if err != nil {
		return model.Document{}, "", err
	}

	url, err := d.storage.PresignedURL(ctx, doc.ObjectKey, presignExpiry)
	if err != nil {
		return model.Document{}, "", fmt.Errorf("failed to presign document url: %w", err)
	}

	return doc, url, nil
}

// Open returns the document metadata and a reader over its bytes. The caller
// closes the reader.
func (d *Document) Open(ctx context.Context, ownerID, docID uuid.UUID) (model.Document, io.ReadCloser, error) {
	doc, err := d.getOwned(ctx, ownerID, docID)
	if err != nil {
		return model.Document{}, nil, err
	}

	reader, err := d.storage.Download(ctx, doc.ObjectKey)
	if err != nil {
		return model.Document{}, nil, fmt.Errorf("failed to read document bytes: %w", err)
	}
	return doc, reader, nil
}

// Delete removes the document bytes and metadata.
func (d *Document) Delete(ctx context.Context, ownerID, docID uuid.UUID) error {
	doc, err := d.getOwned(ctx, ownerID, docID)
	if err != nil {
		return err
	}

	if err := d.storage.Delete(ctx, doc.ObjectKey); err != nil {
		return fmt.Errorf("failed to delete document bytes: %w", err)
	}
	if err := d.docs.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document record: %w", err)
	}

	d.logger.Info("Document service: document deleted",
		"owner_id", ownerID,
		"document_id", docID)
	return nil
}

func (d *Document) getOwned(ctx context.Context, ownerID, docID uuid.UUID) (model.Document, error) {
	doc, err := d.docs.GetByID(ctx, docID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Document{}, model.ErrNotFound
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to get document: %w", err)
	}
	if doc.OwnerID != ownerID {
		return model.Document{}, model.ErrNotFound
	}
	return doc, nil
}
