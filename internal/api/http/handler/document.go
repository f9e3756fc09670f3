package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/propsight/propsight-server/internal/api/http/middleware"
	"github.com/propsight/propsight-server/internal/logger"
	"github.com/propsight/propsight-server/internal/model"
)

// maxUploadBytes caps a single document upload at 50 MiB.
const maxUploadBytes = 50 << 20

// DocumentService defines the document operations the endpoints need.
type DocumentService interface {
	Upload(ctx context.Context, ownerID uuid.UUID, fileName, contentType string, size int64, reader io.Reader) (model.Document, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Document, error)
	Get(ctx context.Context, ownerID, docID uuid.UUID) (model.Document, string, error)
	Open(ctx context.Context, ownerID, docID uuid.UUID) (model.Document, io.ReadCloser, error)
	Delete(ctx context.Context, ownerID, docID uuid.UUID) error
}

// Document handles the property-document endpoints.
type Document struct {
	documents DocumentService
	logger    *logger.Logger
}

// NewDocument creates a Document handler.
func NewDocument(documents DocumentService, logger *logger.Logger) *Document {
	return &Document{documents: documents, logger: logger}
}

type documentResponse struct {
	ID          uuid.UUID `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	DownloadURL string    `json:"download_url,omitempty"`
}

func toDocumentResponse(doc model.Document, url string) documentResponse {
	return documentResponse{
		ID:          doc.ID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Size:        doc.Size,
		CreatedAt:   doc.CreatedAt,
		DownloadURL: url,
	}
}

// Upload accepts a multipart form with a single "file" part.
func (h *Document) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part missing or too large")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.documents.Upload(r.Context(), userID, header.Filename, contentType, header.Size, file)
	if err != nil {
		h.logger.Error("Document handler: upload failed",
			"user_id", userID,
			"file_name", header.Filename,
			"error", err.Error())
		handleError(w, err)
		return
	}

	writeResult(w, http.StatusCreated, toDocumentResponse(doc, ""))
}

// List returns the caller's documents.
func (h *Document) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	docs, err := h.documents.List(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc, ""))
	}
	writeResult(w, http.StatusOK, out)
}

// Get returns document metadata plus a time-limited download URL.
func (h *Document) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, url, err := h.documents.Get(r.Context(), userID, docID)
	if err != nil {
		handleError(w, err)
		return
	}

	writeResult(w, http.StatusOK, toDocumentResponse(doc, url))
}

// Content streams the document bytes.
func (h *Document) Content(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	doc, reader, err := h.documents.Open(r.Context(), userID, docID)
	if err != nil {
		handleError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error("Document handler: streaming failed",
			"document_id", docID,
			"error", err.Error())
	}
}

// Delete removes a document.
func (h *Document) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.documents.Delete(r.Context(), userID, docID); err != nil {
		handleError(w, err)
		return
	}

	writeResult(w, http.StatusOK, map[string]string{"message": "document deleted"})
}
