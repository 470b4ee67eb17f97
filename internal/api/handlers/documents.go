package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/document"
	"github.com/docsage/docsage/internal/ingest"
	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/internal/storage"
	"github.com/docsage/docsage/internal/tenant"
)

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

type DocumentHandler struct {
	docs        *document.Service
	store       storage.Storage
	coordinator *ingest.Coordinator
	maxFileSize int64
}

func NewDocumentHandler(docs *document.Service, store storage.Storage, coordinator *ingest.Coordinator, maxFileSize int64) *DocumentHandler {
	return &DocumentHandler{docs: docs, store: store, coordinator: coordinator, maxFileSize: maxFileSize}
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.IDFromContext(r.Context())

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("file exceeds %d bytes", h.maxFileSize),
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if !allowedMimeTypes[mimeType] {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{
			"error": "unsupported file type: " + mimeType,
		})
		return
	}

	doc := &models.Document{
		ID:           uuid.New(),
		OwnerID:      tenantID,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		SizeBytes:    header.Size,
	}

	storedName := doc.ID.String() + filepath.Ext(header.Filename)
	path, err := h.store.Save(r.Context(), filepath.Join(tenantID.String(), storedName), file)
	if err != nil {
		slog.Error("save upload", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store file"})
		return
	}
	doc.FilePath = path

	if err := h.docs.Create(r.Context(), doc); err != nil {
		h.store.Delete(r.Context(), path)
		slog.Error("create document", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create document"})
		return
	}

	// Enqueue failure leaves the record pending; the reprocess endpoint
	// picks it up later.
	if err := h.coordinator.Submit(doc.ID, tenantID); err != nil {
		slog.Error("submit document", "document_id", doc.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.IDFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := h.docs.List(r.Context(), tenantID, document.ListFilter{
		Status: r.URL.Query().Get("status"),
		Kind:   r.URL.Query().Get("type"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Status(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	resp := map[string]interface{}{"id": doc.ID.String(), "status": doc.Status}
	if doc.ProcessedAt != nil {
		resp["processed_at"] = doc.ProcessedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), doc.FilePath); err != nil {
		slog.Warn("delete stored file", "document_id", doc.ID, "error", err)
	}
	if err := h.coordinator.RemoveFromIndex(r.Context(), doc.OwnerID, doc.ID); err != nil {
		slog.Warn("remove from index", "document_id", doc.ID, "error", err)
	}

	if err := h.docs.Delete(r.Context(), doc.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Reprocess runs a fresh processing cycle for a document in any
// non-processing state.
func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	if doc.Status == models.DocStatusProcessing {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "document is already processing"})
		return
	}

	if err := h.coordinator.Submit(doc.ID, doc.OwnerID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": doc.ID.String(), "status": "queued"})
}

// Reindex rebuilds the chunk index from the stored body without
// re-running extraction or classification.
func (h *DocumentHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}

	if doc.Status != models.DocStatusCompleted {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only completed documents can be reindexed"})
		return
	}

	if err := h.coordinator.SubmitReindex(doc.ID, doc.OwnerID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"id": doc.ID.String(), "status": "queued"})
}

// ownedDocument loads the path id and scopes it to the request tenant.
// Foreign documents read as not found.
func (h *DocumentHandler) ownedDocument(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document ID"})
		return nil, false
	}

	doc, err := h.docs.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return nil, false
	}

	if doc.OwnerID != tenant.IDFromContext(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "document not found"})
		return nil, false
	}

	return doc, true
}
