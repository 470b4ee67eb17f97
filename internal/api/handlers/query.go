package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/cache"
	"github.com/docsage/docsage/internal/rag"
	"github.com/docsage/docsage/internal/tenant"
)

type QueryHandler struct {
	answerer *rag.Answerer
	cache    *cache.Cache // nil disables answer caching
	cacheTTL time.Duration
}

func NewQueryHandler(answerer *rag.Answerer, c *cache.Cache, cacheTTL time.Duration) *QueryHandler {
	return &QueryHandler{answerer: answerer, cache: c, cacheTTL: cacheTTL}
}

type queryRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.IDFromContext(r.Context())

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query required"})
		return
	}

	documentIDs := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document id: " + raw})
			return
		}
		documentIDs = append(documentIDs, id)
	}

	key := h.cacheKey(tenantID, req.Query, documentIDs)
	if h.cache != nil {
		var cached rag.Answer
		if err := h.cache.Get(r.Context(), key, &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	answer, err := h.answerer.Answer(r.Context(), tenantID, req.Query, documentIDs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(r.Context(), key, answer, h.cacheTTL); err != nil {
			slog.Warn("cache answer", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, answer)
}

func (h *QueryHandler) cacheKey(tenantID uuid.UUID, query string, documentIDs []uuid.UUID) string {
	ids := make([]string, len(documentIDs))
	for i, id := range documentIDs {
		ids[i] = id.String()
	}
	sort.Strings(ids)

	sum := sha256.Sum256([]byte(tenantID.String() + "\x00" + query + "\x00" + strings.Join(ids, ",")))
	return "query:" + hex.EncodeToString(sum[:])
}
