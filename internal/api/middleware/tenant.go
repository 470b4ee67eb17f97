package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/tenant"
)

const tenantHeader = "X-Tenant-ID"

// Tenant requires a well-formed X-Tenant-ID header and stores the id in
// the request context.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(tenantHeader)
		if raw == "" {
			writeError(w, http.StatusBadRequest, tenantHeader+" header required")
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tenant id")
			return
		}

		next.ServeHTTP(w, r.WithContext(tenant.WithID(r.Context(), id)))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
