// Package tenant carries the caller's tenant identity through request
// contexts. Tenants are opaque UUIDs; there is no tenant registry.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const tenantKey contextKey = "tenant"

func WithID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey, id)
}

// IDFromContext returns the tenant id set by the middleware, or uuid.Nil
// when the request never passed through it.
func IDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(tenantKey).(uuid.UUID)
	return id
}
