package api

import (
	"context"
	"time"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type viewerKey struct{}

// WithViewer returns a copy of ctx carrying the authenticated viewer
func WithViewer(ctx context.Context, v models.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFrom returns the authenticated viewer stored by the middleware
func ViewerFrom(ctx context.Context) (models.Viewer, bool) {
	v, ok := ctx.Value(viewerKey{}).(models.Viewer)
	return v, ok
}
