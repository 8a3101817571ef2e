package users

import (
	"context"

	"github.com/complyhq/comply"
)

// Store is the user directory the proxy resolves identities against. The
// production system keeps this in the back office's own database; the
// development stand-in seeds it from a file or built-in defaults.
type Store interface {
	Get(ctx context.Context, id string) (comply.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (comply.UserProfile, error)
	List(ctx context.Context) ([]comply.UserProfile, error)
	Delete(ctx context.Context, id string) error
}
