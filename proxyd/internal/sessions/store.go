package sessions

import (
	"context"
	"time"
)

type Store interface {
	Create(context.Context, Session) error
	GetByHashedToken(context.Context, string) (Session, error)
	// Refresh replaces a session's hashed token and pushes its expiry out.
	Refresh(
		ctx context.Context,
		sessionID string,
		newHashedToken string,
		expires time.Time,
	) error
	Delete(context.Context, string) error

	CheckHealth(context.Context) error
}
