package sessions

import (
	"context"
	"time"

	oidc "github.com/coreos/go-oidc"
	"github.com/pkg/errors"

	"github.com/complyhq/comply"
	"github.com/complyhq/comply/internal/crypto"
	"github.com/complyhq/comply/proxyd/internal/users"
)

type Service interface {
	// Create exchanges an identity token for a new session, returning the
	// bearer token and the profile of the user it belongs to.
	Create(
		ctx context.Context,
		idToken string,
	) (string, comply.UserProfile, error)
	GetByToken(ctx context.Context, token string) (Session, error)
	// Refresh replaces a session's bearer token and extends its TTL,
	// returning the new token.
	Refresh(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	CheckHealth(ctx context.Context) error
}

type service struct {
	store         Store
	usersStore    users.Store
	tokenVerifier *oidc.IDTokenVerifier
	sessionTTL    time.Duration
}

// NewService returns the session service. A nil tokenVerifier selects
// development mode, in which the identity token is taken verbatim as the
// user's email address instead of being cryptographically verified.
func NewService(
	store Store,
	usersStore users.Store,
	tokenVerifier *oidc.IDTokenVerifier,
	sessionTTL time.Duration,
) Service {
	return &service{
		store:         store,
		usersStore:    usersStore,
		tokenVerifier: tokenVerifier,
		sessionTTL:    sessionTTL,
	}
}

func (s *service) Create(
	ctx context.Context,
	idToken string,
) (string, comply.UserProfile, error) {
	email, err := s.resolveEmail(ctx, idToken)
	if err != nil {
		return "", comply.UserProfile{}, err
	}
	user, err := s.usersStore.GetByEmail(ctx, email)
	if err != nil {
		if _, ok := errors.Cause(err).(*comply.ErrNotFound); ok {
			return "", comply.UserProfile{}, comply.NewErrSessionExpired(
				"No back-office user corresponds to the supplied identity.",
			)
		}
		return "", comply.UserProfile{}, errors.Wrapf(
			err,
			"error looking up user %q",
			email,
		)
	}
	token := crypto.NewToken(256)
	session := NewSession(
		user.ID,
		email,
		crypto.ShortSHA("", token),
		s.sessionTTL,
	)
	if err := s.store.Create(ctx, session); err != nil {
		return "", comply.UserProfile{}, errors.Wrapf(
			err,
			"error storing new session %q",
			session.ID,
		)
	}
	return token, user, nil
}

func (s *service) GetByToken(
	ctx context.Context,
	token string,
) (Session, error) {
	session, err := s.store.GetByHashedToken(ctx, crypto.ShortSHA("", token))
	if err != nil {
		return session, errors.Wrap(
			err,
			"error retrieving session from store by hashed token",
		)
	}
	return session, nil
}

func (s *service) Refresh(ctx context.Context, token string) (string, error) {
	session, err := s.GetByToken(ctx, token)
	if err != nil {
		return "", err
	}
	if session.Expired() {
		return "", comply.NewErrSessionExpired(
			"Supplied token has expired. Please log in again.",
		)
	}
	newToken := crypto.NewToken(256)
	if err := s.store.Refresh(
		ctx,
		session.ID,
		crypto.ShortSHA("", newToken),
		time.Now().Add(s.sessionTTL),
	); err != nil {
		return "", errors.Wrapf(err, "error refreshing session %q", session.ID)
	}
	return newToken, nil
}

func (s *service) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return errors.Wrapf(err, "error deleting session %q", sessionID)
	}
	return nil
}

func (s *service) CheckHealth(ctx context.Context) error {
	return s.store.CheckHealth(ctx)
}

func (s *service) resolveEmail(
	ctx context.Context,
	idToken string,
) (string, error) {
	if s.tokenVerifier == nil {
		// Development mode: the "identity token" is just the email address.
		return idToken, nil
	}
	verified, err := s.tokenVerifier.Verify(ctx, idToken)
	if err != nil {
		return "", comply.NewErrSessionExpired(
			"Could not verify the supplied identity token.",
		)
	}
	claims := struct {
		Email string `json:"email"`
	}{}
	if err := verified.Claims(&claims); err != nil {
		return "", errors.Wrap(err, "error extracting identity token claims")
	}
	if claims.Email == "" {
		return "", comply.NewErrSessionExpired(
			"The supplied identity token carries no email claim.",
		)
	}
	return claims.Email, nil
}
