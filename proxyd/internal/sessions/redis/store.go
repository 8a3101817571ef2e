package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/complyhq/comply"
	"github.com/complyhq/comply/proxyd/internal/sessions"
)

// store keeps sessions in Redis, leaning on key TTLs for expiry instead of
// checking timestamps at read time.
type store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) sessions.Store {
	return &store{client: client}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("sessions:id:%s", sessionID)
}

func tokenKey(hashedToken string) string {
	return fmt.Sprintf("sessions:token:%s", hashedToken)
}

func (s *store) Create(_ context.Context, session sessions.Session) error {
	now := time.Now()
	session.Created = &now
	var ttl time.Duration
	if session.Expires != nil {
		ttl = time.Until(*session.Expires)
	}
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return errors.Wrapf(err, "error marshaling session %q", session.ID)
	}
	if err := s.client.Set(
		sessionKey(session.ID),
		sessionBytes,
		ttl,
	).Err(); err != nil {
		return errors.Wrapf(err, "error storing session %q", session.ID)
	}
	if err := s.client.Set(
		tokenKey(session.HashedToken),
		session.ID,
		ttl,
	).Err(); err != nil {
		return errors.Wrapf(
			err,
			"error storing token index for session %q",
			session.ID,
		)
	}
	return nil
}

func (s *store) GetByHashedToken(
	ctx context.Context,
	hashedToken string,
) (sessions.Session, error) {
	session := sessions.Session{}
	sessionID, err := s.client.Get(tokenKey(hashedToken)).Result()
	if err == redis.Nil {
		return session, comply.NewErrNotFound("Session", "")
	}
	if err != nil {
		return session, errors.Wrap(
			err,
			"error finding session by hashed token",
		)
	}
	return s.get(ctx, sessionID)
}

func (s *store) Refresh(
	ctx context.Context,
	sessionID string,
	newHashedToken string,
	expires time.Time,
) error {
	session, err := s.get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(tokenKey(session.HashedToken)).Err(); err != nil {
		return errors.Wrapf(
			err,
			"error clearing old token index for session %q",
			sessionID,
		)
	}
	session.HashedToken = newHashedToken
	session.Expires = &expires
	sessionBytes, err := json.Marshal(session)
	if err != nil {
		return errors.Wrapf(err, "error marshaling session %q", sessionID)
	}
	ttl := time.Until(expires)
	if err := s.client.Set(
		sessionKey(sessionID),
		sessionBytes,
		ttl,
	).Err(); err != nil {
		return errors.Wrapf(err, "error storing session %q", sessionID)
	}
	if err := s.client.Set(
		tokenKey(newHashedToken),
		sessionID,
		ttl,
	).Err(); err != nil {
		return errors.Wrapf(
			err,
			"error storing token index for session %q",
			sessionID,
		)
	}
	return nil
}

func (s *store) Delete(_ context.Context, sessionID string) error {
	sessionJSON, err := s.client.Get(sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return comply.NewErrNotFound("Session", sessionID)
	}
	if err != nil {
		return errors.Wrapf(err, "error finding session %q", sessionID)
	}
	session := sessions.Session{}
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return errors.Wrapf(err, "error parsing session %q", sessionID)
	}
	if err := s.client.Del(
		sessionKey(sessionID),
		tokenKey(session.HashedToken),
	).Err(); err != nil {
		return errors.Wrapf(err, "error deleting session %q", sessionID)
	}
	return nil
}

func (s *store) CheckHealth(context.Context) error {
	if err := s.client.Ping().Err(); err != nil {
		return errors.Wrap(err, "error pinging redis")
	}
	return nil
}

func (s *store) get(
	_ context.Context,
	sessionID string,
) (sessions.Session, error) {
	session := sessions.Session{}
	sessionJSON, err := s.client.Get(sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return session, comply.NewErrNotFound("Session", sessionID)
	}
	if err != nil {
		return session, errors.Wrapf(err, "error finding session %q", sessionID)
	}
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return session, errors.Wrapf(err, "error parsing session %q", sessionID)
	}
	return session, nil
}
