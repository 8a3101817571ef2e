package sessions

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

// Session is a server-side record of an authenticated session. The bearer
// token itself is never stored; only its hash is.
type Session struct {
	ID          string     `json:"id" bson:"id"`
	UserID      string     `json:"userId" bson:"userId"`
	Email       string     `json:"email" bson:"email"`
	HashedToken string     `json:"-" bson:"hashedToken"`
	Created     *time.Time `json:"created,omitempty" bson:"created,omitempty"`
	Expires     *time.Time `json:"expires,omitempty" bson:"expires,omitempty"`
}

func NewSession(
	userID string,
	email string,
	hashedToken string,
	ttl time.Duration,
) Session {
	session := Session{
		ID:          uuid.NewV4().String(),
		UserID:      userID,
		Email:       email,
		HashedToken: hashedToken,
	}
	if ttl > 0 {
		expires := time.Now().Add(ttl)
		session.Expires = &expires
	}
	return session
}

// Expired indicates whether the session's TTL has elapsed. Sessions without
// an expiry never expire.
func (s Session) Expired() bool {
	return s.Expires != nil && time.Now().After(*s.Expires)
}
