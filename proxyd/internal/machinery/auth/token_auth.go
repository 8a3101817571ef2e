package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/complyhq/comply"
	"github.com/complyhq/comply/proxyd/internal/sessions"
)

type FindSessionFn func(
	ctx context.Context,
	token string,
) (sessions.Session, error)

type FindUserFn func(
	ctx context.Context,
	id string,
) (comply.UserProfile, error)

type tokenAuthFilter struct {
	findSession FindSessionFn
	findUser    FindUserFn
}

func NewTokenAuthFilter(
	findSession FindSessionFn,
	findUser FindUserFn,
) Filter {
	return &tokenAuthFilter{
		findSession: findSession,
		findUser:    findUser,
	}
}

func (t *tokenAuthFilter) Decorate(handle http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		headerValue := r.Header.Get("Authorization")
		if headerValue == "" {
			t.writeResponse(
				w,
				http.StatusUnauthorized,
				comply.NewErrSessionExpired(
					`"Authorization" header is missing.`,
				),
			)
			return
		}
		headerValueParts := strings.SplitN(headerValue, " ", 2)
		if len(headerValueParts) != 2 || headerValueParts[0] != "Bearer" {
			t.writeResponse(
				w,
				http.StatusUnauthorized,
				comply.NewErrSessionExpired(
					`"Authorization" header is malformed.`,
				),
			)
			return
		}
		token := headerValueParts[1]

		session, err := t.findSession(r.Context(), token)
		if err != nil {
			if _, ok := errors.Cause(err).(*comply.ErrNotFound); ok {
				t.writeResponse(
					w,
					http.StatusUnauthorized,
					comply.NewErrSessionExpired(
						"Session not found. Please log in again.",
					),
				)
				return
			}
			log.Println(err)
			t.writeResponse(
				w,
				http.StatusInternalServerError,
				comply.NewErrInternalServer(),
			)
			return
		}
		if session.Expired() {
			t.writeResponse(
				w,
				http.StatusUnauthorized,
				comply.NewErrSessionExpired(
					"Supplied token has expired. Please log in again.",
				),
			)
			return
		}
		user, err := t.findUser(r.Context(), session.UserID)
		if err != nil {
			log.Println(err)
			// There should never be an authenticated session for a user that
			// doesn't exist.
			t.writeResponse(
				w,
				http.StatusInternalServerError,
				comply.NewErrInternalServer(),
			)
			return
		}

		// Success! Add the user and the session ID to the context.
		ctx := ContextWithPrincipal(r.Context(), user)
		ctx = ContextWithSessionID(ctx, session.ID)
		handle(w, r.WithContext(ctx))
	}
}

func (t *tokenAuthFilter) writeResponse(
	w http.ResponseWriter,
	statusCode int,
	response interface{},
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	responseBody, err := json.Marshal(response)
	if err != nil {
		log.Println(errors.Wrap(err, "error marshaling response body"))
	}
	if _, err := w.Write(responseBody); err != nil {
		log.Println(errors.Wrap(err, "error writing response body"))
	}
}
