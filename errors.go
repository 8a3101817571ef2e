package comply

import (
	"fmt"
	"strings"
)

// PermissionDeniedCode is the application-level error code the proxy uses to
// signal an RBAC denial, whether it arrives as an HTTP 403 or inside the body
// of an otherwise successful function invocation.
const PermissionDeniedCode = "RBAC_PERMISSION_DENIED"

type ErrSessionExpired struct {
	TypeMeta `json:",inline"`
	Reason   string `json:"reason"`
}

func NewErrSessionExpired(reason string) *ErrSessionExpired {
	return &ErrSessionExpired{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion,
			Kind:       "SessionExpiredError",
		},
		Reason: reason,
	}
}

func (e *ErrSessionExpired) Error() string {
	if e.Reason == "" {
		return "Authentication expired. Please sign in again."
	}
	return fmt.Sprintf("Authentication expired: %s", e.Reason)
}

// ErrPermissionDenied is the single normalized shape for all RBAC denials,
// regardless of whether the denial arrived as an HTTP 403 or as an
// application-level error in a 200 response.
type ErrPermissionDenied struct {
	TypeMeta `json:",inline"`
	// Code is always PermissionDeniedCode. It is carried as a field rather
	// than derived so the wire shape matches what the proxy emits.
	Code string `json:"code"`
	// Role is the role the denial was evaluated against. When the server
	// omits it, the client backfills its locally-known role.
	Role string `json:"role,omitempty"`
	// FunctionName names the denied proxy function, if the denial arose from
	// a function invocation.
	FunctionName string `json:"functionName,omitempty"`
	Reason       string `json:"message,omitempty"`
}

func NewErrPermissionDenied(
	role string,
	functionName string,
	reason string,
) *ErrPermissionDenied {
	return &ErrPermissionDenied{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion,
			Kind:       "PermissionDeniedError",
		},
		Code:         PermissionDeniedCode,
		Role:         role,
		FunctionName: functionName,
		Reason:       reason,
	}
}

func (e *ErrPermissionDenied) Error() string {
	msg := fmt.Sprintf("Permission denied for role %q", e.Role)
	if e.FunctionName != "" {
		msg = fmt.Sprintf("%s invoking function %q", msg, e.FunctionName)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return fmt.Sprintf(
		"%s. Contact an administrator if you believe you require access.",
		msg,
	)
}

type ErrBadRequest struct {
	TypeMeta `json:",inline"`
	Reason   string   `json:"reason"`
	Details  []string `json:"details,omitempty"`
}

func NewErrBadRequest(reason string, details ...string) *ErrBadRequest {
	return &ErrBadRequest{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion,
			Kind:       "BadRequestError",
		},
		Reason:  reason,
		Details: details,
	}
}

func (e *ErrBadRequest) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("Bad request: %s", e.Reason)
	}
	msg := fmt.Sprintf("Bad request: %s:", e.Reason)
	for i, detail := range e.Details {
		msg = fmt.Sprintf("%s\n  %d. %s", msg, i, detail)
	}
	return msg
}

type ErrNotFound struct {
	TypeMeta `json:",inline"`
	Type     string `json:"type"`
	ID       string `json:"id"`
}

func NewErrNotFound(tipe, id string) *ErrNotFound {
	return &ErrNotFound{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion,
			Kind:       "NotFoundError",
		},
		Type: tipe,
		ID:   id,
	}
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found.", e.Type, e.ID)
}

type ErrInternalServer struct {
	TypeMeta `json:",inline"`
}

func NewErrInternalServer() *ErrInternalServer {
	return &ErrInternalServer{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion,
			Kind:       "InternalServerError",
		},
	}
}

func (e *ErrInternalServer) Error() string {
	return "An internal server error occurred."
}

type ErrNotSupported struct {
	TypeMeta `json:",inline"`
	Details  string `json:"reason"`
}

func NewErrNotSupported(details string) *ErrNotSupported {
	return &ErrNotSupported{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion,
			Kind:       "NotSupportedError",
		},
		Details: details,
	}
}

func (e *ErrNotSupported) Error() string {
	return e.Details
}

// IsSessionExpiredError classifies an error as a definite session-expiry
// signal without a network round trip. It recognizes the structured type as
// well as the messages that authenticated endpoints commonly produce for dead
// sessions.
func IsSessionExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*ErrSessionExpired); ok {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{
		"expired",
		"unauthorized",
		"401",
	} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
