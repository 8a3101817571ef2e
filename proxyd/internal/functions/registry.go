package functions

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/complyhq/comply"
)

// Handler is the logic behind a single named function. Handlers can trust
// that params already passed schema validation and that the caller already
// cleared the RBAC gate.
type Handler func(
	ctx context.Context,
	caller comply.UserProfile,
	params map[string]interface{},
) (map[string]interface{}, error)

type entry struct {
	schemaLoader gojsonschema.JSONLoader
	handler      Handler
}

// Registry dispatches function invocations. It is the authoritative
// counterpart of the client's advisory gates: every invocation is checked
// against the same role rules before any handler runs.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]entry{}}
}

// Register adds a named function. paramsSchema, when non-empty, is a JSON
// schema the invocation params must satisfy.
func (r *Registry) Register(name, paramsSchema string, handler Handler) {
	e := entry{handler: handler}
	if paramsSchema != "" {
		e.schemaLoader = gojsonschema.NewStringLoader(paramsSchema)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = e
}

func (r *Registry) Invoke(
	ctx context.Context,
	caller comply.UserProfile,
	name string,
	params map[string]interface{},
) (map[string]interface{}, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, comply.NewErrNotFound("Function", name)
	}

	role := comply.ParseRole(caller.RoleName, caller.RoleID)
	if !comply.RoleCanInvoke(role, name) {
		return nil, comply.NewErrPermissionDenied(
			string(role),
			name,
			"You do not have permission to perform this action",
		)
	}

	if e.schemaLoader != nil {
		if params == nil {
			params = map[string]interface{}{}
		}
		paramsBytes, err := json.Marshal(params)
		if err != nil {
			return nil, errors.Wrap(err, "error marshaling params")
		}
		validationResult, err := gojsonschema.Validate(
			e.schemaLoader,
			gojsonschema.NewBytesLoader(paramsBytes),
		)
		if err != nil {
			return nil, errors.Wrapf(
				err,
				"error validating params for function %q",
				name,
			)
		}
		if !validationResult.Valid() {
			verrStrs := make([]string, len(validationResult.Errors()))
			for i, verr := range validationResult.Errors() {
				verrStrs[i] = verr.String()
			}
			return nil, comply.NewErrBadRequest(
				"Function params failed JSON validation",
				verrStrs...,
			)
		}
	}

	return e.handler(ctx, caller, params)
}
