package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/complyhq/comply"
	"github.com/complyhq/comply/proxyd/internal/functions"
	"github.com/complyhq/comply/proxyd/internal/machinery"
	"github.com/complyhq/comply/proxyd/internal/machinery/auth"
	"github.com/complyhq/comply/proxyd/internal/sessions"
)

var functionCallSchemaLoader = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["function"],
	"properties": {
		"function": { "type": "string", "minLength": 1 },
		"params": { "type": "object" }
	},
	"additionalProperties": false
}`)

type proxyEndpoints struct {
	*machinery.BaseEndpoints
	service  sessions.Service
	registry *functions.Registry
}

func NewProxyEndpoints(
	baseEndpoints *machinery.BaseEndpoints,
	service sessions.Service,
	registry *functions.Registry,
) machinery.Endpoints {
	return &proxyEndpoints{
		BaseEndpoints: baseEndpoints,
		service:       service,
		registry:      registry,
	}
}

func (p *proxyEndpoints) Register(router *mux.Router) {
	// Authenticated health probe
	router.HandleFunc(
		"/proxy/health",
		p.TokenAuthFilter.Decorate(p.health),
	).Methods(http.MethodPost)

	// Function invocation
	router.HandleFunc(
		"/proxy/function",
		p.TokenAuthFilter.Decorate(p.callFunction),
	).Methods(http.MethodPost)
}

func (p *proxyEndpoints) health(w http.ResponseWriter, r *http.Request) {
	p.ServeRequest(
		machinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				status := "healthy"
				if err := p.service.CheckHealth(r.Context()); err != nil {
					status = "unhealthy"
				}
				// Reaching this point at all means the caller's token was
				// admitted by the filter.
				return struct {
					Status        string `json:"status"`
					Authenticated bool   `json:"authenticated"`
				}{
					Status:        status,
					Authenticated: true,
				}, nil
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (p *proxyEndpoints) callFunction(w http.ResponseWriter, r *http.Request) {
	call := struct {
		Function string                 `json:"function"`
		Params   map[string]interface{} `json:"params"`
	}{}
	p.ServeRequest(
		machinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: functionCallSchemaLoader,
			ReqBodyObj:          &call,
			EndpointLogic: func() (interface{}, error) {
				principal, ok := auth.PrincipalFromContext(r.Context())
				if !ok {
					return nil, errors.New(
						"error: function call request authenticated, but no " +
							"principal found in request context",
					)
				}
				result, err := p.registry.Invoke(
					r.Context(),
					principal,
					call.Function,
					call.Params,
				)
				// The production proxy surfaces RBAC denials inside a 200
				// response rather than as an HTTP 403, and clients depend on
				// that shape.
				if denied, ok :=
					errors.Cause(err).(*comply.ErrPermissionDenied); ok {
					return denied, nil
				}
				if err != nil {
					return nil, err
				}
				return result, nil
			},
			SuccessCode: http.StatusOK,
		},
	)
}
