package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/xeipuuv/gojsonschema"

	"github.com/complyhq/comply"
	"github.com/complyhq/comply/proxyd/internal/machinery"
	"github.com/complyhq/comply/proxyd/internal/sessions"
)

var loginSchemaLoader = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["provider", "id_token"],
	"properties": {
		"provider": { "type": "string", "enum": ["google"] },
		"id_token": { "type": "string", "minLength": 1 }
	},
	"additionalProperties": false
}`)

type sessionsEndpoints struct {
	*machinery.BaseEndpoints
	service sessions.Service
}

func NewSessionsEndpoints(
	baseEndpoints *machinery.BaseEndpoints,
	service sessions.Service,
) machinery.Endpoints {
	return &sessionsEndpoints{
		BaseEndpoints: baseEndpoints,
		service:       service,
	}
}

func (s *sessionsEndpoints) Register(router *mux.Router) {
	// Login
	router.HandleFunc(
		"/auth/login",
		s.login, // No filters applied to this request
	).Methods(http.MethodPost)

	// Refresh token
	router.HandleFunc(
		"/auth/refresh",
		s.TokenAuthFilter.Decorate(s.refresh),
	).Methods(http.MethodPost)
}

func (s *sessionsEndpoints) login(w http.ResponseWriter, r *http.Request) {
	login := struct {
		Provider string `json:"provider"`
		IDToken  string `json:"id_token"`
	}{}
	s.ServeRequest(
		machinery.InboundRequest{
			W:                   w,
			R:                   r,
			ReqBodySchemaLoader: loginSchemaLoader,
			ReqBodyObj:          &login,
			EndpointLogic: func() (interface{}, error) {
				token, user, err := s.service.Create(r.Context(), login.IDToken)
				if err != nil {
					return nil, err
				}
				return struct {
					Token string             `json:"token"`
					User  comply.UserProfile `json:"user"`
				}{
					Token: token,
					User:  user,
				}, nil
			},
			SuccessCode: http.StatusOK,
		},
	)
}

func (s *sessionsEndpoints) refresh(w http.ResponseWriter, r *http.Request) {
	s.ServeRequest(
		machinery.InboundRequest{
			W: w,
			R: r,
			EndpointLogic: func() (interface{}, error) {
				// The filter already admitted this token; it just isn't
				// carried through the context, so pull it off the header
				// again.
				headerValueParts := strings.SplitN(
					r.Header.Get("Authorization"),
					" ",
					2,
				)
				token, err := s.service.Refresh(
					r.Context(),
					headerValueParts[1],
				)
				if err != nil {
					return nil, err
				}
				return struct {
					Token string `json:"token"`
				}{
					Token: token,
				}, nil
			},
			SuccessCode: http.StatusOK,
		},
	)
}
