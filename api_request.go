package comply

// OutboundRequest captures everything needed to dispatch one request to the
// proxy and decode its response.
type OutboundRequest struct {
	Method      string
	Path        string
	QueryParams map[string]string
	AuthHeaders map[string]string
	// Headers are caller-supplied and take precedence over defaults such as
	// Content-Type. The Authorization header is always applied last from
	// AuthHeaders and cannot be overridden by callers.
	Headers     map[string]string
	ReqBodyObj  interface{}
	SuccessCode int
	RespObj     interface{}
}
