package comply

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	defaultMonitorInterval = 5 * time.Minute
	defaultIdleTimeout     = 30 * time.Minute
)

// SessionResult is the raw result of a login exchange, returned to callers
// untouched so they can drive their own UI flow.
type SessionResult struct {
	Token string      `json:"token"`
	User  UserProfile `json:"user"`
}

// SessionAuthorityConfig carries the collaborators and tunables for a
// SessionAuthority. Zero values select sensible defaults.
type SessionAuthorityConfig struct {
	// ProxyAddress is the base address of the remote auth proxy.
	ProxyAddress string
	// HTTPClient, when nil, is replaced with a client honoring
	// AllowInsecure.
	HTTPClient    *http.Client
	AllowInsecure bool
	Persistent    PersistentStore
	Volatile      VolatileStore
	Notifier      NotificationSurface
	Navigator     Navigator
	// MonitorInterval is the period between liveness probes. Defaults to
	// five minutes.
	MonitorInterval time.Duration
	// MonitorJitter is the fraction of MonitorInterval by which each period
	// is randomly offset, in [0, 1).
	MonitorJitter float64
	// IdleTimeout is how long the session may go without an authenticated
	// call before it is torn down. Defaults to thirty minutes; a negative
	// value disables idle detection.
	IdleTimeout time.Duration
}

// SessionAuthority owns the authenticated session: credential storage, the
// login exchange, periodic liveness validation, idle detection, authenticated
// request dispatch, and the advisory capability checks other modules consult
// before rendering privileged controls.
//
// Lifecycle: construct, Restore, authenticated operations, then SignOut (or a
// system-initiated timeout). The token and the cached profile are only ever
// set and cleared together.
type SessionAuthority struct {
	*baseClient
	persistent      PersistentStore
	volatile        VolatileStore
	notifier        NotificationSurface
	navigator       Navigator
	monitorInterval time.Duration
	monitorJitter   float64
	idleTimeout     time.Duration

	mu            sync.Mutex
	token         string
	profile       *UserProfile
	lastActivity  time.Time
	timeoutWarned bool
	monitor       *MonitorHandle
}

func NewSessionAuthority(config SessionAuthorityConfig) *SessionAuthority {
	if config.Persistent == nil {
		config.Persistent = newEphemeralStore()
	}
	if config.Volatile == nil {
		config.Volatile = NewMemoryStore()
	}
	if config.Notifier == nil {
		config.Notifier = NewTerminalNotifier()
	}
	if config.Navigator == nil {
		config.Navigator = NewSignInPrompter("")
	}
	if config.MonitorInterval == 0 {
		config.MonitorInterval = defaultMonitorInterval
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = defaultIdleTimeout
	}
	return &SessionAuthority{
		baseClient: newBaseClient(
			config.ProxyAddress,
			config.HTTPClient,
			config.AllowInsecure,
		),
		persistent:      config.Persistent,
		volatile:        config.Volatile,
		notifier:        config.Notifier,
		navigator:       config.Navigator,
		monitorInterval: config.MonitorInterval,
		monitorJitter:   config.MonitorJitter,
		idleTimeout:     config.IdleTimeout,
	}
}

// Restore rehydrates the session from persistent storage. An incomplete
// profile triggers a best-effort, non-blocking enrichment lookup. When a
// token is found, it is validated once and monitoring begins; a validation
// failure here is not itself grounds for sign-out; only a definitive expiry
// signal is.
func (a *SessionAuthority) Restore(ctx context.Context) error {
	token, _, err := a.persistent.Get(TokenKey)
	if err != nil {
		return errors.Wrap(err, "error reading stored session token")
	}
	profileJSON, _, err := a.persistent.Get(UserInfoKey)
	if err != nil {
		return errors.Wrap(err, "error reading stored user profile")
	}

	var profile *UserProfile
	if profileJSON != "" {
		p := UserProfile{}
		if err := json.Unmarshal([]byte(profileJSON), &p); err != nil {
			return errors.Wrap(err, "error parsing stored user profile")
		}
		profile = &p
	}

	// The token and profile are only valid as a pair. A half-persisted
	// session is discarded rather than restored.
	if (token == "") != (profile == nil) {
		a.persistent.Delete(TokenKey)    // nolint: errcheck
		a.persistent.Delete(UserInfoKey) // nolint: errcheck
		return nil
	}
	if token == "" {
		return nil
	}

	a.mu.Lock()
	a.token = token
	a.profile = profile
	a.lastActivity = time.Now()
	a.mu.Unlock()

	if profile.Incomplete() {
		go func() {
			if err := a.enrichProfile(context.Background()); err != nil {
				log.Println(
					errors.Wrap(err, "error enriching restored user profile"),
				)
			}
		}()
	}

	if !a.ValidateSession(ctx) {
		log.Println("restored session could not be confirmed valid")
	}
	if a.IsAuthenticated() {
		a.StartMonitoring()
	}
	return nil
}

// Login exchanges an identity-provider token for a session token and user
// profile, persists both, and starts monitoring. When the returned profile
// lacks a role name it is enriched before returning, since the role is needed
// immediately for first-render permission decisions. Failures are always
// returned to the caller, never absorbed.
func (a *SessionAuthority) Login(
	ctx context.Context,
	idToken string,
) (SessionResult, error) {
	result := SessionResult{}
	if idToken == "" {
		return result, NewErrBadRequest("identity token must not be empty")
	}
	err := a.executeRequest(
		ctx,
		OutboundRequest{
			Method: http.MethodPost,
			Path:   "auth/login",
			ReqBodyObj: struct {
				Provider string `json:"provider"`
				IDToken  string `json:"id_token"`
			}{
				Provider: "google",
				IDToken:  idToken,
			},
			SuccessCode: http.StatusOK,
			RespObj:     &result,
		},
	)
	if err != nil {
		return result, err
	}
	if err := a.persistSession(result.Token, result.User); err != nil {
		return result, err
	}
	if result.User.Incomplete() {
		// Enrichment failure isn't fatal to the login itself; role-dependent
		// decisions degrade to the Unknown Role sentinel until it succeeds.
		if err := a.enrichProfile(ctx); err != nil {
			log.Println(errors.Wrap(err, "error enriching user profile"))
		}
	}
	a.StartMonitoring()
	return result, nil
}

// ValidateSession sends a liveness probe for the current token. A 401 is
// definitive invalidity and triggers the full timeout flow. Anything else
// short of an affirmative healthy/authenticated response, including network
// failures, merely means the session could not be confirmed, which must not
// log the user out. Never returns an error.
func (a *SessionAuthority) ValidateSession(ctx context.Context) bool {
	token := a.currentToken()
	if token == "" {
		return false
	}
	resp, err := a.submitRequest(
		ctx,
		OutboundRequest{
			Method:      http.MethodPost,
			Path:        "proxy/health",
			AuthHeaders: a.bearerTokenAuthHeaders(token),
			ReqBodyObj:  struct{}{},
			SuccessCode: http.StatusOK,
		},
	)
	if err != nil {
		if _, ok := errors.Cause(err).(*ErrSessionExpired); ok {
			a.HandleSessionTimeout()
		}
		return false
	}
	defer resp.Body.Close()
	respBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return false
	}
	health := struct {
		Status        string `json:"status"`
		Authenticated bool   `json:"authenticated"`
	}{}
	if err := json.Unmarshal(respBodyBytes, &health); err != nil {
		return false
	}
	return health.Status == "healthy" || health.Authenticated
}

// RefreshToken exchanges the current session token for a fresh one. Only the
// token is persisted; the cached profile is untouched.
func (a *SessionAuthority) RefreshToken(ctx context.Context) error {
	token := a.currentToken()
	if token == "" {
		return errors.New("no session token; sign in first")
	}
	refreshed := struct {
		Token string `json:"token"`
	}{}
	err := a.executeRequest(
		ctx,
		OutboundRequest{
			Method:      http.MethodPost,
			Path:        "auth/refresh",
			AuthHeaders: a.bearerTokenAuthHeaders(token),
			SuccessCode: http.StatusOK,
			RespObj:     &refreshed,
		},
	)
	if err != nil {
		if _, ok := errors.Cause(err).(*ErrSessionExpired); ok {
			a.HandleSessionTimeout()
		}
		return err
	}
	if refreshed.Token == "" {
		return errors.New("proxy returned an empty refreshed token")
	}
	a.mu.Lock()
	a.token = refreshed.Token
	a.mu.Unlock()
	if err := a.persistent.Set(TokenKey, refreshed.Token); err != nil {
		return errors.Wrap(err, "error persisting refreshed session token")
	}
	return nil
}

// Do dispatches an authenticated request to the proxy on the caller's
// behalf. Caller-supplied headers take precedence over defaults, but the
// Authorization header always belongs to the session. A 401 triggers the
// timeout flow and the error is returned; callers must not retry. A 403 is
// returned as a structured permission denial carrying the locally-known role
// when the server omits one.
func (a *SessionAuthority) Do(
	ctx context.Context,
	req OutboundRequest,
) error {
	token := a.currentToken()
	if token == "" {
		return errors.New("no session token; sign in first")
	}
	req.AuthHeaders = a.bearerTokenAuthHeaders(token)
	if err := a.executeRequest(ctx, req); err != nil {
		switch e := errors.Cause(err).(type) {
		case *ErrSessionExpired:
			a.HandleSessionTimeout()
		case *ErrPermissionDenied:
			if e.Role == "" {
				e.Role = string(a.UserRole())
			}
		}
		return err
	}
	a.touch()
	return nil
}

// CallFunction invokes a named function on the proxy's RPC endpoint. A 401
// here performs a full sign-out rather than the warning flow, since function
// calls originate from deep inside privileged actions where a silent exit is
// acceptable. An RBAC denial surfaced inside a 200 body is normalized into
// the same structured shape as an HTTP 403, so callers handle both
// identically.
func (a *SessionAuthority) CallFunction(
	ctx context.Context,
	name string,
	params map[string]interface{},
) (map[string]interface{}, error) {
	return a.callFunction(ctx, name, params, "")
}

// CallFunctionWithToken is CallFunction with an explicit token, for the rare
// caller operating outside the ambient session.
func (a *SessionAuthority) CallFunctionWithToken(
	ctx context.Context,
	name string,
	params map[string]interface{},
	token string,
) (map[string]interface{}, error) {
	return a.callFunction(ctx, name, params, token)
}

func (a *SessionAuthority) callFunction(
	ctx context.Context,
	name string,
	params map[string]interface{},
	tokenOverride string,
) (map[string]interface{}, error) {
	token := tokenOverride
	if token == "" {
		token = a.currentToken()
	}
	if token == "" {
		return nil, errors.New("no session token; sign in first")
	}
	resp, err := a.submitRequest(
		ctx,
		OutboundRequest{
			Method:      http.MethodPost,
			Path:        "proxy/function",
			AuthHeaders: a.bearerTokenAuthHeaders(token),
			ReqBodyObj: struct {
				Function string                 `json:"function"`
				Params   map[string]interface{} `json:"params,omitempty"`
			}{
				Function: name,
				Params:   params,
			},
			SuccessCode: http.StatusOK,
		},
	)
	if err != nil {
		switch e := errors.Cause(err).(type) {
		case *ErrSessionExpired:
			if signOutErr := a.signOutOnce(); signOutErr != nil {
				log.Println(
					errors.Wrap(signOutErr, "error signing out after 401"),
				)
			}
		case *ErrPermissionDenied:
			e.FunctionName = name
			if e.Role == "" {
				e.Role = string(a.UserRole())
			}
		}
		return nil, err
	}
	defer resp.Body.Close()
	respBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "error reading response body")
	}
	result := map[string]interface{}{}
	if len(respBodyBytes) > 0 {
		if err := json.Unmarshal(respBodyBytes, &result); err != nil {
			return nil, errors.Wrap(err, "error unmarshaling response body")
		}
	}
	// The proxy can surface an RBAC denial inside an otherwise successful
	// response. Normalize it so transport-level and application-level
	// denials are indistinguishable to callers.
	if code, _ := result["code"].(string); code == PermissionDeniedCode {
		role, _ := result["role"].(string)
		if role == "" {
			role = string(a.UserRole())
		}
		reason, _ := result["error"].(string)
		if reason == "" {
			reason, _ = result["message"].(string)
		}
		return nil, NewErrPermissionDenied(role, name, reason)
	}
	if errMsg, _ := result["error"].(string); errMsg != "" {
		return nil, errors.Errorf("function %q failed: %s", name, errMsg)
	}
	a.touch()
	return result, nil
}

// SignOut is user-initiated termination: monitoring stops, the session is
// cleared from memory and storage, volatile storage is wiped in full, and
// the user is directed to the sign-in entry point with any tenant
// correlation parameter preserved. Teardown runs start to finish even when
// individual steps fail; the first failure is returned.
func (a *SessionAuthority) SignOut() error {
	a.StopMonitoring()
	params := a.signInParams(false)
	err := a.teardownStorage()
	a.navigator.NavigateToSignIn(params)
	return err
}

// signOutOnce tears the session down at most once per authenticated
// session. Concurrent unauthorized responses, such as a background
// enrichment racing a foreground call, collapse to a single navigation.
// The latch is shared with HandleSessionTimeout and resets on the next
// successful login.
func (a *SessionAuthority) signOutOnce() error {
	a.mu.Lock()
	if a.timeoutWarned {
		a.mu.Unlock()
		return nil
	}
	a.timeoutWarned = true
	a.mu.Unlock()
	return a.SignOut()
}

// HandleSessionTimeout is system-initiated termination, triggered by a
// definitive expiry signal or idle detection. Concurrent triggers collapse
// to a single teardown and a single user-facing notification; the latch
// resets only on the next successful login.
func (a *SessionAuthority) HandleSessionTimeout() {
	a.mu.Lock()
	if a.timeoutWarned {
		a.mu.Unlock()
		return
	}
	a.timeoutWarned = true
	a.mu.Unlock()

	a.StopMonitoring()
	params := a.signInParams(true)
	if err := a.teardownStorage(); err != nil {
		log.Println(errors.Wrap(err, "error tearing down expired session"))
	}
	a.notifier.ShowBlocking(
		"Session Expired",
		"Your session has expired. Please sign in again to continue.",
	)
	a.navigator.NavigateToSignIn(params)
}

// HandleErrorWithSessionCheck funnels a caught error through expiry
// detection so calling modules don't each re-implement it. A heuristic match
// on the error is treated as definite expiry; otherwise one validation call
// disambiguates a real error from a session-expiry-induced one. Only
// genuinely unrelated errors reach the caller's handler.
func (a *SessionAuthority) HandleErrorWithSessionCheck(
	ctx context.Context,
	err error,
	onOther func(error),
) {
	if err == nil {
		return
	}
	if IsSessionExpiredError(errors.Cause(err)) {
		a.HandleSessionTimeout()
		return
	}
	if !a.ValidateSession(ctx) {
		a.HandleSessionTimeout()
		return
	}
	if onOther != nil {
		onOther(err)
	}
}

// ShowRBACError formats a permission denial for the user, naming their role
// and the denied function where applicable.
func (a *SessionAuthority) ShowRBACError(err error) {
	if err == nil {
		return
	}
	if denied, ok := errors.Cause(err).(*ErrPermissionDenied); ok {
		a.notifier.ShowBlocking("Permission Denied", denied.Error())
		return
	}
	a.notifier.ShowBlocking("Permission Denied", err.Error())
}

// IsAuthenticated indicates whether a complete session (token and profile
// together) is held.
func (a *SessionAuthority) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != "" && a.profile != nil
}

// Token returns the current session token, or the empty string.
func (a *SessionAuthority) Token() string {
	return a.currentToken()
}

// Profile returns a copy of the cached user profile.
func (a *SessionAuthority) Profile() (UserProfile, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.profile == nil {
		return UserProfile{}, false
	}
	return *a.profile, true
}

// UserRole derives the current role from the cached profile: the role name
// when present, the Unknown Role sentinel when only a role ID exists, and
// the lowest tier otherwise.
func (a *SessionAuthority) UserRole() Role {
	profile, ok := a.Profile()
	if !ok {
		return RoleViewer
	}
	return ParseRole(profile.RoleName, profile.RoleID)
}

// HasRole indicates whether the current role is exactly the named role.
func (a *SessionAuthority) HasRole(role Role) bool {
	return a.UserRole() == role
}

func (a *SessionAuthority) IsFSPOwner() bool {
	return a.UserRole().Implies(RoleFSPOwner)
}

func (a *SessionAuthority) IsAdmin() bool {
	return a.UserRole().Implies(RoleAdmin)
}

func (a *SessionAuthority) IsComplianceOfficer() bool {
	return a.UserRole().Implies(RoleComplianceOfficer)
}

func (a *SessionAuthority) IsKeyIndividual() bool {
	return a.UserRole().Implies(RoleKeyIndividual)
}

func (a *SessionAuthority) IsRepresentative() bool {
	return a.UserRole().Implies(RoleRepresentative)
}

func (a *SessionAuthority) IsUser() bool {
	return a.UserRole().Implies(RoleUser)
}

func (a *SessionAuthority) IsViewer() bool {
	return a.UserRole().Implies(RoleViewer)
}

// CanAccess is the advisory resource gate for the current role. It only ever
// hides or disables controls; the server's own RBAC remains authoritative.
func (a *SessionAuthority) CanAccess(resource, operation string) bool {
	return RoleCanAccess(a.UserRole(), resource, operation)
}

// CheckFunctionPermission is the advisory gate for named proxy functions.
func (a *SessionAuthority) CheckFunctionPermission(functionName string) bool {
	return RoleCanInvoke(a.UserRole(), functionName)
}

// enrichProfile resolves a role name for a profile that references its role
// only by ID, then persists the enriched profile.
func (a *SessionAuthority) enrichProfile(ctx context.Context) error {
	profile, ok := a.Profile()
	if !ok || !profile.Incomplete() {
		return nil
	}
	result, err := a.CallFunction(
		ctx,
		"get_user_profile",
		map[string]interface{}{"user_id": profile.ID},
	)
	if err != nil {
		return errors.Wrap(err, "error looking up user profile")
	}
	lookedUpBytes, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, "error marshaling user profile lookup result")
	}
	lookedUp := UserProfile{}
	if err := json.Unmarshal(lookedUpBytes, &lookedUp); err != nil {
		return errors.Wrap(err, "error parsing user profile lookup result")
	}
	enriched := profile.merge(lookedUp)

	a.mu.Lock()
	// The session may have been torn down while the lookup was in flight.
	if a.profile == nil {
		a.mu.Unlock()
		return nil
	}
	a.profile = &enriched
	a.mu.Unlock()

	return a.persistProfile(enriched)
}

func (a *SessionAuthority) persistSession(
	token string,
	profile UserProfile,
) error {
	a.mu.Lock()
	a.token = token
	p := profile
	a.profile = &p
	a.lastActivity = time.Now()
	a.timeoutWarned = false
	a.mu.Unlock()

	if err := a.persistent.Set(TokenKey, token); err != nil {
		return errors.Wrap(err, "error persisting session token")
	}
	return a.persistProfile(profile)
}

func (a *SessionAuthority) persistProfile(profile UserProfile) error {
	profileBytes, err := json.Marshal(profile)
	if err != nil {
		return errors.Wrap(err, "error marshaling user profile")
	}
	if err := a.persistent.Set(UserInfoKey, string(profileBytes)); err != nil {
		return errors.Wrap(err, "error persisting user profile")
	}
	return nil
}

// teardownStorage clears the session from memory and both stores. It always
// runs start to finish; the first failure is returned after all steps have
// been attempted.
func (a *SessionAuthority) teardownStorage() error {
	a.mu.Lock()
	a.token = ""
	a.profile = nil
	a.mu.Unlock()

	var firstErr error
	if err := a.persistent.Delete(TokenKey); err != nil {
		firstErr = errors.Wrap(err, "error clearing stored session token")
	}
	if err := a.persistent.Delete(UserInfoKey); err != nil && firstErr == nil {
		firstErr = errors.Wrap(err, "error clearing stored user profile")
	}
	a.volatile.Clear()
	return firstErr
}

// signInParams assembles the query parameters for the post-teardown sign-in
// redirect: the preserved tenant correlation parameter and, for
// system-initiated teardown, the timeout marker.
func (a *SessionAuthority) signInParams(timedOut bool) url.Values {
	params := url.Values{}
	if clientGUID, ok, err := a.persistent.Get(ClientGUIDKey); err == nil &&
		ok && clientGUID != "" {
		params.Set(ClientGUIDKey, clientGUID)
	}
	if timedOut {
		params.Set("timeout", "1")
	}
	return params
}

func (a *SessionAuthority) currentToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *SessionAuthority) touch() {
	a.mu.Lock()
	a.lastActivity = time.Now()
	a.mu.Unlock()
}

func (a *SessionAuthority) idleExceeded() bool {
	if a.idleTimeout <= 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != "" && time.Since(a.lastActivity) > a.idleTimeout
}

// ephemeralStore satisfies PersistentStore for callers that never configured
// real persistence, e.g. short-lived tests.
type ephemeralStore struct {
	mu    sync.Mutex
	state map[string]string
}

func newEphemeralStore() *ephemeralStore {
	return &ephemeralStore{state: map[string]string{}}
}

func (e *ephemeralStore) Get(key string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	value, ok := e.state[key]
	return value, ok, nil
}

func (e *ephemeralStore) Set(key, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state[key] = value
	return nil
}

func (e *ephemeralStore) Delete(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.state, key)
	return nil
}
