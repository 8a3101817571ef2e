package comply

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const testIDToken = "aaa.bbb.ccc"
const testSessionToken = "prettypleasewithsugarontop"

type recordingNotifier struct {
	mu       sync.Mutex
	blocking []string
	toasts   []string
}

func (r *recordingNotifier) ShowBlocking(title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocking = append(r.blocking, fmt.Sprintf("%s: %s", title, message))
}

func (r *recordingNotifier) ShowToast(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, message)
}

func (r *recordingNotifier) blockingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocking)
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []url.Values
}

func (r *recordingNavigator) NavigateToSignIn(params url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, params)
}

func (r *recordingNavigator) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingNavigator) lastCall() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

type testHarness struct {
	authority *SessionAuthority
	notifier  *recordingNotifier
	navigator *recordingNavigator
	store     PersistentStore
}

func newTestHarness(proxyAddress string) *testHarness {
	notifier := &recordingNotifier{}
	navigator := &recordingNavigator{}
	store := newEphemeralStore()
	authority := NewSessionAuthority(
		SessionAuthorityConfig{
			ProxyAddress:    proxyAddress,
			Persistent:      store,
			Notifier:        notifier,
			Navigator:       navigator,
			MonitorInterval: time.Hour,
			IdleTimeout:     -1,
		},
	)
	return &testHarness{
		authority: authority,
		notifier:  notifier,
		navigator: navigator,
		store:     store,
	}
}

func loginHandler(token string, user UserProfile) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := SessionResult{Token: token, User: user}
		resultBytes, _ := json.Marshal(result) // nolint: errcheck
		w.Write(resultBytes)                   // nolint: errcheck
	}
}

func TestLoginExchangesIDToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Empty(t, r.Header.Get("Authorization"))
			body := struct {
				Provider string `json:"provider"`
				IDToken  string `json:"id_token"`
			}{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "google", body.Provider)
			require.Equal(t, testIDToken, body.IDToken)
			loginHandler(
				testSessionToken,
				UserProfile{ID: "u1", Email: "u1@fsp.test", RoleName: "Admin"},
			)(w, r)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()

	result, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)
	require.Equal(t, testSessionToken, result.Token)
	require.True(t, h.authority.IsAuthenticated())
	require.Equal(t, RoleAdmin, h.authority.UserRole())

	storedToken, ok, err := h.store.Get(TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, testSessionToken, storedToken)
	storedProfile, ok, err := h.store.Get(UserInfoKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, storedProfile, "u1@fsp.test")
}

func TestLoginRejectsEmptyIDToken(t *testing.T) {
	h := newTestHarness("http://localhost:0")
	_, err := h.authority.Login(context.Background(), "")
	require.Error(t, err)
	require.IsType(t, &ErrBadRequest{}, errors.Cause(err))
	require.False(t, h.authority.IsAuthenticated())
}

func TestLoginSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				fmt.Fprint(w, `{"error":"identity provider unreachable"}`)
			},
		),
	)
	defer server.Close()

	h := newTestHarness(server.URL)
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.Error(t, err)
	require.Contains(t, err.Error(), "identity provider unreachable")
	require.False(t, h.authority.IsAuthenticated())
}

func TestLoginEnrichesIncompleteProfile(t *testing.T) {
	var enrichmentCalls int
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleID: "r1"}),
	)
	mux.HandleFunc(
		"/proxy/function",
		func(w http.ResponseWriter, r *http.Request) {
			require.Contains(
				t,
				r.Header.Get("Authorization"),
				testSessionToken,
			)
			body := struct {
				Function string                 `json:"function"`
				Params   map[string]interface{} `json:"params"`
			}{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "get_user_profile", body.Function)
			require.Equal(t, "u1", body.Params["user_id"])
			mu.Lock()
			enrichmentCalls++
			mu.Unlock()
			fmt.Fprint(w, `{"id":"u1","role_id":"r1","role_name":"Admin"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()

	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	mu.Lock()
	require.Equal(t, 1, enrichmentCalls)
	mu.Unlock()
	require.Equal(t, RoleAdmin, h.authority.UserRole())
	require.True(t, h.authority.IsAdmin())

	// The enriched profile is persisted, not just cached.
	storedProfile, ok, err := h.store.Get(UserInfoKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, storedProfile, "Admin")
}

func TestValidateSessionWithoutToken(t *testing.T) {
	var probes int
	server := httptest.NewServer(
		http.HandlerFunc(
			func(http.ResponseWriter, *http.Request) {
				probes++
			},
		),
	)
	defer server.Close()

	h := newTestHarness(server.URL)
	require.False(t, h.authority.ValidateSession(context.Background()))
	require.Equal(t, 0, probes)
}

func TestValidateSessionUnhealthyDoesNotSignOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Viewer"}),
	)
	mux.HandleFunc(
		"/proxy/health",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"unhealthy"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	require.False(t, h.authority.ValidateSession(context.Background()))
	// A negative probe that isn't a 401 must never log the user out.
	require.True(t, h.authority.IsAuthenticated())
	require.Equal(t, 0, h.notifier.blockingCount())
	require.Equal(t, 0, h.navigator.callCount())
}

func TestValidateSession401TriggersTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Viewer"}),
	)
	mux.HandleFunc(
		"/proxy/health",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"reason":"session not found"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	require.False(t, h.authority.ValidateSession(context.Background()))
	require.False(t, h.authority.IsAuthenticated())
	require.Equal(t, 1, h.notifier.blockingCount())
	require.Equal(t, 1, h.navigator.callCount())
	require.Equal(t, "1", h.navigator.lastCall().Get("timeout"))

	_, ok, err := h.store.Get(TokenKey)
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = h.store.Get(UserInfoKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDoMergesHeaders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	mux.HandleFunc(
		"/reports/annual",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(
				t,
				fmt.Sprintf("Bearer %s", testSessionToken),
				r.Header.Get("Authorization"),
			)
			// The caller's content type wins over the JSON default.
			require.Equal(t, "text/csv", r.Header.Get("Content-Type"))
			fmt.Fprint(w, `{"accepted":true}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	resp := struct {
		Accepted bool `json:"accepted"`
	}{}
	err = h.authority.Do(
		context.Background(),
		OutboundRequest{
			Method:     http.MethodPost,
			Path:       "reports/annual",
			Headers:    map[string]string{"Content-Type": "text/csv"},
			ReqBodyObj: []byte("a,b,c"),
			RespObj:    &resp,
		},
	)
	require.NoError(t, err)
	require.True(t, resp.Accepted)
}

func TestDoWithoutTokenFailsFast(t *testing.T) {
	var requests int
	server := httptest.NewServer(
		http.HandlerFunc(
			func(http.ResponseWriter, *http.Request) {
				requests++
			},
		),
	)
	defer server.Close()

	h := newTestHarness(server.URL)
	err := h.authority.Do(
		context.Background(),
		OutboundRequest{Method: http.MethodGet, Path: "anything"},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no session token")
	require.Equal(t, 0, requests)
}

func TestDo401ClassifiedAsExpiry(t *testing.T) {
	var dataRequests int
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	mux.HandleFunc(
		"/data",
		func(w http.ResponseWriter, r *http.Request) {
			dataRequests++
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"reason":"token revoked"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	err = h.authority.Do(
		context.Background(),
		OutboundRequest{Method: http.MethodGet, Path: "data"},
	)
	require.Error(t, err)
	require.True(t, IsSessionExpiredError(errors.Cause(err)))
	// Exactly one teardown, one notification.
	require.Equal(t, 1, h.notifier.blockingCount())
	require.Equal(t, 1, h.navigator.callCount())
	require.False(t, h.authority.IsAuthenticated())

	// Subsequent calls fail before reaching the network.
	require.Equal(t, 1, dataRequests)
	err = h.authority.Do(
		context.Background(),
		OutboundRequest{Method: http.MethodGet, Path: "data"},
	)
	require.Error(t, err)
	require.Equal(t, 1, dataRequests)
}

func TestDo403CarriesRole(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Viewer"}),
	)
	mux.HandleFunc(
		"/admin/settings",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	err = h.authority.Do(
		context.Background(),
		OutboundRequest{Method: http.MethodPut, Path: "admin/settings"},
	)
	require.Error(t, err)
	denied, ok := errors.Cause(err).(*ErrPermissionDenied)
	require.True(t, ok)
	// The server body omitted the role, so the locally-known one backfills.
	require.Equal(t, "Viewer", denied.Role)
	// The session itself is intact.
	require.True(t, h.authority.IsAuthenticated())
}

func TestCallFunctionNormalizesAppLevelDenial(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(
			testSessionToken,
			UserProfile{ID: "u1", RoleName: "Representative"},
		),
	)
	mux.HandleFunc(
		"/proxy/function",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":"denied","code":"RBAC_PERMISSION_DENIED"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	_, err = h.authority.CallFunction(context.Background(), "delete_user", nil)
	require.Error(t, err)
	denied, ok := errors.Cause(err).(*ErrPermissionDenied)
	require.True(t, ok)
	require.Equal(t, PermissionDeniedCode, denied.Code)
	require.Equal(t, "delete_user", denied.FunctionName)
	require.Equal(t, "Representative", denied.Role)
	require.Equal(t, "denied", denied.Reason)
	// An application-level denial is not an expiry.
	require.True(t, h.authority.IsAuthenticated())
}

func TestCallFunction401SignsOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	mux.HandleFunc(
		"/proxy/function",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"reason":"session not found"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	_, err = h.authority.CallFunction(context.Background(), "list_users", nil)
	require.Error(t, err)
	require.True(t, IsSessionExpiredError(errors.Cause(err)))
	require.False(t, h.authority.IsAuthenticated())
	// Sign-out, not the timeout-warning flow: redirect without the marker
	// and without a blocking dialog.
	require.Equal(t, 1, h.navigator.callCount())
	require.Empty(t, h.navigator.lastCall().Get("timeout"))
	require.Equal(t, 0, h.notifier.blockingCount())
}

func TestCallFunctionConcurrent401sSignOutOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	mux.HandleFunc(
		"/proxy/function",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"reason":"session not found"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	// Several in-flight calls can all see the 401 before the first teardown
	// completes. They must collapse to a single redirect.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.authority.CallFunction(
				context.Background(),
				"list_users",
				nil,
			)
			require.Error(t, err)
		}()
	}
	wg.Wait()

	require.False(t, h.authority.IsAuthenticated())
	require.Equal(t, 1, h.navigator.callCount())
	require.Equal(t, 0, h.notifier.blockingCount())
}

func TestRefreshTokenPersistsTokenOnly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	mux.HandleFunc(
		"/auth/refresh",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(
				t,
				fmt.Sprintf("Bearer %s", testSessionToken),
				r.Header.Get("Authorization"),
			)
			fmt.Fprint(w, `{"token":"T2"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)
	profileBefore, _, err := h.store.Get(UserInfoKey)
	require.NoError(t, err)

	require.NoError(t, h.authority.RefreshToken(context.Background()))
	require.Equal(t, "T2", h.authority.Token())

	storedToken, _, err := h.store.Get(TokenKey)
	require.NoError(t, err)
	require.Equal(t, "T2", storedToken)
	profileAfter, _, err := h.store.Get(UserInfoKey)
	require.NoError(t, err)
	require.Equal(t, profileBefore, profileAfter)
}

func TestSignOutPreservesClientGUID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	require.NoError(t, h.store.Set(ClientGUIDKey, "fsp-123"))
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	require.NoError(t, h.authority.SignOut())
	require.False(t, h.authority.IsAuthenticated())
	require.Equal(t, 1, h.navigator.callCount())
	require.Equal(t, "fsp-123", h.navigator.lastCall().Get(ClientGUIDKey))
	require.Empty(t, h.navigator.lastCall().Get("timeout"))

	// The correlation key itself is owned elsewhere and survives teardown.
	guid, ok, err := h.store.Get(ClientGUIDKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "fsp-123", guid)
}

func TestSessionTimeoutIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.authority.HandleSessionTimeout()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, h.notifier.blockingCount())
	require.Equal(t, 1, h.navigator.callCount())
	require.False(t, h.authority.IsAuthenticated())

	// The latch holds until the next successful login.
	h.authority.HandleSessionTimeout()
	require.Equal(t, 1, h.notifier.blockingCount())

	_, err = h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)
	h.authority.StopMonitoring()
	h.authority.HandleSessionTimeout()
	require.Equal(t, 2, h.notifier.blockingCount())
}

func TestTokenAndProfileAtomicity(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	requireConsistent := func() {
		_, hasProfile := h.authority.Profile()
		require.Equal(t, h.authority.Token() != "", hasProfile)
	}

	requireConsistent()
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)
	requireConsistent()
	require.NoError(t, h.authority.SignOut())
	requireConsistent()
	_, err = h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)
	h.authority.HandleSessionTimeout()
	requireConsistent()
}

func TestRestoreRehydratesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/proxy/health",
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(
				t,
				fmt.Sprintf("Bearer %s", testSessionToken),
				r.Header.Get("Authorization"),
			)
			fmt.Fprint(w, `{"status":"healthy"}`)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()
	require.NoError(t, h.store.Set(TokenKey, testSessionToken))
	require.NoError(
		t,
		h.store.Set(UserInfoKey, `{"id":"u1","role_name":"Compliance Officer"}`),
	)

	require.NoError(t, h.authority.Restore(context.Background()))
	require.True(t, h.authority.IsAuthenticated())
	require.Equal(t, RoleComplianceOfficer, h.authority.UserRole())
	require.True(t, h.authority.IsComplianceOfficer())
	require.False(t, h.authority.IsAdmin())
}

func TestRestoreDiscardsHalfPersistedSession(t *testing.T) {
	h := newTestHarness("http://localhost:0")
	require.NoError(t, h.store.Set(TokenKey, testSessionToken))

	require.NoError(t, h.authority.Restore(context.Background()))
	require.False(t, h.authority.IsAuthenticated())
	_, ok, err := h.store.Get(TokenKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRestoreWithEmptyStorage(t *testing.T) {
	var requests int
	server := httptest.NewServer(
		http.HandlerFunc(
			func(http.ResponseWriter, *http.Request) {
				requests++
			},
		),
	)
	defer server.Close()

	h := newTestHarness(server.URL)
	require.NoError(t, h.authority.Restore(context.Background()))
	require.False(t, h.authority.IsAuthenticated())
	require.Equal(t, 0, requests)
}

func TestHandleErrorWithSessionCheck(t *testing.T) {
	var healthStatus string
	mux := http.NewServeMux()
	mux.HandleFunc(
		"/auth/login",
		loginHandler(testSessionToken, UserProfile{ID: "u1", RoleName: "Admin"}),
	)
	mux.HandleFunc(
		"/proxy/health",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"status":%q}`, healthStatus)
		},
	)
	server := httptest.NewServer(mux)
	defer server.Close()

	h := newTestHarness(server.URL)
	defer h.authority.StopMonitoring()
	_, err := h.authority.Login(context.Background(), testIDToken)
	require.NoError(t, err)

	// An unrelated error with a healthy session reaches the caller's
	// handler.
	healthStatus = "healthy"
	var handled error
	h.authority.HandleErrorWithSessionCheck(
		context.Background(),
		errors.New("complaint form is missing a resolution date"),
		func(e error) { handled = e },
	)
	require.Error(t, handled)
	require.Equal(t, 0, h.notifier.blockingCount())

	// An expiry-looking error short-circuits straight to the timeout flow.
	handled = nil
	h.authority.HandleErrorWithSessionCheck(
		context.Background(),
		errors.New("received 401 from proxy"),
		func(e error) { handled = e },
	)
	require.NoError(t, handled)
	require.Equal(t, 1, h.notifier.blockingCount())
}
