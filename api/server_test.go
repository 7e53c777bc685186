package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jonwraymond/bearerauth/auth"
	"github.com/jonwraymond/bearerauth/member"
	"github.com/jonwraymond/bearerauth/resilience"
)

var testKey = []byte("api-test-signing-key-that-is-long-enough")

type testServer struct {
	handler http.Handler
	codec   *auth.TokenCodec
}

func newTestServer(t *testing.T, limiter *resilience.RateLimiter) *testServer {
	t.Helper()
	codec, err := auth.NewTokenCodec(auth.CodecConfig{Key: testKey})
	if err != nil {
		t.Fatalf("NewTokenCodec() error = %v", err)
	}
	members, err := member.NewService(member.ServiceConfig{Store: member.NewMemoryStore(), HashCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	ctx := context.Background()
	if _, err := members.Register(ctx, "alice", "wonderland", "Alice", "ROLE_USER"); err != nil {
		t.Fatal(err)
	}
	if _, err := members.Register(ctx, "admin", "hunter22", "Admin", "ROLE_USER", RoleAdmin); err != nil {
		t.Fatal(err)
	}
	authz, err := auth.NewPolicyAuthorizer(DefaultPolicy())
	if err != nil {
		t.Fatalf("NewPolicyAuthorizer() error = %v", err)
	}

	h, err := NewHandler(Config{
		Issuer:       codec,
		Members:      members,
		TokenTTL:     time.Hour,
		Interceptor:  auth.NewInterceptor(auth.InterceptorConfig{Authenticator: auth.NewBearerAuthenticator(codec)}),
		Gate:         auth.NewGate(auth.GateConfig{Authorizer: authz}),
		LoginLimiter: limiter,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	return &testServer{handler: h, codec: codec}
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rr := s.do(http.MethodPost, "/api/authenticate", "", `{"username":"`+username+`","password":"`+password+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login(%s) status = %d body = %s", username, rr.Code, rr.Body.String())
	}
	var resp TokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login response: %v", err)
	}
	return resp.Token
}

func TestRoutes_Access(t *testing.T) {
	srv := newTestServer(t, nil)
	userToken := srv.login(t, "alice", "wonderland")
	adminToken := srv.login(t, "admin", "hunter22")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{name: "public hello", method: "GET", path: "/api/hello", wantStatus: 200},
		{name: "public hello with garbage token", method: "GET", path: "/api/hello", token: "garbage", wantStatus: 200},
		{name: "v1 anonymous", method: "GET", path: "/api/v1", wantStatus: 401},
		{name: "v1 garbage", method: "GET", path: "/api/v1", token: "garbage", wantStatus: 401},
		{name: "v1 user", method: "GET", path: "/api/v1", token: userToken, wantStatus: 200},
		{name: "me user", method: "GET", path: "/api/v1/me", token: userToken, wantStatus: 200},
		{name: "admin anonymous", method: "GET", path: "/api/v1/admin", wantStatus: 401},
		{name: "admin as user", method: "GET", path: "/api/v1/admin", token: userToken, wantStatus: 403},
		{name: "admin as admin", method: "GET", path: "/api/v1/admin", token: adminToken, wantStatus: 200},
		{name: "unknown anonymous", method: "GET", path: "/api/v2", wantStatus: 401},
		{name: "unknown authenticated", method: "GET", path: "/api/v2", token: userToken, wantStatus: 404},
		{name: "healthz", method: "GET", path: "/healthz", wantStatus: 200},
		{name: "readyz", method: "GET", path: "/readyz", wantStatus: 200},
		{name: "favicon", method: "GET", path: "/favicon.ico", wantStatus: 204},
		{name: "login via GET", method: "GET", path: "/api/authenticate", wantStatus: 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(tt.method, tt.path, tt.token, "")
			if rr.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestHello(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.login(t, "alice", "wonderland")

	for _, path := range []string{"/api/hello", "/api/v1"} {
		rr := srv.do(http.MethodGet, path, token, "")
		if rr.Body.String() != "hello" {
			t.Errorf("GET %s body = %q, want hello", path, rr.Body.String())
		}
	}
}

func TestMe(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.login(t, "admin", "hunter22")

	rr := srv.do(http.MethodGet, "/api/v1/me", token, "")
	var got IdentityResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := auth.NewIdentity("admin", "ROLE_USER", RoleAdmin)
	gotID := auth.Identity{Principal: got.Username, Authorities: got.Authorities}
	if !gotID.Equal(&want) {
		t.Errorf("me = %+v, want %+v", got, want)
	}
}

func TestLogin(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "success", body: `{"username":"alice","password":"wonderland"}`, wantStatus: 200},
		{name: "wrong password", body: `{"username":"alice","password":"nope"}`, wantStatus: 401},
		{name: "unknown user", body: `{"username":"mallory","password":"wonderland"}`, wantStatus: 401},
		{name: "missing password", body: `{"username":"alice"}`, wantStatus: 400},
		{name: "unknown field", body: `{"username":"alice","password":"wonderland","admin":true}`, wantStatus: 400},
		{name: "not json", body: `username=alice`, wantStatus: 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(http.MethodPost, "/api/authenticate", "", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if strings.Contains(rr.Body.String(), "wonderland") {
					t.Error("response echoes the password")
				}
				return
			}

			var resp TokenResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 {
				t.Errorf("response = %+v", resp)
			}
			if got := rr.Header().Get("Authorization"); got != "Bearer "+resp.Token {
				t.Errorf("Authorization header = %q", got)
			}
			id, err := srv.codec.Verify(resp.Token)
			if err != nil || id.Principal != "alice" || !id.HasAuthority("ROLE_USER") {
				t.Errorf("Verify(issued) = %+v, %v", id, err)
			}
		})
	}
}

func TestLogin_RateLimited(t *testing.T) {
	limiter := resilience.NewRateLimiter(resilience.RateLimiterConfig{
		Rate:  0.001,
		Burst: 2,
	})
	srv := newTestServer(t, limiter)

	codes := make([]int, 0, 3)
	for range 3 {
		rr := srv.do(http.MethodPost, "/api/authenticate", "", `{"username":"alice","password":"nope"}`)
		codes = append(codes, rr.Code)
	}
	if codes[0] != 401 || codes[1] != 401 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [401 401 429]", codes)
	}
}

type loginFunc func(ctx context.Context, username, password string) (auth.Identity, error)

func (f loginFunc) Login(ctx context.Context, username, password string) (auth.Identity, error) {
	return f(ctx, username, password)
}

func TestLogin_StoreErrors(t *testing.T) {
	codec, err := auth.NewTokenCodec(auth.CodecConfig{Key: testKey})
	if err != nil {
		t.Fatal(err)
	}
	authz, err := auth.NewPolicyAuthorizer(DefaultPolicy())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "circuit open", err: fmt.Errorf("member: lookup: %w", resilience.ErrCircuitOpen), wantStatus: http.StatusServiceUnavailable},
		{name: "database error", err: fmt.Errorf("member: lookup: %w", context.DeadlineExceeded), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(Config{
				Issuer: codec,
				Members: loginFunc(func(context.Context, string, string) (auth.Identity, error) {
					return auth.Identity{}, tt.err
				}),
				TokenTTL:    time.Hour,
				Interceptor: auth.NewInterceptor(auth.InterceptorConfig{Authenticator: auth.NewBearerAuthenticator(codec)}),
				Gate:        auth.NewGate(auth.GateConfig{Authorizer: authz}),
			})
			if err != nil {
				t.Fatal(err)
			}
			srv := &testServer{handler: h, codec: codec}
			rr := srv.do(http.MethodPost, "/api/authenticate", "", `{"username":"alice","password":"wonderland"}`)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestNewHandler_RequiresCollaborators(t *testing.T) {
	if _, err := NewHandler(Config{}); err == nil {
		t.Error("NewHandler(Config{}) error = nil")
	}
}
