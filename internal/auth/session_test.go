package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validToken(t *testing.T) string {
	return signedToken(t, Claims{
		ID:    "a1",
		Email: "admin@elpatio.test",
		Role:  "superadmin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

func newTestSession(t *testing.T, handler http.Handler) (*Session, TokenStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := NewMemoryTokenStore()
	session, err := NewSession(Config{
		BaseURL:    server.URL,
		Store:      store,
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session, store
}

func TestLoginStoresToken(t *testing.T) {
	token := validToken(t)
	session, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/login" {
			t.Errorf("login path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"token": "` + token + `"}`))
	}))

	if err := session.Login(context.Background(), "admin@elpatio.test", "secreto"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token() != token {
		t.Fatal("token not stored after login")
	}
	if !session.IsAuthenticated() {
		t.Fatal("session not authenticated after login")
	}
}

func TestLoginSurfacesBackendMessage(t *testing.T) {
	session, _ := newTestSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"mensaje": "credenciales invalidas"}`))
	}))

	err := session.Login(context.Background(), "admin@elpatio.test", "wrong")
	if err == nil || err.Error() != "credenciales invalidas" {
		t.Fatalf("login error = %v, want backend message", err)
	}
	if session.Token() != "" {
		t.Fatal("token stored despite failed login")
	}
}

func TestIsAuthenticatedClearsExpiredToken(t *testing.T) {
	session, store := newTestSession(t, http.NotFoundHandler())
	expired := signedToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	store.Save(expired)

	if session.IsAuthenticated() {
		t.Fatal("expired token reported as authenticated")
	}
	if tok, _ := store.Load(); tok != "" {
		t.Fatal("expired token not cleared")
	}
}

func TestIsAuthenticatedRejectsTokenInsideSkewSlop(t *testing.T) {
	session, store := newTestSession(t, http.NotFoundHandler())
	dying := signedToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Second)),
		},
	})
	store.Save(dying)

	if session.IsAuthenticated() {
		t.Fatal("token expiring inside the skew slop reported as authenticated")
	}
	if tok, _ := store.Load(); tok != "" {
		t.Fatal("dying token not cleared")
	}
}

func TestIsAuthenticatedClearsGarbageToken(t *testing.T) {
	session, store := newTestSession(t, http.NotFoundHandler())
	store.Save("not-a-jwt")

	if session.IsAuthenticated() {
		t.Fatal("garbage token reported as authenticated")
	}
	if tok, _ := store.Load(); tok != "" {
		t.Fatal("garbage token not cleared")
	}
}

func TestUserInfoDecodesClaims(t *testing.T) {
	session, store := newTestSession(t, http.NotFoundHandler())
	store.Save(validToken(t))

	info, err := session.UserInfo()
	if err != nil {
		t.Fatalf("user info: %v", err)
	}
	if info.Email != "admin@elpatio.test" || info.Role != "superadmin" || info.ID != "a1" {
		t.Fatalf("info = %+v", info)
	}
}

func TestLogoutClearsTokenAndRunsHooks(t *testing.T) {
	session, store := newTestSession(t, http.NotFoundHandler())
	store.Save(validToken(t))

	hookRuns := 0
	session.OnLogout(func() { hookRuns++ })
	session.Logout()

	if tok, _ := store.Load(); tok != "" {
		t.Fatal("token survived logout")
	}
	if hookRuns != 1 {
		t.Fatalf("logout hooks ran %d times", hookRuns)
	}
}
