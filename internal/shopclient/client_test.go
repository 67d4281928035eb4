package shopclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/model"
	"github.com/spiffcs/storefront/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.LoadFrom(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}
	return s
}

func newTestClient(t *testing.T, srv *httptest.Server, sess *session.Session, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBackoff(0)}, opts...)
	c, err := New(srv.URL, sess, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, u := range []string{"ftp://shop", "://nope"} {
		if _, err := New(u, nil); err == nil {
			t.Errorf("New(%q) expected error", u)
		}
	}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != constants.PathProducts {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page query = %q, want 2", got)
		}
		if _, err := uuid.Parse(r.Header.Get(constants.RequestIDHeader)); err != nil {
			t.Errorf("expected a UUID request id, got %q", r.Header.Get(constants.RequestIDHeader))
		}
		_, _ = w.Write([]byte(`{"data":[{"id":3,"name":"Mug","picture":"/img/mug.png","price":"12.50","description":"A mug"}],"current_page":2,"last_page":4,"per_page":1,"total":4}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, nil)
	page, err := c.FetchPage(context.Background(), 2)
	if err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if page.CurrentPage != 2 || page.LastPage != 4 || len(page.Items) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	if p := page.Items[0]; p.ID != 3 || p.ImagePath != "/img/mug.png" || p.Price.String() != "12.5" {
		t.Errorf("unexpected product %+v", p)
	}
}

func TestFetchPageMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing current_page", `{"data":[],"last_page":1}`},
		{"missing last_page", `{"data":[],"current_page":1}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv, nil).FetchPage(context.Background(), 1)
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("FetchPage() error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestFetchPageEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null,"current_page":1,"last_page":1}`))
	}))
	defer srv.Close()

	page, err := newTestClient(t, srv, nil).FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if page.Items == nil || len(page.Items) != 0 {
		t.Errorf("expected empty non-nil items, got %#v", page.Items)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[],"current_page":1,"last_page":1}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(t, srv, nil, WithRetries(2)).FetchPage(context.Background(), 1); err != nil {
		t.Fatalf("FetchPage() error: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"down for maintenance"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, nil, WithRetries(1)).FetchPage(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("FetchPage() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable || apiErr.Message != "down for maintenance" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestPostNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, newTestSession(t), WithRetries(3)).Login(context.Background(), model.LoginCredentials{Email: "a@b.co", Password: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected POST sent once, got %d", n)
	}
}

func TestLoginStoresSession(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"camel case token", `{"accessToken":"tok-1","user":{"id":1,"name":"Ada","email":"ada@example.com"}}`},
		{"snake case token", `{"access_token":"tok-1","user":{"id":1,"name":"Ada","email":"ada@example.com"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != constants.PathLogin {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var creds model.LoginCredentials
				if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email != "ada@example.com" {
					t.Errorf("bad request body: %+v, %v", creds, err)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			sess := newTestSession(t)
			resp, err := newTestClient(t, srv, sess).Login(context.Background(), model.LoginCredentials{Email: "ada@example.com", Password: "Secret1"})
			if err != nil {
				t.Fatalf("Login() error: %v", err)
			}
			if resp.Token() != "tok-1" || sess.AccessToken() != "tok-1" {
				t.Errorf("token not stored: resp=%q session=%q", resp.Token(), sess.AccessToken())
			}
			if u := sess.User(); u == nil || u.Name != "Ada" {
				t.Errorf("user not stored: %+v", u)
			}
		})
	}
}

func TestLoginWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	_, err := newTestClient(t, srv, sess).Login(context.Background(), model.LoginCredentials{Email: "a@b.co", Password: "x"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Login() error = %v, want ErrMalformedResponse", err)
	}
	if sess.LoggedIn() {
		t.Error("session should stay empty")
	}
}

func TestRegisterFieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"email":["The email has already been taken."],"name":"Too short"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, newTestSession(t)).Register(context.Background(), model.Registration{Name: "A"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Register() error = %v, want *APIError", err)
	}
	if got := apiErr.Errors.First("email"); got != "The email has already been taken." {
		t.Errorf("email error = %q", got)
	}
	if got := apiErr.Errors.First("name"); got != "Too short" {
		t.Errorf("name error = %q", got)
	}
	if apiErr.Errors.First("password") != "" {
		t.Error("expected no password error")
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer stale" {
			t.Errorf("Authorization = %q, want Bearer stale", got)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sess := newTestSession(t)
	if err := sess.Set("stale", &model.User{Name: "Ada"}); err != nil {
		t.Fatal(err)
	}

	var notified atomic.Int32
	c := newTestClient(t, srv, sess, WithOnUnauthorized(func() { notified.Add(1) }))

	_, err := c.FetchPage(context.Background(), 1)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("FetchPage() error = %v, want ErrUnauthorized", err)
	}
	if sess.LoggedIn() || sess.User() != nil {
		t.Error("expected session cleared after 401")
	}
	if notified.Load() != 1 {
		t.Errorf("expected callback once, got %d", notified.Load())
	}
}

func TestUnauthorizedWithoutTokenIsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("no Authorization header expected without a session")
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer srv.Close()

	called := false
	c := newTestClient(t, srv, newTestSession(t), WithOnUnauthorized(func() { called = true }))
	_, err := c.Login(context.Background(), model.LoginCredentials{Email: "a@b.co", Password: "wrong"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid credentials" {
		t.Fatalf("Login() error = %v, want APIError with server message", err)
	}
	if called {
		t.Error("callback should only run when a token was rejected")
	}
}

func TestLogoutClearsSessionOnFailure(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != constants.PathLogout {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(status)
			}))
			defer srv.Close()

			sess := newTestSession(t)
			_ = sess.Set("tok", nil)

			err := newTestClient(t, srv, sess).Logout(context.Background())
			if (err != nil) != (status >= 500) {
				t.Errorf("Logout() error = %v for status %d", err, status)
			}
			if sess.LoggedIn() {
				t.Error("expected session cleared")
			}
		})
	}
}

func TestCurrentUser(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `{"id":5,"name":"Grace","email":"grace@example.com"}`},
		{"wrapped", `{"user":{"id":5,"name":"Grace","email":"grace@example.com"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != constants.PathUser {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			sess := newTestSession(t)
			_ = sess.Set("tok", nil)
			u, err := newTestClient(t, srv, sess).CurrentUser(context.Background())
			if err != nil {
				t.Fatalf("CurrentUser() error: %v", err)
			}
			if u.ID != 5 || u.Email != "grace@example.com" {
				t.Errorf("unexpected user %+v", u)
			}
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{"message only", &APIError{StatusCode: 400, Message: "bad"}, "bad"},
		{"status fallback", &APIError{StatusCode: 418}, "request failed with status 418"},
		{"sorted fields", &APIError{Message: "invalid", Errors: FieldErrors{"name": {"short"}, "email": {"taken", "bad"}}}, "invalid (email: taken, bad; name: short)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}
