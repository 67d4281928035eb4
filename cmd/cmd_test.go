package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/spiffcs/storefront/config"
	"github.com/spiffcs/storefront/internal/forms"
	"github.com/spiffcs/storefront/internal/session"
	"github.com/spiffcs/storefront/internal/shopclient"
)

const testToken = "test-token"

// newShopServer serves a catalog of lastPage pages with two products each.
func newShopServer(t *testing.T, lastPage int) *httptest.Server {
	t.Helper()

	authed := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+testToken
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "Secret1" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"message":"The given data was invalid.","errors":{"email":["These credentials do not match our records."]}}`)
			return
		}
		fmt.Fprintf(w, `{"accessToken":%q,"user":{"id":1,"name":"Ada Lovelace","email":%q}}`, testToken, body.Email)
	})
	mux.HandleFunc("/api/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthenticated."}`)
			return
		}
		fmt.Fprint(w, `{"id":1,"name":"Ada Lovelace","email":"ada@example.com"}`)
	})
	mux.HandleFunc("/api/products/paginate", func(w http.ResponseWriter, r *http.Request) {
		if !authed(r) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Unauthenticated."}`)
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		fmt.Fprintf(w, `{"data":[{"id":%d,"name":"Product %d-a","price":"1.50","picture":"/img/%d.png"},{"id":%d,"name":"Product %d-b","price":"2.00"}],"current_page":%d,"last_page":%d}`,
			page*10+1, page, page, page*10+2, page, page, lastPage)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// isolate points config, cache and session at temp dirs and the API at baseURL.
func isolate(t *testing.T, baseURL, token string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("STOREFRONT_BASE_URL", baseURL)
	t.Setenv("STOREFRONT_TOKEN", token)
	t.Setenv("STOREFRONT_RETRIES", "0")
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	root := New()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
	if cmd.Use != "storefront" {
		t.Errorf("expected Use to be 'storefront', got %q", cmd.Use)
	}

	want := []string{"browse", "products", "login", "register", "logout", "whoami", "config", "cache", "version"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub == cmd {
			t.Errorf("expected subcommand %q", name)
		}
	}

	for _, flag := range []string{"page", "no-cache", "verbose", "tui"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected root flag --%s", flag)
		}
	}
}

func TestNewCmdProducts(t *testing.T) {
	cmd := NewCmdProducts(NewOptions())
	if cmd.Use != "products" {
		t.Errorf("expected Use to be 'products', got %q", cmd.Use)
	}
	for _, flag := range []string{"output", "all", "page", "no-cache"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag --%s", flag)
		}
	}
}

func TestNewCmdConfig(t *testing.T) {
	cmd := NewCmdConfig()
	if cmd.Use != "config" {
		t.Errorf("expected Use to be 'config', got %q", cmd.Use)
	}
}

func TestNewCmdCache(t *testing.T) {
	cmd := NewCmdCache()
	if cmd.Use != "cache" {
		t.Errorf("expected Use to be 'cache', got %q", cmd.Use)
	}
}

func TestNewCmdVersion(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2026-01-01")
	out, _, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "storefront 1.0.0") || !strings.Contains(out, "abc123") {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestNewOptions(t *testing.T) {
	tui := false
	opts := NewOptions(
		WithFormat("json"),
		WithPage(3),
		WithAll(true),
		WithNoCache(true),
		WithVerbosity(2),
		WithTUI(&tui),
	)

	if opts.Format != "json" || opts.Page != 3 || !opts.All || !opts.NoCache || opts.Verbosity != 2 {
		t.Errorf("options not applied: %+v", opts)
	}
	if opts.TUI == nil || *opts.TUI {
		t.Error("expected TUI disabled")
	}

	if d := NewOptions(); d.Page != 1 {
		t.Errorf("expected default page 1, got %d", d.Page)
	}
}

func TestTUIFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"true", "true", false},
		{"yes", "true", false},
		{"0", "false", false},
		{"auto", "auto", false},
		{"off", "false", false},
		{"T", "true", false},
		{"", "auto", false},
		{"sometimes", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			opts := NewOptions()
			f := newTUIFlag(opts)
			err := f.Set(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := f.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldUseTUIVerbose(t *testing.T) {
	on := true
	opts := NewOptions(WithTUI(&on), WithVerbosity(1))
	if shouldUseTUI(opts) {
		t.Error("verbose output should disable the TUI")
	}
}

func TestProductsJSON(t *testing.T) {
	srv := newShopServer(t, 3)
	isolate(t, srv.URL, testToken)

	out, _, err := execute(t, "", "products", "--page", "2", "-o", "json", "--tui=false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Items []struct {
			ID       int    `json:"id"`
			ImageURL string `json:"image_url"`
		} `json:"items"`
		VisiblePage int `json:"visible_page"`
		LastPage    int `json:"last_page"`
		Count       int `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if got.VisiblePage != 2 || got.LastPage != 3 || got.Count != 4 {
		t.Fatalf("unexpected listing: page %d of %d, %d items", got.VisiblePage, got.LastPage, got.Count)
	}
	if got.Items[0].ID != 11 || got.Items[2].ID != 21 {
		t.Errorf("items out of order: %+v", got.Items)
	}
	if got.Items[0].ImageURL != srv.URL+"/img/1.png" {
		t.Errorf("unexpected image URL %q", got.Items[0].ImageURL)
	}
}

func TestProductsAll(t *testing.T) {
	srv := newShopServer(t, 4)
	isolate(t, srv.URL, testToken)

	out, _, err := execute(t, "", "products", "--all", "-o", "json", "--tui=false", "--no-cache")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"visible_page": 4`) || !strings.Contains(out, `"count": 8`) {
		t.Errorf("expected all pages loaded:\n%s", out)
	}
}

func TestProductsRequiresSession(t *testing.T) {
	srv := newShopServer(t, 3)
	isolate(t, srv.URL, "")

	_, _, err := execute(t, "", "products", "--tui=false")
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestProductsExpiredToken(t *testing.T) {
	srv := newShopServer(t, 3)
	isolate(t, srv.URL, "stale-token")

	_, _, err := execute(t, "", "products", "--tui=false", "--no-cache")
	if !errors.Is(err, shopclient.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifySession(t *testing.T) {
	srv := newShopServer(t, 3)

	t.Run("valid token", func(t *testing.T) {
		isolate(t, srv.URL, testToken)
		shop, err := loadShop()
		if err != nil {
			t.Fatal(err)
		}
		u, err := shop.verifySession(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if u.Name != "Ada Lovelace" {
			t.Errorf("expected Ada Lovelace, got %q", u.Name)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		isolate(t, srv.URL, "stale-token")
		shop, err := loadShop()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := shop.verifySession(context.Background()); !errors.Is(err, shopclient.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("no session", func(t *testing.T) {
		isolate(t, srv.URL, "")
		shop, err := loadShop()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := shop.verifySession(context.Background()); !errors.Is(err, session.ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})
}

func TestLoginWhoamiLogout(t *testing.T) {
	srv := newShopServer(t, 3)
	isolate(t, srv.URL, "")

	out, _, err := execute(t, "ada@example.com\nSecret1\n", "login")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Logged in as Ada Lovelace") {
		t.Errorf("unexpected login output: %q", out)
	}

	path, err := session.DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected session file: %v", err)
	}

	out, _, err = execute(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if !strings.Contains(out, "Ada Lovelace <ada@example.com>") {
		t.Errorf("unexpected whoami output: %q", out)
	}

	out, _, err = execute(t, "", "logout")
	if err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if !strings.Contains(out, "Logged out.") {
		t.Errorf("unexpected logout output: %q", out)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected session file removed")
	}

	_, _, err = execute(t, "", "whoami")
	if !errors.Is(err, session.ErrNoSession) {
		t.Errorf("expected ErrNoSession after logout, got %v", err)
	}
}

func TestLoginValidation(t *testing.T) {
	srv := newShopServer(t, 3)
	isolate(t, srv.URL, "")

	_, stderr, err := execute(t, "not-an-email\n\n", "login")
	if !errors.Is(err, errInvalidInput) {
		t.Fatalf("expected errInvalidInput, got %v", err)
	}
	if !strings.Contains(stderr, "email:") || !strings.Contains(stderr, "password:") {
		t.Errorf("expected field errors, got %q", stderr)
	}
}

func TestLoginServerFieldErrors(t *testing.T) {
	srv := newShopServer(t, 3)
	isolate(t, srv.URL, "")

	_, stderr, err := execute(t, "wrong\n", "login", "--email", "ada@example.com")
	if !errors.Is(err, errInvalidInput) {
		t.Fatalf("expected errInvalidInput, got %v", err)
	}
	if !strings.Contains(stderr, "email: These credentials do not match our records.") {
		t.Errorf("expected server field error, got %q", stderr)
	}
}

func TestReportFieldErrors(t *testing.T) {
	var buf bytes.Buffer
	err := reportFieldErrors(&buf, forms.FieldErrors{"name": "Name must be at least 2 characters", "email": "Invalid email address"})
	if !errors.Is(err, errInvalidInput) {
		t.Errorf("expected errInvalidInput, got %v", err)
	}
	if buf.String() != "  email: Invalid email address\n  name: Name must be at least 2 characters\n" {
		t.Errorf("unexpected output %q", buf.String())
	}

	other := errors.New("boom")
	if got := reportFieldErrors(&buf, other); got != other {
		t.Errorf("expected other errors returned unchanged, got %v", got)
	}
}

func TestConfigSet(t *testing.T) {
	isolate(t, "http://localhost:4000", "")

	out, _, err := execute(t, "", "config", "set", "retries", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Set retries to 5") {
		t.Errorf("unexpected output %q", out)
	}

	cfg, err := config.LoadFrom(config.ConfigPath(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetRetries() != 5 {
		t.Errorf("expected retries 5, got %d", cfg.GetRetries())
	}
	if cfg.BaseURL != "" {
		t.Errorf("environment base URL should not be saved, got %q", cfg.BaseURL)
	}

	if _, _, err := execute(t, "", "config", "set", "token", "abc"); err == nil {
		t.Error("expected token to be rejected")
	}
}

func TestConfigInit(t *testing.T) {
	isolate(t, "http://localhost:4000", "")

	out, _, err := execute(t, "", "config", "init", "--global")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, config.ConfigPath()) {
		t.Errorf("expected created path in output, got %q", out)
	}

	if _, _, err := execute(t, "", "config", "init", "--global"); err == nil {
		t.Error("expected error when the file already exists")
	}
	if _, _, err := execute(t, "", "config", "init", "--global", "--force"); err != nil {
		t.Errorf("expected --force to overwrite, got %v", err)
	}
	if _, _, err := execute(t, "", "config", "init", "--global", "--local"); err == nil {
		t.Error("expected --global and --local to conflict")
	}
}

func TestConfigInitInvalidChoice(t *testing.T) {
	isolate(t, "http://localhost:4000", "")

	if _, _, err := execute(t, "3\n", "config", "init"); err == nil {
		t.Error("expected invalid choice to fail")
	}
}

func TestConfigShowAndDefaults(t *testing.T) {
	isolate(t, "http://shop.example:4000", "")

	out, _, err := execute(t, "", "config", "show", "-o", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var shown map[string]any
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("expected JSON, got %q: %v", out, err)
	}
	if shown["base_url"] != "http://shop.example:4000" {
		t.Errorf("expected environment base URL, got %v", shown["base_url"])
	}

	out, _, err = execute(t, "", "config", "defaults")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "default_format: table") {
		t.Errorf("expected default format in YAML, got %q", out)
	}

	if _, _, err := execute(t, "", "config", "-o", "toml"); err == nil {
		t.Error("expected unknown format to fail")
	}
}

func TestCacheStatsAfterProducts(t *testing.T) {
	srv := newShopServer(t, 3)
	isolate(t, srv.URL, testToken)

	if _, _, err := execute(t, "", "products", "--page", "2", "-o", "json", "--tui=false"); err != nil {
		t.Fatalf("products failed: %v", err)
	}

	out, _, err := execute(t, "", "cache", "stats")
	if err != nil {
		t.Fatalf("cache stats failed: %v", err)
	}
	if !strings.Contains(out, "Total: 2") || !strings.Contains(out, "Valid: 2") {
		t.Errorf("expected two cached pages:\n%s", out)
	}

	if _, _, err := execute(t, "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear failed: %v", err)
	}
	out, _, _ = execute(t, "", "cache", "stats")
	if !strings.Contains(out, "Total: 0") {
		t.Errorf("expected empty cache:\n%s", out)
	}
}

func TestPrompter(t *testing.T) {
	root := New()
	root.SetIn(strings.NewReader("Ada\nhunter2\ny\n"))
	root.SetErr(&bytes.Buffer{})
	p := newPrompter(root)

	name, err := p.line("Name", "")
	if err != nil || name != "Ada" {
		t.Errorf("line() = %q, %v", name, err)
	}
	preset, _ := p.line("Email", "ada@example.com")
	if preset != "ada@example.com" {
		t.Errorf("expected preset value kept, got %q", preset)
	}
	secret, err := p.secret("Password")
	if err != nil || secret != "hunter2" {
		t.Errorf("secret() = %q, %v", secret, err)
	}
	ok, err := p.confirm("Accept?")
	if err != nil || !ok {
		t.Errorf("confirm() = %v, %v", ok, err)
	}
	if _, err := p.line("Missing", ""); err == nil {
		t.Error("expected error at end of input")
	}
}
