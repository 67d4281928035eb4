package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spiffcs/storefront/config"
	"github.com/spiffcs/storefront/internal/cache"
	"github.com/spiffcs/storefront/internal/catalog"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
	"github.com/spiffcs/storefront/internal/session"
	"github.com/spiffcs/storefront/internal/shopclient"
	"github.com/spiffcs/storefront/internal/tui"
)

// cmdRuntime carries the progress display through a command. Without a
// TUI, progress is nil and updates go to the log instead.
type cmdRuntime struct {
	useTUI   bool
	progress *tui.Progress
}

// startTUI starts the progress display if TUI mode is enabled.
func (rt *cmdRuntime) startTUI() {
	if rt.useTUI && rt.progress == nil {
		rt.progress = tui.StartProgress()
	}
}

// close stops the progress display. Later updates are dropped.
func (rt *cmdRuntime) close() {
	if err := rt.progress.Close(); err != nil {
		log.Debug("progress display exited", "error", err)
	}
	rt.progress = nil
}

func (rt *cmdRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	rt.progress.Task(task, status, opts...)
}

// notice shows msg under the progress display, or logs it without a TUI.
func (rt *cmdRuntime) notice(msg string) {
	if rt.progress == nil {
		log.Info(msg)
		return
	}
	rt.progress.Notice(msg)
}

// setupRuntime creates the runtime struct and initializes logging.
func setupRuntime(opts *Options) *cmdRuntime {
	useTUI := shouldUseTUI(opts)

	// Suppress logs during TUI to avoid interleaving with display
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	return &cmdRuntime{useTUI: useTUI}
}

// shopContext bundles config, session and API client.
type shopContext struct {
	cfg    *config.Config
	sess   *session.Session
	client *shopclient.Client
}

// loadShop loads configuration and the saved session and builds the API client.
func loadShop() (*shopContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	sess, err := session.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if cfg.Token != "" {
		sess.SetOverride(cfg.Token)
	}

	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, err
	}

	client, err := shopclient.New(cfg.GetBaseURL(), sess,
		shopclient.WithRetries(cfg.GetRetries()),
		shopclient.WithTimeout(timeout),
		shopclient.WithOnUnauthorized(func() {
			log.Warn("session expired, cleared saved token", "path", sess.Path())
		}),
	)
	if err != nil {
		return nil, err
	}

	log.Debug("shop client ready", "baseURL", client.BaseURL(), "session", sess.Path())

	return &shopContext{cfg: cfg, sess: sess, client: client}, nil
}

// verifySession confirms the saved token with the API so an expired
// session fails before any cached page is shown.
func (s *shopContext) verifySession(ctx context.Context) (*model.User, error) {
	if err := s.sess.Require(); err != nil {
		return nil, err
	}
	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.sess.SetUser(u); err != nil {
		log.Warn("failed to update saved user", "error", err)
	}
	return u, nil
}

// pageFetcher returns the page source for the catalog: the API client
// behind the on-disk page cache unless noCache is set.
func (s *shopContext) pageFetcher(noCache bool) catalog.PageFetcher {
	if noCache {
		return s.client
	}

	ttl, err := s.cfg.GetPageCacheTTL()
	if err != nil {
		log.Warn("invalid page cache ttl, caching disabled", "error", err)
		return s.client
	}

	c, err := cache.New(cache.WithTTL(ttl))
	if err != nil {
		log.Warn("failed to initialize cache", "error", err)
		return s.client
	}

	return shopclient.NewPageStore(s.client, c)
}
