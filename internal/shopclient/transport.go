package shopclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/log"
	"golang.org/x/oauth2"
)

// authTransport stamps every request with a request id and, when the
// token source has one, a bearer token. A 401 on an authenticated request
// clears the session and is turned into ErrUnauthorized.
type authTransport struct {
	base           http.RoundTripper
	source         oauth2.TokenSource
	clear          func() error
	onUnauthorized func()
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set(constants.RequestIDHeader, uuid.NewString())
	r.Header.Set("Accept", "application/json")

	authenticated := false
	if t.source != nil {
		if tok, err := t.source.Token(); err == nil && tok.AccessToken != "" {
			tok.SetAuthHeader(r)
			authenticated = true
		}
	}

	resp, err := t.base.RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		log.Debug("token rejected, clearing session", "path", r.URL.Path, "request_id", r.Header.Get(constants.RequestIDHeader))
		if t.clear != nil {
			if err := t.clear(); err != nil {
				log.Warn("failed to clear session", "error", err)
			}
		}
		if t.onUnauthorized != nil {
			t.onUnauthorized()
		}
		return nil, ErrUnauthorized
	}

	return resp, nil
}

// retryTransport retries idempotent requests on transport errors and 5xx
// responses. Requests with other methods pass straight through.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base.RoundTrip(req)
	}

	for attempt := 0; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if !retryable(resp, err) || attempt >= t.retries {
			return resp, err
		}
		if ctxErr := req.Context().Err(); ctxErr != nil {
			if resp != nil {
				return resp, err
			}
			return nil, ctxErr
		}

		if resp != nil {
			log.Debug("retrying request", "path", req.URL.Path, "status", resp.StatusCode, "attempt", attempt+1)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		} else {
			log.Debug("retrying request", "path", req.URL.Path, "error", err, "attempt", attempt+1)
		}

		if err := sleep(req.Context(), time.Duration(attempt+1)*t.backoff); err != nil {
			return nil, err
		}
	}
}

func retryable(resp *http.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return resp.StatusCode >= http.StatusInternalServerError
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
