package remote

// Functional options configuring the Adapter during construction. Kept in a
// standalone file so all available knobs are discoverable at a glance.

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Option mutates the Adapter during New().
type Option func(*Adapter) error

// WithHTTPClient injects a custom *http.Client. Useful for setting transport
// timeouts, tracing, custom TLS settings, etc.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Adapter) error {
		if hc == nil {
			return fmt.Errorf("nil http client")
		}
		a.http = hc
		return nil
	}
}

// WithTimeout overrides the per-call deadline every remote operation races
// against.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
		a.timeout = d
		return nil
	}
}

// WithDebugLogging wraps the adapter's transport such that every
// request/response is logged when enabled is true.
func WithDebugLogging(enabled bool) Option {
	return func(a *Adapter) error {
		if enabled {
			transport := a.http.Transport
			if transport == nil {
				transport = http.DefaultTransport
			}
			a.http.Transport = &debugTransport{base: transport}
		}
		return nil
	}
}

// debugTransport wraps an http.RoundTripper to log requests and responses.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if debugEnabled() {
		if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
		}
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		if debugEnabled() {
			log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		}
		return nil, err
	}

	if debugEnabled() {
		if respDump, err := httputil.DumpResponse(resp, true); err == nil {
			log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
		}
	}
	return resp, nil
}

func debugEnabled() bool {
	return os.Getenv("INKWELL_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
