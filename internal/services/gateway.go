package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mtfultz/diversify/internal/config"
)

const apiKeyParam = "x_cg_demo_api_key"

// ErrRateLimited is wrapped by the UpstreamError returned when the retry after a 429 is also rejected.
var ErrRateLimited = errors.New("upstream rate limited")

// UpstreamError is the only failure type the Gateway returns.
// Status is zero for transport and decode failures.
type UpstreamError struct {
	Path   string
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("coingecko %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("coingecko %d", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Transport() bool { return e.Status == 0 }

// Caller is the surface the typed CoinGecko client needs from a Gateway.
type Caller interface {
	Call(ctx context.Context, path string, params url.Values, out any) error
}

type Gateway struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	pacer   Pacer
	backoff time.Duration
	log     *zap.Logger
}

func NewGateway(cfg config.Config, pacer Pacer, log *zap.Logger) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(cfg.CoinGeckoBaseURL, "/"),
		apiKey:  cfg.CoinGeckoAPIKey,
		hc: &http.Client{
			Timeout: cfg.UpstreamTimeout,
		},
		pacer:   pacer,
		backoff: cfg.UpstreamBackoff,
		log:     log.With(zap.String("upstream", "coingecko")),
	}
}

// Call reserves one pacing slot, then GETs path and decodes the JSON body into out.
// A first 429 is retried once after the back-off, reusing the same slot.
func (g *Gateway) Call(ctx context.Context, path string, params url.Values, out any) error {
	if err := g.pacer.Wait(ctx); err != nil {
		return &UpstreamError{Path: path, Err: err}
	}

	target := g.buildURL(path, params)
	var lastErr *UpstreamError
	for attempt := 0; attempt < 2; attempt++ {
		start := time.Now()
		err := g.do(ctx, path, target, out)
		if err == nil {
			g.log.Debug("upstream call",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("took", time.Since(start)))
			return nil
		}
		lastErr = err
		if err.Status != http.StatusTooManyRequests || attempt > 0 {
			break
		}
		g.log.Warn("upstream rate limited, backing off",
			zap.String("path", path),
			zap.Duration("backoff", g.backoff))
		if err := sleepCtx(ctx, g.backoff); err != nil {
			return &UpstreamError{Path: path, Err: err}
		}
	}
	g.log.Warn("upstream call failed", zap.String("path", path), zap.Error(lastErr))
	return lastErr
}

func (g *Gateway) buildURL(path string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		q[k] = append([]string(nil), vs...)
	}
	if g.apiKey != "" {
		q.Set(apiKeyParam, g.apiKey)
	}
	target := g.baseURL + path
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func (g *Gateway) do(ctx context.Context, path string, target string, out any) *UpstreamError {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &UpstreamError{Path: path, Err: redactURLError(err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "diversify/1.0")

	res, err := g.hc.Do(req)
	if err != nil {
		return &UpstreamError{Path: path, Err: redactURLError(err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		upErr := &UpstreamError{Path: path, Status: res.StatusCode, Body: string(body)}
		if res.StatusCode == http.StatusTooManyRequests {
			upErr.Err = ErrRateLimited
		}
		return upErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &UpstreamError{Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// redactURLError strips the request URL, which carries the API key, from net/http errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", strings.ToLower(urlErr.Op), urlErr.Err)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
