package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/ArticleGoat/internal/config"
	"github.com/IshaanNene/ArticleGoat/internal/types"
)

// Wait strategies for RodRenderer.
const (
	WaitNetworkIdle = "network-idle"
	WaitLoad        = "load"
	WaitStable      = "stable"
)

// RodRenderer implements Renderer with a headless Chromium driven by Rod.
// Every call launches its own browser and kills it afterwards; nothing is
// pooled, so memory is bounded by one instance per in-flight call.
type RodRenderer struct {
	cfg        config.RenderConfig
	stealthCfg *StealthConfig
	userAgent  string
	acceptLang string
	logger     *slog.Logger
}

// NewRodRenderer creates a renderer from configuration.
func NewRodRenderer(cfg *config.Config, logger *slog.Logger) *RodRenderer {
	r := &RodRenderer{
		cfg:        cfg.Render,
		acceptLang: headerValue(cfg.Fetcher.Headers, "Accept-Language"),
		logger:     logger.With("component", "browser_renderer"),
	}
	if len(cfg.Fetcher.UserAgents) > 0 {
		r.userAgent = cfg.Fetcher.UserAgents[0]
	}
	if cfg.Render.Stealth {
		r.stealthCfg = DefaultStealthConfig()
	}
	return r
}

// Render loads rawURL in a fresh browser, waits according to the configured
// strategy, and returns the rendered HTML. It does not retry.
func (r *RodRenderer) Render(ctx context.Context, rawURL string, timeout time.Duration) (res types.FetchResult) {
	start := time.Now()
	res = types.FetchResult{RequestedURL: rawURL, FinalURL: rawURL, Attempts: 1}
	defer func() {
		if rec := recover(); rec != nil {
			res.Status = types.FetchError
			res.Err = fmt.Sprintf("panic during render: %v", rec)
		}
		res.Elapsed = time.Since(start)
	}()

	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	html, finalURL, err := r.render(ctx, rawURL)
	if err != nil {
		res.Err = err.Error()
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			res.Status = types.FetchTimeout
		} else {
			res.Status = types.FetchError
		}
		r.logger.Warn("render failed", "url", rawURL, "status", res.Status, "error", err)
		return res
	}

	res.Status = types.FetchOK
	res.StatusCode = 200 // Rod does not expose the document status
	res.HTML = html
	res.HasHTML = html != ""
	res.FinalURL = finalURL

	r.logger.Debug("render complete",
		"url", rawURL,
		"final_url", finalURL,
		"size", len(html),
		"duration", time.Since(start),
	)
	return res
}

func (r *RodRenderer) render(ctx context.Context, rawURL string) (string, string, error) {
	l := r.launcher()
	defer l.Cleanup()
	defer l.Kill()

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		return "", "", fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", "", fmt.Errorf("connect browser: %w", err)
	}
	defer browser.Close()

	var page *rod.Page
	if r.stealthCfg != nil {
		page, err = stealth.Page(browser)
		if err == nil {
			_, err = page.EvalOnNewDocument(r.stealthCfg.StealthJS())
		}
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return "", "", fmt.Errorf("open page: %w", err)
	}

	if r.userAgent != "" {
		ua := &proto.NetworkSetUserAgentOverride{UserAgent: r.userAgent}
		ua.AcceptLanguage = r.acceptLang
		if err := page.SetUserAgent(ua); err != nil {
			r.logger.Warn("failed to set user agent", "error", err)
		}
	}

	var waitIdle func()
	if r.cfg.WaitStrategy == WaitNetworkIdle {
		waitIdle = page.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	}

	if err := page.Navigate(rawURL); err != nil {
		return "", "", fmt.Errorf("navigate: %w", err)
	}

	switch r.cfg.WaitStrategy {
	case WaitNetworkIdle:
		waitIdle()
	case WaitLoad:
		if err := page.WaitLoad(); err != nil {
			return "", "", fmt.Errorf("wait load: %w", err)
		}
	default:
		if err := page.WaitStable(300 * time.Millisecond); err != nil {
			return "", "", fmt.Errorf("wait stable: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return "", "", fmt.Errorf("wait %s: %w", r.cfg.WaitStrategy, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", "", fmt.Errorf("read html: %w", err)
	}

	finalURL := rawURL
	if info, err := page.Info(); err == nil && info != nil && info.URL != "" {
		finalURL = info.URL
	}
	return html, finalURL, nil
}

// launcher builds a Chromium launcher with the usual anti-detection flags.
func (r *RodRenderer) launcher() *launcher.Launcher {
	l := launcher.New().
		Headless(r.cfg.Headless).
		Leakless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.stealthCfg != nil && r.stealthCfg.WindowSize != "" {
		l = l.Set("window-size", r.stealthCfg.WindowSize)
	}
	return l
}

// headerValue looks up a configured header regardless of key case.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
