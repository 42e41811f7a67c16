package fetcher

import (
	"strings"
	"testing"

	"github.com/IshaanNene/ArticleGoat/internal/config"
)

func TestBlocking403IgnoresBody(t *testing.T) {
	d := NewBlockingDetector(config.DefaultConfig().Blocking)
	if !d.IsBlocked(articleHTML, 403) {
		t.Error("403 must always be blocked")
	}
	if !d.IsBlocked("", 429) {
		t.Error("429 must always be blocked")
	}
}

func TestBlockingHeuristics(t *testing.T) {
	cfg := config.DefaultConfig().Blocking
	cfg.MaxBytes = 64 * 1024
	d := NewBlockingDetector(cfg)

	tests := []struct {
		name string
		html string
		want bool
	}{
		{"normal article", articleHTML, false},
		{"too small", "<html>hi</html>", true},
		{"too large", strings.Repeat("a", 65*1024), true},
		{"phrase", articleHTML + "<p>Access Denied</p>", true},
		{"spanish phrase", articleHTML + "<p>ACCESO DENEGADO</p>", true},
		{"editorial robot mention", articleHTML + "<p>El robot de cocina más vendido.</p>", false},
		{"noscript notice", strings.Replace(articleHTML, "<body>", "<body><noscript>Please enable JavaScript to view comments.</noscript>", 1), false},
		{"editorial captcha mention", articleHTML + "<p>Los sistemas captcha frenan a los bots de reventa.</p>", false},
		{"captcha challenge copy", articleHTML + "<p>Please complete the CAPTCHA to continue.</p>", true},
		{"cloudflare interstitial", articleHTML + "<p>Enable JavaScript and cookies to continue</p>", true},
		{"turnstile widget", articleHTML + `<div class="cf-turnstile" data-sitekey="0x4AAA"></div>`, true},
	}
	for _, tt := range tests {
		if got := d.IsBlocked(tt.html, 200); got != tt.want {
			t.Errorf("%s: IsBlocked = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectCAPTCHA(t *testing.T) {
	kind, key := DetectCAPTCHA(`<div class="g-recaptcha" data-sitekey="abc"></div>`)
	if kind != CAPTCHAReCaptchaV2 || key != "abc" {
		t.Errorf("got %s %s", kind, key)
	}
	if kind, _ := DetectCAPTCHA(`<script src="recaptcha.js"></script>`); kind != "" {
		t.Errorf("script mention without widget should not count, got %s", kind)
	}
}
