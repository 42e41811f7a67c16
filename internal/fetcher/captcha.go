package fetcher

import "strings"

// CAPTCHAType identifies the type of CAPTCHA widget on a page.
type CAPTCHAType string

const (
	CAPTCHAReCaptchaV2 CAPTCHAType = "recaptcha_v2"
	CAPTCHAReCaptchaV3 CAPTCHAType = "recaptcha_v3"
	CAPTCHAHCaptcha    CAPTCHAType = "hcaptcha"
	CAPTCHATurnstile   CAPTCHAType = "turnstile"
)

// DetectCAPTCHA checks whether a page carries a CAPTCHA widget and returns
// its type and site key. Only widgets with a site key count; a bare mention
// of "recaptcha" in a script URL does not.
func DetectCAPTCHA(html string) (CAPTCHAType, string) {
	htmlLower := strings.ToLower(html)

	siteKey := extractBetween(html, `data-sitekey="`, `"`)
	if siteKey == "" {
		return "", ""
	}

	switch {
	case strings.Contains(htmlLower, "g-recaptcha") || strings.Contains(htmlLower, "recaptcha"):
		if strings.Contains(htmlLower, "recaptcha/api.js?render=") {
			return CAPTCHAReCaptchaV3, siteKey
		}
		return CAPTCHAReCaptchaV2, siteKey
	case strings.Contains(htmlLower, "h-captcha") || strings.Contains(htmlLower, "hcaptcha"):
		return CAPTCHAHCaptcha, siteKey
	case strings.Contains(htmlLower, "cf-turnstile") || strings.Contains(htmlLower, "turnstile"):
		return CAPTCHATurnstile, siteKey
	}
	return "", ""
}

// extractBetween extracts a substring between two delimiters.
func extractBetween(s, start, end string) string {
	idx := strings.Index(s, start)
	if idx < 0 {
		return ""
	}
	s = s[idx+len(start):]
	idx = strings.Index(s, end)
	if idx < 0 {
		return ""
	}
	return s[:idx]
}
