package fetcher

import (
	"fmt"
	"math/rand"
)

// StealthConfig controls the fingerprint the renderer presents.
type StealthConfig struct {
	ViewportWidth  int
	ViewportHeight int

	// WindowSize is passed to Chromium as --window-size.
	WindowSize string

	Language            string
	Platform            string
	HardwareConcurrency int
	DeviceMemory        int
}

// DefaultStealthConfig returns a stealth configuration that mimics a typical
// Spanish desktop browser.
func DefaultStealthConfig() *StealthConfig {
	viewports := []struct{ w, h int }{
		{1920, 1080}, {1366, 768}, {1536, 864}, {1440, 900},
	}
	vp := viewports[rand.Intn(len(viewports))]

	platforms := []string{"Win32", "MacIntel", "Linux x86_64"}

	return &StealthConfig{
		ViewportWidth:       vp.w,
		ViewportHeight:      vp.h,
		WindowSize:          fmt.Sprintf("%d,%d", vp.w, vp.h),
		Language:            "es-ES",
		Platform:            platforms[rand.Intn(len(platforms))],
		HardwareConcurrency: 4 + rand.Intn(5),
		DeviceMemory:        8,
	}
}

// StealthJS returns JavaScript injected before any page script runs. It
// complements go-rod/stealth with locale and hardware overrides.
func (sc *StealthConfig) StealthJS() string {
	return fmt.Sprintf(`
Object.defineProperty(navigator, 'platform', { get: () => '%s' });
Object.defineProperty(navigator, 'language', { get: () => '%s' });
Object.defineProperty(navigator, 'languages', { get: () => ['%s', 'es', 'en'] });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => %d });
Object.defineProperty(navigator, 'deviceMemory', { get: () => %d });
Object.defineProperty(navigator, 'webdriver', { get: () => false });
`, sc.Platform, sc.Language, sc.Language, sc.HardwareConcurrency, sc.DeviceMemory)
}
