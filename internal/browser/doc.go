// Package browser runs the live archive page in Chromium through chromedp and
// exposes it as a page.Accessor.
//
// Session holds the allocator and tab contexts; Close releases both. Chromium can
// be downloaded on demand with InstallChromium, which uses playwright-go's driver.
//
// Tests that start Chromium carry the integration build tag:
//
//	go test -tags integration ./internal/browser/...
//
// Set ZABAVA_ARCHIVE_CHROME_PATH when Chromium is not on PATH.
package browser
