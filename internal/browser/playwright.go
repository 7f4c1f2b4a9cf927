// Package browser owns the playwright lifecycle and the human-like pacing helpers.
package browser

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

type Options struct {
	Headless bool
	Locale   string
	// Install downloads the driver and browsers before launching.
	Install bool
}

type PlaywrightManager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// NewPlaywright starts playwright and launches Chromium.
func NewPlaywright(ctx context.Context, opts Options) (*PlaywrightManager, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("could not launch chromium: %w", err)
	}

	return &PlaywrightManager{pw: pw, browser: browser}, nil
}

// NewContext opens an isolated browser context pre-loaded with cookies.
func (pm *PlaywrightManager) NewContext(cookies []playwright.OptionalCookie, locale string) (playwright.BrowserContext, error) {
	if locale == "" {
		locale = "en-US"
	}
	bctx, err := pm.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport:  &playwright.Size{Width: 1440, Height: 900},
		Locale:    playwright.String(locale),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}

	if err := bctx.AddInitScript(playwright.Script{
		Content: playwright.String(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`),
	}); err != nil {
		return nil, fmt.Errorf("could not add init script: %w", err)
	}

	if len(cookies) > 0 {
		if err := bctx.AddCookies(cookies); err != nil {
			return nil, fmt.Errorf("could not add cookies: %w", err)
		}
	}
	return bctx, nil
}

func (pm *PlaywrightManager) Close() error {
	if pm == nil {
		return nil
	}
	if pm.browser != nil {
		if err := pm.browser.Close(); err != nil {
			return fmt.Errorf("could not close browser: %w", err)
		}
	}
	if pm.pw != nil {
		if err := pm.pw.Stop(); err != nil {
			return fmt.Errorf("could not stop playwright: %w", err)
		}
	}
	return nil
}
