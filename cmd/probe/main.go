package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/linkedin"
	"go-easyapply-automation/internal/models"
)

// probe opens the configured search read-only and prints what the board sees,
// for checking cookies and selectors without applying anywhere.
func main() {
	open := flag.Bool("open", false, "also open the first job and report whether Easy Apply is offered")
	flag.Parse()

	cfg := config.Load()
	fmt.Printf("🔧 Search: %s\n", cfg.SearchURL)
	fmt.Printf("🔧 Cookies: %s, headless: %t\n", cfg.CookiesPath, cfg.Headless)

	cookies, err := browser.LoadCookies(cfg.CookiesPath)
	if err != nil {
		log.Printf("⚠️ %v", err)
	}
	fmt.Printf("🍪 Loaded %d cookies, session cookie present: %t\n", len(cookies), browser.HasSession(cookies))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pm, err := browser.NewPlaywright(ctx, browser.Options{Headless: cfg.Headless})
	if err != nil {
		log.Fatalf("❌ Failed to create Playwright: %v", err)
	}
	defer pm.Close()

	bctx, err := pm.NewContext(cookies, "")
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		log.Fatalf("❌ Failed to create page: %v", err)
	}

	b := linkedin.New(page, linkedin.Options{
		PageSize:       cfg.PageSize,
		SettleMin:      cfg.SettleMin(),
		SettleMax:      cfg.SettleMax(),
		ScreenshotsDir: cfg.ScreenshotsPath,
	})
	if err := b.Goto(ctx, cfg.SearchURL); err != nil {
		log.Fatalf("❌ Failed to navigate: %v", err)
	}

	fmt.Printf("🔐 Logged in: %t\n", b.LoggedIn(ctx))
	fmt.Printf("📋 On search results: %t\n", b.OnSearchResults(ctx))
	total := b.TotalJobs(ctx)
	fmt.Printf("📊 %d jobs on %d pages\n", total, b.TotalPages(ctx, total))

	cards := b.ListJobs(ctx)
	for i, c := range cards {
		if i == 5 {
			fmt.Printf("   ... and %d more\n", len(cards)-5)
			break
		}
		fmt.Printf("   #%d job %s\n", c.Index, c.ID)
	}

	if *open && len(cards) > 0 {
		if err := b.OpenJob(ctx, cards[0]); err != nil {
			log.Printf("⚠️ Could not open %s: %v", cards[0].ID, err)
		} else {
			info := b.JobInfo(ctx)
			fmt.Printf("🏢 %s @ %s (%s)\n", models.Str(info.Title), models.Str(info.Company), models.Str(info.Location))
			fmt.Printf("⚡ Easy Apply: %t, already applied: %t\n", b.HasQuickApply(ctx), b.AlreadyApplied(ctx))
		}
	}

	if path, err := b.Screenshot(ctx, "probe"); err == nil {
		fmt.Printf("📸 Screenshot saved: %s\n", path)
	}
	fmt.Println("✨ Probe complete!")
}
