package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-easyapply-automation/internal/api"
	"go-easyapply-automation/internal/board"
	"go-easyapply-automation/internal/bridge"
	"go-easyapply-automation/internal/browser"
	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/linkedin"
	"go-easyapply-automation/internal/localstore"
	"go-easyapply-automation/internal/resume"
	"go-easyapply-automation/internal/status"
	"go-easyapply-automation/internal/telegram"
)

func main() {
	start := flag.Bool("start", false, "start a session right away with the configured login")
	install := flag.Bool("install", false, "download the playwright driver and chromium first")
	flag.Parse()

	cfg := config.Load()
	log.Printf("🔧 Config loaded. Service: %s, search: %s", cfg.APIBaseURL, cfg.SearchURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pwManager, err := browser.NewPlaywright(ctx, browser.Options{Headless: cfg.Headless, Install: *install})
	if err != nil {
		log.Fatalf("❌ Failed to init Playwright: %v", err)
	}
	defer pwManager.Close()

	store := localstore.Open(cfg.StoragePath)

	var sinks []status.Sink
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram disabled: %v", err)
		} else {
			sinks = append(sinks, bot)
			log.Println("🤖 Telegram Bot initialized.")
		}
	}

	var local *resume.Context
	if cfg.ResumePath != "" {
		local, err = resume.LoadFile(cfg.ResumePath)
		if err != nil {
			log.Printf("⚠️ Could not load local resume %s: %v", cfg.ResumePath, err)
		} else {
			log.Printf("📄 Local resume loaded from %s", cfg.ResumePath)
		}
	}

	bg := bridge.NewBackground(bridge.Options{
		API:            api.New(cfg.APIBaseURL, nil),
		Storage:        store,
		OpenBoard:      boardFactory(cfg, pwManager),
		OllamaEndpoint: cfg.Ollama.Endpoint,
		Resume:         local,
		Sinks:          sinks,
		DialogTimeout:  cfg.DialogTimeout,
		ReviewTimeout:  cfg.ReviewTimeout,
	})
	defer bg.Close()

	srv := bridge.NewServer(bg, cfg.AllowedOrigins)
	go func() {
		if err := srv.Run(cfg.ListenAddr); err != nil {
			log.Printf("❌ Bridge server stopped: %v", err)
			stop()
		}
	}()

	if *start {
		msg := bridge.StartAutoApply{}
		if cfg.Login.Email != "" {
			msg.LoginData = &bridge.LoginData{Email: cfg.Login.Email, Password: cfg.Login.Password}
		}
		reply := bg.StartAutoApply(ctx, msg)
		if !reply.Success {
			log.Fatalf("❌ Could not start auto-apply: %s", reply.Error)
		}
	}

	<-ctx.Done()
	log.Println("👋 Shutting down...")
	bg.StopAutoApply(context.Background(), bridge.StopAutoApply{})

	waitCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := bg.Wait(waitCtx); err != nil {
		log.Printf("⚠️ Session did not stop in time: %v", err)
	}
}

// boardFactory opens a fresh browser context per session, logged in with the
// exported LinkedIn cookies and parked on the configured search.
func boardFactory(cfg *config.Config, pm *browser.PlaywrightManager) bridge.BoardFactory {
	return func(ctx context.Context) (board.Board, func(), error) {
		cookies, err := browser.LoadCookies(cfg.CookiesPath)
		if err != nil {
			log.Printf("⚠️ Could not load cookies: %v. Continuing without them.", err)
		} else if !browser.HasSession(cookies) {
			log.Printf("⚠️ %s has no li_at cookie, LinkedIn will ask for a login", cfg.CookiesPath)
		}

		bctx, err := pm.NewContext(cookies, "")
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := bctx.Close(); err != nil {
				log.Printf("⚠️ Could not close browser context: %v", err)
			}
		}

		page, err := bctx.NewPage()
		if err != nil {
			release()
			return nil, nil, err
		}
		page.SetDefaultTimeout(float64((30 * time.Second).Milliseconds()))

		b := linkedin.New(page, linkedin.Options{
			PageSize:       cfg.PageSize,
			SettleMin:      cfg.SettleMin(),
			SettleMax:      cfg.SettleMax(),
			ScreenshotsDir: cfg.ScreenshotsPath,
		})
		if err := b.Goto(ctx, cfg.SearchURL); err != nil {
			release()
			return nil, nil, err
		}
		if !b.LoggedIn(ctx) {
			log.Println("⚠️ Not logged in to LinkedIn, Easy Apply buttons may be missing")
		}
		return b, release, nil
	}
}
