package main

import (
	"bufio"
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/glazed-darnut/VerifyBot/bot"
	_ "github.com/glazed-darnut/VerifyBot/bot/command_handler"
	"github.com/glazed-darnut/VerifyBot/config"
	"github.com/glazed-darnut/VerifyBot/pkg/fetch"
	"github.com/glazed-darnut/VerifyBot/pkg/log"
	"github.com/glazed-darnut/VerifyBot/pkg/ocr"
	"github.com/glazed-darnut/VerifyBot/pkg/ocr/tesseract"
	"github.com/glazed-darnut/VerifyBot/service"
	"github.com/glazed-darnut/VerifyBot/webserver/router"
)

func main() {
	cfg := config.GetConfig()

	// the pools must be ready before any verification request is accepted
	pool := ocr.Init(cfg.TextWorkers, cfg.DetectWorkers,
		func() (ocr.TextEngine, error) { return tesseract.NewEngine(cfg.TessLang) },
		tesseract.NewDetector,
	)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := pool.Await(ctx); err != nil {
		log.Fatal("ocr pool: %v", err)
	}
	cancel()

	fetcher, err := fetch.New(cfg.ImageProxy)
	if err != nil {
		log.Fatal("%v", err)
	}
	scratchDir := filepath.Join(cfg.Config, "images")
	if err := os.MkdirAll(scratchDir, 0700); err != nil {
		log.Fatal("%v", err)
	}

	store := service.GetStore()
	verifier := service.NewVerifier(pool, fetcher, cfg.WorkingWidth, cfg.BandHeight, scratchDir)

	GoBackgrounds()

	go func() {
		if err := router.Run(); err != nil {
			log.Error("webserver: %v", err)
		}
	}()

	if bot.NewPlatform != nil {
		platform, err := bot.NewPlatform(cfg.BotToken)
		if err != nil {
			log.Fatal("chat platform: %v", err)
		}
		b := bot.New(platform, store, verifier)
		go func() {
			if err := b.Run(); err != nil {
				log.Error("bot: %v", err)
			}
		}()
	} else {
		log.Warn("no chat platform adapter linked; running admin surfaces only")
	}

	go console(store)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	store.Close()
	if err := pool.Close(); err != nil {
		log.Warn("close ocr pool: %v", err)
	}
}

// console is the process admin surface: a `reload` line re-reads persisted
// configuration without a restart.
func console(store *service.Store) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "reload":
			log.Info("reloading")
			if err := store.Reload(); err != nil {
				log.Warn("reload: %v", err)
			}
		}
	}
}
