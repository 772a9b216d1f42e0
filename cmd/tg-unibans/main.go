package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tg-unibans/internal/bot"
	"tg-unibans/internal/config"
	"tg-unibans/internal/crash"
	"tg-unibans/internal/handler"
	"tg-unibans/internal/logger"
	"tg-unibans/internal/metrics"
	"tg-unibans/internal/service"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}
	crash.SetupCrashHandler()
	defer crash.RecoverWithStackAndExit("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tg, err := bot.NewBot(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	// the halt command cancels ctx, which ends the wait below
	services, err := service.Initialize(ctx, cfg, tg, cancel)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	botService, err := bot.Initialize(ctx, tg, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bot: %v", err)
	}
	bot.SetCommands(ctx, tg, services.Dispatcher.Registry().All())

	if server := botService.Server; server != nil {
		crash.SafeGoroutine("webhook-server", func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatalf("HTTP server error: %v", err)
			}
		})
		// Give server time to start
		time.Sleep(500 * time.Millisecond)
		log.Println("HTTP server is ready, starting bot handler...")
	}

	var metricsServer *http.Server
	if addr := cfg.Metrics.Listen; addr != "" {
		metricsServer = metrics.NewServer(addr)
		crash.SafeGoroutine("metrics-server", func() {
			logger.Infof("Serving metrics on %s", addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorf("Metrics server error: %v", err)
			}
		})
	}

	handler.SetupHandlers(botService.Handler, tg, services.Handler)
	crash.SafeGoroutine("bot-handler", botService.Start)
	services.StartBackground(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v, shutting down...", sig)
		cancel()
	case <-ctx.Done():
		log.Println("Halt requested, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	botService.Stop()
	if botService.Server != nil {
		if err := botService.Server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Metrics server shutdown error: %v", err)
		}
	}

	log.Println("Bot gracefully stopped")
}
