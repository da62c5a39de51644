package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/campusnav/location-api/internal/config"
	"github.com/campusnav/location-api/internal/log"
	"github.com/campusnav/location-api/internal/server"
	"github.com/campusnav/location-api/internal/utils"
	"github.com/campusnav/location-api/pkg/client"
	"github.com/campusnav/location-api/pkg/detector"
	"github.com/campusnav/location-api/pkg/llamacpp"
	"github.com/campusnav/location-api/pkg/ollama"
	"github.com/campusnav/location-api/pkg/processing"
)

func main() {
	var cfgPath, addr, envFile string
	flag.StringVar(&cfgPath, "config", "", "path to JSON config file (built-in defaults when empty)")
	flag.StringVar(&addr, "addr", "", "listen address override, e.g. :8080")
	flag.StringVar(&envFile, "env", ".env", "env file loaded at startup if present")
	flag.Parse()

	if utils.FileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			fatalf("failed to load env file %s: %v", envFile, err)
		}
	}

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgPath)
		if err != nil {
			fatalf("%v", err)
		}
	}
	cfg.ApplyEnv()
	if addr != "" {
		cfg.Server.Addr = addr
	}

	log.Init(cfg.Server.LogLevel)

	// Degenerate map corners are fatal here, never surfaced per-request.
	if err := cfg.Validate(); err != nil {
		fatalf("invalid configuration: %v", err)
	}

	processor := processing.NewProcessor()
	mapImage, err := processor.LoadImageSmart(cfg.Map.ImagePath)
	if err != nil {
		fatalf("failed to load reference map %s: %v", cfg.Map.ImagePath, err)
	}

	var vision client.VisionClient
	switch cfg.Model.Backend {
	case "llamacpp":
		vision, err = llamacpp.NewClient(cfg.Model.URL)
	default:
		vision, err = ollama.NewClient(cfg.Model.URL)
	}
	if err != nil {
		fatalf("failed to create %s client: %v", cfg.Model.Backend, err)
	}

	var det detector.Provider
	if cfg.Detector.InferenceURL != "" {
		remote := detector.NewRemote(cfg.Detector.InferenceURL, time.Duration(cfg.Detector.TimeoutSeconds)*time.Second)
		if err := remote.CheckHealth(); err != nil {
			log.Warn("detection service not available", "url", cfg.Detector.InferenceURL, "error", err)
		}
		det = remote
	} else {
		det = detector.NewSaliency()
	}

	srv := server.New(cfg, mapImage, vision, det)

	go func() {
		if err := srv.Listen(); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	log.Info("server started",
		"addr", cfg.Server.Addr,
		"backend", cfg.Model.Backend,
		"model", cfg.Model.Model,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "location-api: "+format+"\n", args...)
	os.Exit(1)
}
