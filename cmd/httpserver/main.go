package main

import (
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"httpstatic/internal/config"
	"httpstatic/internal/content"
	"httpstatic/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Error reading configuration: %v", err)
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("Error opening log file: %v", err)
	}
	defer closeLog()

	srv, err := server.New(cfg.DocumentRoot, cfg.Port, content.Default(), server.WithLogger(logger))
	if err != nil {
		logger.Fatalf("Error starting server: %v", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()
	logger.Printf("Serving %s on port: %d", cfg.DocumentRoot, srv.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		if err := srv.Close(); err != nil {
			logger.Printf("Error stopping server: %v", err)
		}
		<-errc
		logger.Println("Server gracefully stopped")
	case err := <-errc:
		if !errors.Is(err, server.ErrServerClosed) {
			logger.Fatalf("Event loop failed: %v", err)
		}
	}
}

// newLogger writes to stderr, and also appends to path when one is given.
func newLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(os.Stderr, "", log.LstdFlags), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	w := io.MultiWriter(os.Stderr, f)
	return log.New(w, "", log.LstdFlags), func() { f.Close() }, nil
}
