package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/config"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides TASKDOCK_CONFIG)")
	port := flag.String("port", "", "Server port (overrides config)")
	dev := flag.Bool("dev", false, "Development logging")
	flag.Parse()

	if *configPath != "" {
		_ = os.Setenv("TASKDOCK_CONFIG", *configPath)
	}
	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
