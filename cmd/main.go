package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clipsleuth/adapters"
	"clipsleuth/config"
	"clipsleuth/engine"
	"clipsleuth/entry"
	"clipsleuth/logger"
	"clipsleuth/output"
	"clipsleuth/systeminfo"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.LogLevel)

	if err := entry.SetFingerprintAlgorithm(cfg.HashAlgorithm); err != nil {
		logger.Fatalf("Invalid hash algorithm: %v", err)
	}

	// Gather host context if requested
	var sysInfo *systeminfo.SystemInfo
	if cfg.CollectSystemInfo {
		sysInfo, err = systeminfo.Gather()
		if err != nil {
			logger.Errorf("Failed to gather system information: %v", err)
		}
	}

	// Prepare output
	writer, err := output.New(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize output: %v", err)
	}
	defer writer.Close()

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go handleSignalEvent(cancel, sigChan)

	sources := adapters.Discover(cfg)
	if len(sources) == 0 {
		logger.Warn("No clipboard stores found. Pass --stores, --manager-stores, or --dumps.")
	}

	eng := engine.New(cfg)
	eng.SetSystemInfo(sysInfo)
	report := eng.Run(ctx, sources)

	if err := writer.Write(report); err != nil {
		logger.Fatalf("Failed to write report: %v", err)
	}

	if n := len(report.Analysis.SuspiciousPatterns); n > 0 {
		logger.Warnf("%d suspicious patterns detected", n)
	}
	if n := len(report.Analysis.PotentialExfiltration); n > 0 {
		logger.Warnf("%d potential data exfiltration indicators", n)
	}
	logger.Info("Analysis completed successfully.")
}

func handleSignalEvent(cancelFunc context.CancelFunc, sigChan chan os.Signal) {
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	cancelFunc()
}
