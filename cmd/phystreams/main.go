// Package main implements phystreams, a command-line host that loads a flow
// of PHY components, feeds its open inputs with pseudo-random blocks and
// reports what reaches the open outputs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/andrepuschmann/iris-modules-ospecorr/component"
	"github.com/andrepuschmann/iris-modules-ospecorr/componentregistry"
	"github.com/andrepuschmann/iris-modules-ospecorr/config"
	flowengine "github.com/andrepuschmann/iris-modules-ospecorr/engine"
	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "phystreams"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, logger, shouldExit, err := initializeCLI(args)
	if shouldExit || err != nil {
		return err
	}

	flow, err := config.LoadFlow(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load flow: %w", err)
	}

	registry, err := componentregistry.NewRegistry()
	if err != nil {
		return fmt.Errorf("register components: %w", err)
	}
	logger.Debug("Component factories registered", "count", len(registry.ListAvailable()))

	if cliCfg.Validate {
		return validateFlow(flow, registry, logger)
	}

	metricsRegistry := metric.NewMetricsRegistry()
	eng, err := flowengine.New(flow, registry,
		flowengine.WithLogger(logger),
		flowengine.WithMetrics(metricsRegistry))
	if err != nil {
		return fmt.Errorf("build flow: %w", err)
	}
	defer func() { _ = eng.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	flowCtx, flowDone := context.WithCancel(gctx)
	if cliCfg.MetricsPort > 0 {
		server := metric.NewServer(cliCfg.MetricsPort, "/metrics", metricsRegistry)
		server.SetHealthCheck(eng.Health)
		g.Go(func() error {
			// Serve returns once the flow has finished and flowCtx is cancelled.
			if err := server.Serve(flowCtx); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		logger.Info("Metrics server started", "address", server.Address())
	}

	var counts map[string]portCount
	g.Go(func() error {
		defer flowDone()
		var err error
		counts, err = runFlow(flowCtx, eng, cliCfg, logger)
		if err != nil {
			return fmt.Errorf("run flow: %w", err)
		}
		return nil
	})
	err = g.Wait()
	flowDone()

	for _, endpoint := range sortedNames(eng.OpenOutputs()) {
		c := counts[endpoint]
		logger.Info("Open output totals",
			"port", endpoint,
			"datasets", c.Datasets,
			"samples", c.Samples)
	}
	if err != nil {
		return err
	}

	status := eng.Health()
	logger.Info("Flow complete",
		"flow", eng.Name(),
		"iterations", cliCfg.Iterations,
		"health", status.Status)
	return nil
}

// initializeCLI parses flags and sets up logging
func initializeCLI(args []string) (*CLIConfig, *slog.Logger, bool, error) {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	cliCfg, err := parseFlags(fs, args)
	if err != nil {
		return nil, nil, false, fmt.Errorf("parse flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp(fs)
		return nil, nil, true, nil
	}

	logger := setupLogger(os.Stdout, cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("Starting phystreams",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

func validateFlow(flow *config.FlowConfig, registry *component.Registry, logger *slog.Logger) error {
	result := flowengine.Validate(flow, registry, flowengine.WithLogger(logger))
	for _, issue := range result.Warnings {
		logger.Warn("Flow warning", "type", issue.Type, "component", issue.ComponentName, "message", issue.Message)
	}
	for _, issue := range result.Errors {
		logger.Error("Flow error", "type", issue.Type, "component", issue.ComponentName, "message", issue.Message)
	}
	if result.Status == flowengine.StatusErrors {
		return fmt.Errorf("flow %s is invalid: %d errors", flow.Name, len(result.Errors))
	}

	logger.Info("Flow is valid",
		"status", result.Status,
		"order", result.Order,
		"open_inputs", result.OpenInputs,
		"open_outputs", result.OpenOutputs)
	return nil
}
