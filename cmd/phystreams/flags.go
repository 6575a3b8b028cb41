package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Iterations  int
	BlockSize   int
	SampleRate  float64
	Realtime    bool
	Seed        uint64
	MetricsPort int
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*CLIConfig, error) {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("PHYSTREAMS_CONFIG", "configs/splitter.yaml"),
		"Path to flow file, YAML or JSON (env: PHYSTREAMS_CONFIG)")

	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("PHYSTREAMS_CONFIG", "configs/splitter.yaml"),
		"Path to flow file, YAML or JSON (env: PHYSTREAMS_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("PHYSTREAMS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: PHYSTREAMS_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("PHYSTREAMS_LOG_FORMAT", "json"),
		"Log format: json, text (env: PHYSTREAMS_LOG_FORMAT)")

	fs.IntVar(&cfg.Iterations, "iterations",
		getEnvInt("PHYSTREAMS_ITERATIONS", 10),
		"Number of blocks injected into every open input (env: PHYSTREAMS_ITERATIONS)")

	fs.IntVar(&cfg.BlockSize, "block-size",
		getEnvInt("PHYSTREAMS_BLOCK_SIZE", 1024),
		"Samples per injected block (env: PHYSTREAMS_BLOCK_SIZE)")

	fs.Float64Var(&cfg.SampleRate, "sample-rate",
		getEnvFloat("PHYSTREAMS_SAMPLE_RATE", 1e6),
		"Sample rate attached to injected blocks (env: PHYSTREAMS_SAMPLE_RATE)")

	fs.BoolVar(&cfg.Realtime, "realtime",
		getEnvBool("PHYSTREAMS_REALTIME", false),
		"Pace injection so blocks arrive at the sample rate (env: PHYSTREAMS_REALTIME)")

	fs.Uint64Var(&cfg.Seed, "seed",
		uint64(getEnvInt("PHYSTREAMS_SEED", 1)),
		"Seed of the pseudo-random input generator (env: PHYSTREAMS_SEED)")

	fs.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("PHYSTREAMS_METRICS_PORT", 0),
		"Prometheus metrics port, 0 to disable (env: PHYSTREAMS_METRICS_PORT)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate the flow and exit")

	// Custom usage
	fs.Usage = func() {
		printDetailedHelp(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.Iterations < 0 {
		return fmt.Errorf("invalid iterations: %d", cfg.Iterations)
	}

	if cfg.BlockSize < 0 {
		return fmt.Errorf("invalid block size: %d", cfg.BlockSize)
	}

	if cfg.Realtime && cfg.SampleRate <= 0 {
		return fmt.Errorf("realtime pacing needs a positive sample rate, got %g", cfg.SampleRate)
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	return nil
}

func printDetailedHelp(fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(os.Stderr, `%s - PHY stream flow runner

Usage: %s [options]

Options:
`, appName, os.Args[0])
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run a flow for 100 blocks of 4096 samples
  %s --config=flows/split.yaml --iterations=100 --block-size=4096

  # Run with debug logging and a metrics endpoint
  %s --log-level=debug --log-format=text --metrics-port=9090

  # Feed 1 MS/s in real time
  %s --sample-rate=1e6 --realtime

  # Validate the flow only
  %s --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
