// cmd/docker-exporter/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rusenback/docker-exporter/internal/collector"
	"github.com/rusenback/docker-exporter/internal/config"
	"github.com/rusenback/docker-exporter/internal/docker"
	"github.com/rusenback/docker-exporter/internal/metrics"
	"github.com/rusenback/docker-exporter/internal/server"
	"github.com/rusenback/docker-exporter/internal/stats"
	"github.com/rusenback/docker-exporter/internal/tui"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	var (
		configPath  string
		cli         config.CLIOverrides
		watch       bool
		showVersion bool
	)
	flag.StringVar(&configPath, "config", config.DefaultPath, "Path to the config file")
	flag.StringVar(&configPath, "c", config.DefaultPath, "Path to the config file (shorthand)")
	flag.StringVar(&cli.IP, "ip", "", "Bind address (overrides config)")
	flag.IntVar(&cli.Port, "port", 0, "Bind port (overrides config)")
	flag.StringVar(&cli.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&watch, "watch", false, "Show live container stats in the terminal instead of serving HTTP")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("docker-exporter %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cli.Apply(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg, watch, os.Stderr)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, watch, logger); err != nil {
		logger.Error("Exporter stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Exporter stopped")
}

func run(ctx context.Context, cfg *config.Config, watch bool, logger *zap.Logger) error {
	dockerCfg := docker.DefaultConfig()
	dockerCfg.Host = cfg.DockerHost
	dockerCfg.TLSVerify = cfg.DockerTLSVerify
	dockerCfg.CertPath = cfg.DockerCertPath

	client, err := docker.NewClient(ctx, dockerCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Docker at %s: %w", cfg.DockerHost, err)
	}
	defer client.Close()

	opts := collector.Options{
		Parse: stats.Options{
			Interface:  cfg.NetworkInterface,
			BlockMajor: cfg.BlockDeviceMajor,
		},
		FetchTimeout: cfg.FetchTimeout.Duration,
		PruneStale:   cfg.PruneStaleLabels,
	}

	if watch {
		c := collector.New(client, nil, opts, logger)
		p := tea.NewProgram(tui.NewModel(c, 2*time.Second, cfg.FetchTimeout.Duration+5*time.Second),
			tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch: %w", err)
		}
		return nil
	}

	registry := metrics.NewRegistry()
	c := collector.New(client, registry, opts, logger)

	srv := server.New(server.Config{
		Addr:    cfg.Addr(),
		TLSCert: cfg.TLSCert,
		TLSKey:  cfg.TLSKey,
	}, c, registry, client, logger)

	logger.Info("Starting docker-exporter",
		zap.String("version", version),
		zap.String("addr", cfg.Addr()),
		zap.Bool("tls", cfg.TLSEnabled()),
		zap.String("docker_host", cfg.DockerHost),
		zap.Bool("docker_tls_verify", cfg.DockerTLSVerify))

	return srv.Run(ctx)
}

// initLogger creates a zap logger based on the configuration.
// It outputs to the console (human-readable) and optionally a JSON log file.
// In watch mode the console core is dropped so log lines don't tear the screen.
// A log file that cannot be opened is reported on stderr and skipped.
func initLogger(cfg *config.Config, watch bool, stderr io.Writer) *zap.Logger {
	var level zapcore.Level
	switch cfg.LogLevel {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if !watch {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err != nil {
			fmt.Fprintf(stderr, "Warning: cannot open log file, skipping it: %v\n", err)
		} else {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
