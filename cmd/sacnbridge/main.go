//sacnbridge receives sACN on the network and drives the configured output ports.
//Without DMX hardware attached it logs what every port would output.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Hundemeier/go-sacn/internal/config"
	"github.com/Hundemeier/go-sacn/sacn"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, ifiName string
	var verbose bool

	flagSet := pflag.NewFlagSet("sacnbridge", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to the YAML configuration (default: one output on universe 1)")
	flagSet.StringVarP(&ifiName, "interface", "i", "", "network interface for multicast (overrides the configuration)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if ifiName != "" {
		cfg.Interface = ifiName
	}
	if verbose {
		cfg.Logs.Level = "debug"
	}

	logger, closeLog, err := setupLogging(cfg.Logs)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closeLog()

	var ifi *net.Interface
	if cfg.Interface != "" {
		if ifi, err = net.InterfaceByName(cfg.Interface); err != nil {
			return fmt.Errorf("interface %q: %w", cfg.Interface, err)
		}
	}
	socket, err := sacn.NewReceiverSocket(cfg.Bind, ifi)
	if err != nil {
		return err
	}
	defer socket.Close()

	bridge := sacn.NewBridge(sacn.Options{
		Sink:                   &logSink{logger: logger.With("component", "sink")},
		Groups:                 socket,
		Logger:                 logger.With("component", "bridge"),
		MergeTimeout:           cfg.Timeouts.MergeTimeout(),
		PriorityTimeout:        cfg.Timeouts.PriorityTimeout(),
		NetworkDataLossTimeout: cfg.Timeouts.NetworkDataLossTimeout(),
		DisableSynchronize:     cfg.DisableSynchronize,
	})
	if err := cfg.Apply(bridge); err != nil {
		return fmt.Errorf("configure ports: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	inputs, outputs := bridge.ActivePorts()
	logger.Info("sacnbridge listening", "address", socket.LocalAddr().String(), "inputs", inputs, "outputs", outputs)
	err = sacn.Serve(ctx, socket, bridge, sacn.NewMonotonicClock(), func(s sacn.State) {
		logger.Info("status", "network_data_loss", s.NetworkDataLoss, "synchronized", s.Synchronized,
			"priority", s.Priority, "sync_address", s.SyncAddress)
	})
	if errors.Is(err, context.Canceled) {
		d := bridge.Diagnostics()
		logger.Info("sacnbridge stopped", "packets", d.Packets, "malformed", d.Malformed,
			"out_of_sequence", d.OutOfSequence, "conflicts", d.SourceConflicts)
		return nil
	}
	return err
}

//setupLogging logs to stderr and, if a directory is configured, to a rotated file
func setupLogging(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
		return nil, nil, err
	}
	var out io.Writer = os.Stderr
	closeLog := func() {}
	if cfg.Directory != "" {
		if err := os.MkdirAll(cfg.Directory, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Directory, "sacnbridge.log"),
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stderr, rotator)
		closeLog = func() { rotator.Close() }
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return logger, closeLog, nil
}

//logSink stands in for DMX hardware
type logSink struct {
	logger *slog.Logger
}

func (s *logSink) Start(port int) {
	s.logger.Info("output started", "port", port)
}

func (s *logSink) Stop(port int) {
	s.logger.Info("output stopped", "port", port)
}

func (s *logSink) SetData(port int, data []byte) {
	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	preview := data
	if len(preview) > 16 {
		preview = preview[:16]
	}
	s.logger.Debug("output", "port", port, "channels", len(data), "data", fmt.Sprintf("% x", preview))
}
