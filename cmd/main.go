// Package main is the entry point for the music visualizer.
//
// The visualizer plays an audio file (or a synthetic demo signal) and draws
// its spectrum or waveform in a Fyne window or, with --tui, in the terminal.
//
// Build:
//
//	go build -o build/music-visualizer ./cmd
//
// Run:
//
//	./build/music-visualizer [flags] [file or folder]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tbrumbaugh5396/music-visualizer/internal/app"
	"github.com/tbrumbaugh5396/music-visualizer/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options are the parsed command line.
type options struct {
	configPath  string
	mode        string
	theme       string
	metricsAddr string
	fullscreen  bool
	terminal    bool
	demo        bool
	version     bool
	mediaPath   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("music-visualizer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: music-visualizer [flags] [file or folder]")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", config.DefaultPath(), "path to the YAML configuration file")
	fs.StringVar(&opts.mode, "viz", "", "visualization mode: spectrum, waveform, bars or circular")
	fs.StringVar(&opts.theme, "theme", "", "color theme: cyan, magenta, yellow or lime")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.BoolVar(&opts.fullscreen, "fullscreen", false, "start fullscreen")
	fs.BoolVar(&opts.terminal, "tui", false, "draw in the terminal instead of a window")
	fs.BoolVar(&opts.demo, "demo", false, "play the synthetic demo signal")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.mediaPath = fs.Arg(0)
	default:
		return options{}, fmt.Errorf("expected at most one file or folder, got %d", fs.NArg())
	}
	return opts, nil
}

// buildConfig turns the command line into an application config.
func buildConfig(opts options) (app.Config, error) {
	file, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return app.Config{}, err
	}
	if opts.metricsAddr != "" {
		file.Metrics.Addr = opts.metricsAddr
		if err := config.Validate(file); err != nil {
			return app.Config{}, err
		}
	}

	cfg := app.DefaultConfig()
	cfg.File = file
	cfg.MediaPath = opts.mediaPath
	cfg.Demo = opts.demo
	cfg.Mode = opts.mode
	cfg.Theme = opts.theme
	cfg.Fullscreen = opts.fullscreen
	cfg.Terminal = opts.terminal
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "music-visualizer: %v\n", err)
		return 2
	}

	if opts.version {
		fmt.Fprintln(stdout, app.GetVersionInfo().FullString())
		return 0
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "music-visualizer: %v\n", err)
		return 1
	}

	// Create the application with dependency injection
	application, err := app.NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "music-visualizer: %v\n", err)
		return 1
	}

	// Ensure a graceful shutdown
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(stderr, "music-visualizer: shutdown: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run application (blocks until the window is closed or a signal arrives)
	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "music-visualizer: %v\n", err)
		return 1
	}
	return 0
}
