package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"yt2tandoor/internal/config"
	"yt2tandoor/internal/daemonrun"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "yt2tandoord: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("yt2tandoord", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	logLevel := fs.String("log-level", "", "Log level override (debug, info, warn, error)")
	development := fs.Bool("development", false, "Enable development logging output")
	socketPath := fs.String("socket", "", "Path to the daemon control socket")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_ = godotenv.Load()

	cfg, _, _, err := config.Load(strings.TrimSpace(*configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	socket := strings.TrimSpace(*socketPath)
	if socket == "" {
		socket = filepath.Join(cfg.Paths.LogDir, "yt2tandoor.sock")
	}
	level := strings.TrimSpace(*logLevel)
	if level == "" {
		level = cfg.Logging.Level
	}

	return daemonrun.Run(context.Background(), cfg, daemonrun.Options{
		SocketPath:  socket,
		LogLevel:    level,
		Development: *development,
	})
}
