// Command autowire-lint loads autowire configuration files, reports the first invalid setting of each
// file and prints the resulting configuration.
//
//	autowire-lint -c file:///etc/app/autowire.yaml -c s3://bucket/overrides.yaml
//
// Defaults are read from the environment, optionally through a .env file:
//
//	AUTOWIRE_CONFIG     comma separated configuration URLs used when no -c flag is given
//	AUTOWIRE_LOG_LEVEL  debug, info, warn or error
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gburgyan/go-autowire"
	"github.com/gburgyan/go-autowire/loader"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	envConfig   = "AUTOWIRE_CONFIG"
	envLogLevel = "AUTOWIRE_LOG_LEVEL"
)

// Options are the command line flags.
type Options struct {
	Configs  []string `short:"c" long:"config" description:"configuration URL, may be repeated"`
	EnvFile  string   `short:"e" long:"env" description:"dotenv file with defaults" default:".env"`
	LogLevel string   `short:"l" long:"log-level" description:"log level: debug, info, warn or error"`
	Quiet    bool     `short:"q" long:"quiet" description:"do not print the configuration"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	// .env is optional
	_ = godotenv.Load(options.EnvFile)

	level := options.LogLevel
	if level == "" {
		level = os.Getenv(envLogLevel)
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: parseLevel(level)}))

	urls := options.Configs
	if len(urls) == 0 {
		urls = splitList(os.Getenv(envConfig))
	}
	if len(urls) == 0 {
		logger.Error("no configuration given", "flag", "--config", "env", envConfig)
		return 2
	}

	cfg, err := load(ctx, logger, urls)
	if err != nil {
		logger.Error("configuration is invalid", "error", err.Error())
		return 1
	}
	if !options.Quiet {
		fmt.Fprintln(stdout, cfg.Status())
	}
	logger.Info("configuration is valid", "files", len(urls), "types", len(cfg.Snapshot().ConfiguredTypes()))
	return 0
}

// load applies every URL in order to one configuration.
func load(ctx context.Context, logger *slog.Logger, urls []string) (*autowire.Config, error) {
	cfg := autowire.NewConfig(autowire.WithConfigLogger(logger))
	l := loader.New(nil, loader.WithLogger(logger))
	for _, URL := range urls {
		logger.Debug("loading configuration", "url", URL)
		if err := l.Load(ctx, URL, cfg); err != nil {
			return nil, errors.WithMessage(err, "autowire-lint")
		}
	}
	return cfg, nil
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func splitList(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
