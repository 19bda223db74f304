package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"bourse/internal/common"
	"bourse/internal/config"
	"bourse/internal/events"
	"bourse/internal/exchange"
	"bourse/internal/service"
	"bourse/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	envFile := flag.String("env", "", "Optional .env file, defaults to ./.env")
	input := flag.String("in", "-", "JSON lines command file, '-' for stdin")
	securities := flag.String("securities", "", "Comma separated securities, overrides "+config.EnvSecurities)
	logLevel := flag.String("log-level", "", "Log level, overrides "+config.EnvLogLevel)
	pretty := flag.Bool("pretty", false, "Human readable logs on stderr")
	logEvents := flag.Bool("events", false, "Log every order event")
	flag.Parse()

	if *envFile != "" {
		config.LoadEnv(*envFile)
	} else {
		config.LoadEnv()
	}
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if list := config.SplitList(*securities); len(list) > 0 {
		cfg.Securities = list
	}
	if *logLevel != "" {
		level, err := zerolog.ParseLevel(*logLevel)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -log-level")
		}
		cfg.LogLevel = level
	}
	cfg.LogPretty = cfg.LogPretty || *pretty
	cfg.SetupLogging()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	var r io.Reader = os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatal().Err(err).Str("file", *input).Msg("unable to open command file")
		}
		defer f.Close()
		r = f
	}

	// Setup the exchange and the services around it.
	clock := common.SystemClock{}
	ex := exchange.New(exchange.Config{
		Securities: cfg.Securities,
		QueueSize:  cfg.QueueSize,
		Clock:      clock,
	})
	ex.Start(ctx)

	var notifier events.Notifier
	if *logEvents {
		notifier = events.NewLogNotifier(zerolog.InfoLevel)
	}
	svc := service.NewOrderService(ex, store.NewMemory(), notifier, clock)

	rp := &replayer{svc: svc, ex: ex}
	if err := rp.replay(ctx, r, os.Stdout); err != nil {
		log.Error().Err(err).Msg("replay stopped")
	}

	ex.Shutdown()
	if err := ex.Wait(); err != nil {
		log.Error().Err(err).Msg("exchange stopped with error")
	}
}
