package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"tutorcal/internal/config"
	"tutorcal/internal/logging"
)

const usage = `usage: tutorcal <command> [args]

commands:
  week [YYYY-MM-DD]                show the week containing the date (default today)
  day [YYYY-MM-DD]                 show one day (default today)
  availability                     show the weekly availability
  set-availability <file.yaml>     replace the weekly availability from a file
  confirm <booking-id>             confirm a pending booking
  decline <booking-id>             decline a pending booking
  export <file.xlsx> [YYYY-MM-DD]  write the week and availability to a spreadsheet
  watch [file.yaml]                refresh periodically, serve metrics, sync availability from the file

config: $TUTORCAL_CONFIG_PATH or configs/config.yaml
`

func main() {
	// A missing .env is fine; the config may come from the environment alone.
	_ = godotenv.Load()

	bootLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load("")
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, &logger, os.Stdout)
	err = a.run(ctx, os.Args[1], os.Args[2:])
	a.close()
	if err != nil {
		logger.Error().Err(err).Str("command", os.Args[1]).Msg("command failed")
		os.Exit(1)
	}
}
