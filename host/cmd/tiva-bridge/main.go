package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tivago/host/bridge"
	"tivago/host/serial"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	log := newLogger(cfg.LogLevel)
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		log.Fatal().Err(err).Str("timeout", cfg.Timeout).Msg("bad timeout")
	}

	log.Info().Str("device", cfg.Serial.Device).Int("baud", cfg.Serial.Baud).Msg("connecting")
	port, err := serial.Open(&cfg.Serial)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	client := bridge.NewClient(port, log)
	client.Timeout = timeout
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dict, err := client.Identify(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to retrieve dictionary")
	}
	log.Info().Str("board", dict.Board).Str("version", dict.Version).Int("commands", len(dict.Commands)).Msg("connected")

	sh := &shell{client: client, cfg: cfg, out: os.Stdout}
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		err := sh.run(ctx, strings.TrimSpace(scanner.Text()))
		if errors.Is(err, errQuit) {
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("command failed")
		}
		if ctx.Err() != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("reading input")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}
