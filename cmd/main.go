package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rq-formatter/controller"
	"rq-formatter/services/ingest"
	"rq-formatter/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("rq-formatter", flag.ContinueOnError)

	// ── CLI flags ────────────────────────────────────────────────────
	configPath := fs.String("config", "", "optional converter.yaml")
	input := fs.String("in", "rq.log", "capture log to convert")
	output := fs.String("out", "goodres.log", "CSV file to write")
	protocol := fs.String("protocol", utils.ProtocolRQ, "log protocol: rq | legacy")
	onParseError := fs.String("on-parse-error", utils.OnParseErrorAbort, "malformed line policy: abort | skip")
	pairing := fs.String("pairing", utils.PairingForward, "fix pairing: forward | backward")
	unpaired := fs.String("unpaired", utils.UnpairedOmit, "samples without a fix pair: omit | nan")
	sqlitePath := fs.String("sqlite", "", "also store entries in this SQLite database")
	logFile := fs.String("log", "", "optional log file path (stderr is always included)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// ── Config ───────────────────────────────────────────────────────
	cfg, err := utils.LoadConverterConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Converter.Input = *input
		case "out":
			cfg.Converter.Output = *output
		case "protocol":
			cfg.Converter.Protocol = *protocol
		case "on-parse-error":
			cfg.Converter.OnParseError = *onParseError
		case "pairing":
			cfg.Converter.Pairing = *pairing
		case "unpaired":
			cfg.Converter.Unpaired = *unpaired
		case "sqlite":
			cfg.SQLite.Path = *sqlitePath
		}
	})
	if *verbose {
		cfg.LogLevel = "debug"
	}

	// ── Logger ───────────────────────────────────────────────────────
	level, err := utils.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := utils.InitLogger(level, *logFile)
	defer logger.Close()

	cc, err := controller.NewConversionController(cfg)
	if err != nil {
		utils.L().Error("config: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	utils.L().Info("converting %s -> %s (protocol=%s, on_parse_error=%s, pairing=%s)",
		cfg.Converter.Input, cfg.Converter.Output, cfg.Converter.Protocol,
		cfg.Converter.OnParseError, cfg.Converter.Pairing)

	start := utils.NowNano()
	sum, err := cc.Run(ctx)
	if err != nil {
		var pe *ingest.ParseError
		switch {
		case errors.As(err, &pe) && errors.Is(err, ingest.ErrForeignProtocol):
			utils.L().Error("%v (is -protocol set correctly?)", err)
		case errors.As(err, &pe):
			utils.L().Error("%v (use -on-parse-error=skip to drop malformed lines)", err)
		default:
			utils.L().Error("conversion failed: %v", err)
		}
		return 1
	}

	if sum.RunID != "" {
		utils.L().Info("sqlite run %s stored in %s", sum.RunID, cfg.SQLite.Path)
	}
	utils.L().Info("wrote %d entries to %s in %s", sum.Entries, cfg.Converter.Output, utils.Elapsed(start))
	return 0
}
