package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pkoss/csvstream/iox"
	"github.com/pkoss/csvstream/stream"
	"github.com/pkoss/csvstream/util"
)

const version = "0.1.0"

var (
	cfg     cliConfig
	rootCmd = &cobra.Command{
		Use:     "csvparse [flags] <file|url|->",
		Short:   "parse delimited text from files, URLs or stdin",
		Version: version,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if unparsed := util.ExtractUnknownArgs(cmd.Flags(), args); len(unparsed) > 1 {
				cfg.Loglevel = unparsed[1]
			}

			setLogLevel(cfg.Loglevel)

			if cfg.Profile != "" {
				if err := cfg.loadProfile(cfg.Profile); err != nil {
					return fmt.Errorf("failed to load profile %q: %w", cfg.Profile, err)
				}
			}

			return run(cmd.Context(), args[0])
		},
	}
)

func init() {
	log.SetLevel(log.InfoLevel)
	log.SetOutput(os.Stderr)

	// A .env file may pre-seed the defaults below.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&cfg.Delimiter, "delimiter", "d", envOr("CSVPARSE_DELIMITER", ""), "Field delimiter; empty auto-detects")
	rootCmd.PersistentFlags().StringVar(&cfg.Quote, "quote", "", "Quote character")
	rootCmd.PersistentFlags().StringVar(&cfg.Escape, "escape", "", "Quote-escape character")
	rootCmd.PersistentFlags().StringVarP(&cfg.Comments, "comments", "c", "", "Comment-line marker")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Header, "header", "H", false, "Treat the first row as column names")
	rootCmd.PersistentFlags().StringVar(&cfg.SkipEmpty, "skip-empty", "", "Skip empty lines: true or greedy")
	rootCmd.PersistentFlags().IntVarP(&cfg.Preview, "preview", "p", 0, "Stop after this many data rows")
	rootCmd.PersistentFlags().IntVar(&cfg.SkipLines, "skip-lines", 0, "Drop this many leading lines")
	rootCmd.PersistentFlags().IntVar(&cfg.ChunkSize, "chunk-size", 0, "Chunk size in bytes")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", "csv", "Output format: csv, json or jsonl")
	rootCmd.PersistentFlags().BoolVar(&cfg.Stats, "stats", false, "Print a field-count histogram instead of rows")
	rootCmd.PersistentFlags().StringVar(&cfg.Profile, "profile", envOr("CSVPARSE_PROFILE", ""), "YAML parse profile")
	rootCmd.PersistentFlags().StringVarP(&cfg.Loglevel, "loglevel", "l", envOr("CSVPARSE_LOGLEVEL", "info"), "Loglevel, e.g. info, debug, ...")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "csvparse: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, source string) error {
	var (
		sink = newSink(cfg.Output, cfg.Stats, os.Stdout)
		pc   = cfg.parseConfig(sink)
	)

	var (
		res *stream.Result
		err error
	)

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		res, err = stream.ParseURL(ctx, source, pc)
	} else {
		var input string

		input, err = slurp(source)
		if err != nil {
			return err
		}

		res, err = stream.Parse(input, pc)
	}
	if err != nil {
		return err
	}

	if err := sink.flush(); err != nil {
		return err
	}

	for _, e := range res.Errors {
		log.WithFields(log.Fields{
			"type": e.Type.String(),
			"code": e.Code.String(),
			"row":  e.Row,
		}).Warn(e.Message)
	}

	log.WithFields(log.Fields{
		"delimiter": res.Meta.Delimiter,
		"linebreak": fmt.Sprintf("%q", res.Meta.Linebreak),
		"truncated": res.Meta.Truncated,
		"cursor":    res.Meta.Cursor,
	}).Debug("parse finished")

	return nil
}

// slurp reads a file (with transparent gzip/lz4 decompression) or
// stdin when source is "-".
func slurp(source string) (string, error) {
	if source == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}

		return string(b), nil
	}

	r, err := iox.OpenAuto(source)
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", source, err)
	}
	defer r.Close()

	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", source, err)
	}

	return string(b), nil
}

func (c *cliConfig) parseConfig(sink *sink) stream.Config {
	pc := stream.Config{
		Delimiter:       c.Delimiter,
		Quote:           c.Quote,
		Escape:          c.Escape,
		Comment:         c.Comments,
		Header:          c.Header,
		Preview:         c.Preview,
		SkipFirstNLines: c.SkipLines,
		ChunkSize:       c.ChunkSize,
		Step:            sink.step,
	}

	switch strings.ToLower(c.SkipEmpty) {
	case "true", "empty":
		pc.SkipEmptyLines = stream.SkipEmpty
	case "greedy":
		pc.SkipEmptyLines = stream.SkipGreedy
	}

	return pc
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "all", "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
		fmt.Fprintf(os.Stderr, "invalid log level %q, using info\n", level)
	}
}
