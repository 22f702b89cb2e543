// Package logic implements the core business logic for the encryption/decryption.
package logic

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/idelchi/tfcs/internal/config"
	"github.com/idelchi/tfcs/internal/encryption"
	"github.com/idelchi/tfcs/internal/filter"
)

// Streams used by stream mode and for logging.
//
//nolint:gochecknoglobals
var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// NewLogger returns the console logger used for progress output.
// Quiet mode raises the level so only warnings and errors remain.
func NewLogger(w io.Writer, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet {
		level = zerolog.WarnLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Run is the main logic of the application.
func Run(cfg *config.Config) error {
	log := NewLogger(Stderr, cfg.Quiet)

	if cfg.Stream() {
		return runStream(cfg, log)
	}

	start := time.Now()

	scanned, err := resolveFiles(cfg)
	if err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	excluded := scanned - len(cfg.Files)

	if cfg.Dry {
		dryRun(cfg, log, scanned, excluded, start)

		return nil
	}

	proc, err := encryption.NewProcessor(cfg, log)
	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}

	summary, err := proc.ProcessFiles()

	if cfg.Stats {
		printStats(stats{
			scanned:   scanned,
			excluded:  excluded,
			processed: summary.Processed,
			errored:   summary.Errored,
			read:      summary.InputSize,
			written:   summary.TotalSize,
			duration:  time.Since(start),
		})
	}

	if err != nil {
		return fmt.Errorf("running logic: %w", err)
	}

	return nil
}

// runStream processes Stdin into Stdout.
func runStream(cfg *config.Config, log zerolog.Logger) error {
	proc, err := encryption.NewProcessor(cfg, log)
	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}

	if err := proc.ProcessStream(Stdin, Stdout); err != nil {
		return fmt.Errorf("processing stream: %w", err)
	}

	return nil
}

// resolveFiles normalizes positional args and applies include/exclude filtering to directories.
// Walking for decryption selects files with the encrypt suffix unless includes are given;
// walking for encryption skips them. Named files are always kept.
// Returns the total number of files scanned before filtering.
func resolveFiles(cfg *config.Config) (int, error) {
	includes := append([]string{}, cfg.Include...)
	excludes := append([]string{}, cfg.Exclude...)

	if cfg.IncludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.IncludeFrom)
		if err != nil {
			return 0, fmt.Errorf("loading include patterns: %w", err)
		}

		includes = append(includes, patterns...)
	}

	if cfg.ExcludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.ExcludeFrom)
		if err != nil {
			return 0, fmt.Errorf("loading exclude patterns: %w", err)
		}

		excludes = append(excludes, patterns...)
	}

	hasIncludes := len(cfg.Include) > 0 || cfg.IncludeFrom != ""
	encrypted := filter.Suffix(cfg.Suffixes.Encrypt)

	switch {
	case !cfg.Decrypt:
		excludes = append(excludes, encrypted)
	case !hasIncludes:
		includes = append(includes, encrypted)
		hasIncludes = true
	}

	flt, err := filter.New(includes, excludes, hasIncludes)
	if err != nil {
		return 0, fmt.Errorf("building filter: %w", err)
	}

	files, scanned, err := flt.Resolve(cfg.Files)
	if err != nil {
		return scanned, fmt.Errorf("filtering files: %w", err)
	}

	cfg.Files = files

	return scanned, nil
}

// dryRun previews what would be processed without actually encrypting/decrypting.
func dryRun(cfg *config.Config, log zerolog.Logger, scanned, excluded int, start time.Time) {
	var totalSize int64

	for _, file := range cfg.Files {
		log.Info().Str("input", file).Str("output", encryption.OutputPath(cfg, file)).Msg("would process")

		if info, err := os.Stat(file); err == nil {
			totalSize += info.Size()
		}
	}

	if cfg.Stats {
		printStats(stats{
			scanned:   scanned,
			excluded:  excluded,
			processed: len(cfg.Files),
			read:      totalSize,
			duration:  time.Since(start),
		})
	}
}

type stats struct {
	scanned, excluded, processed, errored int
	read, written                         int64
	duration                              time.Duration
}

func printStats(s stats) {
	fmt.Fprintf(Stderr, "\nStats\n")
	fmt.Fprintf(Stderr, "  Scanned:   %d\n", s.scanned)
	fmt.Fprintf(Stderr, "  Excluded:  %d\n", s.excluded)
	fmt.Fprintf(Stderr, "  Processed: %d\n", s.processed)
	fmt.Fprintf(Stderr, "  Errors:    %d\n", s.errored)
	//nolint:gosec // sizes are sums of file sizes
	fmt.Fprintf(Stderr, "  Read:      %s\n", humanize.IBytes(uint64(max(0, s.read))))
	//nolint:gosec // sizes are sums of file sizes
	fmt.Fprintf(Stderr, "  Written:   %s\n", humanize.IBytes(uint64(max(0, s.written))))
	fmt.Fprintf(Stderr, "  Duration:  %s\n", s.duration.Round(time.Millisecond))
}
