package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/vigireport/internal/config"
	"github.com/nao1215/vigireport/internal/database"
	vlog "github.com/nao1215/vigireport/internal/log"
	"github.com/nao1215/vigireport/internal/model"
	"github.com/nao1215/vigireport/internal/pipeline"
	"github.com/nao1215/vigireport/internal/report"
	"github.com/nao1215/vigireport/internal/translit"
	"github.com/nao1215/vigireport/internal/vigi"
	"github.com/spf13/cobra"
)

// stdoutPath selects standard output as the report destination.
const stdoutPath = "-"

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and de-obfuscate the ADR statistics for a drug",
		Long: `Fetch looks up a drug on VigiAccess, downloads every adverse drug
reaction category with its detail terms and the four distribution tables, and
writes a de-obfuscated report.

Characters that are neither letters nor a known substitution are left out of
the report and listed in the run log.

Examples:
  # Report for the default search term
  vigireport fetch

  # Markdown report for another drug
  vigireport fetch --term aspirin --format markdown

  # Print the report instead of writing a file
  vigireport fetch -o -

  # Route requests through a local SOCKS5 proxy
  vigireport fetch --proxy 127.0.0.1:9050`,
		Args: cobra.NoArgs,
		RunE: runFetchCmd,
	}

	// Search flags
	cmd.Flags().StringP(config.FlagSearchTerm, "t", config.DefaultSearchTerm,
		"Drug name to search for")

	// Transport flags
	cmd.Flags().String(config.FlagBaseURL, config.DefaultBaseURL,
		"VigiAccess site root")
	cmd.Flags().Duration(config.FlagTimeout, config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int(config.FlagMaxRetries, config.DefaultMaxRetries,
		"Retries after a network error, HTTP 429 or 5xx response")
	cmd.Flags().Duration("retry-backoff", config.DefaultRetryBackoff,
		"Wait before the first retry, doubled on each further retry")
	cmd.Flags().Float64(config.FlagRateLimit, config.DefaultRateLimit,
		"Requests per second sent to VigiAccess (0 = no limit)")
	cmd.Flags().IntP(config.FlagMaxPages, "p", config.DefaultMaxPages,
		"Maximum detail pages per category (0 = no limit)")
	cmd.Flags().String(config.FlagProxy, "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")
	cmd.Flags().String(config.FlagUserAgent, config.DefaultUserAgent,
		"User-Agent header")
	cmd.Flags().StringToStringP("header", "H", nil,
		"Extra request header as key=value (repeatable)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .vigireport in current or home directory)")

	// Report flags
	cmd.Flags().StringP(config.FlagFormat, "f", config.DefaultFormat,
		"Report format: text, markdown or json")
	cmd.Flags().StringP("output", "o", "",
		"Report file path (default: WHO_DataBase_<Term>_<dd-mm-yyyy>.<ext>, \"-\" for stdout)")
	cmd.Flags().String("log-file", config.DefaultLogFile(),
		"Run log path, truncated at the start of each run (empty disables)")

	// History flags
	cmd.Flags().Bool("no-db", false, "Do not store the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "History database directory")

	return cmd
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var logFile io.Writer
	if cfg.LogFile != "" {
		f, err := vlog.OpenRunLog(cfg.LogFile)
		if err != nil {
			return err
		}
		defer f.Close()
		logFile = f
	}
	logger := vlog.NewRunLogger(cmd.ErrOrStderr(), logFile, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runFetch(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the optional
// configuration file. Flags given on the command line win over the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.SearchTerm, err = flags.GetString(config.FlagSearchTerm); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = flags.GetString(config.FlagBaseURL); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration(config.FlagTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = flags.GetInt(config.FlagMaxRetries); err != nil {
		return nil, err
	}
	if cfg.RetryBackoff, err = flags.GetDuration("retry-backoff"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt(config.FlagMaxPages); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64(config.FlagRateLimit); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString(config.FlagProxy); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString(config.FlagUserAgent); err != nil {
		return nil, err
	}
	if cfg.Format, err = flags.GetString(config.FlagFormat); err != nil {
		return nil, err
	}
	if cfg.OutputFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB
	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// An explicitly given config file must exist; the default locations
	// are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file, flags.Changed)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	// Headers from the command line are applied last so they override the
	// file.
	headers, err := flags.GetStringToString("header")
	if err != nil {
		return nil, err
	}
	if len(headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}

	return cfg, nil
}

// runFetch executes one run and publishes its report. out receives the
// report when the output path is "-" and the closing summary otherwise.
func runFetch(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	logger.Info("starting run",
		"term", cfg.SearchTerm,
		"base_url", cfg.BaseURL,
		"max_pages", cfg.MaxPages,
		"rate_limit", cfg.RateLimit,
		"save_to_db", cfg.SaveToDB,
	)

	client, err := vigi.NewClient(vigi.Config{
		BaseURL:      cfg.BaseURL,
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		Headers:      cfg.Headers,
		ProxyAddress: cfg.ProxyAddress,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		RateLimit:    cfg.RateLimit,
	}, vigi.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create VigiAccess client: %w", err)
	}

	translator := translit.New(translit.WithLogger(logger))
	p := pipeline.DefaultPipeline(client, translator,
		[]pipeline.Option{pipeline.WithLogger(logger)},
		pipeline.WithPipelineMaxPages(cfg.MaxPages),
	)

	rep := model.NewReport(cfg.SearchTerm)
	start := time.Now()
	if err := p.Execute(ctx, rep); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	logger.Info("run completed",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"lines", len(rep.Lines),
		"unknown_characters", len(rep.Unknown),
	)

	path := cfg.ReportPath(rep.GeneratedAt)
	if err := outputReport(cfg.Format, path, rep, out); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg.DBDir, rep, logger); err != nil {
			// The report is already published; a history failure does not
			// fail the run.
			logger.Error("failed to save run", "error", err)
		}
	}

	if path != stdoutPath {
		fmt.Fprintf(out, "Wrote %s: %d categories, %d lines, %d unknown characters\n",
			path, rep.CategoryCount(), len(rep.Lines), len(rep.Unknown))
	}
	return nil
}

// outputReport writes rep in format to path, or to out when path is "-".
func outputReport(format, path string, rep *model.Report, out io.Writer) error {
	if path == stdoutPath {
		w, err := report.NewWriter(format, out)
		if err != nil {
			return err
		}
		_, err = w.Write(rep)
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	err := report.WriteFile(path, func(w io.Writer) error {
		rw, err := report.NewWriter(format, w)
		if err != nil {
			return err
		}
		_, err = rw.Write(rep)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// saveRun stores rep in the history database under dbDir.
func saveRun(ctx context.Context, dbDir string, rep *model.Report, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// The run context may already be cancelled by a late signal; the
	// report is complete so the save still goes through.
	id, err := db.SaveRun(context.WithoutCancel(ctx), rep)
	if err != nil {
		return err
	}
	logger.Info("run saved", "id", id, "db", db.Path())
	return nil
}
