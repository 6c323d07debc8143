package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeffersonwarrior/reqcore/endpoint"
	"github.com/jeffersonwarrior/reqcore/internal/config"
	"github.com/jeffersonwarrior/reqcore/request"
	"github.com/jeffersonwarrior/reqcore/storage"
)

// app holds state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	noHistory  bool

	cfg    *config.Config
	logger zerolog.Logger
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "reqcore",
		Short: "reqcore - execute REST routes with normalized responses and errors",
		Long: `reqcore resolves a route such as "GET /repos/{owner}/{repo}", executes it once
and prints the normalized response or error as JSON.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "Path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.noHistory, "no-history", false, "Do not record calls in the history database")

	root.AddCommand(
		a.newRequestCmd(),
		a.newBatchCmd(),
		a.newHistoryCmd(),
		a.newVersionCmd(),
	)

	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	return nil
}

func (a *app) resolver() endpoint.Defaults {
	return endpoint.Defaults{BaseURL: a.cfg.BaseURL, Headers: a.cfg.Headers}
}

// openHistory returns nil when history is disabled.
func (a *app) openHistory() (*storage.History, error) {
	if a.noHistory || a.cfg.History.Disabled {
		return nil, nil
	}
	return storage.OpenHistory(a.cfg.History.Path)
}

// newClient wires token auth, the configured user agent and history recording
// into a request client.
func (a *app) newClient(hist *storage.History) *request.Client {
	cfg := request.Config{
		Fetch:         request.NewHTTPFetcher(nil),
		UserAgent:     a.cfg.UserAgent,
		BeforeRequest: request.TokenAuth(a.cfg.Token),
		Logger:        &a.logger,
	}

	var client *request.Client
	if hist != nil {
		record := func(e storage.Entry) {
			if err := hist.Record(context.Background(), e); err != nil {
				client.Logger().Warn().Err(err).Str("request_id", e.RequestID).Msg("failed to record call")
			}
		}
		cfg.AfterResponse = func(d *request.Descriptor, resp *request.Response) {
			record(storage.EntryFromResponse(d, resp))
		}
		cfg.OnError = func(d *request.Descriptor, err *request.RequestError) {
			record(storage.EntryFromError(d, err))
		}
	}

	client = request.NewClient(cfg)
	return client
}

// callContext applies the configured timeout to one call.
func (a *app) callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.cfg.Timeout)
}
