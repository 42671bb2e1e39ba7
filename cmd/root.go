package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqbook/internal/app"
	"github.com/vedsharma/reqbook/internal/collection"
	"github.com/vedsharma/reqbook/internal/config"
	"github.com/vedsharma/reqbook/internal/format"
	httpclient "github.com/vedsharma/reqbook/internal/http"
	"github.com/vedsharma/reqbook/internal/logging"
	"github.com/vedsharma/reqbook/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "reqbook",
	Short: "A notebook of hosts and endpoints to send HTTP requests from",
	Long: `reqbook keeps a collection of hosts, their default headers and endpoints,
sends requests from it and records every response.

Examples:
  reqbook host add api.example.com --label example
  reqbook header add example Accept application/json
  reqbook endpoint add example GET /users
  reqbook send example /users
  reqbook response list example /users`,
}

var (
	configPath  string
	dataDirFlag string
	storageFlag string
	debugFlag   bool
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.reqbook/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding the snapshot")
	rootCmd.PersistentFlags().StringVar(&storageFlag, "storage", "", "Storage backend: json or sqlite")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Write debug logs")
}

// session is everything one command invocation works with
type session struct {
	app      *app.App
	gateway  storage.Gateway
	logger   *slog.Logger
	closeLog func() error
}

// loadConfig reads the config file and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	if storageFlag != "" {
		cfg.Storage = storageFlag
	}
	if debugFlag {
		cfg.Debug = config.BoolPtr(true)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openSession wires config, logging, storage and the HTTP client together.
// When load is set the store is filled from the snapshot or the seed data.
func openSession(load bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dataDir, err := cfg.GetDataDir()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.GetTimeout()
	if err != nil {
		return nil, err
	}

	// A broken log location should not stop the command
	logger, closeLog, err := logging.InitLogger(logging.Options{Debug: cfg.GetDebug()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		logger, closeLog = logging.NewNopLogger(), func() error { return nil }
	}

	gw, err := storage.Open(cfg.Storage, dataDir, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	client := httpclient.NewClient(
		httpclient.WithTimeout(timeout),
		httpclient.WithScheme(cfg.Scheme),
		httpclient.WithFollowRedirects(cfg.GetFollowRedirects()),
		httpclient.WithLogger(logger),
	)

	a := app.New(gw, client, app.WithLogger(logger), app.WithScheme(cfg.Scheme))
	a.Store.Subscribe(func(ev collection.Event) {
		logger.Debug("store changed",
			slog.String("event", string(ev.Kind)),
			slog.String("host", ev.Host),
			slog.String("path", ev.Path))
	})

	s := &session{app: a, gateway: gw, logger: logger, closeLog: closeLog}

	if load {
		if _, err := a.Load(); err != nil {
			s.close()
			var decErr *storage.DecodeError
			if errors.As(err, &decErr) {
				return nil, fmt.Errorf("%v (run 'reqbook snapshot erase' to start over)", err)
			}
			return nil, err
		}
	}
	return s, nil
}

func (s *session) close() {
	s.app.Close()
	s.closeLog()
}

// withApp runs fn against a loaded store, then saves the store if it changed.
// The save also runs when fn fails, since earlier mutations in fn still stand.
func withApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		s, err := openSession(true)
		if err != nil {
			format.PrintError(err.Error())
			os.Exit(1)
		}

		runErr := fn(cmd, args, s.app)

		if _, err := s.app.SaveIfChanged(); err != nil {
			format.PrintError(fmt.Sprintf("Failed to save: %v", err))
			if runErr == nil {
				s.close()
				os.Exit(1)
			}
		}
		s.close()

		if runErr != nil {
			format.PrintError(runErr.Error())
			os.Exit(1)
		}
	}
}
