// Package cmd implements the bbs-poster command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/config"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/httpclient"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/logger"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/metrics"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/poster"
	"github.com/jonesrussell/north-cloud/bbs-poster/internal/retry"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"

// Viper keys for flags that override the loaded config.
const (
	keyDebug     = "debug"
	keyLogLevel  = "logging.level"
	keyUserAgent = "client.user_agent"
	keyTimeout   = "client.timeout"
)

// app carries what PersistentPreRunE builds for the subcommands.
type app struct {
	cfgFile string
	v       *viper.Viper

	// httpClient replaces the configured client when set.
	httpClient *http.Client

	cfg      *config.Config
	log      logger.Logger
	registry *prometheus.Registry
	svc      *poster.Service
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "error [%s]: %v\n", poster.Outcome(err), err)
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New()})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "bbs-poster",
		Short: "Post replies to Shitaraba and 2ch-compatible bulletin boards",
		Long: `bbs-poster resolves a thread or board URL to the thread to reply to,
detects the page charset and posts a message in that charset.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yml when present)")
	flags.Bool("debug", false, "enable debug logging and gin debug mode")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("user-agent", "", "User-Agent sent to forum servers")
	flags.Duration("timeout", 0, "timeout for each request to a forum server")

	a.bindFlag(root, keyDebug, "debug")
	a.bindFlag(root, keyLogLevel, "log-level")
	a.bindFlag(root, keyUserAgent, "user-agent")
	a.bindFlag(root, keyTimeout, "timeout")

	root.AddCommand(
		newClassifyCommand(a),
		newResolveCommand(a),
		newPostCommand(a),
		newServeCommand(a),
		newVersionCommand(),
	)

	return root
}

func (a *app) bindFlag(root *cobra.Command, key, name string) {
	// BindPFlag only fails on a nil flag, which would be a typo above.
	if err := a.v.BindPFlag(key, root.PersistentFlags().Lookup(name)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", name, err))
	}
}

// setup loads the config, applies flag overrides and builds the service.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoSetup] == "true" {
		return nil
	}

	path := a.cfgFile
	if path == "" {
		path = config.GetConfigPath(config.DefaultPath)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	a.cfg = cfg

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Server.Debug,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.log = log

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := a.httpClient
	if client == nil {
		client = httpclient.NewClient(httpclient.ClientConfig{Timeout: cfg.Client.Timeout})
	}

	a.svc = poster.NewService(poster.Config{
		HTTPClient: client,
		UserAgent:  cfg.Client.UserAgent,
		Resolve: retry.Config{
			MaxAttempts:  cfg.Resolve.MaxAttempts,
			InitialDelay: cfg.Resolve.InitialDelay,
			MaxDelay:     cfg.Resolve.MaxDelay,
		},
		Concurrency: cfg.Post.Concurrency,
	}, log, metrics.New(a.registry))

	log.Debug("Configuration loaded",
		logger.String("config_path", path),
		logger.String("user_agent", cfg.Client.UserAgent),
		logger.Duration("timeout", cfg.Client.Timeout),
	)
	return nil
}

// applyFlags copies flags the user actually set over cfg.
func (a *app) applyFlags(cfg *config.Config) {
	if a.v.IsSet(keyDebug) && a.v.GetBool(keyDebug) {
		cfg.Server.Debug = true
		cfg.Logging.Level = "debug"
	}
	if a.v.IsSet(keyLogLevel) && a.v.GetString(keyLogLevel) != "" {
		cfg.Logging.Level = a.v.GetString(keyLogLevel)
	}
	if a.v.IsSet(keyUserAgent) && a.v.GetString(keyUserAgent) != "" {
		cfg.Client.UserAgent = a.v.GetString(keyUserAgent)
	}
	if a.v.IsSet(keyTimeout) {
		if d := a.v.GetDuration(keyTimeout); d > 0 {
			cfg.Client.Timeout = d
		}
	}
}

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// readMessage returns message, or the contents of file when message is
// empty. A file of "-" reads r.
func readMessage(message, file string, r io.Reader) (string, error) {
	switch {
	case message != "" && file != "":
		return "", errors.New("--message and --message-file are mutually exclusive")
	case file == "":
		return message, nil
	case file == "-":
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read message from stdin: %w", err)
		}
		return string(b), nil
	default:
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read message file: %w", err)
		}
		return string(b), nil
	}
}
