package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/getmockd/idmclient/pkg/config"
	"github.com/getmockd/idmclient/pkg/datastore"
	"github.com/getmockd/idmclient/pkg/logging"
	"github.com/getmockd/idmclient/pkg/metrics"
)

var (
	// Persistent flags available to all subcommands
	baseURL    string
	configFile string
	verbose    bool
	jsonOutput bool
	metricsOut string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "idmctl",
	Short: "idmctl reads and walks resources of an identity service",
	Long: `idmctl fetches tenants, applications, directories, accounts and groups
from an identity REST service and prints them as tables, JSON or YAML.

Configuration can be provided via flags, environment variables (IDM_*), or a
configuration file. idmctl reads ~/.config/idm/config.yaml, then .idmrc.yaml
in the current directory, then the file named by --config.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", config.DefaultBaseURL, "Identity service base URL")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (yaml or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every request to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "Write client metrics in Prometheus text format to this file")
}

// session is the per-command state built from the resolved configuration.
type session struct {
	cfg      *config.Config
	client   *datastore.Client
	registry *prometheus.Registry
}

// loadConfig resolves the configuration and applies flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadAll(dir, configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = baseURL
		cfg.Sources["baseUrl"] = config.SourceFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
		cfg.Sources["logLevel"] = config.SourceFlag
	}
	return cfg, nil
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:     level,
		Format:    format,
		Output:    cmd.ErrOrStderr(),
		AddSource: verbose,
	})

	s := &session{cfg: cfg}
	opts := []datastore.Option{
		datastore.WithLogger(logger),
		datastore.WithUserAgent("idmctl/" + Version),
	}
	if metricsOut != "" {
		s.registry = prometheus.NewRegistry()
		m, err := metrics.New(s.registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, datastore.WithMetrics(m))
	}

	s.client, err = datastore.NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// close writes the metrics file when --metrics-out is set.
func (s *session) close() error {
	if s == nil || s.registry == nil {
		return nil
	}
	if err := metrics.WriteFile(metricsOut, s.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// withSession opens a session, runs fn and always closes the session.
func withSession(cmd *cobra.Command, fn func(*session) error) (err error) {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, s.close()) }()
	return fn(s)
}
