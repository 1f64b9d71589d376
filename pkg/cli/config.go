package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/idmclient/pkg/cli/internal/output"
	"github.com/getmockd/idmclient/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowOutput string

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with source annotations",
	Long: `Show the configuration idmctl would use, after merging defaults, config
files, IDM_* environment variables and flags. The API key secret is masked.`,
	Example: `  idmctl config show
  idmctl config show -o yaml
  idmctl config show --config ./staging.toml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(configShowOutput)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.ResolveAPIKey(); err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		masked := cfg.Masked()
		if format != output.FormatTable {
			return write(w, format, struct {
				config.Config `yaml:",inline"`
				Sources       map[string]string `json:"sources" yaml:"sources"`
			}{*masked, masked.Sources})
		}

		printConfig(w, masked)
		return nil
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Effective Configuration:")
	fmt.Fprintln(w)

	printConfigValue(w, "baseUrl", cfg.BaseURL, cfg.Sources["baseUrl"])
	printConfigValue(w, "timeout", cfg.Timeout, cfg.Sources["timeout"])
	if cfg.APIKeyFile != "" {
		printConfigValue(w, "apiKeyFile", cfg.APIKeyFile, cfg.Sources["apiKeyFile"])
	}
	printConfigValue(w, "apiKeyId", cfg.APIKeyID, cfg.Sources["apiKeyId"])
	printConfigValue(w, "apiKeySecret", cfg.APIKeySecret, cfg.Sources["apiKeySecret"])
	printConfigValue(w, "cacheSize", cfg.CacheSize, cfg.Sources["cacheSize"])
	printConfigValue(w, "cacheTtl", cfg.CacheTTL, cfg.Sources["cacheTtl"])
	printConfigValue(w, "rateLimit", cfg.RateLimit, cfg.Sources["rateLimit"])
	printConfigValue(w, "logLevel", cfg.LogLevel, cfg.Sources["logLevel"])
	printConfigValue(w, "logFormat", cfg.LogFormat, cfg.Sources["logFormat"])

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources loaded:")
	if path := config.FindGlobalConfig(); path != "" {
		fmt.Fprintf(w, "  • %s (global)\n", path)
	}
	if dir, err := os.Getwd(); err == nil {
		if path := config.FindLocalConfig(dir); path != "" {
			fmt.Fprintf(w, "  • %s (local)\n", path)
		}
	}
	if cfg.ConfigFile != "" {
		fmt.Fprintf(w, "  • %s (file)\n", cfg.ConfigFile)
	}
}

// printConfigValue prints a config value with source annotation.
func printConfigValue(w io.Writer, name string, value any, source string) {
	if source == "" {
		source = config.SourceDefault
	}
	fmt.Fprintf(w, "  %-14s %v%s\n", name+":", value, formatSource(source))
}

// formatSource formats a source type for display.
func formatSource(source string) string {
	switch source {
	case config.SourceDefault:
		return "  (default)"
	case config.SourceEnv:
		return "  (env)"
	case config.SourceGlobal:
		return "  (global config)"
	case config.SourceLocal:
		return "  (local config)"
	case config.SourceFile:
		return "  (config file)"
	case config.SourceFlag:
		return "  (flag)"
	default:
		return ""
	}
}

func init() {
	configShowCmd.Flags().StringVarP(&configShowOutput, "output", "o", "table", "Output format: table, json or yaml")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
