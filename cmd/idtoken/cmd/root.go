package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cybergodev/idtoken"
	"github.com/cybergodev/idtoken/internal/logging"
)

var (
	// Version information (set at build time via ldflags)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configFile string
	envFiles   []string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the idtoken command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "idtoken",
		Short: "Issue, decode and verify signed identity tokens",
		Long: `idtoken issues and verifies compact signed identity tokens
(HS256/384/512 and RS256/384/512).

Configuration is layered, later sources winning:
  - built-in defaults
  - the YAML file given with --config
  - IDTOKEN_* environment variables, including those in .env files
  - command-line flags`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", string(logging.FormatConsole), "log format (console, json)")

	rootCmd.AddCommand(
		newIssueCommand(opts),
		newVerifyCommand(opts),
		newDecodeCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

// loadConfig layers the config file and environment onto the defaults.
func (o *globalOptions) loadConfig() (idtoken.Config, error) {
	cfg := idtoken.DefaultConfig()
	if o.configFile != "" {
		var err error
		cfg, err = idtoken.LoadConfigFile(o.configFile)
		if err != nil {
			return idtoken.Config{}, err
		}
	}
	return idtoken.LoadConfigFromEnv(cfg, o.envFiles...)
}

func (o *globalOptions) newLogger() (*zap.Logger, error) {
	cfg := logging.DefaultConfig()
	cfg.Level = o.logLevel
	cfg.Format = logging.Format(o.logFormat)
	return logging.NewLogger(cfg)
}

// versionString returns formatted version information
func versionString() string {
	return fmt.Sprintf("idtoken %s (commit: %s, built: %s)",
		Version, Commit, BuildDate)
}
