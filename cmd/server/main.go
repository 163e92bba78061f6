// Command server runs the internship dashboard API.
//
// Logging: the base logger is built here from config and passed to every
// component; nothing touches slog's default logger.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"internboard/internal/config"
	"internboard/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:          "internboard",
		Short:        "Internship posting dashboard",
		SilenceUsage: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./config.yaml if present)")
	pf.String("data", "", "dataset path: .csv, .xlsx or a sqlite file")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")
	mustBind(v, "data.path", pf.Lookup("data"))
	mustBind(v, "log.level", pf.Lookup("log-level"))
	mustBind(v, "log.format", pf.Lookup("log-format"))

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(newServeCmd(v), newInspectCmd(v), versionCmd)
	return rootCmd
}

// mustBind ties a flag to a config key. An unset flag does not override the
// config file or environment.
func mustBind(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

// setup loads and validates the config, then builds the process logger.
func setup(cmd *cobra.Command, v *viper.Viper) (config.Config, *slog.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return cfg, nil, err
	}

	res := config.Validate(cfg)
	if err := res.Err(); err != nil {
		return cfg, nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return cfg, nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn("config", "warning", w)
	}
	return cfg, logger, nil
}
