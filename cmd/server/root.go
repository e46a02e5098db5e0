package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Brownie44l1/agri-api/internal/config"
	"github.com/Brownie44l1/agri-api/internal/logger"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var (
	cfg     config.Config
	cfgFile string
)

var rootDescription = `agri-api serves two prediction pipelines over HTTP:
leaf disease classification from a photograph and crop recommendation from
soil and climate measurements.`

var rootCmd = &cobra.Command{
	Use:               "agri-api",
	Short:             "plant disease detection and crop recommendation service",
	Long:              rootDescription,
	Args:              cobra.NoArgs,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "path of the YAML configuration file")
	flags.Bool("console", true, "log to the console instead of the rotating log file")
	flags.Bool("verbose", false, "print debug logs")
	flags.String("models-dir", "./models", "directory that relative artifact paths resolve against")
	flags.String("remedies", "remedies.json", "remedies resource, JSON or YAML")

	bind := map[string]string{
		"log.console": "console",
		"log.verbose": "verbose",
		"models.dir":  "models-dir",
		"remedies":    "remedies",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(serveCmd, diagnoseCmd, recommendCmd, labelsCmd, versionCmd)
}

// initConfig loads flags, environment and config file, then sets up logging.
func initConfig() error {
	var err error
	if cfg, err = config.Load(viper.GetViper(), cfgFile); err != nil {
		return err
	}
	cfg.Version = Version

	if err := logger.Init(logger.Options{
		Console:    cfg.Log.Console,
		Verbose:    cfg.Log.Verbose,
		Dir:        cfg.Log.Dir,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}); err != nil {
		return errors.Wrap(err, "init logger")
	}
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debugf("using config file: %s", f)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
