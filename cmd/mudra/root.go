package main

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/logging"
)

// cli carries state shared by the subcommands once the root pre-run has
// loaded the configuration.
type cli struct {
	configPath string
	logLevel   string

	settings  *config.Settings
	log       *logrus.Logger
	logCloser io.Closer
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:          "mudra",
		Short:        "Hand gesture recognition",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to config file (default ./mudra.yaml or ~/.mudra/mudra.yaml)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override log.level")

	configCmd := configCommand(c)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// config init must work even when the current file does not load.
		if cmd.Parent() == configCmd {
			return nil
		}
		return c.setup()
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if c.logCloser != nil {
			c.logCloser.Close()
		}
	}

	rootCmd.AddCommand(
		serveCommand(c),
		classifyCommand(c),
		configCmd,
	)
	return rootCmd
}

func (c *cli) setup() error {
	settings, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		settings.Log.Level = c.logLevel
	}

	log, closer, err := logging.New(logging.Options{
		Level:      settings.Log.Level,
		File:       settings.Log.File,
		MaxSizeMB:  settings.Log.MaxSizeMB,
		MaxBackups: settings.Log.MaxBackups,
		MaxAgeDays: settings.Log.MaxAgeDays,
		Compress:   settings.Log.Compress,
	})
	if err != nil {
		return err
	}

	c.settings = settings
	c.log = log
	c.logCloser = closer

	if used := config.Used(c.configPath); used != "" {
		log.WithField("path", used).Debug("Loaded config")
	}
	return nil
}
