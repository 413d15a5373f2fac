package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mycok/entityusage/config"
)

type rootOptions struct {
	configPath   string
	fixturesPath string
	storeURI     string
	logLevel     string
}

// loadApp builds the app described by the persistent flags.
func (o *rootOptions) loadApp(logger *logrus.Entry) (*app, error) {
	cfg := config.Default()

	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(o.configPath); err != nil {
			return nil, err
		}
	}

	if o.storeURI != "" {
		cfg.Store.URI = o.storeURI
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return newApp(cfg, o.fixturesPath, logger)
}

func newRootCmd(logger *logrus.Entry) *cobra.Command {
	opts := new(rootOptions)

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Track which content objects reference which other objects",
		Long: `entityusage maintains an index of the references between content
objects, keeps it current as objects are created, edited and deleted,
and rebuilds it in small resumable steps.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			logger.Logger.SetLevel(level)

			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML configuration file")
	flags.StringVarP(&opts.fixturesPath, "fixtures", "f", "", "path to a YAML file with the object types and objects to load")
	flags.StringVar(&opts.storeURI, "store", "", "usage store URI (in-memory://, postgresql://..., sqlite://PATH); overrides store.uri")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCmd(opts, logger),
		newRebuildCmd(opts, logger),
		newSourcesCmd(opts, logger),
		newTargetsCmd(opts, logger),
		newUsageCmd(opts, logger),
		newReferencesCmd(opts, logger),
	)

	return rootCmd
}
