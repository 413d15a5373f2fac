package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mycok/entityusage/service/rebuilder"
)

func newRebuildCmd(opts *rootOptions, logger *logrus.Entry) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild [types...]",
		Short: "Rebuild the usage index of the given object types",
		Long: `Clear and regenerate the usage index of every object of the given
types. Without arguments the configured rebuild.types are used, or every
known type when none are configured. An interrupted run is resumed from its
persisted sandbox.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.loadApp(logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			types := a.rebuildTypes(args)
			if len(types) == 0 {
				return fmt.Errorf("no types to rebuild")
			}

			svc, err := rebuilder.New(rebuilder.Config{
				Rebuilder: a.rebuilder,
				Sandboxes: a.sandboxes,
				Types:     types,
				Observer:  &progressPrinter{out: cmd.OutOrStdout()},
				Interval:  a.cfg.Rebuild.Interval,
				Logger:    a.logger.WithField("service", "rebuilder"),
			})
			if err != nil {
				return err
			}

			return svc.RunOnce(cmd.Context())
		},
	}
}
