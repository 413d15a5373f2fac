package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// queryCmd wraps a read-only command so that it runs against a loaded and,
// for volatile stores, seeded app.
func queryCmd(opts *rootOptions, logger *logrus.Entry, cmd *cobra.Command,
	run func(ctx context.Context, a *app, ref graph.EntityRef, p *printer) error,
) *cobra.Command {
	var format string

	cmd.Args = cobra.ExactArgs(2)
	cmd.Flags().StringVarP(&format, "output", "o", "table", "output format (table, yaml)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p, err := newPrinter(cmd.OutOrStdout(), format)
		if err != nil {
			return err
		}

		a, err := opts.loadApp(logger)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()

		if err := a.seed(cmd.Context()); err != nil {
			return err
		}

		ref := graph.EntityRef{Type: args[0], ID: graph.ID(args[1])}

		return run(cmd.Context(), a, ref, p)
	}

	return cmd
}

func newSourcesCmd(opts *rootOptions, logger *logrus.Entry) *cobra.Command {
	var includeZero bool

	cmd := queryCmd(opts, logger, &cobra.Command{
		Use:   "sources TYPE ID",
		Short: "List the recorded references to an object",
	}, func(ctx context.Context, a *app, ref graph.EntityRef, p *printer) error {
		edges, err := a.registry.ListSources(ctx, ref, includeZero)
		if err != nil {
			return err
		}

		return p.edges(edges)
	})
	cmd.Flags().BoolVar(&includeZero, "include-zero", false, "include rows with a zero count")

	return cmd
}

func newTargetsCmd(opts *rootOptions, logger *logrus.Entry) *cobra.Command {
	var revision int64

	cmd := queryCmd(opts, logger, &cobra.Command{
		Use:   "targets TYPE ID",
		Short: "List the objects referenced by an object",
	}, func(ctx context.Context, a *app, ref graph.EntityRef, p *printer) error {
		var rev *int64
		if revision > 0 {
			rev = &revision
		}

		edges, err := a.registry.ListTargets(ctx, ref, rev)
		if err != nil {
			return err
		}

		return p.edges(edges)
	})
	cmd.Flags().Int64Var(&revision, "revision", 0, "only list the references of this revision")

	return cmd
}

func newUsageCmd(opts *rootOptions, logger *logrus.Entry) *cobra.Command {
	var byMethod bool

	cmd := queryCmd(opts, logger, &cobra.Command{
		Use:   "usage TYPE ID",
		Short: "Sum the references to an object per referencing object",
	}, func(ctx context.Context, a *app, ref graph.EntityRef, p *printer) error {
		totals, err := a.registry.AggregateUsage(ctx, ref, byMethod)
		if err != nil {
			return err
		}

		return p.aggregates(totals, byMethod)
	})
	cmd.Flags().BoolVar(&byMethod, "by-method", false, "keep separate totals per extraction method")

	return cmd
}

func newReferencesCmd(opts *rootOptions, logger *logrus.Entry) *cobra.Command {
	return queryCmd(opts, logger, &cobra.Command{
		Use:   "references TYPE ID",
		Short: "Sum the references held by an object per referenced object",
	}, func(ctx context.Context, a *app, ref graph.EntityRef, p *printer) error {
		totals, err := a.registry.AggregateReferencedEntities(ctx, ref)
		if err != nil {
			return err
		}

		return p.aggregates(totals, false)
	})
}
