package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/mycok/entityusage/rebuild"
	"github.com/mycok/entityusage/registry"
	"github.com/mycok/entityusage/usagegraph/graph"
)

// printer renders query results as an aligned table or as YAML.
type printer struct {
	out  io.Writer
	yaml bool
}

func newPrinter(out io.Writer, format string) (*printer, error) {
	switch format {
	case "table":
		return &printer{out: out}, nil
	case "yaml":
		return &printer{out: out, yaml: true}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q", format)
	}
}

type edgeRow struct {
	Target   string `yaml:"target"`
	Source   string `yaml:"source"`
	Language string `yaml:"language"`
	Revision int64  `yaml:"revision"`
	Method   string `yaml:"method"`
	Field    string `yaml:"field"`
	Count    int    `yaml:"count"`
}

type aggregateRow struct {
	Method string `yaml:"method,omitempty"`
	Entity string `yaml:"entity"`
	Count  int    `yaml:"count"`
}

func (p *printer) edges(edges []*graph.Edge) error {
	rows := make([]edgeRow, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, edgeRow{
			Target:   e.Target.String(),
			Source:   e.Source.Entity().String(),
			Language: e.Source.Language,
			Revision: e.Source.Revision,
			Method:   e.Method,
			Field:    e.Field,
			Count:    e.Count,
		})
	}

	if p.yaml {
		return p.encode(rows)
	}

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tSOURCE\tLANGUAGE\tREVISION\tMETHOD\tFIELD\tCOUNT")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%d\n",
			r.Target, r.Source, r.Language, r.Revision, r.Method, r.Field, r.Count)
	}

	return tw.Flush()
}

func (p *printer) aggregates(totals []registry.Aggregate, byMethod bool) error {
	rows := make([]aggregateRow, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, aggregateRow{Method: t.Method, Entity: t.Entity.String(), Count: t.Count})
	}

	if p.yaml {
		return p.encode(rows)
	}

	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	if byMethod {
		fmt.Fprintln(tw, "METHOD\tENTITY\tCOUNT")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Method, r.Entity, r.Count)
		}
	} else {
		fmt.Fprintln(tw, "ENTITY\tCOUNT")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%d\n", r.Entity, r.Count)
		}
	}

	return tw.Flush()
}

func (p *printer) encode(v interface{}) error {
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)

	if err := enc.Encode(v); err != nil {
		return err
	}

	return enc.Close()
}

// progressPrinter reports the progress of a rebuild run, one line per step.
type progressPrinter struct {
	out io.Writer
}

func (pp *progressPrinter) ObserveStep(entityType string, sb *rebuild.Sandbox) {
	finished := sb.Finished
	if sb.CurrentType() != entityType {
		finished = 1
	}

	fmt.Fprintf(pp.out, "%-20s %3.0f%%  (%d/%d objects, run %3.0f%%)\n",
		entityType, finished*100, sb.Processed, sb.Total, sb.Progress()*100)

	if sb.Done {
		fmt.Fprintf(pp.out, "rebuilt %d objects, %d failed\n", len(sb.Results), len(sb.Failed))
		for _, marker := range sb.Failed {
			fmt.Fprintf(pp.out, "  failed: %s\n", marker)
		}
	}
}
