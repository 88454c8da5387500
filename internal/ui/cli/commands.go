package cli

import (
	"context"
	coreapp "edgegraph/internal/core/app"
	"edgegraph/internal/core/errors"
	"edgegraph/internal/data/history"
	"edgegraph/internal/engine/graph"
	"edgegraph/internal/output"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

const msgNoNodes = "No nodes found"

type statsResult struct {
	graph.Summary `json:",inline" yaml:",inline"`
	MemoryHuman   string              `json:"memory_human" yaml:"memory_human"`
	DatasetPath   string              `json:"dataset_path" yaml:"dataset_path"`
	LastLoad      coreapp.LoadReport  `json:"last_load" yaml:"last_load"`
	Top           []graph.DegreeEntry `json:"top,omitempty" yaml:"top,omitempty"`
}

type maxDegreeResult struct {
	Found     bool                `json:"found" yaml:"found"`
	ID        int64               `json:"id" yaml:"id"`
	OutDegree int64               `json:"out_degree" yaml:"out_degree"`
	Top       []graph.DegreeEntry `json:"top,omitempty" yaml:"top,omitempty"`
}

type neighborsResult struct {
	ID        int64   `json:"id" yaml:"id"`
	OutDegree int     `json:"out_degree" yaml:"out_degree"`
	Neighbors []int64 `json:"neighbors" yaml:"neighbors"`
}

// withGraph loads the dataset, runs fn and releases the application.
func (s *session) withGraph(cmd *cobra.Command, dataset string, fn func(*coreapp.App) error) error {
	a, err := s.loadApp(cmd.Context(), dataset, true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	return fn(a)
}

func closeApp(a *coreapp.App) {
	if err := a.Close(context.Background()); err != nil {
		slog.Warn("closing app", "error", err)
	}
}

func datasetArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newStatsCommand(s *session) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Print node count, edge count, memory estimate and critical node",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withGraph(cmd, datasetArg(args), func(a *coreapp.App) error {
				report, _ := a.Engine.LastLoad()
				res := statsResult{
					Summary:     a.Engine.Summary(),
					DatasetPath: a.DatasetPath(),
					LastLoad:    report,
				}
				res.MemoryHuman = humanize.IBytes(uint64(res.MemoryBytes))
				if top > 0 {
					res.Top = a.Engine.TopOutDegree(top)
				}
				return render(cmd.OutOrStdout(), s.opts.output, res, func(w io.Writer) error {
					return writeStatsText(w, res)
				})
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "Also list the k nodes with the highest out-degree")
	return cmd
}

func writeStatsText(w io.Writer, res statsResult) error {
	fmt.Fprintf(w, "Dataset:          %s\n", res.DatasetPath)
	fmt.Fprintf(w, "Nodes:            %s\n", humanize.Comma(int64(res.Nodes)))
	fmt.Fprintf(w, "Edges:            %s\n", humanize.Comma(res.Edges))
	fmt.Fprintf(w, "Memory (approx.): %s\n", res.MemoryHuman)
	fmt.Fprintf(w, "Avg out-degree:   %.2f\n", res.AvgOutDegree)
	if res.HasMaxNode {
		fmt.Fprintf(w, "Critical node:    %d (out-degree %d)\n", res.MaxOutDegreeNode, res.MaxOutDegree)
	} else {
		fmt.Fprintln(w, "Critical node:    none (graph is empty)")
	}
	for i, d := range res.Top {
		fmt.Fprintf(w, "  %2d. %d (out-degree %d)\n", i+1, d.ID, d.OutDegree)
	}
	_, err := fmt.Fprintf(w, "Loaded in:        %s (%s lines)\n",
		res.LastLoad.Duration.Round(time.Millisecond), humanize.Comma(res.LastLoad.Lines))
	return err
}

func newMaxDegreeCommand(s *session) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "max-degree [file]",
		Short: "Print the node with the highest out-degree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.withGraph(cmd, datasetArg(args), func(a *coreapp.App) error {
				var res maxDegreeResult
				res.ID, res.OutDegree, res.Found = a.Engine.Snapshot().MaxOutDegreeNode()
				if top > 0 {
					res.Top = a.Engine.TopOutDegree(top)
				}
				return render(cmd.OutOrStdout(), s.opts.output, res, func(w io.Writer) error {
					if !res.Found {
						_, err := fmt.Fprintln(w, "Graph is empty: no critical node")
						return err
					}
					fmt.Fprintf(w, "%d (out-degree %d)\n", res.ID, res.OutDegree)
					for i, d := range res.Top {
						fmt.Fprintf(w, "  %2d. %d (out-degree %d)\n", i+1, d.ID, d.OutDegree)
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "Also list the k nodes with the highest out-degree")
	return cmd
}

func newTraverseCommand(s *session) *cobra.Command {
	var (
		start  int64
		depth  int
		format string
	)
	cmd := &cobra.Command{
		Use:   "traverse [file] --start ID [--depth N]",
		Short: "List the edges reached by a bounded breadth-first search",
		Long: `traverse expands every node reached within --depth hops of --start and
prints all out-edges of the expanded nodes in breadth-first order.

--format renders the result for a plotting tool (dot, mermaid, plantuml,
tsv) instead of the --output format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var exportFormat output.Format
			if format != "" {
				f, err := output.ParseFormat(format)
				if err != nil {
					return errors.Wrap(err, errors.CodeValidationError, "invalid --format")
				}
				exportFormat = f
			}
			if !cmd.Flags().Changed("depth") {
				depth = s.cfg.Traversal.DefaultDepth
			}
			if depth < 0 {
				return errors.New(errors.CodeValidationError, "--depth must not be negative")
			}

			return s.withGraph(cmd, datasetArg(args), func(a *coreapp.App) error {
				depth := a.Engine.ClampDepth(depth)
				sub := output.Subgraph{
					Start: start,
					Depth: depth,
					Edges: a.Engine.Traverse(cmd.Context(), start, depth),
					Found: a.Engine.Contains(start),
				}
				return writeSubgraph(cmd.OutOrStdout(), exportFormat, s.opts.output, sub)
			})
		},
	}
	cmd.Flags().Int64Var(&start, "start", 0, "External id of the start node")
	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum number of hops (default from config)")
	cmd.Flags().StringVar(&format, "format", "", "Export format: json, dot, mermaid, plantuml or tsv")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func writeSubgraph(w io.Writer, export output.Format, outputFlag string, sub output.Subgraph) error {
	switch export {
	case "":
	case output.FormatJSON:
		return render(w, string(outputJSON), sub, nil)
	default:
		text, err := output.Render(export, sub)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, text)
		return err
	}

	return render(w, outputFlag, sub, func(w io.Writer) error {
		if len(sub.Edges) == 0 {
			_, err := fmt.Fprintln(w, msgNoNodes)
			return err
		}
		for _, e := range sub.Edges {
			if _, err := fmt.Fprintf(w, "%d -> %d\n", e.From, e.To); err != nil {
				return err
			}
		}
		return nil
	})
}

func newNeighborsCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "neighbors [file] ID",
		Short: "List the direct successors of a node",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset, rawID := "", args[0]
			if len(args) == 2 {
				dataset, rawID = args[0], args[1]
			}
			id, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				return errors.Wrap(err, errors.CodeValidationError, "node id must be an integer")
			}

			return s.withGraph(cmd, dataset, func(a *coreapp.App) error {
				targets, ok := a.Engine.Neighbors(id)
				if !ok {
					return errors.New(errors.CodeNotFound, fmt.Sprintf("node %d is not in the graph", id))
				}
				res := neighborsResult{ID: id, OutDegree: len(targets), Neighbors: targets}
				return render(cmd.OutOrStdout(), s.opts.output, res, func(w io.Writer) error {
					fmt.Fprintf(w, "%d (out-degree %d)\n", id, len(targets))
					for _, t := range targets {
						if _, err := fmt.Fprintf(w, "  -> %d\n", t); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}

func newHistoryCommand(s *session) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded load attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !s.cfg.History.Enabled {
				return errors.New(errors.CodeValidationError,
					"load history is disabled: set history.enabled = true in the config")
			}
			a, err := s.newApp("")
			if err != nil {
				return err
			}
			defer closeApp(a)

			records, err := a.RecentLoads(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if records == nil {
				records = []history.LoadRecord{}
			}
			return render(cmd.OutOrStdout(), s.opts.output, records, func(w io.Writer) error {
				return writeHistoryText(w, records)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of entries (default from config)")
	return cmd
}

func writeHistoryText(w io.Writer, records []history.LoadRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No loads recorded.")
		return err
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-6s  %s  %s nodes  %s edges  %s",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			r.DatasetPath,
			humanize.Comma(r.Nodes),
			humanize.Comma(r.Edges),
			r.Duration.Round(time.Millisecond),
		)
		if r.Status == history.StatusFailed {
			line += fmt.Sprintf("  [%s] %s", r.ErrorCode, r.ErrorMessage)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "edgegraph v%s\n", Version)
		},
	}
}
