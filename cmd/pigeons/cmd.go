package pigeons

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/adRise/choco-solver/internal/fd"
	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/engine"
)

type options struct {
	pigeons     int
	holes       int
	alldiff     bool
	nogoods     bool
	refutations bool
	metrics     bool
}

func NewPigeonsCommand(log logr.Logger) *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "pigeons",
		Short: "Proves that n pigeons do not fit into n-1 holes",
		Long: `Searches for a placement of pigeons into holes with at most one pigeon per hole.
Every failure is explained and the search jumps back over the decisions that are not part
of the explanation. The explanation of the root failure is printed at the end.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return solve(cmd.OutOrStdout(), log, opts)
		},
	}
	cmd.Flags().IntVar(&opts.pigeons, "pigeons", 4, "number of pigeons")
	cmd.Flags().IntVar(&opts.holes, "holes", 3, "number of holes")
	cmd.Flags().BoolVar(&opts.alldiff, "alldiff", false, "also post a global counting check over all pigeons")
	cmd.Flags().BoolVar(&opts.nogoods, "nogoods", true, "record refutations as nogoods")
	cmd.Flags().BoolVar(&opts.refutations, "refutations", false, "print every refuted decision with its reason")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print the explanation metrics in the prometheus text format")
	return cmd
}

func solve(out io.Writer, log logr.Logger, opts options) error {
	s, err := fd.NewSolver(fd.WithLogger(log.WithName("search")))
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	engineOptions := []engine.Option{
		engine.WithLogger(log.WithName("explain")),
		engine.WithMetrics(reg),
	}
	if opts.nogoods {
		engineOptions = append(engineOptions, engine.WithNogoodRecording())
	}
	e, err := engine.New(s, engineOptions...)
	if err != nil {
		return err
	}

	vars, err := NewPigeons(s, opts.pigeons, opts.holes, opts.alldiff)
	if err != nil {
		return err
	}

	result, err := s.Solve()
	if err != nil {
		return err
	}
	if result.Satisfiable {
		fmt.Fprintln(out, "solution found:")
		for _, v := range vars {
			fmt.Fprintf(out, "%s = %d\n", v.Identifier(), result.Solution[v.Identifier()])
		}
	} else {
		fmt.Fprintln(out, "no solution found")
		if result.Reason != nil {
			fmt.Fprintf(out, "explained by %s\n", result.Reason)
		}
	}
	st := result.Stats
	fmt.Fprintf(out, "nodes: %d, failures: %d, explanations: %d, refutations: %d, backjumps: %d, pruned: %d\n",
		st.Nodes, st.Failures, st.Explanations, st.Refutations, st.Backjumps, st.Pruned)
	if opts.refutations {
		if err := printRefutations(out, e); err != nil {
			return err
		}
	}
	if opts.metrics {
		return printMetrics(out, reg)
	}
	return nil
}

func printRefutations(out io.Writer, e *engine.Engine) error {
	type refutation struct {
		decision explain.Identifier
		reason   *explain.Reason
	}
	var rs []refutation
	if err := e.IterateRefutations(func(d explain.Decision, r *explain.Reason) error {
		rs = append(rs, refutation{decision: d.Identifier(), reason: r})
		return nil
	}); err != nil {
		return err
	}
	sort.Slice(rs, func(i, j int) bool {
		return rs[i].decision < rs[j].decision
	})
	for _, r := range rs {
		fmt.Fprintf(out, "refuted %s because %s\n", r.decision, r.reason)
	}
	return nil
}

func printMetrics(out io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
