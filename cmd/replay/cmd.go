package replay

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/engine"
)

func NewReplayCommand(log logr.Logger) *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "replay <path>",
		Short: "Explains the contradiction of a recorded trail",
		Long: `Explains the contradiction at the end of a trail described in YAML. For instance:
variables: [y]
decisions: [B]
propagators:
  - name: P
trail:
  - {variable: y, propagator: P, kind: remove, payload: 3}
  - {variable: y, decision: B, kind: instantiate, payload: 3, oldLB: 0, oldUB: 10}
contradiction:
  variable: y
`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("file (%s) not found", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options := []engine.Option{engine.WithLogger(log)}
			if trace {
				options = append(options, engine.WithTracer(explain.LoggingTracer{Writer: cmd.OutOrStdout()}))
			}
			return replay(cmd.OutOrStdout(), args[0], options...)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print every trail event that matched a rule")
	return cmd
}

func replay(out io.Writer, path string, options ...engine.Option) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening scenario file (%s): %w", path, err)
	}
	defer f.Close()

	scenario, err := NewScenario(f)
	if err != nil {
		return fmt.Errorf("error parsing scenario file (%s): %w", path, err)
	}

	reason, events, err := Replay(scenario, options...)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "trail (%d events):\n", events.Size())
	for i := 0; i < events.Size(); i++ {
		fmt.Fprintf(out, "%3d %s\n", i, events.At(i))
	}
	fmt.Fprintln(out, "reason:")
	for _, d := range reason.Decisions() {
		fmt.Fprintf(out, "- decision %s\n", d.Identifier())
	}
	for _, p := range reason.Propagators() {
		fmt.Fprintf(out, "- propagator %s\n", p.Identifier())
	}
	if reason.Empty() {
		fmt.Fprintln(out, "- (empty)")
	}
	return nil
}
