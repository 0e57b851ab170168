package root

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"

	"github.com/adRise/choco-solver/cmd/pigeons"
	"github.com/adRise/choco-solver/cmd/replay"
)

func NewRootCmd() *cobra.Command {
	var verbosity int
	// subcommands are built before flags are parsed, so the sink reads
	// verbosity lazily
	log := funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: 0})
	log = logr.New(&leveled{LogSink: log.GetSink(), verbosity: &verbosity})

	rootCmd := &cobra.Command{
		Use:   "choco",
		Short: "Lazy explanations for a finite domain constraint solver",
		Long: `Explains failures of a constraint propagation solver from the trail of
domain modifications it recorded, and uses the explanations to drive backjumping.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity")

	// add sub-commands
	rootCmd.AddCommand(replay.NewReplayCommand(log))
	rootCmd.AddCommand(pigeons.NewPigeonsCommand(log))

	return rootCmd
}

// leveled filters log lines against a verbosity known only after flag
// parsing.
type leveled struct {
	logr.LogSink
	verbosity *int
}

func (l *leveled) Enabled(level int) bool {
	return level <= *l.verbosity
}

func (l *leveled) WithValues(kv ...interface{}) logr.LogSink {
	return &leveled{LogSink: l.LogSink.WithValues(kv...), verbosity: l.verbosity}
}

func (l *leveled) WithName(name string) logr.LogSink {
	return &leveled{LogSink: l.LogSink.WithName(name), verbosity: l.verbosity}
}
