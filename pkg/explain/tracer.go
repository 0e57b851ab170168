package explain

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
)

// WalkPosition describes the state of the backward walk right after a
// trail event matched an outstanding rule and was consumed.
type WalkPosition interface {
	Index() int
	Variable() Variable
	Kind() EventKind
	Payload() int
	Cause() Cause
	// Rules describes the rules still outstanding.
	Rules() []string
	Reason() *Reason
}

type Tracer interface {
	Trace(p WalkPosition)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ WalkPosition) {
}

type LoggingTracer struct {
	Writer io.Writer
}

func (t LoggingTracer) Trace(p WalkPosition) {
	fmt.Fprintf(t.Writer, "---\nEvent %d: %s %s(%d) by %s\n", p.Index(), identifierOf(p.Variable()), p.Kind(), p.Payload(), p.Cause())
	fmt.Fprintf(t.Writer, "Rules:\n")
	for _, r := range p.Rules() {
		fmt.Fprintf(t.Writer, "- %s\n", r)
	}
	fmt.Fprintf(t.Writer, "Reason: %s\n", p.Reason())
}

// LogrTracer reports every consumed event as a structured log line.
type LogrTracer struct {
	Logger logr.Logger
}

func (t LogrTracer) Trace(p WalkPosition) {
	t.Logger.Info("event matched",
		"index", p.Index(),
		"variable", identifierOf(p.Variable()),
		"kind", p.Kind().String(),
		"payload", p.Payload(),
		"cause", p.Cause().String(),
		"rules", len(p.Rules()),
		"reason", p.Reason().String(),
	)
}

func identifierOf(v Variable) Identifier {
	if v == nil {
		return "<none>"
	}
	return v.Identifier()
}
