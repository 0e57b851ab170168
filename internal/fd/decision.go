package fd

import (
	"fmt"

	"github.com/adRise/choco-solver/pkg/explain"
)

var _ explain.Decision = &Decision{}

// Decision assigns a value to a variable. Once refuted, its negation
// (the removal of the value) is applied instead.
type Decision struct {
	id       explain.Identifier
	variable *IntVar
	value    int
	refuted  bool
}

func (d *Decision) Identifier() explain.Identifier {
	return d.id
}

func (d *Decision) Variable() *IntVar {
	return d.variable
}

func (d *Decision) Value() int {
	return d.value
}

func (d *Decision) Refuted() bool {
	return d.refuted
}

func (d *Decision) String() string {
	if d.refuted {
		return fmt.Sprintf("%s != %d", d.variable.id, d.value)
	}
	return fmt.Sprintf("%s = %d", d.variable.id, d.value)
}
