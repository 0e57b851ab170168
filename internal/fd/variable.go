package fd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adRise/choco-solver/pkg/explain"
)

var _ explain.Variable = &IntVar{}

// IntVar is an integer variable over a small enumerated domain.
type IntVar struct {
	id     explain.Identifier
	offset int
	values []bool
	lb, ub int
	size   int
}

func newIntVar(id explain.Identifier, lb, ub int) *IntVar {
	v := &IntVar{
		id:     id,
		offset: lb,
		values: make([]bool, ub-lb+1),
		lb:     lb,
		ub:     ub,
		size:   ub - lb + 1,
	}
	for i := range v.values {
		v.values[i] = true
	}
	return v
}

func (v *IntVar) Identifier() explain.Identifier {
	return v.id
}

func (v *IntVar) LB() int {
	return v.lb
}

func (v *IntVar) UB() int {
	return v.ub
}

func (v *IntVar) Size() int {
	return v.size
}

func (v *IntVar) Contains(value int) bool {
	i := value - v.offset
	return i >= 0 && i < len(v.values) && v.values[i]
}

func (v *IntVar) IsInstantiated() bool {
	return v.size == 1
}

// Value returns the value of an instantiated variable.
func (v *IntVar) Value() int {
	return v.lb
}

// Values returns the domain in increasing order.
func (v *IntVar) Values() []int {
	var vs []int
	for value := v.lb; value <= v.ub && v.size > 0; value++ {
		if v.Contains(value) {
			vs = append(vs, value)
		}
	}
	return vs
}

func (v *IntVar) String() string {
	vs := v.Values()
	s := make([]string, len(vs))
	for i, value := range vs {
		s[i] = strconv.Itoa(value)
	}
	return fmt.Sprintf("%s = {%s}", v.id, strings.Join(s, ","))
}

// domainState is what the undo trail needs to restore a domain.
type domainState struct {
	variable *IntVar
	values   []bool
	lb, ub   int
	size     int
}

func (v *IntVar) save() domainState {
	values := make([]bool, len(v.values))
	copy(values, v.values)
	return domainState{variable: v, values: values, lb: v.lb, ub: v.ub, size: v.size}
}

func (st domainState) restore() {
	v := st.variable
	copy(v.values, st.values)
	v.lb, v.ub, v.size = st.lb, st.ub, st.size
}

// remove drops value and recomputes the bounds.
func (v *IntVar) remove(value int) {
	v.values[value-v.offset] = false
	v.size--
	if v.size == 0 {
		return
	}
	for !v.Contains(v.lb) {
		v.lb++
	}
	for !v.Contains(v.ub) {
		v.ub--
	}
}

func (v *IntVar) clear() {
	for i := range v.values {
		v.values[i] = false
	}
	v.size = 0
}
