package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/adRise/choco-solver/pkg/explain"
)

// Kind is the kind of obligation a Rule stands for.
type Kind int

const (
	FullDomain Kind = iota
	Removal
	LowerBound
	UpperBound
	Activation
)

func (k Kind) String() string {
	switch k {
	case FullDomain:
		return "full-domain"
	case Removal:
		return "removal"
	case LowerBound:
		return "lower-bound"
	case UpperBound:
		return "upper-bound"
	case Activation:
		return "activation"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Rule is a read-only view of one outstanding obligation.
type Rule struct {
	Kind Kind
	// Target is the variable the rule is about, or the propagator for
	// Activation rules.
	Target explain.Identifier
	// Values lists, in increasing order, the values of a Removal rule.
	Values []int
	// Bound is the threshold of LowerBound and UpperBound rules.
	Bound int
}

func (r Rule) String() string {
	switch r.Kind {
	case Removal:
		s := make([]string, len(r.Values))
		for i, v := range r.Values {
			s[i] = strconv.Itoa(v)
		}
		return fmt.Sprintf("explain removal of {%s} from %s", strings.Join(s, ", "), r.Target)
	case LowerBound:
		return fmt.Sprintf("explain %s >= %d", r.Target, r.Bound)
	case UpperBound:
		return fmt.Sprintf("explain %s <= %d", r.Target, r.Bound)
	case Activation:
		return fmt.Sprintf("explain activation of %s", r.Target)
	}
	return fmt.Sprintf("explain wipe-out of %s", r.Target)
}

// variableRules gathers every obligation on a single variable.
type variableRules struct {
	variable explain.Variable
	full     bool
	values   map[int]struct{}
	// explained holds the values whose removal was already explained
	// during the current walk; they are never asked for again.
	explained map[int]struct{}
	hasLB     bool
	lb        int
	hasUB     bool
	ub        int
}

func newVariableRules(v explain.Variable) *variableRules {
	return &variableRules{
		variable:  v,
		values:    map[int]struct{}{},
		explained: map[int]struct{}{},
	}
}

func (vr *variableRules) empty() bool {
	return !vr.full && len(vr.values) == 0 && !vr.hasLB && !vr.hasUB
}

func (vr *variableRules) rules() []Rule {
	id := vr.variable.Identifier()
	var rs []Rule
	if vr.full {
		rs = append(rs, Rule{Kind: FullDomain, Target: id})
	}
	if len(vr.values) > 0 {
		values := make([]int, 0, len(vr.values))
		for v := range vr.values {
			values = append(values, v)
		}
		sort.Ints(values)
		rs = append(rs, Rule{Kind: Removal, Target: id, Values: values})
	}
	if vr.hasLB {
		rs = append(rs, Rule{Kind: LowerBound, Target: id, Bound: vr.lb})
	}
	if vr.hasUB {
		rs = append(rs, Rule{Kind: UpperBound, Target: id, Bound: vr.ub})
	}
	return rs
}
