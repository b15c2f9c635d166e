// Package judgment implements a generic inference-rule evaluator: a named,
// possibly recursive relation between an input and a set of outputs, defined
// by a finite list of rules. Evaluation is depth-first with explicit
// backtracking inside rule bodies; recursive calls (including mutual
// recursion between judgments sharing a Runtime) are cut at cycles and
// iterated to a fixed point, so cyclic rule sets terminate.
package judgment

import "fmt"

// Runtime carries the evaluation state shared by a family of mutually
// recursive judgments: the active call stack and the memo of finalized
// result sets. A Runtime is single-threaded; clone-free sharing across
// goroutines is not supported.
type Runtime struct {
	stack []*frame
	memo  map[string]*frame
}

func NewRuntime() *Runtime {
	return &Runtime{memo: make(map[string]*frame)}
}

// Reset drops all memoized results.
func (rt *Runtime) Reset() {
	if len(rt.stack) != 0 {
		panic("judgment: Reset during evaluation")
	}
	rt.memo = make(map[string]*frame)
}

type frame struct {
	key     string
	keys    map[string]bool
	outputs []any
	// minDep is the lowest stack index this frame's results depend on. A
	// frame depending on a frame below itself is provisional and must not
	// be memoized: its inputs were still growing.
	minDep int
}

func (fr *frame) add(key string, out any) bool {
	if fr.keys[key] {
		return false
	}
	fr.keys[key] = true
	fr.outputs = append(fr.outputs, out)
	return true
}

// Rule is one inference rule: given the judgment (for recursive premises)
// and an input, it enumerates every output derivable by this rule. An empty
// slice means the rule does not apply; that is not an error.
type Rule[I, O any] struct {
	Name string
	Fire func(j *Judgment[I, O], in I) []O
}

// Judgment is a rule-defined relation. Inputs and outputs are deduplicated
// by caller-supplied canonical keys, so the result of Apply is a true set.
type Judgment[I, O any] struct {
	name   string
	rt     *Runtime
	inKey  func(I) string
	outKey func(O) string
	rules  []Rule[I, O]
}

func New[I, O any](rt *Runtime, name string, inKey func(I) string, outKey func(O) string) *Judgment[I, O] {
	return &Judgment[I, O]{name: name, rt: rt, inKey: inKey, outKey: outKey}
}

// AddRule appends a rule. Rules are tried in registration order, but the
// result set does not depend on that order.
func (j *Judgment[I, O]) AddRule(name string, fire func(j *Judgment[I, O], in I) []O) {
	j.rules = append(j.rules, Rule[I, O]{Name: name, Fire: fire})
}

func (j *Judgment[I, O]) Name() string { return j.name }

// Apply evaluates the judgment on in and returns every derivable output,
// deduplicated. An empty result encodes "not provable".
//
// Hitting an input already under evaluation returns its partial result set;
// the frame that heads the cycle keeps re-firing its rules until the set
// stops growing. This terminates because result sets only grow and rules
// are deterministic for a given input: the fresh names a rule allocates are
// derived from the input environment, not from global state.
func (j *Judgment[I, O]) Apply(in I) []O {
	if len(j.rules) == 0 {
		panic(fmt.Sprintf("judgment %q has no rules", j.name))
	}
	rt := j.rt
	key := j.name + "(" + j.inKey(in) + ")"

	if fr, ok := rt.memo[key]; ok {
		return outputsAs[O](fr.outputs)
	}
	for idx := len(rt.stack) - 1; idx >= 0; idx-- {
		if rt.stack[idx].key == key {
			top := rt.stack[len(rt.stack)-1]
			if idx < top.minDep {
				top.minDep = idx
			}
			return outputsAs[O](rt.stack[idx].outputs)
		}
	}

	self := len(rt.stack)
	fr := &frame{key: key, keys: make(map[string]bool), minDep: self}
	rt.stack = append(rt.stack, fr)
	for {
		before := len(fr.outputs)
		for _, r := range j.rules {
			for _, out := range r.Fire(j, in) {
				fr.add(j.outKey(out), out)
			}
		}
		if len(fr.outputs) == before {
			break
		}
	}
	rt.stack = rt.stack[:self]

	if fr.minDep >= self {
		rt.memo[key] = fr
	} else if self > 0 {
		// Provisional result: propagate the cycle dependency to the caller
		// and let the cycle head recompute us on its next iteration.
		parent := rt.stack[self-1]
		if fr.minDep < parent.minDep {
			parent.minDep = fr.minDep
		}
	}
	return outputsAs[O](fr.outputs)
}

func outputsAs[O any](outputs []any) []O {
	out := make([]O, len(outputs))
	for i, o := range outputs {
		out[i] = o.(O)
	}
	return out
}
