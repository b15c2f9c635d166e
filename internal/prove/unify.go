package prove

import (
	"reflect"

	"github.com/rill-lang/rill/internal/term"
)

// unifyMode selects how unknowns may be equated.
type unifyMode int

const (
	// modeNormal solves inference variables only; placeholders are opaque.
	modeNormal unifyMode = iota
	// modeCoherence additionally lets a placeholder be *supposed* equal to
	// another parameter: the equation succeeds without learning a binding,
	// and the result is not known true. Downstream crates could make the
	// supposition real, so coherence may not treat it as refuted.
	modeCoherence
	// modeHypothesis lets a placeholder be bound outright. Used when
	// equality assumptions are adopted as hypotheses.
	modeHypothesis
)

// unifyResult carries the bindings accumulated by a unification and whether
// the equation is known true (no supposition was needed).
type unifyResult struct {
	subst     term.Substitution
	knownTrue bool
}

// unifyParams equates two parameter lists pairwise, threading the learned
// substitution left to right. Returns false when the lists cannot be equal.
func unifyParams(env *Env, mode unifyMode, subst term.Substitution, ps, qs []term.Parameter) (unifyResult, bool) {
	if len(ps) != len(qs) {
		return unifyResult{}, false
	}
	res := unifyResult{subst: subst, knownTrue: true}
	for i := range ps {
		next, ok := unifyPair(env, mode, res, ps[i], qs[i])
		if !ok {
			return unifyResult{}, false
		}
		res = next
	}
	return res, true
}

func unifyPair(env *Env, mode unifyMode, res unifyResult, a, b term.Parameter) (unifyResult, bool) {
	a = resolve(res.subst, a)
	b = resolve(res.subst, b)

	if reflect.DeepEqual(a, b) {
		return res, true
	}

	// Inference variables bind in every mode.
	if v, ok := inferenceVarOf(a); ok {
		return bindVar(env, res, a, v, b)
	}
	if v, ok := inferenceVarOf(b); ok {
		return bindVar(env, res, b, v, a)
	}

	// Placeholders are opaque beyond their universe. In hypothesis mode an
	// equality assumption pins one down; in coherence mode the equation is
	// merely possible.
	if _, ok := placeholderOf(a); ok {
		return supposePlaceholder(mode, res, a, b)
	}
	if _, ok := placeholderOf(b); ok {
		return supposePlaceholder(mode, res, b, a)
	}

	switch at := a.(type) {
	case term.RigidTy:
		bt, ok := b.(term.RigidTy)
		if !ok || at.Name != bt.Name || len(at.Params) != len(bt.Params) {
			return unifyResult{}, false
		}
		sub, ok := unifyParams(env, mode, res.subst, at.Params, bt.Params)
		if !ok {
			return unifyResult{}, false
		}
		return unifyResult{subst: sub.subst, knownTrue: res.knownTrue && sub.knownTrue}, true

	case term.AliasTy:
		bt, ok := b.(term.AliasTy)
		if ok && at.Trait == bt.Trait && at.Item == bt.Item && len(at.Params) == len(bt.Params) {
			sub, ok := unifyParams(env, mode, res.subst, at.Params, bt.Params)
			if !ok {
				return unifyResult{}, false
			}
			return unifyResult{subst: sub.subst, knownTrue: res.knownTrue && sub.knownTrue}, true
		}
		// An alias might normalize to anything; only coherence mode is
		// entitled to treat that as possible.
		if mode == modeCoherence {
			return unifyResult{subst: res.subst, knownTrue: false}, true
		}
		return unifyResult{}, false

	default:
		if _, ok := b.(term.AliasTy); ok && mode == modeCoherence {
			return unifyResult{subst: res.subst, knownTrue: false}, true
		}
		return unifyResult{}, false
	}
}

// bindVar solves an inference variable, enforcing the occurs check and the
// universe invariant: a solution may not mention a placeholder the
// variable's universe cannot see.
func bindVar(env *Env, res unifyResult, occurrence term.Parameter, v term.InferenceVar, value term.Parameter) (unifyResult, bool) {
	value = term.ApplySubst(res.subst, value)
	if term.MentionsVar(value, v) {
		return unifyResult{}, false
	}
	if value.ParamKind() != occurrence.ParamKind() {
		return unifyResult{}, false
	}
	ok := true
	value.VisitFreeVars(func(w term.Variable) bool {
		if ph, isPh := w.(term.PlaceholderVar); isPh && !v.Universe.CanSee(ph.Universe) {
			ok = false
			return false
		}
		return true
	})
	if !ok {
		return unifyResult{}, false
	}
	return unifyResult{subst: res.subst.Bind(v, value), knownTrue: res.knownTrue}, true
}

func supposePlaceholder(mode unifyMode, res unifyResult, occurrence, other term.Parameter) (unifyResult, bool) {
	switch mode {
	case modeHypothesis:
		v, _ := placeholderOf(occurrence)
		if term.MentionsVar(other, v) || other.ParamKind() != occurrence.ParamKind() {
			return unifyResult{}, false
		}
		return unifyResult{subst: res.subst.Bind(v, other), knownTrue: res.knownTrue}, true
	case modeCoherence:
		return unifyResult{subst: res.subst, knownTrue: false}, true
	default:
		return unifyResult{}, false
	}
}

// resolve chases variable bindings until the parameter is not a bound
// variable.
func resolve(subst term.Substitution, p term.Parameter) term.Parameter {
	for {
		v, ok := p.AsVariable()
		if !ok {
			return p
		}
		next, bound := subst.Get(v)
		if !bound {
			return p
		}
		p = next
	}
}

func inferenceVarOf(p term.Parameter) (term.InferenceVar, bool) {
	if v, ok := p.AsVariable(); ok {
		if iv, isIv := v.(term.InferenceVar); isIv {
			return iv, true
		}
	}
	return term.InferenceVar{}, false
}

func placeholderOf(p term.Parameter) (term.PlaceholderVar, bool) {
	if v, ok := p.AsVariable(); ok {
		if ph, isPh := v.(term.PlaceholderVar); isPh {
			return ph, true
		}
	}
	return term.PlaceholderVar{}, false
}
