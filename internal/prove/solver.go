package prove

import (
	"fmt"
	"os"

	"github.com/rill-lang/rill/internal/config"
	"github.com/rill-lang/rill/internal/decls"
	"github.com/rill-lang/rill/internal/judgment"
	"github.com/rill-lang/rill/internal/term"
)

// Solver proves where-clause lists against a declaration set. It is built
// from two mutually recursive judgments sharing one runtime: proving a
// single clause, and proving a clause list in sequence.
type Solver struct {
	decls *decls.Decls
	rt    *judgment.Runtime
	wc    *judgment.Judgment[wcInput, Constraints]
	list  *judgment.Judgment[listInput, Constraints]
}

type wcInput struct {
	Env         *Env
	Assumptions term.Wcs
	Goal        term.Wc
}

func (in wcInput) key() string {
	return in.Env.Key() + " " + in.Assumptions.String() + " |- " + in.Goal.String()
}

type listInput struct {
	Env         *Env
	Assumptions term.Wcs
	Goals       term.Wcs
}

func (in listInput) key() string {
	return in.Env.Key() + " " + in.Assumptions.String() + " |- " + in.Goals.String()
}

func NewSolver(d *decls.Decls) *Solver {
	s := &Solver{decls: d, rt: judgment.NewRuntime()}
	s.wc = judgment.New(s.rt, "prove_wc", wcInput.key, Constraints.Key)
	s.list = judgment.New(s.rt, "prove_wc_list", listInput.key, Constraints.Key)
	s.registerListRules()
	s.registerWcRules()
	return s
}

// registerListRules defines sequencing: an empty goal list holds trivially;
// otherwise prove the head, apply what was learned to the tail and the
// assumptions, and continue. The head's substitution must land on the tail
// before the tail is attempted, or a later goal would miss what an earlier
// one pinned down.
func (s *Solver) registerListRules() {
	s.list.AddRule("none", func(_ *judgment.Judgment[listInput, Constraints], in listInput) []Constraints {
		if len(in.Goals) != 0 {
			return nil
		}
		return []Constraints{None(in.Env)}
	})
	s.list.AddRule("some", func(_ *judgment.Judgment[listInput, Constraints], in listInput) []Constraints {
		if len(in.Goals) == 0 {
			return nil
		}
		var out []Constraints
		for _, c0 := range s.wc.Apply(wcInput{Env: in.Env, Assumptions: in.Assumptions, Goal: in.Goals[0]}) {
			rest := term.ApplySubst(c0.Subst, in.Goals[1:])
			assumptions := term.ApplySubst(c0.Subst, in.Assumptions)
			for _, c1 := range s.list.Apply(listInput{Env: c0.Env, Assumptions: assumptions, Goals: rest}) {
				out = append(out, c0.Seq(c1))
			}
		}
		return out
	})
}

func (s *Solver) registerWcRules() {
	s.wc.AddRule("assumption", s.ruleAssumption)
	s.wc.AddRule("equals", s.ruleEquals)
	s.wc.AddRule("forall", s.ruleForAll)
	s.wc.AddRule("implies", s.ruleImplies)
	s.wc.AddRule("impl", s.ruleImpl)
	s.wc.AddRule("neg-impl", s.ruleNegImpl)
	s.wc.AddRule("coherence-ambiguity", s.ruleCoherenceAmbiguity)
	s.wc.AddRule("well-formed", s.ruleWellFormed)
}

func (s *Solver) mode(e *Env) unifyMode {
	if e.InCoherenceMode() {
		return modeCoherence
	}
	return modeNormal
}

// ruleAssumption proves a trait bound from an assumption of the same
// polarity.
func (s *Solver) ruleAssumption(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	var goalRef term.TraitRef
	var negative bool
	switch g := in.Goal.(type) {
	case term.Implemented:
		goalRef = g.TraitRef
	case term.NotImplemented:
		goalRef, negative = g.TraitRef, true
	default:
		return nil
	}

	var out []Constraints
	for _, a := range in.Assumptions {
		out = append(out, s.proveVia(in, in.Env, a, goalRef, negative)...)
	}
	return out
}

// proveVia matches the goal against one assumed clause, looking through its
// logical structure: a quantified clause is opened existentially, a
// conditional clause obliges us to prove its conditions in turn.
func (s *Solver) proveVia(in wcInput, env *Env, clause term.Wc, goalRef term.TraitRef, negative bool) []Constraints {
	switch c := clause.(type) {
	case term.Implemented:
		if negative {
			return nil
		}
		return s.unifyRefs(env, goalRef, c.TraitRef)
	case term.NotImplemented:
		if !negative {
			return nil
		}
		return s.unifyRefs(env, goalRef, c.TraitRef)
	case term.ForAll:
		opened := env.Clone()
		body := InstantiateExistentially(opened, c.Binder)
		return s.proveVia(in, opened, body, goalRef, negative)
	case term.Implies:
		var out []Constraints
		for _, c0 := range s.proveVia(in, env, c.Consequence, goalRef, negative) {
			conditions := term.ApplySubst(c0.Subst, c.Conditions)
			assumptions := term.ApplySubst(c0.Subst, in.Assumptions)
			for _, c1 := range s.list.Apply(listInput{Env: c0.Env, Assumptions: assumptions, Goals: conditions}) {
				out = append(out, c0.Seq(c1))
			}
		}
		return out
	default:
		return nil
	}
}

func (s *Solver) unifyRefs(env *Env, goal, clause term.TraitRef) []Constraints {
	if goal.Trait != clause.Trait {
		return nil
	}
	res, ok := unifyParams(env, s.mode(env), term.NewSubstitution(), goal.Params, clause.Params)
	if !ok {
		return nil
	}
	return []Constraints{{Env: env, KnownTrue: res.knownTrue, Subst: res.subst}}
}

// ruleEquals proves an equality goal by unification.
func (s *Solver) ruleEquals(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	g, ok := in.Goal.(term.Equals)
	if !ok {
		return nil
	}
	res, ok := unifyPair(in.Env, s.mode(in.Env), unifyResult{subst: term.NewSubstitution(), knownTrue: true}, g.A, g.B)
	if !ok {
		return nil
	}
	return []Constraints{{Env: in.Env, KnownTrue: res.knownTrue, Subst: res.subst}}
}

// ruleForAll proves a quantified clause by proving its body for fresh
// placeholders.
func (s *Solver) ruleForAll(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	g, ok := in.Goal.(term.ForAll)
	if !ok {
		return nil
	}
	env := in.Env.Clone()
	body := InstantiateUniversally(env, g.Binder)
	return s.wc.Apply(wcInput{Env: env, Assumptions: in.Assumptions, Goal: body})
}

// ruleImplies proves a conditional clause by assuming its conditions.
func (s *Solver) ruleImplies(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	g, ok := in.Goal.(term.Implies)
	if !ok {
		return nil
	}
	assumptions := append(append(term.Wcs{}, in.Assumptions...), g.Conditions...)
	return s.wc.Apply(wcInput{Env: in.Env, Assumptions: assumptions, Goal: g.Consequence})
}

// ruleImpl proves a positive trait bound from a positive impl: open the
// impl's binder existentially, equate the trait references, then prove the
// impl's own where-clauses under the learned substitution.
func (s *Solver) ruleImpl(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	g, ok := in.Goal.(term.Implemented)
	if !ok {
		return nil
	}
	var out []Constraints
	for _, imp := range s.decls.ImplsOf(g.Trait) {
		out = append(out, s.proveViaImpl(in, g.TraitRef, imp.Binder)...)
	}
	return out
}

// ruleNegImpl proves a negative trait bound from a negative impl.
func (s *Solver) ruleNegImpl(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	g, ok := in.Goal.(term.NotImplemented)
	if !ok {
		return nil
	}
	var out []Constraints
	for _, imp := range s.decls.NegImplsOf(g.Trait) {
		out = append(out, s.proveViaImpl(in, g.TraitRef, imp.Binder)...)
	}
	return out
}

func (s *Solver) proveViaImpl(in wcInput, goal term.TraitRef, binder term.Binder[decls.ImplBound]) []Constraints {
	env := in.Env.Clone()
	bound := InstantiateExistentially(env, binder)
	res, ok := unifyParams(env, s.mode(env), term.NewSubstitution(), goal.Params, bound.TraitRef.Params)
	if !ok {
		return nil
	}
	c0 := Constraints{Env: env, KnownTrue: res.knownTrue, Subst: res.subst}
	goals := term.ApplySubst(res.subst, bound.WhereClauses)
	assumptions := term.ApplySubst(res.subst, in.Assumptions)

	var out []Constraints
	for _, c1 := range s.list.Apply(listInput{Env: env, Assumptions: assumptions, Goals: goals}) {
		out = append(out, c0.Seq(c1))
	}
	return out
}

// ruleCoherenceAmbiguity makes trait bounds that another crate could still
// satisfy undecided rather than refuted while in coherence mode. A bound
// mentioning unknowns may be instantiated downstream with types that carry
// the missing impl; a bound on a non-local trait reference may gain its
// impl in a later version of the owning crate, orphan rule permitting.
// Without this rule, negation-as-failure would be unsound during coherence
// checking.
func (s *Solver) ruleCoherenceAmbiguity(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	if !in.Env.InCoherenceMode() {
		return nil
	}
	var ref term.TraitRef
	switch g := in.Goal.(type) {
	case term.Implemented:
		ref = g.TraitRef
	case term.NotImplemented:
		ref = g.TraitRef
	default:
		return nil
	}
	if len(term.FreeVars(in.Goal)) == 0 && s.decls.IsLocalTraitRef(ref) {
		return nil
	}
	return []Constraints{Ambiguous(in.Env)}
}

// ruleWellFormed checks that a parameter's rigid heads are declared
// constructors applied at their declared arity; alias projections also
// require the trait bound itself.
func (s *Solver) ruleWellFormed(_ *judgment.Judgment[wcInput, Constraints], in wcInput) []Constraints {
	g, ok := in.Goal.(term.WellFormed)
	if !ok {
		return nil
	}
	if _, isVar := g.P.AsVariable(); isVar {
		return []Constraints{None(in.Env)}
	}
	switch p := g.P.(type) {
	case term.StaticLt:
		return []Constraints{None(in.Env)}
	case term.RigidTy:
		arity, declared := s.decls.HeadArity(p.Name)
		if !declared || arity != len(p.Params) {
			return nil
		}
		return s.proveParamsWellFormed(in, p.Params)
	case term.AliasTy:
		td, declared := s.decls.Trait(p.Trait)
		if !declared || !traitHasItem(td, p.Item) || len(p.Params) < td.Arity() {
			return nil
		}
		goals := make(term.Wcs, 0, len(p.Params)+1)
		goals = append(goals, term.Implemented{TraitRef: term.NewTraitRef(p.Trait, p.Params[:td.Arity()]...)})
		for _, q := range p.Params {
			goals = append(goals, term.WellFormed{P: q})
		}
		return s.list.Apply(listInput{Env: in.Env, Assumptions: in.Assumptions, Goals: goals})
	default:
		return nil
	}
}

func (s *Solver) proveParamsWellFormed(in wcInput, params []term.Parameter) []Constraints {
	goals := make(term.Wcs, len(params))
	for i, p := range params {
		goals[i] = term.WellFormed{P: p}
	}
	return s.list.Apply(listInput{Env: in.Env, Assumptions: in.Assumptions, Goals: goals})
}

func traitHasItem(td decls.TraitDecl, item string) bool {
	for _, it := range td.Binder.PeekBody().Items {
		if at, ok := it.(decls.AssociatedTy); ok && at.ID == item {
			return true
		}
	}
	return false
}

// ProveGoals produces the set of constraint sets under which every goal
// holds given the assumptions. Equality assumptions are adopted up front as
// hypotheses: they may pin down placeholders, and the resulting bindings
// are applied to the remaining assumptions and the goals before solving.
//
// An empty result set means "not provable" and is a normal outcome.
func (s *Solver) ProveGoals(env *Env, assumptions, goals term.Wcs) []Constraints {
	env = env.Clone()
	if !env.Encloses(assumptions) || !env.Encloses(goals) {
		panic(fmt.Sprintf("ProveGoals: goals %s or assumptions %s mention variables unknown to %s", goals, assumptions, env))
	}

	hyp, rest, satisfiable := hypothesizeEqualities(env, assumptions)
	if !satisfiable {
		// Contradictory equality assumptions prove anything.
		return []Constraints{None(env)}
	}
	goals = term.ApplySubst(hyp, goals)

	if config.Verbose {
		fmt.Fprintf(os.Stderr, "prove: %s %s |- %s\n", env, rest, goals)
	}

	results := s.list.Apply(listInput{Env: env, Assumptions: rest, Goals: goals})
	for _, c := range results {
		if !c.Env.EnclosesEnv(env) {
			panic(fmt.Sprintf("ProveGoals: result env %s does not enclose input env %s", c.Env, env))
		}
		c.AssertValid()
	}
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "prove: %d result(s)\n", len(results))
	}
	return results
}

// ProveNotGoal is negation as failure: it succeeds exactly when the result
// set for the goals is empty. Sound here only because the rule set is a
// decision procedure for this restricted grammar; ambiguous results count
// as possible and block the refutation.
func (s *Solver) ProveNotGoal(env *Env, assumptions, goals term.Wcs) bool {
	return len(s.ProveGoals(env, assumptions, goals)) == 0
}

// Hypothesized applies the substitution induced by the equality
// assumptions to t. The second result is false when the equalities are
// contradictory.
func Hypothesized[T term.Term](env *Env, assumptions term.Wcs, t T) (T, bool) {
	subst, _, ok := hypothesizeEqualities(env, assumptions)
	if !ok {
		var zero T
		return zero, false
	}
	return term.ApplySubst(subst, t), true
}

// hypothesizeEqualities folds the equality assumptions into a substitution.
// Returns the substitution, the non-equality assumptions with it applied,
// and whether the equalities were satisfiable at all.
func hypothesizeEqualities(env *Env, assumptions term.Wcs) (term.Substitution, term.Wcs, bool) {
	res := unifyResult{subst: term.NewSubstitution(), knownTrue: true}
	rest := make(term.Wcs, 0, len(assumptions))
	for _, a := range assumptions {
		eq, isEq := a.(term.Equals)
		if !isEq {
			rest = append(rest, a)
			continue
		}
		next, ok := unifyPair(env, modeHypothesis, res, eq.A, eq.B)
		if !ok {
			return term.NewSubstitution(), nil, false
		}
		res = next
	}
	return res.subst, term.ApplySubst(res.subst, rest), true
}
