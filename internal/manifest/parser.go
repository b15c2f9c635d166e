package manifest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rill-lang/rill/internal/config"
	"github.com/rill-lang/rill/internal/term"
)

// The manifest embeds small type and where-clause expressions as strings:
//
//	Vec<T>            rigid type applied to arguments
//	T                 generic parameter, by declared name
//	'a, 'static       lifetimes
//	Iterator::Item<T> associated type projection (Self first)
//	T: Clone          positive trait bound (Self first, rest in <>)
//	T: !Clone         negative trait bound
//	T == U            equality
//
// Names that are not in scope as generic parameters are rigid heads; whether
// they are declared, and at what arity, is the checker's business, not the
// parser's.

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokLifetime
	tokLt
	tokGt
	tokComma
	tokColon
	tokPathSep
	tokBang
	tokEqEq
	tokEOF
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '<':
			toks = append(toks, token{tokLt, "<"})
			i++
		case c == '>':
			toks = append(toks, token{tokGt, ">"})
			i++
		case c == ',':
			toks = append(toks, token{tokComma, ","})
			i++
		case c == '!':
			toks = append(toks, token{tokBang, "!"})
			i++
		case c == ':':
			if i+1 < len(src) && src[i+1] == ':' {
				toks = append(toks, token{tokPathSep, "::"})
				i += 2
			} else {
				toks = append(toks, token{tokColon, ":"})
				i++
			}
		case c == '=':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{tokEqEq, "=="})
				i += 2
			} else {
				return nil, fmt.Errorf("unexpected %q in %q", "=", src)
			}
		case c == '\'':
			j := i + 1
			for j < len(src) && isIdentRune(rune(src[j])) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("empty lifetime name in %q", src)
			}
			toks = append(toks, token{tokLifetime, src[i+1 : j]})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(src) && isIdentRune(rune(src[j])) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		default:
			return nil, fmt.Errorf("unexpected %q in %q", string(c), src)
		}
	}
	return append(toks, token{tokEOF, ""}), nil
}

func isIdentStart(c rune) bool { return unicode.IsLetter(c) || c == '_' }
func isIdentRune(c rune) bool  { return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' }

// scope maps declared generic parameter names to their variables. Lifetime
// parameters are declared with a leading apostrophe.
type scope struct {
	order  []term.KindedName
	vars   []term.Variable
	params map[string]term.Parameter
}

// newScope allocates a scratch variable per name. alloc hands out distinct
// indices so that nested scopes (trait generics around associated-type
// generics) never collide before the binders close over them.
func newScope(names []string, alloc func() int) (*scope, error) {
	s := &scope{params: make(map[string]term.Parameter, len(names))}
	for _, raw := range names {
		kind := term.KindTy
		name := raw
		if strings.HasPrefix(raw, "'") {
			kind = term.KindLt
			name = raw[1:]
		}
		if name == "" {
			return nil, fmt.Errorf("empty generic parameter name")
		}
		if name == config.StaticLifetimeName {
			return nil, fmt.Errorf("%q is not a declarable lifetime", raw)
		}
		if _, dup := s.params[name]; dup {
			return nil, fmt.Errorf("generic parameter %s declared twice", name)
		}
		v := term.InferenceVar{Universe: term.RootUniverse, Index: alloc()}
		s.order = append(s.order, term.KindedName{Kind: kind, Name: name})
		s.vars = append(s.vars, v)
		s.params[name] = term.VarParam(kind, v)
	}
	return s, nil
}

func (s *scope) lookup(name string) (term.Parameter, bool) {
	p, ok := s.params[name]
	return p, ok
}

// child builds a nested scope: inner names shadow outer ones.
func (s *scope) child(names []string, alloc func() int) (*scope, error) {
	inner, err := newScope(names, alloc)
	if err != nil {
		return nil, err
	}
	for name, p := range s.params {
		if _, shadowed := inner.params[name]; !shadowed {
			inner.params[name] = p
		}
	}
	return inner, nil
}

type exprParser struct {
	src   string
	toks  []token
	pos   int
	scope *scope
}

func newExprParser(src string, sc *scope) (*exprParser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	return &exprParser{src: src, toks: toks, scope: sc}, nil
}

func (p *exprParser) peek() token { return p.toks[p.pos] }

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) expect(kind tokenKind, what string) (token, error) {
	t := p.next()
	if t.kind != kind {
		return token{}, fmt.Errorf("expected %s in %q, got %q", what, p.src, t.text)
	}
	return t, nil
}

func (p *exprParser) atEnd() error {
	if t := p.peek(); t.kind != tokEOF {
		return fmt.Errorf("trailing %q in %q", t.text, p.src)
	}
	return nil
}

// parseWhereClause parses one where-clause expression.
func parseWhereClause(src string, sc *scope) (term.Wc, error) {
	p, err := newExprParser(src, sc)
	if err != nil {
		return nil, err
	}
	wc, err := p.whereClause()
	if err != nil {
		return nil, err
	}
	if err := p.atEnd(); err != nil {
		return nil, err
	}
	return wc, nil
}

// parseParameter parses a standalone type or lifetime expression.
func parseParameter(src string, sc *scope) (term.Parameter, error) {
	p, err := newExprParser(src, sc)
	if err != nil {
		return nil, err
	}
	param, err := p.parameter()
	if err != nil {
		return nil, err
	}
	if err := p.atEnd(); err != nil {
		return nil, err
	}
	return param, nil
}

func (p *exprParser) whereClause() (term.Wc, error) {
	self, err := p.parameter()
	if err != nil {
		return nil, err
	}
	switch t := p.next(); t.kind {
	case tokEqEq:
		other, err := p.parameter()
		if err != nil {
			return nil, err
		}
		return term.Equals{A: self, B: other}, nil
	case tokColon:
		negative := false
		if p.peek().kind == tokBang {
			p.next()
			negative = true
		}
		name, err := p.expect(tokIdent, "trait name")
		if err != nil {
			return nil, err
		}
		args, err := p.argumentList()
		if err != nil {
			return nil, err
		}
		ref := term.NewTraitRef(name.text, append([]term.Parameter{self}, args...)...)
		if negative {
			return term.NotImplemented{TraitRef: ref}, nil
		}
		return term.Implemented{TraitRef: ref}, nil
	default:
		return nil, fmt.Errorf("expected %q or %q in %q, got %q", ":", "==", p.src, t.text)
	}
}

func (p *exprParser) parameter() (term.Parameter, error) {
	t := p.next()
	switch t.kind {
	case tokLifetime:
		if t.text == config.StaticLifetimeName {
			return term.StaticLt{}, nil
		}
		lt, ok := p.scope.lookup(t.text)
		if !ok {
			return nil, fmt.Errorf("undeclared lifetime '%s in %q", t.text, p.src)
		}
		if lt.ParamKind() != term.KindLt {
			return nil, fmt.Errorf("'%s is not a lifetime parameter in %q", t.text, p.src)
		}
		return lt, nil
	case tokIdent:
		if p.peek().kind == tokPathSep {
			p.next()
			item, err := p.expect(tokIdent, "associated type name")
			if err != nil {
				return nil, err
			}
			args, err := p.argumentList()
			if err != nil {
				return nil, err
			}
			if len(args) == 0 {
				return nil, fmt.Errorf("projection %s::%s needs a Self argument in %q", t.text, item.text, p.src)
			}
			return term.NewAliasTy(t.text, item.text, args...), nil
		}
		if param, ok := p.scope.lookup(t.text); ok {
			if p.peek().kind == tokLt {
				return nil, fmt.Errorf("generic parameter %s cannot take arguments in %q", t.text, p.src)
			}
			return param, nil
		}
		args, err := p.argumentList()
		if err != nil {
			return nil, err
		}
		return term.NewRigidTy(t.text, args...), nil
	default:
		return nil, fmt.Errorf("expected a type or lifetime in %q, got %q", p.src, t.text)
	}
}

// argumentList parses an optional angle-bracketed parameter list.
func (p *exprParser) argumentList() ([]term.Parameter, error) {
	if p.peek().kind != tokLt {
		return nil, nil
	}
	p.next()
	var args []term.Parameter
	for {
		arg, err := p.parameter()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch t := p.next(); t.kind {
		case tokComma:
		case tokGt:
			return args, nil
		default:
			return nil, fmt.Errorf("expected %q or %q in %q, got %q", ",", ">", p.src, t.text)
		}
	}
}
