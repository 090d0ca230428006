package inference

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind distinguishes constants from variables.
type Kind uint8

const (
	Constant Kind = iota
	Variable
)

// Term is a single predicate argument.
type Term struct {
	Kind  Kind
	Value string
}

// Const returns a constant term.
func Const(value string) Term { return Term{Kind: Constant, Value: value} }

// Var returns a variable term.
func Var(name string) Term { return Term{Kind: Variable, Value: name} }

// ParseTerm classifies a token by its first character: uppercase is a
// constant, anything else is a variable.
func ParseTerm(token string) Term {
	r, _ := utf8.DecodeRuneInString(token)
	if r != utf8.RuneError && unicode.IsUpper(r) {
		return Const(token)
	}
	return Var(token)
}

func (t Term) IsVariable() bool { return t.Kind == Variable }

func (t Term) String() string { return t.Value }

// Literal is a predicate applied to an ordered argument list, e.g. Likes(John,x).
// A negated literal keeps its "~" as part of Name; the engine treats it as a
// distinct predicate.
type Literal struct {
	Name    string
	Negated bool
	Args    []Term
}

// NewLiteral builds a literal, classifying each argument with ParseTerm.
func NewLiteral(name string, args ...string) Literal {
	lit := Literal{Name: name, Negated: strings.HasPrefix(name, "~")}
	if len(args) > 0 {
		lit.Args = make([]Term, len(args))
		for i, a := range args {
			lit.Args[i] = ParseTerm(a)
		}
	}
	return lit
}

// HasVariables reports whether any argument is a variable.
func (l Literal) HasVariables() bool {
	for _, a := range l.Args {
		if a.IsVariable() {
			return true
		}
	}
	return false
}

// IsGround reports whether every argument is a constant.
func (l Literal) IsGround() bool { return !l.HasVariables() }

// BindVariable replaces every occurrence of variable with the constant value, in place.
// Callers that need the original must Clone first.
func (l Literal) BindVariable(variable, value string) {
	for i, a := range l.Args {
		if a.IsVariable() && a.Value == variable {
			l.Args[i] = Const(value)
		}
	}
}

// Clone returns a copy that shares no argument storage with l.
func (l Literal) Clone() Literal {
	out := l
	if l.Args != nil {
		out.Args = make([]Term, len(l.Args))
		copy(out.Args, l.Args)
	}
	return out
}

// Substitute returns a copy of l with every binding applied.
func (l Literal) Substitute(b Binding) Literal {
	out := l.Clone()
	for variable, value := range b {
		out.BindVariable(variable, value)
	}
	return out
}

// Values returns the argument values in order.
func (l Literal) Values() []string {
	out := make([]string, len(l.Args))
	for i, a := range l.Args {
		out[i] = a.Value
	}
	return out
}

// Equal compares name and arguments position by position.
func (l Literal) Equal(o Literal) bool {
	if l.Name != o.Name || len(l.Args) != len(o.Args) {
		return false
	}
	for i := range l.Args {
		if l.Args[i] != o.Args[i] {
			return false
		}
	}
	return true
}

func (l Literal) String() string {
	var b strings.Builder
	b.WriteString(l.Name)
	b.WriteByte('(')
	for i, a := range l.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Value)
	}
	b.WriteByte(')')
	return b.String()
}
