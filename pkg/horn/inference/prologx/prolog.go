// Package prologx cross-checks the backward-chaining engine against a Prolog
// interpreter loaded with the same knowledge base.
//
// Constants and predicate names become quoted atoms and variables are renamed
// per clause, so the lexical case convention of the knowledge base never
// collides with Prolog's own.
package prologx

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ichiban/prolog"

	"github.com/cognicore/horn/pkg/horn/inference"
)

// Oracle answers ground queries with a Prolog interpreter.
type Oracle struct {
	mu    sync.Mutex
	p     *prolog.Interpreter
	known map[string]struct{} // name/arity of every declared predicate
}

// Load builds an oracle holding facts and rules.
func Load(facts []inference.Literal, rules []inference.Rule) (*Oracle, error) {
	src, known := program(facts, rules)
	o := &Oracle{
		p:     prolog.New(nil, nil),
		known: known,
	}
	if err := o.p.Exec(src); err != nil {
		return nil, fmt.Errorf("load prolog program: %w", err)
	}
	return o, nil
}

// Prove reports whether Prolog finds at least one solution for q.
// Predicates absent from the knowledge base are false without a query.
func (o *Oracle) Prove(ctx context.Context, q inference.Literal) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.known[indicator(q)]; !ok {
		return false, nil
	}

	sols, err := o.p.QueryContext(ctx, Goal(q)+".")
	if err != nil {
		return false, err
	}
	defer sols.Close()

	if sols.Next() {
		return true, nil
	}
	if err := sols.Err(); err != nil {
		return false, err
	}
	return false, ctx.Err()
}

// Program renders facts and rules as Prolog source.
func Program(facts []inference.Literal, rules []inference.Rule) string {
	src, _ := program(facts, rules)
	return src
}

// program declares every predicate dynamic first and groups clauses by
// predicate. It also returns the set of declared indicators.
func program(facts []inference.Literal, rules []inference.Rule) (string, map[string]struct{}) {
	known := make(map[string]struct{})
	var order []string
	clauses := make(map[string][]string)
	declare := func(l inference.Literal) string {
		key := indicator(l)
		if _, ok := known[key]; !ok {
			known[key] = struct{}{}
			order = append(order, key)
		}
		return key
	}

	for _, f := range facts {
		key := declare(f)
		clauses[key] = append(clauses[key], Clause(inference.Rule{Head: f}))
	}
	for _, r := range rules {
		key := declare(r.Head)
		for _, b := range r.Body {
			declare(b)
		}
		clauses[key] = append(clauses[key], Clause(r))
	}

	var sb strings.Builder
	for _, key := range order {
		name, arity := splitIndicator(key)
		fmt.Fprintf(&sb, ":- dynamic(%s/%d).\n", quote(name), arity)
	}
	for _, key := range order {
		for _, c := range clauses[key] {
			sb.WriteString(c)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), known
}

// Clause renders a rule as a Prolog clause terminated by a full stop.
func Clause(r inference.Rule) string {
	vars := make(map[string]string)
	head := term(r.Head, vars)
	if len(r.Body) == 0 {
		return head + "."
	}
	body := make([]string, len(r.Body))
	for i, b := range r.Body {
		body[i] = term(b, vars)
	}
	return head + " :- " + strings.Join(body, ", ") + "."
}

// Goal renders a literal as a Prolog goal without the full stop.
func Goal(l inference.Literal) string {
	return term(l, make(map[string]string))
}

func term(l inference.Literal, vars map[string]string) string {
	if len(l.Args) == 0 {
		return quote(l.Name)
	}
	args := make([]string, len(l.Args))
	for i, a := range l.Args {
		if !a.IsVariable() {
			args[i] = quote(a.Value)
			continue
		}
		v, ok := vars[a.Value]
		if !ok {
			v = "V" + strconv.Itoa(len(vars))
			vars[a.Value] = v
		}
		args[i] = v
	}
	return quote(l.Name) + "(" + strings.Join(args, ", ") + ")"
}

func quote(atom string) string {
	atom = strings.ReplaceAll(atom, `\`, `\\`)
	atom = strings.ReplaceAll(atom, `'`, `\'`)
	return "'" + atom + "'"
}

func indicator(l inference.Literal) string {
	return l.Name + "/" + strconv.Itoa(len(l.Args))
}

func splitIndicator(key string) (string, int) {
	i := strings.LastIndexByte(key, '/')
	n, _ := strconv.Atoi(key[i+1:])
	return key[:i], n
}
