// Package parse reads literals, rules and query files in the line-oriented
// text format:
//
//	Parent(Tom,Bob)
//	~Sick(x)
//	Parent(x,y) ^ Parent(y,z) => Grandparent(x,z)
//
// Arguments starting with an uppercase letter are constants, all others are
// variables. A leading "~" marks a negated literal and stays part of its name.
package parse

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/horn/pkg/horn/inference"
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

const (
	// Implies separates a rule's body from its head.
	Implies = "=>"
	// And joins the literals of a rule's body.
	And = "^"

	// DefaultCacheSize is the number of parsed literals kept by the default parser.
	DefaultCacheSize = 4096
)

// Program is the content of a query file: the queries to answer and the
// statements that populate the knowledge base.
type Program struct {
	Queries []inference.Literal
	Facts   []inference.Literal
	Rules   []inference.Rule
}

// Parser parses statements, caching literals by their source text.
// It is safe for concurrent use.
type Parser struct {
	cache *lru.Cache[string, inference.Literal]
}

// New creates a parser whose literal cache holds up to size entries.
func New(size int) (*Parser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, inference.Literal](size)
	if err != nil {
		return nil, err
	}
	return &Parser{cache: cache}, nil
}

var defaultParser = mustNew(DefaultCacheSize)

func mustNew(size int) *Parser {
	p, err := New(size)
	if err != nil {
		panic(err)
	}
	return p
}

// Literal parses "[~]Name(Arg1,Arg2,...)" using the default parser.
func Literal(s string) (inference.Literal, error) { return defaultParser.Literal(s) }

// Rule parses "Lit1 ^ ... ^ LitN => Head" using the default parser.
func Rule(s string) (inference.Rule, error) { return defaultParser.Rule(s) }

// Statement parses a fact or a rule using the default parser.
func Statement(s string) (*inference.Literal, *inference.Rule, error) {
	return defaultParser.Statement(s)
}

// Literal parses a single literal. "Name()" and a bare "Name" are zero-argument
// literals.
func (p *Parser) Literal(s string) (inference.Literal, error) {
	s = strings.TrimSpace(s)
	if lit, ok := p.cache.Get(s); ok {
		return lit.Clone(), nil
	}

	lit, err := parseLiteral(s)
	if err != nil {
		return inference.Literal{}, err
	}
	p.cache.Add(s, lit)
	return lit.Clone(), nil
}

func parseLiteral(s string) (inference.Literal, error) {
	if s == "" {
		return inference.Literal{}, fmt.Errorf("empty literal: %w", internalerr.ErrInvalidInput)
	}

	name, rest := s, ""
	if open := strings.Index(s, "("); open != -1 {
		closeParen := strings.LastIndex(s, ")")
		if closeParen < open {
			return inference.Literal{}, fmt.Errorf("missing ')': %s: %w", s, internalerr.ErrInvalidInput)
		}
		if strings.TrimSpace(s[closeParen+1:]) != "" {
			return inference.Literal{}, fmt.Errorf("trailing text after ')': %s: %w", s, internalerr.ErrInvalidInput)
		}
		name, rest = s[:open], s[open+1:closeParen]
	} else if strings.Contains(s, ")") {
		return inference.Literal{}, fmt.Errorf("missing '(': %s: %w", s, internalerr.ErrInvalidInput)
	}

	name = strings.TrimSpace(name)
	bare := strings.TrimPrefix(name, "~")
	if bare == "" || strings.ContainsAny(bare, " \t~,()") {
		return inference.Literal{}, fmt.Errorf("invalid predicate name %q: %w", name, internalerr.ErrInvalidInput)
	}

	var args []string
	if strings.TrimSpace(rest) != "" {
		args = strings.Split(rest, ",")
		for i, a := range args {
			a = strings.TrimSpace(a)
			if a == "" || strings.ContainsAny(a, " \t()") {
				return inference.Literal{}, fmt.Errorf("invalid argument %d in %s: %w", i+1, s, internalerr.ErrInvalidInput)
			}
			args[i] = a
		}
	}

	return inference.NewLiteral(name, args...), nil
}

// Rule parses a rule. An empty body ("=> Head") yields a unit rule.
func (p *Parser) Rule(s string) (inference.Rule, error) {
	parts := strings.Split(s, Implies)
	if len(parts) != 2 {
		return inference.Rule{}, fmt.Errorf("rule needs exactly one %q: %s: %w", Implies, s, internalerr.ErrInvalidInput)
	}

	head, err := p.Literal(parts[1])
	if err != nil {
		return inference.Rule{}, fmt.Errorf("head: %w", err)
	}

	r := inference.Rule{Head: head}
	if strings.TrimSpace(parts[0]) == "" {
		return r, nil
	}
	for i, conj := range strings.Split(parts[0], And) {
		lit, err := p.Literal(conj)
		if err != nil {
			return inference.Rule{}, fmt.Errorf("body literal %d: %w", i+1, err)
		}
		r.Body = append(r.Body, lit)
	}
	return r, nil
}

// Statement parses either a fact or a rule; exactly one result is non-nil.
func (p *Parser) Statement(s string) (*inference.Literal, *inference.Rule, error) {
	if strings.Contains(s, Implies) {
		r, err := p.Rule(s)
		if err != nil {
			return nil, nil, err
		}
		return nil, &r, nil
	}
	lit, err := p.Literal(s)
	if err != nil {
		return nil, nil, err
	}
	return &lit, nil, nil
}

// Program reads a query file:
//
//	<number of queries N>
//	<N query lines>
//	<number of statements M>
//	<M statement lines>
func (p *Parser) Program(r io.Reader) (*Program, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	next := 0
	readCount := func(what string) (int, error) {
		if next >= len(lines) {
			return 0, fmt.Errorf("line %d: missing %s count: %w", next+1, what, internalerr.ErrInvalidInput)
		}
		n, err := strconv.Atoi(strings.TrimSpace(lines[next]))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("line %d: invalid %s count %q: %w", next+1, what, lines[next], internalerr.ErrInvalidInput)
		}
		next++
		return n, nil
	}
	readLine := func(what string) (string, int, error) {
		if next >= len(lines) {
			return "", 0, fmt.Errorf("line %d: expected %s, got end of input: %w", next+1, what, internalerr.ErrInvalidInput)
		}
		next++
		return lines[next-1], next, nil
	}

	prog := &Program{}

	numQueries, err := readCount("query")
	if err != nil {
		return nil, err
	}
	for i := 0; i < numQueries; i++ {
		line, lineNum, err := readLine("query")
		if err != nil {
			return nil, err
		}
		q, err := p.Literal(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		prog.Queries = append(prog.Queries, q)
	}

	numStatements, err := readCount("statement")
	if err != nil {
		return nil, err
	}
	for i := 0; i < numStatements; i++ {
		line, lineNum, err := readLine("statement")
		if err != nil {
			return nil, err
		}
		fact, rule, err := p.Statement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if fact != nil {
			prog.Facts = append(prog.Facts, *fact)
		} else {
			prog.Rules = append(prog.Rules, *rule)
		}
	}

	return prog, nil
}

// KB reads a knowledge-base file with one statement per line.
// Empty lines and lines starting with '#' are skipped.
func (p *Parser) KB(r io.Reader) (*Program, error) {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	prog := &Program{}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fact, rule, err := p.Statement(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if fact != nil {
			prog.Facts = append(prog.Facts, *fact)
		} else {
			prog.Rules = append(prog.Rules, *rule)
		}
	}

	return prog, scanner.Err()
}

// ReadProgram parses a query file from r with the default parser.
func ReadProgram(r io.Reader) (*Program, error) { return defaultParser.Program(r) }

// LoadProgram parses the query file at path with the default parser.
func LoadProgram(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prog, err := defaultParser.Program(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// LoadKB parses the knowledge-base file at path with the default parser.
func LoadKB(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	prog, err := defaultParser.KB(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// readLines splits input on '\n' and strips a trailing '\r' from each line.
// Trailing empty lines are dropped.
func readLines(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
