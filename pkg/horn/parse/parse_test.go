package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/horn/pkg/horn/inference"
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

func TestLiteral(t *testing.T) {
	lit, err := Literal(" Likes( John , y ) ")
	require.NoError(t, err)

	assert.Equal(t, "Likes", lit.Name)
	assert.False(t, lit.Negated)
	require.Len(t, lit.Args, 2)
	assert.Equal(t, inference.Const("John"), lit.Args[0])
	assert.Equal(t, inference.Var("y"), lit.Args[1])
}

func TestLiteralNegated(t *testing.T) {
	lit, err := Literal("~Sick(Bob)")
	require.NoError(t, err)

	assert.Equal(t, "~Sick", lit.Name)
	assert.True(t, lit.Negated)
	assert.True(t, lit.IsGround())
}

func TestLiteralZeroArgs(t *testing.T) {
	for _, s := range []string{"Raining()", "Raining"} {
		lit, err := Literal(s)
		require.NoError(t, err, s)
		assert.Equal(t, "Raining", lit.Name)
		assert.Empty(t, lit.Args)
	}
}

func TestLiteralErrors(t *testing.T) {
	bad := []string{
		"",
		"(A)",
		"P(A",
		"PA)",
		"P(A,,B)",
		"P(A) Q",
		"~",
		"Two Words(A)",
	}
	for _, s := range bad {
		_, err := Literal(s)
		assert.ErrorIs(t, err, internalerr.ErrInvalidInput, "input %q", s)
	}
}

func TestLiteralCacheReturnsCopies(t *testing.T) {
	p, err := New(8)
	require.NoError(t, err)

	first, err := p.Literal("Parent(x,y)")
	require.NoError(t, err)
	first.BindVariable("x", "Tom")

	second, err := p.Literal("Parent(x,y)")
	require.NoError(t, err)
	assert.Equal(t, "Parent(x,y)", second.String(), "cached literal was mutated by a caller")
}

func TestRule(t *testing.T) {
	r, err := Rule("Parent(x,y) ^ Parent(y,z) => Grandparent(x,z)")
	require.NoError(t, err)

	assert.Equal(t, "Grandparent", r.Name())
	require.Len(t, r.Body, 2)
	assert.Equal(t, "Parent(x,y)", r.Body[0].String())
	assert.Equal(t, "Parent(y,z)", r.Body[1].String())
	assert.Equal(t, "Parent(x,y) ^ Parent(y,z) => Grandparent(x,z)", r.String())
}

func TestRuleUnit(t *testing.T) {
	r, err := Rule("=> Sunny()")
	require.NoError(t, err)
	assert.Empty(t, r.Body)
	assert.Equal(t, "Sunny", r.Name())
}

func TestRuleErrors(t *testing.T) {
	for _, s := range []string{
		"A(x) => B(x) => C(x)",
		"A(x) ^ => B(x)",
		"A(x) =>",
	} {
		_, err := Rule(s)
		assert.ErrorIs(t, err, internalerr.ErrInvalidInput, "input %q", s)
	}
}

func TestStatement(t *testing.T) {
	fact, rule, err := Statement("Parent(Tom,Bob)")
	require.NoError(t, err)
	require.NotNil(t, fact)
	assert.Nil(t, rule)

	fact, rule, err = Statement("Parent(x,y) => Ancestor(x,y)")
	require.NoError(t, err)
	assert.Nil(t, fact)
	require.NotNil(t, rule)
}

const sampleProgram = "2\r\n" +
	"Ancestor(Tom,Bob)\r\n" +
	"Ancestor(Bob,Tom)\r\n" +
	"2\r\n" +
	"Parent(Tom,Bob)\r\n" +
	"Parent(x,y) => Ancestor(x,y)\r\n" +
	"\r\n"

func TestProgram(t *testing.T) {
	p, err := New(0)
	require.NoError(t, err)

	prog, err := p.Program(strings.NewReader(sampleProgram))
	require.NoError(t, err)

	require.Len(t, prog.Queries, 2)
	assert.Equal(t, "Ancestor(Tom,Bob)", prog.Queries[0].String())
	require.Len(t, prog.Facts, 1)
	require.Len(t, prog.Rules, 1)
	assert.Equal(t, "Parent(x,y) => Ancestor(x,y)", prog.Rules[0].String())
}

func TestProgramErrorsCarryLineNumbers(t *testing.T) {
	p, err := New(0)
	require.NoError(t, err)

	_, err = p.Program(strings.NewReader("1\nP(A)\n2\nQ(A)\nQ(x) => \n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 5")

	_, err = p.Program(strings.NewReader("3\nP(A)\n"))
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	_, err = p.Program(strings.NewReader("x\n"))
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 1")
}

func TestKB(t *testing.T) {
	kb := `
# family
Parent(Tom,Bob)
Parent(Bob,Ann)

Parent(x,y) ^ Parent(y,z) => Grandparent(x,z)
`
	p, err := New(0)
	require.NoError(t, err)

	prog, err := p.KB(strings.NewReader(kb))
	require.NoError(t, err)
	assert.Len(t, prog.Facts, 2)
	assert.Len(t, prog.Rules, 1)
	assert.Empty(t, prog.Queries)
}

func TestLoadProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleProgram), 0644))

	prog, err := LoadProgram(path)
	require.NoError(t, err)
	assert.Len(t, prog.Queries, 2)

	_, err = LoadProgram(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
