package inference

import (
	"testing"
)

func TestParseTerm(t *testing.T) {
	if got := ParseTerm("John"); got.Kind != Constant {
		t.Errorf("Expected John to be a constant, got %v", got.Kind)
	}
	if got := ParseTerm("x"); got.Kind != Variable {
		t.Errorf("Expected x to be a variable, got %v", got.Kind)
	}
	if got := ParseTerm("Émile"); got.Kind != Constant {
		t.Error("Expected non-ASCII uppercase to be a constant")
	}
	if got := ParseTerm(""); got.Kind != Variable {
		t.Error("Empty token should not classify as constant")
	}
}

func TestHasVariables(t *testing.T) {
	if NewLiteral("Likes", "John", "Mary").HasVariables() {
		t.Error("Likes(John,Mary) is ground")
	}
	if !NewLiteral("Likes", "John", "y").HasVariables() {
		t.Error("Likes(John,y) has a variable")
	}
	if NewLiteral("Raining").HasVariables() {
		t.Error("zero-argument literal is ground")
	}
}

func TestBindVariableInPlace(t *testing.T) {
	lit := NewLiteral("Between", "x", "y", "x")
	lit.BindVariable("x", "A")

	if got := lit.String(); got != "Between(A,y,A)" {
		t.Errorf("Expected Between(A,y,A), got %s", got)
	}
	if lit.Args[0].Kind != Constant {
		t.Error("Bound argument should become a constant")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := NewLiteral("Parent", "x", "y")
	cp := orig.Clone()
	cp.BindVariable("x", "Tom")

	if orig.String() != "Parent(x,y)" {
		t.Errorf("Clone leaked binding into original: %s", orig)
	}
}

func TestSubstitute(t *testing.T) {
	lit := NewLiteral("Parent", "x", "y")
	got := lit.Substitute(Binding{"x": "Tom", "y": "Bob"})

	if !got.IsGround() {
		t.Fatal("Expected ground literal after full substitution")
	}
	if got.String() != "Parent(Tom,Bob)" {
		t.Errorf("Expected Parent(Tom,Bob), got %s", got)
	}
	if lit.IsGround() {
		t.Error("Substitute must not modify the receiver")
	}
}

func TestNegatedName(t *testing.T) {
	lit := NewLiteral("~Sick", "Bob")
	if !lit.Negated {
		t.Error("Expected ~Sick to be negated")
	}
	if lit.Name != "~Sick" {
		t.Errorf("Negation marker should stay in the name, got %q", lit.Name)
	}
}

func TestEqual(t *testing.T) {
	a := NewLiteral("P", "A", "x")
	b := NewLiteral("P", "A", "x")
	c := NewLiteral("P", "A", "X")

	if !a.Equal(b) {
		t.Error("Expected identical literals to be equal")
	}
	if a.Equal(c) {
		t.Error("Variable x and constant X must differ")
	}
}
