package inference

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func grandparentRule() Rule {
	return Rule{
		Body: []Literal{
			NewLiteral("Parent", "x", "y"),
			NewLiteral("Parent", "y", "z"),
		},
		Head: NewLiteral("Grandparent", "x", "z"),
	}
}

func TestRuleBind(t *testing.T) {
	r := grandparentRule()
	r.Bind("x", "Tom")

	if got := r.String(); got != "Parent(Tom,y) ^ Parent(y,z) => Grandparent(Tom,z)" {
		t.Errorf("Unexpected rule after bind: %s", got)
	}
	if r.Name() != "Grandparent" {
		t.Errorf("Expected rule name Grandparent, got %s", r.Name())
	}
}

func TestRuleCloneDeep(t *testing.T) {
	tmpl := grandparentRule()
	cp := tmpl.Clone()
	cp.Bind("y", "Bob")

	if diff := cmp.Diff(grandparentRule(), tmpl); diff != "" {
		t.Errorf("template modified through clone (-want +got):\n%s", diff)
	}
	if !cp.BodyHasVariables() {
		t.Error("x and z are still unbound in the clone")
	}
}

func TestUnitRule(t *testing.T) {
	r := Rule{Head: NewLiteral("Knows", "x", "John")}

	if r.BodyHasVariables() {
		t.Error("Empty body has no variables")
	}
	if got := r.String(); got != "=> Knows(x,John)" {
		t.Errorf("Unexpected unit rule rendering: %s", got)
	}
	cp := r.Clone()
	if cp.Body != nil {
		t.Error("Clone of empty body should stay nil")
	}
}

func TestBindingVariablesSorted(t *testing.T) {
	b := Binding{"z": "C", "x": "A", "y": "B"}

	if diff := cmp.Diff([]string{"x", "y", "z"}, b.Variables()); diff != "" {
		t.Errorf("Variables() mismatch (-want +got):\n%s", diff)
	}
	if b.String() != "{x=A, y=B, z=C}" {
		t.Errorf("Unexpected binding rendering: %s", b)
	}
}
