// Package weighttable builds and represents the immutable, schema-derived
// weight table consulted by the complexity analyzer.
package weighttable

import "github.com/nearclip/qgate/internal/language"

// Rule is a pure function from a field's AST arguments and the request's
// variables to the list's declared cardinality, expressed as an explicit,
// named interface rather than a closure captured over the schema.
type Rule interface {
	Multiplier(args language.ArgumentList, variables map[string]any) (int, error)
}

// RuleFunc adapts a function to a Rule.
type RuleFunc func(args language.ArgumentList, variables map[string]any) (int, error)

// Multiplier implements Rule.
func (f RuleFunc) Multiplier(args language.ArgumentList, variables map[string]any) (int, error) {
	return f(args, variables)
}

// FieldKind distinguishes the three field-descriptor shapes.
type FieldKind int

const (
	// FieldLeaf is a scalar/enum field; Weight is its cost.
	FieldLeaf FieldKind = iota
	// FieldRef is an object/interface/union-typed field with no multiplier.
	FieldRef
	// FieldBoundedList is a list field bounded by a slicing argument.
	FieldBoundedList
)

// Field is a field descriptor: one of Leaf, Ref, or BoundedList.
type Field struct {
	Kind FieldKind

	// Weight is meaningful only when Kind == FieldLeaf.
	Weight int

	// ResolveTo is the lowercased target type name; meaningful for FieldRef
	// and FieldBoundedList.
	ResolveTo string

	// Rule computes the list's declared upper bound; meaningful only for
	// FieldBoundedList.
	Rule Rule
}

// Type is a type descriptor: a base weight plus its field descriptors.
type Type struct {
	Weight int
	Fields map[string]*Field

	// IsLeaf marks a scalar/enum type, which has no Fields and is never
	// itself walked by the analyzer — only referenced as a field's leaf
	// weight.
	IsLeaf bool
}

// Table is the immutable weight table built once at startup and shared,
// read-only, by every request's analyzer call.
type Table struct {
	types map[string]*Type
}

// Type looks up a type descriptor by its lowercased name.
func (t *Table) Type(name string) (*Type, bool) {
	ty, ok := t.types[name]
	return ty, ok
}
