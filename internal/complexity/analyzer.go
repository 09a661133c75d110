// Package complexity walks a parsed GraphQL query against a weight table and
// produces a single non-negative integer cost.
package complexity

import (
	"strconv"
	"strings"

	"github.com/nearclip/qgate/internal/language"
	"github.com/nearclip/qgate/internal/weighttable"
)

// Options configures a single Analyze call.
type Options struct {
	// Variables are the request's bound variable values, keyed by name
	// (without the leading "$").
	Variables map[string]any

	// DepthLimit caps selection-set nesting; zero means unlimited.
	DepthLimit int
}

// Analyze computes the complexity cost of one operation in doc via a
// recursive descent over its selection sets. operationName selects the
// operation when doc defines more than one; it may be empty when there is
// exactly one.
func Analyze(doc *language.QueryDocument, operationName string, table *weighttable.Table, opts Options) (int, error) {
	op, err := selectOperation(doc, operationName)
	if err != nil {
		return 0, err
	}

	kind := operationKind(op)
	root, ok := table.Type(kind)
	if !ok {
		return 0, newStructuralError("operation kind %q has no root entry in the weight table", kind)
	}

	a := &analyzer{doc: doc, table: table, variables: resolveVariables(op, opts.Variables), depthLimit: opts.DepthLimit}
	sub, err := a.selectionSet(op.SelectionSet, kind, 1)
	if err != nil {
		return 0, err
	}
	return root.Weight + sub, nil
}

func selectOperation(doc *language.QueryDocument, operationName string) (*language.OperationDefinition, error) {
	if operationName != "" {
		op := doc.Operations.ForName(operationName)
		if op == nil {
			return nil, &OperationNotFoundError{Name: operationName}
		}
		return op, nil
	}
	if len(doc.Operations) == 1 {
		return doc.Operations[0], nil
	}
	return nil, &AmbiguousOperationError{}
}

// resolveVariables merges the operation's own declared variable defaults
// underneath the request-supplied variables, so a later lookup by name
// finds the request value when present and otherwise falls back to
// whatever default the operation declared for that variable.
func resolveVariables(op *language.OperationDefinition, requestVars map[string]any) map[string]any {
	merged := make(map[string]any, len(op.VariableDefinitions)+len(requestVars))
	for _, def := range op.VariableDefinitions {
		if def.DefaultValue != nil {
			merged[def.Variable] = astLiteralToGo(def.DefaultValue)
		}
	}
	for name, v := range requestVars {
		merged[name] = v
	}
	return merged
}

// astLiteralToGo converts a literal AST value node to a plain Go value,
// for the subset of kinds a variable default or directive argument can be.
func astLiteralToGo(v *language.Value) any {
	switch v.Kind {
	case language.IntValue:
		n, _ := strconv.Atoi(v.Raw)
		return n
	case language.FloatValue:
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f
	case language.BooleanValue:
		return v.Raw == "true"
	case language.NullValue:
		return nil
	default:
		return v.Raw
	}
}

func operationKind(op *language.OperationDefinition) string {
	switch op.Operation {
	case language.Mutation:
		return "mutation"
	case language.Subscription:
		return "subscription"
	default:
		return "query"
	}
}

// analyzer carries the per-call state (the document, for fragment lookup;
// the weight table; bound variables; the depth cap) through the recursive
// walk. It holds no state across calls — a fresh analyzer is built by
// Analyze for every request.
type analyzer struct {
	doc        *language.QueryDocument
	table      *weighttable.Table
	variables  map[string]any
	depthLimit int
}

// selectionSet sums the contribution of every selection directly or
// transitively (through fragments) included in set, evaluated against the
// type named by typeCtx. depth is the nesting level of set itself, counting
// the operation's top-level selection set as depth 1.
func (a *analyzer) selectionSet(set language.SelectionSet, typeCtx string, depth int) (int, error) {
	if a.depthLimit > 0 && depth > a.depthLimit {
		return 0, &DepthLimitError{Limit: a.depthLimit}
	}

	total := 0
	for _, sel := range set {
		switch s := sel.(type) {
		case *language.Field:
			skip, err := a.directivesSkip(s.Directives)
			if err != nil {
				return 0, err
			}
			if skip {
				continue
			}
			n, err := a.field(s, typeCtx, depth)
			if err != nil {
				return 0, err
			}
			total += n

		case *language.FragmentSpread:
			skip, err := a.directivesSkip(s.Directives)
			if err != nil {
				return 0, err
			}
			if skip {
				continue
			}
			frag := a.doc.Fragments.ForName(s.Name)
			if frag == nil {
				return 0, newStructuralError("fragment %q is not defined in the document", s.Name)
			}
			ctx := typeCtx
			if frag.TypeCondition != "" {
				ctx = strings.ToLower(frag.TypeCondition)
			}
			n, err := a.selectionSet(frag.SelectionSet, ctx, depth+1)
			if err != nil {
				return 0, err
			}
			total += n

		case *language.InlineFragment:
			skip, err := a.directivesSkip(s.Directives)
			if err != nil {
				return 0, err
			}
			if skip {
				continue
			}
			ctx := typeCtx
			if s.TypeCondition != "" {
				ctx = strings.ToLower(s.TypeCondition)
			}
			n, err := a.selectionSet(s.SelectionSet, ctx, depth+1)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	return total, nil
}

// field computes one field's contribution, considering three cases in
// order:
//
//  1. the field's own (lowercased) name is itself a key in the weight
//     table — an object-typed field encoded by name rather than by its
//     declared return type. This check is unconditional and not scoped to
//     typeCtx, since a field can coincidentally share a name with a type
//     regardless of which type actually declares it.
//  2. otherwise, the parent type's field descriptor is a scalar/enum leaf —
//     its selection set (if any) contributes nothing.
//  3. otherwise, the field is either an object reference or a bounded list;
//     both are evaluated the same way, with an object reference using an
//     implicit multiplier of 1 (selecting exactly one instance).
func (a *analyzer) field(f *language.Field, typeCtx string, depth int) (int, error) {
	if f.Name == "__typename" {
		return 0, nil
	}

	lowerName := strings.ToLower(f.Name)
	if target, ok := a.table.Type(lowerName); ok {
		sub, err := a.selectionSet(f.SelectionSet, lowerName, depth+1)
		if err != nil {
			return 0, err
		}
		return combine(sub, target.Weight), nil
	}

	parent, ok := a.table.Type(typeCtx)
	if !ok {
		return 0, newStructuralError("type %q is not present in the weight table", typeCtx)
	}
	desc, ok := parent.Fields[f.Name]
	if !ok {
		return 0, newStructuralError("field %q is not declared on type %q", f.Name, typeCtx)
	}

	switch desc.Kind {
	case weighttable.FieldLeaf:
		return desc.Weight, nil

	case weighttable.FieldRef:
		sub, err := a.selectionSet(f.SelectionSet, desc.ResolveTo, depth+1)
		if err != nil {
			return 0, err
		}
		return combine(sub, 1), nil

	default: // FieldBoundedList
		m, err := desc.Rule.Multiplier(f.Arguments, a.variables)
		if err != nil {
			return 0, err
		}
		sub, err := a.selectionSet(f.SelectionSet, desc.ResolveTo, depth+1)
		if err != nil {
			return 0, err
		}
		return combine(sub, m), nil
	}
}

// combine applies the additive/multiplicative split: a pure leaf selection
// (sub <= 1) costs one unit of m, preserving the invariant that selecting an
// object with only scalar children costs exactly one instance of it; richer
// selections scale multiplicatively with m.
func combine(sub, m int) int {
	if sub <= 1 {
		return sub + m
	}
	return sub * m
}

// directivesSkip evaluates @skip and @include against the bound variables.
// @skip wins over @include when both are present, matching GraphQL's own
// execution order for the two directives.
func (a *analyzer) directivesSkip(directives language.DirectiveList) (bool, error) {
	include := true
	for _, d := range directives {
		switch d.Name {
		case "skip":
			v, err := a.boolArg(d, "if")
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		case "include":
			v, err := a.boolArg(d, "if")
			if err != nil {
				return false, err
			}
			include = include && v
		}
	}
	return !include, nil
}

func (a *analyzer) boolArg(d *language.Directive, name string) (bool, error) {
	for _, arg := range d.Arguments {
		if arg.Name != name {
			continue
		}
		v := arg.Value
		if v.Kind == language.Variable {
			raw, ok := a.variables[v.Raw]
			if !ok {
				return false, newStructuralError("directive %q references undefined variable %q", d.Name, v.Raw)
			}
			b, ok := raw.(bool)
			if !ok {
				return false, newStructuralError("directive %q variable %q is not a boolean", d.Name, v.Raw)
			}
			return b, nil
		}
		return v.Raw == "true", nil
	}
	return false, newStructuralError("directive %q is missing its required %q argument", d.Name, name)
}
