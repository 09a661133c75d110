package weighttable

import (
	"strconv"
	"strings"

	"github.com/nearclip/qgate/internal/language"
	"github.com/nearclip/qgate/internal/schema"
)

// WeightConfig mirrors the config schema's typeWeights block.
type WeightConfig struct {
	Mutation   int
	Object     int
	Scalar     int
	Connection int
}

// BuildOptions configures the builder beyond raw weights.
type BuildOptions struct {
	Weights WeightConfig

	// SlicingArguments names the arguments (by field-argument name) that
	// bound a list field's cardinality, e.g. {"first", "last", "limit"}.
	SlicingArguments []string

	// EnforceBoundedLists makes an unbounded list field a fatal build error
	// instead of falling back to UnboundedListCost.
	EnforceBoundedLists bool

	// UnboundedListCost is the sentinel multiplier used for an unbounded
	// list field when EnforceBoundedLists is false.
	UnboundedListCost int
}

// Build walks the introspected schema once and produces an immutable weight
// table. The weight table builder rejects negative configured weights and
// unresolved type references as fatal errors.
func Build(sch *schema.Schema, opts BuildOptions) (*Table, error) {
	if opts.Weights.Mutation < 0 || opts.Weights.Object < 0 || opts.Weights.Scalar < 0 || opts.Weights.Connection < 0 {
		return nil, newBuildError("typeWeights must be non-negative")
	}
	slicing := make(map[string]struct{}, len(opts.SlicingArguments))
	for _, name := range opts.SlicingArguments {
		slicing[name] = struct{}{}
	}

	table := &Table{types: make(map[string]*Type, len(sch.Types))}

	// Pass 1: assign base weights so field resolution (pass 2) can validate
	// resolveTo targets regardless of declaration order.
	for name, t := range sch.Types {
		if isBuiltinIntrospectionType(name) {
			continue
		}
		switch t.Kind {
		case schema.TypeKindScalar, schema.TypeKindEnum:
			table.types[strings.ToLower(name)] = &Type{Weight: opts.Weights.Scalar, Fields: map[string]*Field{}, IsLeaf: true}
		case schema.TypeKindObject, schema.TypeKindInterface, schema.TypeKindUnion:
			weight := opts.Weights.Object
			if name == sch.MutationType {
				weight = opts.Weights.Mutation
			} else if isConnectionType(t) {
				weight = opts.Weights.Connection
			}
			table.types[strings.ToLower(name)] = &Type{Weight: weight, Fields: map[string]*Field{}}
		default:
			// Input objects carry no output selection cost; they are never a
			// resolveTo target and are intentionally omitted.
		}
	}

	// Pass 2: build field descriptors now that every type's base weight is
	// known.
	for name, t := range sch.Types {
		if isBuiltinIntrospectionType(name) {
			continue
		}
		if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
			continue
		}
		typeDesc := table.types[strings.ToLower(name)]
		for _, f := range t.Fields {
			fieldDesc, err := buildField(f, slicing, opts, table)
			if err != nil {
				return nil, err
			}
			typeDesc.Fields[f.Name] = fieldDesc
		}
	}

	// Root operation types are additionally keyed by their lowercased
	// operation kind.
	for kind, typeName := range map[string]string{
		"query":        sch.QueryType,
		"mutation":     sch.MutationType,
		"subscription": sch.SubscriptionType,
	} {
		if typeName == "" {
			continue
		}
		root, ok := table.types[strings.ToLower(typeName)]
		if !ok {
			return nil, newBuildError("root type %q for operation %q not found", typeName, kind)
		}
		table.types[kind] = root
	}

	return table, nil
}

func buildField(f *schema.Field, slicing map[string]struct{}, opts BuildOptions, table *Table) (*Field, error) {
	namedType := schema.GetNamedType(f.Type)
	if namedType == "" {
		return nil, newBuildError("field %q has no named type", f.Name)
	}
	targetDesc, ok := table.types[strings.ToLower(namedType)]
	if !ok {
		return nil, newBuildError("field %q resolves to unknown type %q", f.Name, namedType)
	}

	if !schema.IsList(f.Type) {
		if targetDesc.IsLeaf {
			return &Field{Kind: FieldLeaf, Weight: targetDesc.Weight}, nil
		}
		return &Field{Kind: FieldRef, ResolveTo: strings.ToLower(namedType)}, nil
	}

	// List field: find the configured slicing argument, if any.
	var slicingArg *schema.InputValue
	for _, arg := range f.Arguments {
		if _, bounded := slicing[arg.Name]; bounded {
			slicingArg = arg
			break
		}
	}
	if slicingArg == nil {
		if opts.EnforceBoundedLists {
			return nil, newBuildError("field %q is an unbounded list and enforceBoundedLists is set", f.Name)
		}
		cost := opts.UnboundedListCost
		return &Field{
			Kind:      FieldBoundedList,
			ResolveTo: strings.ToLower(namedType),
			Rule:      RuleFunc(func(language.ArgumentList, map[string]any) (int, error) { return cost, nil }),
		}, nil
	}

	return &Field{
		Kind:      FieldBoundedList,
		ResolveTo: strings.ToLower(namedType),
		Rule:      slicingRule(f.Name, slicingArg, opts.ResolvedDefaultFallback()),
	}, nil
}

// ResolvedDefaultFallback is the value used when neither the AST, the
// request's variables, nor the schema's declared default can supply the
// slicing argument's value.
func (opts BuildOptions) ResolvedDefaultFallback() int {
	if opts.UnboundedListCost > 0 {
		return opts.UnboundedListCost
	}
	return 1
}

// slicingRule builds the Rule for a bounded-list field's slicing argument,
// implementing the resolution order: literal AST value, then variable
// lookup (which itself falls back to the operation's own declared default
// for that variable), then the argument's schema-declared default, then the
// configured fallback.
func slicingRule(fieldName string, argDef *schema.InputValue, fallback int) Rule {
	return RuleFunc(func(args language.ArgumentList, variables map[string]any) (int, error) {
		var value *language.Value
		for _, a := range args {
			if a.Name == argDef.Name {
				value = a.Value
				break
			}
		}

		if value == nil {
			// Argument absent from the AST entirely: use the schema default.
			if n, ok := toInt(argDef.DefaultValue); ok {
				return n, nil
			}
			return fallback, nil
		}

		if value.Kind == language.Variable {
			varName := value.Raw
			if raw, ok := variables[varName]; ok {
				if n, ok := toInt(raw); ok {
					return n, nil
				}
				return 0, newMultiplierTypeError(fieldName, argDef.Name, varName)
			}
			if n, ok := toInt(argDef.DefaultValue); ok {
				return n, nil
			}
			return fallback, nil
		}

		// Literal constant value node.
		if value.Kind == language.IntValue {
			n, err := strconv.Atoi(value.Raw)
			if err != nil {
				return 0, newMultiplierTypeError(fieldName, argDef.Name, value.Raw)
			}
			return n, nil
		}
		return 0, newMultiplierTypeError(fieldName, argDef.Name, value.Raw)
	})
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func isConnectionType(t *schema.Type) bool {
	if strings.HasSuffix(t.Name, "Connection") {
		return true
	}
	var hasEdges, hasPageInfo bool
	for _, f := range t.Fields {
		switch f.Name {
		case "edges":
			hasEdges = schema.IsList(f.Type)
		case "pageInfo":
			hasPageInfo = true
		}
	}
	return hasEdges && hasPageInfo
}

func isBuiltinIntrospectionType(name string) bool {
	switch name {
	case "__Schema", "__Type", "__Field", "__InputValue", "__EnumValue", "__Directive", "__TypeKind", "__DirectiveLocation":
		return true
	}
	return strings.HasPrefix(name, "__")
}
