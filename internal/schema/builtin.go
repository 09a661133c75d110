package schema

var stringType = &Type{
	Name:        "String",
	Kind:        TypeKindScalar,
	Description: "The `String` scalar type represents textual data, represented as UTF-8 character sequences.",
}

var intType = &Type{
	Name:        "Int",
	Kind:        TypeKindScalar,
	Description: "The `Int` scalar type represents non-fractional signed whole numeric values.",
}

var floatType = &Type{
	Name:        "Float",
	Kind:        TypeKindScalar,
	Description: "The `Float` scalar type represents signed double-precision fractional values.",
}

var booleanType = &Type{
	Name:        "Boolean",
	Kind:        TypeKindScalar,
	Description: "The `Boolean` scalar type represents `true` or `false`.",
}

var idType = &Type{
	Name:        "ID",
	Kind:        TypeKindScalar,
	Description: "The `ID` scalar type represents a unique identifier, often used to refetch an object or as a key for caching.",
}

var includeDirective = &Directive{
	Name:        "include",
	Description: "Directs the executor to include this field or fragment only when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Included when true.",
			Type:        &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"}},
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

var skipDirective = &Directive{
	Name:        "skip",
	Description: "Directs the executor to skip this field or fragment when the `if` argument is true.",
	Arguments: []*InputValue{
		{
			Name:        "if",
			Description: "Skipped when true.",
			Type:        &TypeRef{Kind: TypeRefKindNonNull, OfType: &TypeRef{Kind: TypeRefKindNamed, Named: "Boolean"}},
		},
	},
	Locations:    []string{"FIELD", "FRAGMENT_SPREAD", "INLINE_FRAGMENT"},
	IsRepeatable: false,
}

// MergeBuiltins adds the five built-in scalar types and the skip/include
// directives to s wherever an introspection source omitted them. Since
// the schema source and its parser are out of scope, a gate deployment's
// introspection dump is not required to carry these; MergeBuiltins makes
// every weight-table build and complexity analysis able to rely on them
// being present regardless.
func MergeBuiltins(s *Schema) {
	for _, t := range []*Type{stringType, intType, floatType, booleanType, idType} {
		if _, ok := s.Types[t.Name]; !ok {
			if s.Types == nil {
				s.Types = map[string]*Type{}
			}
			s.Types[t.Name] = t
		}
	}
	if s.Directives == nil {
		s.Directives = map[string]*Directive{}
	}
	for _, d := range []*Directive{includeDirective, skipDirective} {
		if _, ok := s.Directives[d.Name]; !ok {
			s.Directives[d.Name] = d
		}
	}
}
