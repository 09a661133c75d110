package schema

// Schema represents the complete GraphQL schema. Field tags match the shape
// an introspection query response is normally decoded into, since the
// schema source and its parser are out of scope here; the gate always
// receives an already-introspected value.
type Schema struct {
	QueryType        string                `json:"queryType"`
	MutationType     string                `json:"mutationType,omitempty"`
	SubscriptionType string                `json:"subscriptionType,omitempty"`
	Types            map[string]*Type      `json:"types"`
	Directives       map[string]*Directive `json:"directives,omitempty"`
	Description      string                `json:"description,omitempty"`
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type { return s.Types[s.MutationType] }

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type { return s.Types[s.SubscriptionType] }

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string        `json:"name"`
	Kind           TypeKind      `json:"kind"`
	Description    string        `json:"description,omitempty"`
	Fields         []*Field      `json:"fields,omitempty"`        // For OBJECT and INTERFACE
	Interfaces     []string      `json:"interfaces,omitempty"`    // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      `json:"possibleTypes,omitempty"` // For INTERFACE and UNION
	EnumValues     []*EnumValue  `json:"enumValues,omitempty"`    // For ENUM
	InputFields    []*InputValue `json:"inputFields,omitempty"`   // For INPUT_OBJECT
	SpecifiedByURL *string       `json:"specifiedByURL,omitempty"`
	OneOf          bool          `json:"oneOf,omitempty"`
}

// Field represents a field on an object or interface
type Field struct {
	Name              string        `json:"name"`
	Description       string        `json:"description,omitempty"`
	Type              *TypeRef      `json:"type"`
	Arguments         []*InputValue `json:"args,omitempty"`
	Async             bool          `json:"-"`
	IsDeprecated      bool          `json:"isDeprecated,omitempty"`
	DeprecationReason string        `json:"deprecationReason,omitempty"`
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind `json:"kind"`
	OfType *TypeRef    `json:"ofType,omitempty"` // For List and NonNull
	Named  string      `json:"name,omitempty"`   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

// Helper functions for TypeRef
func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

type EnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	IsDeprecated      bool   `json:"isDeprecated,omitempty"`
	DeprecationReason string `json:"deprecationReason,omitempty"`
}

type InputValue struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Type              *TypeRef `json:"type"`
	DefaultValue      any      `json:"defaultValue,omitempty"`
	IsDeprecated      bool     `json:"isDeprecated,omitempty"`
	DeprecationReason string   `json:"deprecationReason,omitempty"`
}

type Directive struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Locations    []string      `json:"locations,omitempty"`
	Arguments    []*InputValue `json:"args,omitempty"`
	IsRepeatable bool          `json:"isRepeatable,omitempty"`
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
