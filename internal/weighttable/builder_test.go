package weighttable

import (
	"testing"

	"github.com/nearclip/qgate/internal/schema"
	"github.com/stretchr/testify/require"
)

func starWarsSchema() *schema.Schema {
	return &schema.Schema{
		QueryType: "Query",
		Types: map[string]*schema.Type{
			"Query": {
				Name: "Query", Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "scalars", Type: schema.NamedType("Scalars")},
					{Name: "reviews", Type: schema.ListType(schema.NamedType("Review")), Arguments: []*schema.InputValue{
						{Name: "episode", Type: schema.NamedType("Episode")},
						{Name: "first", Type: schema.NamedType("Int"), DefaultValue: 5},
					}},
					{Name: "heroes", Type: schema.ListType(schema.NamedType("Review")), Arguments: []*schema.InputValue{
						{Name: "episode", Type: schema.NamedType("Episode")},
						{Name: "first", Type: schema.NamedType("Int"), DefaultValue: 5},
					}},
					{Name: "human", Type: schema.NamedType("Human"), Arguments: []*schema.InputValue{
						{Name: "id", Type: schema.NamedType("Int")},
					}},
				},
			},
			"Scalars": {
				Name: "Scalars", Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "num", Type: schema.NamedType("Int")},
					{Name: "id", Type: schema.NamedType("Int")},
					{Name: "test", Type: schema.NamedType("Scalars")},
				},
			},
			"Review": {
				Name: "Review", Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "stars", Type: schema.NamedType("Int")},
					{Name: "episode", Type: schema.NamedType("Episode")},
				},
			},
			"Human": {
				Name: "Human", Kind: schema.TypeKindObject,
				Fields: []*schema.Field{
					{Name: "name", Type: schema.NamedType("String")},
					{Name: "friends", Type: schema.ListType(schema.NamedType("Human")), Arguments: []*schema.InputValue{
						{Name: "first", Type: schema.NamedType("Int")},
					}},
				},
			},
			"Episode": {Name: "Episode", Kind: schema.TypeKindEnum},
			"Int":     {Name: "Int", Kind: schema.TypeKindScalar},
			"String":  {Name: "String", Kind: schema.TypeKindScalar},
		},
	}
}

func defaultOpts() BuildOptions {
	return BuildOptions{
		Weights:          WeightConfig{Mutation: 10, Object: 1, Scalar: 0, Connection: 2},
		SlicingArguments: []string{"first", "last", "limit"},
	}
}

func TestBuildAssignsRootByOperationKind(t *testing.T) {
	table, err := Build(starWarsSchema(), defaultOpts())
	require.NoError(t, err)

	root, ok := table.Type("query")
	require.True(t, ok)
	require.Equal(t, 1, root.Weight)

	byName, ok := table.Type("query")
	require.True(t, ok)
	require.Same(t, root, byName) // "query" key and the root type's own lowercased name coincide here
}

func TestBuildLeafField(t *testing.T) {
	table, err := Build(starWarsSchema(), defaultOpts())
	require.NoError(t, err)

	scalars, ok := table.Type("scalars")
	require.True(t, ok)
	num := scalars.Fields["num"]
	require.Equal(t, FieldLeaf, num.Kind)
	require.Equal(t, 0, num.Weight)
}

func TestBuildBoundedListUsesSchemaDefault(t *testing.T) {
	table, err := Build(starWarsSchema(), defaultOpts())
	require.NoError(t, err)

	query, ok := table.Type("query")
	require.True(t, ok)
	reviews := query.Fields["reviews"]
	require.Equal(t, FieldBoundedList, reviews.Kind)
	require.Equal(t, "review", reviews.ResolveTo)

	n, err := reviews.Rule.Multiplier(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestBuildRejectsNegativeWeights(t *testing.T) {
	opts := defaultOpts()
	opts.Weights.Object = -1
	_, err := Build(starWarsSchema(), opts)
	require.Error(t, err)
}

func TestBuildUnboundedListFailsInStrictMode(t *testing.T) {
	sch := starWarsSchema()
	sch.Types["Query"].Fields = append(sch.Types["Query"].Fields, &schema.Field{
		Name: "allHumans", Type: schema.ListType(schema.NamedType("Human")),
	})
	opts := defaultOpts()
	opts.EnforceBoundedLists = true
	_, err := Build(sch, opts)
	require.Error(t, err)
}

func TestBuildUnboundedListFallsBackToSentinelWhenNotStrict(t *testing.T) {
	sch := starWarsSchema()
	sch.Types["Query"].Fields = append(sch.Types["Query"].Fields, &schema.Field{
		Name: "allHumans", Type: schema.ListType(schema.NamedType("Human")),
	})
	opts := defaultOpts()
	opts.UnboundedListCost = 7
	table, err := Build(sch, opts)
	require.NoError(t, err)

	query, _ := table.Type("query")
	n, err := query.Fields["allHumans"].Rule.Multiplier(nil, nil)
	require.NoError(t, err)
	require.Equal(t, 7, n)
}

func TestBuildUnresolvedTypeReferenceFails(t *testing.T) {
	sch := starWarsSchema()
	sch.Types["Query"].Fields = append(sch.Types["Query"].Fields, &schema.Field{
		Name: "ghost", Type: schema.NamedType("Nonexistent"),
	})
	_, err := Build(sch, defaultOpts())
	require.Error(t, err)
}

func TestBuildConnectionWeightByNameSuffix(t *testing.T) {
	sch := starWarsSchema()
	sch.Types["HumanConnection"] = &schema.Type{Name: "HumanConnection", Kind: schema.TypeKindObject}
	sch.Types["Query"].Fields = append(sch.Types["Query"].Fields, &schema.Field{
		Name: "humansConnection", Type: schema.NamedType("HumanConnection"),
	})
	table, err := Build(sch, defaultOpts())
	require.NoError(t, err)
	conn, ok := table.Type("humanconnection")
	require.True(t, ok)
	require.Equal(t, 2, conn.Weight)
}
