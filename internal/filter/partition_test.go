package filter

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionedClause(t *testing.T) {
	tests := []struct {
		name           string
		partition      Partition
		expectedClause string
		expectedParams map[string]interface{}
	}{
		{
			name:           "neither list",
			partition:      Partition{},
			expectedClause: "",
			expectedParams: map[string]interface{}{},
		},
		{
			name:           "only",
			partition:      Partition{Only: []interface{}{1, 2}},
			expectedClause: "(col IN (:p1))",
			expectedParams: map[string]interface{}{"p1": []interface{}{1, 2}},
		},
		{
			name:           "empty only means no restriction",
			partition:      Partition{Only: []interface{}{}},
			expectedClause: "",
			expectedParams: map[string]interface{}{},
		},
		{
			name:           "except",
			partition:      Partition{Except: []interface{}{3}},
			expectedClause: "(col NOT IN (:p1))",
			expectedParams: map[string]interface{}{"p1": []interface{}{3}},
		},
		{
			name:           "empty except means no restriction",
			partition:      Partition{Except: []interface{}{}},
			expectedClause: "",
			expectedParams: map[string]interface{}{},
		},
		{
			name:           "except is subtracted from only",
			partition:      Partition{Only: []interface{}{1, 2, 3}, Except: []interface{}{2}},
			expectedClause: "(col IN (:p1))",
			expectedParams: map[string]interface{}{"p1": []interface{}{1, 3}},
		},
		{
			name:           "only wins over an empty except",
			partition:      Partition{Only: []interface{}{1}, Except: []interface{}{}},
			expectedClause: "(col IN (:p1))",
			expectedParams: map[string]interface{}{"p1": []interface{}{1}},
		},
		{
			name:           "only emptied by except",
			partition:      Partition{Only: []interface{}{1, 2}, Except: []interface{}{1, 2}},
			expectedClause: "",
			expectedParams: map[string]interface{}{},
		},
		{
			name:           "order and duplicates are kept",
			partition:      Partition{Only: []interface{}{3, 1, 3}},
			expectedClause: "(col IN (:p1))",
			expectedParams: map[string]interface{}{"p1": []interface{}{3, 1, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, Config{})
			assert.Equal(t, tt.expectedClause, PartitionedClause(e, "col", tt.partition))
			assert.Equal(t, tt.expectedParams, e.Parameters())
		})
	}
}

func TestPartitionedClause_OnlyExceptMatchesDifference(t *testing.T) {
	gofakeit.Seed(42)

	for i := 0; i < 50; i++ {
		only := randomIDs(gofakeit.Number(0, 12))
		except := randomIDs(gofakeit.Number(0, 12))

		withBoth := newTestEngine(t, Config{})
		clauseBoth := PartitionedClause(withBoth, "col", Partition{Only: only, Except: except})

		withDifference := newTestEngine(t, Config{})
		clauseDifference := PartitionedClause(withDifference, "col", Partition{Only: subtract(only, except)})

		assert.Equal(t, clauseDifference, clauseBoth)
		assert.Equal(t, withDifference.Parameters(), withBoth.Parameters())
	}
}

func randomIDs(n int) []interface{} {
	ids := make([]interface{}, n)
	for i := range ids {
		ids[i] = int64(gofakeit.Number(1, 20))
	}
	return ids
}

func TestAsPartition(t *testing.T) {
	t.Run("reads lists from a mapping", func(t *testing.T) {
		p, err := asPartition("f", map[string]interface{}{"only": []int{1, 2}, "except": []string{"a"}})
		require.NoError(t, err)
		assert.Equal(t, []interface{}{1, 2}, p.Only)
		assert.Equal(t, []interface{}{"a"}, p.Except)
	})

	t.Run("scalar becomes a one element list", func(t *testing.T) {
		p, err := asPartition("f", Spec{{Key: "only", Value: 7}})
		require.NoError(t, err)
		assert.Equal(t, []interface{}{7}, p.Only)
		assert.Nil(t, p.Except)
	})

	t.Run("null lists are absent", func(t *testing.T) {
		p, err := asPartition("f", Spec{{Key: "only", Value: nil}, {Key: "except", Value: []interface{}{}}})
		require.NoError(t, err)
		assert.Nil(t, p.Only)
		assert.NotNil(t, p.Except)
	})

	t.Run("rejects non mappings", func(t *testing.T) {
		_, err := asPartition("f", "only")
		assert.ErrorIs(t, err, ErrMalformedSpecification)
	})
}

func TestPartition_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Partition{Except: []interface{}{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"except":[]}`, string(data))

	data, err = json.Marshal(Partition{Only: []interface{}{int64(1)}, Except: []interface{}{"Widget/2"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"only":[1],"except":["Widget/2"]}`, string(data))
}

type labelledMember struct {
	Label interface{}
}

func TestSubtract_MixedNumericKinds(t *testing.T) {
	only := []interface{}{1, int8(2), uint(3), 4.0, "1"}
	except := []interface{}{int64(1), 2.0, uint64(3), float32(4)}

	assert.Equal(t, []interface{}{"1"}, subtract(only, except))
	assert.Equal(t, []interface{}{1, int8(2), uint(3), 4.0}, intersect(only, except))
}

func TestSubtract_UnhashableMembers(t *testing.T) {
	only := []interface{}{
		labelledMember{Label: []string{"a"}},
		labelledMember{Label: []string{"b"}},
		labelledMember{Label: "c"},
	}
	except := []interface{}{labelledMember{Label: []string{"a"}}}

	var remaining []interface{}
	assert.NotPanics(t, func() { remaining = subtract(only, except) })
	assert.Equal(t, only[1:], remaining)
}

func TestBlockListGenerator_MixedNumericKinds(t *testing.T) {
	e := newTestEngine(t, Config{
		Filters: map[string]Descriptor{"blocked": {Type: TypeBlockList, Field: "blocked_id"}},
	})

	clause, err := e.Generate(Spec{{Key: "blocked", Value: Spec{
		{Key: "only", Value: []int{1, 2}},
		{Key: "except", Value: []interface{}{int64(1)}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, "(blocked_id IN (:p1))", clause)
	assert.Equal(t, map[string]interface{}{"p1": []interface{}{2}}, e.Parameters())
}
