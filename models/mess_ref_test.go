package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMessRefJSON(t *testing.T) {
	var in struct {
		A MessRef `json:"a"`
		B MessRef `json:"b"`
		C MessRef `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":7,"b":" 12 ","c":null}`), &in))

	assert.Equal(t, MessRef("7"), in.A)
	assert.Equal(t, MessRef("12"), in.B)
	assert.True(t, in.C.IsZero())

	id, ok := in.A.MessID()
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	assert.Error(t, json.Unmarshal([]byte(`{"a":{"x":1}}`), &in))
}

func TestMessRefBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	type doc struct {
		Ref MessRef `bson:"ref"`
	}
	cases := []struct {
		value interface{}
		want  MessRef
	}{
		{int32(3), "3"},
		{int64(42), "42"},
		{float64(5), "5"},
		{"9", "9"},
		{oid, MessRef(oid.Hex())},
	}
	for _, tc := range cases {
		raw, err := bson.Marshal(bson.M{"ref": tc.value})
		require.NoError(t, err)

		var out doc
		require.NoError(t, bson.Unmarshal(raw, &out))
		assert.Equal(t, tc.want, out.Ref)
	}

	raw, err := bson.Marshal(doc{Ref: "11"})
	require.NoError(t, err)
	assert.Equal(t, "11", bson.Raw(raw).Lookup("ref").StringValue())
}

func TestMessRefObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, ok := MessRef(oid.Hex()).ObjectID()
	require.True(t, ok)
	assert.Equal(t, oid, got)

	_, ok = MessRef("12").ObjectID()
	assert.False(t, ok)
	_, ok = MessRef("0").MessID()
	assert.False(t, ok)
}

func TestMessAliases(t *testing.T) {
	oid := primitive.NewObjectID()
	m := Mess{ID: oid, MessID: 4}

	assert.Equal(t, MessRef("4"), m.Ref())
	assert.Equal(t, []MessRef{"4", MessRef(oid.Hex())}, m.Aliases())
	assert.Equal(t, MessRef(oid.Hex()), Mess{ID: oid}.Ref())
}

func TestCandidatesForDefaults(t *testing.T) {
	m := Mess{MessID: 2, Name: "Annapurna", Menu: NewMenu(
		MenuItem{Name: "Chicken Curry", Price: 150, IsVeg: false, Category: "curry", Rating: 4.6},
		MenuItem{Price: 20, IsVeg: true},
	)}

	got := CandidatesFor(m)
	require.Len(t, got, 2)

	assert.Equal(t, TypeNonVeg, got[0].Type)
	assert.Equal(t, "curry", got[0].Category)
	assert.Equal(t, 4.6, got[0].Rating)
	assert.Equal(t, MessRef("2"), got[0].MessID)

	assert.Equal(t, DefaultDishName, got[1].Name)
	assert.Equal(t, DefaultImage, got[1].Image)
	assert.Equal(t, DefaultDishRating, got[1].Rating)
	assert.Equal(t, DefaultDishDescription, got[1].Description)
	assert.Equal(t, DefaultCategory, got[1].Category)
	assert.Equal(t, "Annapurna", got[1].MessName)
}
