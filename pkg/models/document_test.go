package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	_, err := ParseDocument([]byte(`{"a":`))
	require.Error(t, err)

	_, err = ParseDocument([]byte(`[1,2]`))
	require.ErrorIs(t, err, ErrNotObject)

	doc, err := ParseDocument([]byte(`{"company_info":{"name":"Acme"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Acme", doc.Path("company_info", "name").Str())
}

func TestNodeKeysPreserveOrder(t *testing.T) {
	doc := MustParseDocument(`{"periods_analyzed":{"fy2023":"a","fy2024":"b","ytd_jun2025":"c"}}`)
	assert.Equal(t, []string{"fy2023", "fy2024", "ytd_jun2025"}, doc.Get("periods_analyzed").Keys())
}

func TestNodeGetIsLiteral(t *testing.T) {
	doc := MustParseDocument(`{"a.b":1,"a":{"b":2}}`)
	v, ok := doc.Get("a.b").Float()
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	assert.False(t, doc.Get("a*").Exists())
}

func TestNodeNullVersusMissing(t *testing.T) {
	doc := MustParseDocument(`{"values":{"fy2024":null}}`)
	v := doc.Path("values", "fy2024")
	assert.True(t, v.Exists())
	assert.True(t, v.IsNull())
	assert.Nil(t, v.FloatPtr())
	assert.False(t, doc.Path("values", "fy2023").Exists())
}

func TestNodeFloatAcceptsNumericStrings(t *testing.T) {
	doc := MustParseDocument(`{"a":"1,250.5","b":"n/a","c":3}`)
	assert.Equal(t, 1250.5, doc.Get("a").FloatOr(0))
	_, ok := doc.Get("b").Float()
	assert.False(t, ok)
	assert.Equal(t, 3.0, doc.Get("c").FloatOr(0))
}

func TestNodeTruthy(t *testing.T) {
	doc := MustParseDocument(`{"z":0,"e":"","o":{},"a":[],"f":false,"n":null,"s":"x","one":1,"obj":{"k":1}}`)
	for _, k := range []string{"z", "e", "o", "a", "f", "n", "missing"} {
		assert.False(t, doc.Get(k).Truthy(), k)
	}
	for _, k := range []string{"s", "one", "obj"} {
		assert.True(t, doc.Get(k).Truthy(), k)
	}
}

func TestNodeBool(t *testing.T) {
	doc := MustParseDocument(`{"a":true,"b":"false","c":"maybe"}`)
	v, ok := doc.Get("a").Bool()
	assert.True(t, ok)
	assert.True(t, v)
	v, ok = doc.Get("b").Bool()
	assert.True(t, ok)
	assert.False(t, v)
	_, ok = doc.Get("c").Bool()
	assert.False(t, ok)
}
