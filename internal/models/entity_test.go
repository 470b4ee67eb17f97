package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityMap_RoundTrip(t *testing.T) {
	m := EntityMap{
		"vendor_name":  StringValue("ACME Corp"),
		"total_amount": NumberValue(1234.56),
		"paid":         BoolValue(true),
		"line_items": {Kind: EntityList, List: []EntityValue{
			StringValue("widget"),
			NumberValue(2),
		}},
		"address": {Kind: EntityMapKind, Map: EntityMap{
			"city": StringValue("Springfield"),
		}},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var got EntityMap
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m, got)
}

func TestEntityMap_UnmarshalUntypedJSON(t *testing.T) {
	raw := `{"invoice_number":"INV-001","total_amount":99.5,"overdue":false,"notes":null}`

	var m EntityMap
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	num, ok := m.Number("total_amount")
	require.True(t, ok)
	assert.Equal(t, 99.5, num)

	s, ok := m.String("invoice_number")
	require.True(t, ok)
	assert.Equal(t, "INV-001", s)

	// null decodes as an empty string value
	s, ok = m.String("notes")
	require.True(t, ok)
	assert.Equal(t, "", s)
}

func TestEntityMap_AccessorsKindMismatch(t *testing.T) {
	m := EntityMap{"amount": StringValue("not a number")}

	_, ok := m.Number("amount")
	assert.False(t, ok)
	_, ok = m.Number("missing")
	assert.False(t, ok)
	_, ok = m.String("missing")
	assert.False(t, ok)
}

func TestIsKnownKind(t *testing.T) {
	for _, k := range KnownKinds() {
		assert.True(t, IsKnownKind(k))
	}
	assert.False(t, IsKnownKind("memo"))
	assert.False(t, IsKnownKind(""))
}
