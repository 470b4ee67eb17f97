package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/models"
)

func TestParseClassification_PlainJSON(t *testing.T) {
	raw := `{"document_type":"invoice","confidence":0.92,"entities":{"total_amount":1234.56,"vendor_name":"ACME"},"summary":"An invoice."}`

	cls, err := parseClassification(raw)
	require.NoError(t, err)
	assert.Equal(t, models.KindInvoice, cls.Kind)
	assert.Equal(t, 0.92, cls.Confidence)
	assert.Equal(t, "An invoice.", cls.Summary)

	total, ok := cls.Entities.Number("total_amount")
	require.True(t, ok)
	assert.Equal(t, 1234.56, total)

	vendor, ok := cls.Entities.String("vendor_name")
	require.True(t, ok)
	assert.Equal(t, "ACME", vendor)
}

func TestParseClassification_FencedJSON(t *testing.T) {
	raw := "```json\n{\"document_type\": \"receipt\", \"confidence\": 0.8}\n```"

	cls, err := parseClassification(raw)
	require.NoError(t, err)
	assert.Equal(t, models.KindReceipt, cls.Kind)
	assert.Equal(t, 0.8, cls.Confidence)
}

func TestParseClassification_JSONInProse(t *testing.T) {
	raw := `Sure! Here is the result: {"document_type":"contract","confidence":0.7} Hope that helps.`

	cls, err := parseClassification(raw)
	require.NoError(t, err)
	assert.Equal(t, models.KindContract, cls.Kind)
}

func TestParseClassification_NoJSON(t *testing.T) {
	_, err := parseClassification("I could not classify this document.")
	assert.Error(t, err)
}

func TestParseClassification_ClampsConfidence(t *testing.T) {
	cls, err := parseClassification(`{"document_type":"invoice","confidence":1.7}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cls.Confidence)

	cls, err = parseClassification(`{"document_type":"invoice","confidence":-0.3}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cls.Confidence)
}

func TestParseClassification_CapsSummary(t *testing.T) {
	long := strings.Repeat("x", 600)
	cls, err := parseClassification(`{"document_type":"other","summary":"` + long + `"}`)
	require.NoError(t, err)
	assert.Len(t, cls.Summary, 500)
}

func TestNormalizeKind(t *testing.T) {
	assert.Equal(t, models.KindInvoice, NormalizeKind("invoice"))
	assert.Equal(t, models.KindInvoice, NormalizeKind("  Invoice "))
	assert.Equal(t, models.KindStatement, NormalizeKind("financial statement"))
	assert.Equal(t, models.KindStatement, NormalizeKind("statement"))
	assert.Equal(t, models.KindReceipt, NormalizeKind("bill"))
	assert.Equal(t, models.KindContract, NormalizeKind("agreement"))
	assert.Equal(t, models.KindOther, NormalizeKind("memo"))
	assert.Equal(t, models.KindOther, NormalizeKind(""))
}
