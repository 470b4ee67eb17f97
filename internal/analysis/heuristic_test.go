package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsage/docsage/internal/models"
)

func TestClassifyHeuristic(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		text     string
		want     string
	}{
		{"invoice in filename", "invoice_march.pdf", "monthly charges", models.KindInvoice},
		{"invoice in body", "scan001.pdf", "INVOICE #42 total due", models.KindInvoice},
		{"receipt keyword", "shop.txt", "your receipt, thank you", models.KindReceipt},
		{"bill maps to receipt", "utility_bill.pdf", "", models.KindReceipt},
		{"contract keyword", "doc.pdf", "this contract is binding", models.KindContract},
		{"agreement maps to contract", "service_agreement.docx", "", models.KindContract},
		{"statement keyword", "q1.pdf", "bank statement for january", models.KindStatement},
		{"no match defaults to other", "notes.txt", "shopping list", models.KindOther},
		{"empty input defaults to other", "", "", models.KindOther},
		{"invoice beats statement by order", "invoice_statement.pdf", "", models.KindInvoice},
		{"case insensitive", "RECEIPT.PDF", "", models.KindReceipt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := ClassifyHeuristic(tt.filename, tt.text)
			require.NotNil(t, cls)
			assert.Equal(t, tt.want, cls.Kind)
			assert.Equal(t, 0.5, cls.Confidence)
			assert.NotNil(t, cls.Entities)
		})
	}
}
