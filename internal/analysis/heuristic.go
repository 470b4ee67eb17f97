package analysis

import (
	"strings"

	"github.com/docsage/docsage/internal/models"
)

// kindKeywords is checked in order; the first kind with a keyword present
// in the filename or body wins.
var kindKeywords = []struct {
	kind  string
	words []string
}{
	{models.KindInvoice, []string{"invoice"}},
	{models.KindReceipt, []string{"receipt", "bill"}},
	{models.KindContract, []string{"contract", "agreement"}},
	{models.KindStatement, []string{"statement"}},
}

// ClassifyHeuristic assigns a document kind by keyword matching against the
// filename and extracted body. It is the fallback whenever the model-based
// classifier is absent or fails, and never fails itself.
func ClassifyHeuristic(filename, text string) *Classification {
	name := strings.ToLower(filename)
	body := strings.ToLower(text)

	for _, kk := range kindKeywords {
		for _, w := range kk.words {
			if strings.Contains(name, w) || strings.Contains(body, w) {
				return &Classification{
					Kind:       kk.kind,
					Confidence: 0.5,
					Entities:   models.EntityMap{},
					Summary:    "keyword classification",
				}
			}
		}
	}

	return &Classification{
		Kind:       models.KindOther,
		Confidence: 0.5,
		Entities:   models.EntityMap{},
		Summary:    "keyword classification",
	}
}
