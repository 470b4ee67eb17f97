// Package analysis classifies extracted document text and pulls out
// structured entities, either through a chat model or through a
// deterministic keyword heuristic when no model is available.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/docsage/docsage/internal/llm"
	"github.com/docsage/docsage/internal/models"
)

// Classification is the structured description of a document.
type Classification struct {
	Kind       string           `json:"document_type"`
	Confidence float64          `json:"confidence"`
	Entities   models.EntityMap `json:"entities"`
	Summary    string           `json:"summary"`
}

// Classifier turns text into a Classification. Implementations may fail;
// the ingestion coordinator falls back to the heuristic on any error.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Classification, error)
}

const classifyMaxChars = 5000

const classifyPrompt = `Analyze the following document text and extract structured information.

Document Text:
%s

Respond with a single JSON object, no prose, with this structure:
{
  "document_type": "invoice|contract|receipt|financial_statement|other",
  "confidence": 0.95,
  "entities": {
    "total_amount": 1234.56,
    "currency": "USD",
    "invoice_number": "INV-001",
    "vendor_name": "Company Name",
    "date": "2024-01-01",
    "due_date": "2024-02-01"
  },
  "summary": "Brief summary of the document"
}`

// LLMClassifier classifies documents through the chat gateway.
type LLMClassifier struct {
	gateway llm.Gateway
	model   string
}

func NewLLMClassifier(gw llm.Gateway, model string) *LLMClassifier {
	return &LLMClassifier{gateway: gw, model: model}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string) (*Classification, error) {
	if c.gateway == nil || !c.gateway.Configured() {
		return nil, fmt.Errorf("no chat provider configured")
	}

	if len(text) > classifyMaxChars {
		text = text[:classifyMaxChars]
	}

	resp, err := c.gateway.Chat(ctx, llm.ChatRequest{
		Model: c.model,
		Messages: []llm.Message{
			{
				Role: "system",
				Content: "You are an expert at classifying financial documents. " +
					"Allowed types: invoice, contract, receipt, financial_statement, other. " +
					"Return ONLY minified JSON.",
			},
			{Role: "user", Content: fmt.Sprintf(classifyPrompt, text)},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("classify chat: %w", err)
	}

	cls, err := parseClassification(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse classification: %w", err)
	}
	return cls, nil
}

var (
	fenceRe     = regexp.MustCompile("(?im)^```(json)?|```$")
	jsonBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)
)

// parseClassification extracts the first JSON object from a model reply,
// tolerating code fences and surrounding prose, and normalizes the result.
func parseClassification(raw string) (*Classification, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(fenceRe.ReplaceAllString(s, ""))
	}

	var cls Classification
	if err := json.Unmarshal([]byte(s), &cls); err != nil {
		match := jsonBlockRe.FindString(s)
		if match == "" {
			return nil, fmt.Errorf("no JSON object in response")
		}
		if err := json.Unmarshal([]byte(match), &cls); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
	}

	cls.Kind = NormalizeKind(cls.Kind)
	if cls.Confidence < 0 {
		cls.Confidence = 0
	}
	if cls.Confidence > 1 {
		cls.Confidence = 1
	}
	if len(cls.Summary) > 500 {
		cls.Summary = cls.Summary[:500]
	}
	return &cls, nil
}

var kindAliases = map[string]string{
	"financial statement": models.KindStatement,
	"statement":           models.KindStatement,
	"bill":                models.KindReceipt,
	"agreement":           models.KindContract,
}

// NormalizeKind maps a loosely phrased document type onto the closed kind
// enumeration; anything unrecognized becomes "other".
func NormalizeKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if mapped, ok := kindAliases[k]; ok {
		return mapped
	}
	if models.IsKnownKind(k) {
		return k
	}
	return models.KindOther
}
