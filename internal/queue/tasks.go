package queue

const (
	TypeDocumentProcess = "document:process"
	TypeDocumentReindex = "document:reindex"
)

type DocumentProcessPayload struct {
	DocumentID string `json:"document_id"`
	TenantID   string `json:"tenant_id"`
}

type DocumentReindexPayload struct {
	DocumentID string `json:"document_id"`
	TenantID   string `json:"tenant_id"`
}
