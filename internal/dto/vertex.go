package dto

type VertexGenerateRequest struct {
	Model            string
	System           string
	UserMessage      string
	ResponseMIMEType string
	ResponseSchema   *VertexSchema
	Temperature      *float32
	MaxOutputTokens  *int32
}

type VertexGenerateResponse struct {
	Text         string
	FinishReason string
	Raw          any
}

type VertexSchema struct {
	Type        string
	Description string
	Enum        []string
	Properties  map[string]*VertexSchema
	Required    []string
	Items       *VertexSchema
}
