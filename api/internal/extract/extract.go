// Package extract defines the extraction collaborator: something that turns
// document bytes into a first-pass RawDocument following a declared schema.
package extract

import (
	"context"
	_ "embed"

	"condo-extract/api/internal/record"
)

// Extractor is the collaborator contract. Implementations return *Error for
// classified failures.
type Extractor interface {
	Name() string
	GetModel() string
	Extract(ctx context.Context, doc []byte, schema Schema) (record.RawDocument, error)
}

// Schema describes the expected output shape to the collaborator.
type Schema struct {
	Name string
	JSON string // JSON Schema text
}

//go:embed document.schema.json
var documentSchema string

// DocumentSchema returns the schema of record.RawDocument.
func DocumentSchema() Schema {
	return Schema{Name: "condo_document", JSON: documentSchema}
}
