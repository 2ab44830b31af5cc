package webhookschema

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yml
var document []byte

const webhookEventSchema = "WebhookEvent"

var (
	loadOnce sync.Once
	loaded   *openapi3.T
	loadErr  error
)

// Document returns the raw OpenAPI document.
func Document() []byte {
	return document
}

// Load parses and validates the embedded document once.
func Load() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(document)
		if err != nil {
			loadErr = fmt.Errorf("load openapi document: %w", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			loadErr = fmt.Errorf("invalid openapi document: %w", err)
			return
		}
		loaded = doc
	})
	return loaded, loadErr
}

// Validate checks a raw webhook body against the WebhookEvent schema.
func Validate(body []byte) error {
	doc, err := Load()
	if err != nil {
		return err
	}
	ref, ok := doc.Components.Schemas[webhookEventSchema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("schema %s missing from document", webhookEventSchema)
	}

	var value interface{}
	if err := json.Unmarshal(body, &value); err != nil {
		return fmt.Errorf("webhook body is not json: %w", err)
	}
	if err := ref.Value.VisitJSON(value); err != nil {
		return fmt.Errorf("webhook body does not match %s: %w", webhookEventSchema, err)
	}
	return nil
}
