package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidConfiguration is wrapped by every rejected widget configuration.
var ErrInvalidConfiguration = errors.New("dashboard: invalid configuration")

// ConfigValidator checks a widget configuration against its definition.
type ConfigValidator interface {
	Validate(def WidgetDefinition, config map[string]any) error
}

// JSONSchemaValidator validates configurations with the JSON Schema carried by
// each widget definition. Compiled schemas are cached by content digest, so a
// catalog manifest that redefines a widget gets its new schema.
type JSONSchemaValidator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator returns an empty validator.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{cache: map[string]*jsonschema.Schema{}}
}

// Validate returns nil for definitions without a schema.
func (v *JSONSchemaValidator) Validate(def WidgetDefinition, config map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.compile(def)
	if err != nil {
		return err
	}
	doc, err := asJSONDocument(config)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, def.Code, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, def.Code, err)
	}
	return nil
}

func (v *JSONSchemaValidator) compile(def WidgetDefinition) (*jsonschema.Schema, error) {
	key := def.Code + "@" + contentHash(def.Schema)

	v.mu.RLock()
	schema, ok := v.cache[key]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}

	raw, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: schema for %s: %w", def.Code, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := "mem://widgets/" + def.Code + ".json"
	if err := compiler.AddResource(url, strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("dashboard: schema for %s: %w", def.Code, err)
	}
	schema, err = compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("dashboard: schema for %s: %w", def.Code, err)
	}

	v.mu.Lock()
	v.cache[key] = schema
	v.mu.Unlock()
	return schema, nil
}

// asJSONDocument converts Go values (typed slices, ints) into the generic
// shapes jsonschema expects.
func asJSONDocument(config map[string]any) (any, error) {
	if config == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

type noopConfigValidator struct{}

func (noopConfigValidator) Validate(WidgetDefinition, map[string]any) error { return nil }
