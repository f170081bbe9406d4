package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Registry holds the tool catalog: every registered declaration, its compiled
// JSON schema, and the builder that turns validated parameters into an
// invocation.
type Registry struct {
	tools    map[string]*Declaration
	schemas  map[string]*gojsonschema.Schema
	builders map[string]Builder
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]*Declaration),
		schemas:  make(map[string]*gojsonschema.Schema),
		builders: make(map[string]Builder),
	}
}

// Register adds a tool to the catalog. The declaration's parameters are
// compiled into a JSON schema once, at registration time.
func (r *Registry) Register(decl Declaration, builder Builder) error {
	if err := validateDeclaration(decl); err != nil {
		return fmt.Errorf("invalid tool declaration: %w", err)
	}
	if builder == nil {
		return fmt.Errorf("tool builder cannot be nil")
	}

	schema, err := generateJSONSchema(decl)
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[decl.Name]; exists {
		return fmt.Errorf("tool %s is already registered", decl.Name)
	}

	r.tools[decl.Name] = &decl
	r.schemas[decl.Name] = schema
	r.builders[decl.Name] = builder

	log.Info().Str("tool", decl.Name).Str("kind", string(decl.Kind)).Msg("Tool registered")

	return nil
}

// Get returns a tool declaration by name, or nil if unknown.
func (r *Registry) Get(name string) *Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.tools[name]
}

// Declarations returns all registered declarations sorted by name.
func (r *Registry) Declarations() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]Declaration, 0, len(r.tools))
	for _, decl := range r.tools {
		decls = append(decls, *decl)
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })

	return decls
}

// Build validates raw parameters against the tool's schema and constructs an
// invocation. A schema failure is a call-level validation error: no
// invocation is built and no target is touched.
func (r *Registry) Build(name string, params map[string]interface{}) (Invocation, error) {
	r.mu.RLock()
	schema := r.schemas[name]
	builder := r.builders[name]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("tool not found: %s", name)
	}

	if err := validateParameters(schema, params); err != nil {
		log.Error().Str("tool", name).Err(err).Msg("Parameter validation failed")
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	inv, err := builder(params)
	if err != nil {
		return nil, fmt.Errorf("failed to build invocation for %s: %w", name, err)
	}

	return inv, nil
}

func validateDeclaration(decl Declaration) error {
	if decl.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if decl.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	for _, param := range decl.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if param.Type == "" {
			return fmt.Errorf("parameter type cannot be empty for %s", param.Name)
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
		}
	}

	return nil
}

// generateJSONSchema generates a JSON Schema from tool parameters.
func generateJSONSchema(decl Declaration) (*gojsonschema.Schema, error) {
	schemaMap := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           make(map[string]interface{}),
	}

	properties := schemaMap["properties"].(map[string]interface{})
	required := []string{}

	for _, param := range decl.Parameters {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}

		if param.Default != nil {
			paramSchema["default"] = param.Default
		}

		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	if len(required) > 0 {
		schemaMap["required"] = required
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	schema, err := gojsonschema.NewSchema(schemaLoader)
	if err != nil {
		return nil, err
	}

	return schema, nil
}

// validateParameters validates parameters against a JSON Schema.
func validateParameters(schema *gojsonschema.Schema, params map[string]interface{}) error {
	if schema == nil {
		return nil
	}

	paramsLoader := gojsonschema.NewGoLoader(params)
	result, err := schema.Validate(paramsLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		errors := []string{}
		for _, err := range result.Errors() {
			errors = append(errors, err.String())
		}
		return fmt.Errorf("validation errors: %v", errors)
	}

	return nil
}
