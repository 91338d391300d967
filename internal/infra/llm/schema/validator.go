package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// Validator compiles JSON Schemas once and checks model output against them.
type Validator struct {
	mu       sync.Mutex
	compiler *js.Compiler
	cache    *expirable.LRU[string, *js.Schema]
}

// NewValidator creates a validator whose compiled schemas are cached.
func NewValidator(cacheSize int, ttl time.Duration) *Validator {
	if cacheSize <= 0 {
		cacheSize = 32
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Validator{
		compiler: js.NewCompiler(),
		cache:    expirable.NewLRU[string, *js.Schema](cacheSize, nil, ttl),
	}
}

// Validate checks raw JSON against schema.
func (v *Validator) Validate(schema map[string]any, raw []byte) error {
	compiled, err := v.prepare(schema)
	if err != nil {
		return err
	}
	var value any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func (v *Validator) prepare(schema map[string]any) (*js.Schema, error) {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	sum := sha256.Sum256(schemaBytes)
	key := hex.EncodeToString(sum[:])
	if compiled, ok := v.cache.Get(key); ok {
		return compiled, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if compiled, ok := v.cache.Get(key); ok {
		return compiled, nil
	}
	resourceURL := fmt.Sprintf("mem://schema/%s.json", key[:16])
	if err := v.compiler.AddResource(resourceURL, bytes.NewReader(schemaBytes)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := v.compiler.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	v.cache.Add(key, compiled)
	return compiled, nil
}
