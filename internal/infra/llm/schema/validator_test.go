package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var issuesSchema = map[string]any{
	"type":     "object",
	"required": []any{"issues"},
	"properties": map[string]any{
		"issues": map[string]any{
			"type":     "array",
			"items":    map[string]any{"type": "string"},
			"maxItems": 10,
		},
	},
}

func TestValidatorAcceptsMatchingDocument(t *testing.T) {
	t.Parallel()

	v := NewValidator(4, time.Minute)
	require.NoError(t, v.Validate(issuesSchema, []byte(`{"issues":["Ice maker not working"]}`)))
	// second call is served from the cache
	require.NoError(t, v.Validate(issuesSchema, []byte(`{"issues":[]}`)))
}

func TestValidatorRejectsMismatch(t *testing.T) {
	t.Parallel()

	v := NewValidator(4, time.Minute)
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing field", raw: `{}`},
		{name: "wrong type", raw: `{"issues":"one"}`},
		{name: "not json", raw: `1. Ice maker`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Error(t, v.Validate(issuesSchema, []byte(tt.raw)))
		})
	}
}
