package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
)

var typeSchema = &outputSchema{
	name:   "appliance_type",
	schema: objectSchema(map[string]any{"appliance_type": stringProp()}),
}

// TypeDetector infers the appliance type from brand, model and serial.
type TypeDetector struct {
	caller
}

// NewTypeDetector builds the type detection agent.
func NewTypeDetector(client ChatClient, settings Settings, validator SchemaValidator, logger *slog.Logger) *TypeDetector {
	return &TypeDetector{caller: newCaller("type_detector", client, settings, validator, logger)}
}

// Detect returns a known type name, the model's cleaned answer, or Unknown.
func (d *TypeDetector) Detect(ctx context.Context, a appliance.Appliance) string {
	prompt := fmt.Sprintf(typeDetectionPrompt, orUnknown(a.Brand), orUnknown(a.Model), orUnknown(a.Serial))
	content, err := d.complete(ctx, []chatgpt.Message{{Role: "user", Content: prompt}}, typeSchema)
	if err != nil {
		d.logger.Warn("appliance type detection failed", "error", err)
		return appliance.Unknown
	}

	var out struct {
		ApplianceType string `json:"appliance_type"`
	}
	if d.decode(content, typeSchema, &out) {
		content = out.ApplianceType
	}
	return normalizeType(content)
}

func normalizeType(raw string) string {
	cleaned := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(raw))
	lower := strings.ToLower(cleaned)
	for _, known := range appliance.KnownTypes {
		if strings.Contains(lower, strings.ToLower(known)) {
			return known
		}
	}
	if cleaned == "" {
		return appliance.Unknown
	}
	return cleaned
}
