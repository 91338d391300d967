package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
)

// GuidanceUnavailable is shown when nameplate guidance cannot be generated.
const GuidanceUnavailable = `The nameplate is usually a sticker or metal plate with the brand, model number and serial number printed on it. Common places to check:

1. Inside the door frame or along the inner side walls
2. On the back panel, near the power cord
3. Behind the kick plate or lower front grille
4. Under the lid or around the door opening for washers and dryers

Use a flashlight and take a clear, close-up photo so the text is easy to read.`

// NameplateGuide explains where to find the nameplate on a given appliance.
type NameplateGuide struct {
	caller
}

// NewNameplateGuide builds the nameplate location agent.
func NewNameplateGuide(client ChatClient, settings Settings, logger *slog.Logger) *NameplateGuide {
	return &NameplateGuide{caller: newCaller("nameplate_guide", client, settings, nil, logger)}
}

// Locate returns conversational guidance for the category, subcategory and brand.
func (g *NameplateGuide) Locate(ctx context.Context, category, subcategory, brand string) string {
	if subcategory == "" {
		subcategory = category
	}
	content, err := g.complete(ctx, []chatgpt.Message{
		{Role: "system", Content: guidanceSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(guidancePrompt, category, subcategory, brand)},
	}, nil)
	if err != nil {
		g.logger.Warn("nameplate guidance failed", "error", err)
		return GuidanceUnavailable
	}
	return content
}
