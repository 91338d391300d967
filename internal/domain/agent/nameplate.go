package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

var (
	nameplateSchema = &outputSchema{
		name: "nameplate_reading",
		schema: objectSchema(map[string]any{
			"raw_text": stringProp(),
			"brand":    nullable("string"),
			"model":    nullable("string"),
			"serial":   nullable("string"),
			"age":      nullable("number"),
		}),
	}
	infoSchema = &outputSchema{
		name: "appliance_info",
		schema: objectSchema(map[string]any{
			"brand":  nullable("string"),
			"model":  nullable("string"),
			"serial": nullable("string"),
			"age":    nullable("number"),
		}),
	}
)

// Reading is what the vision model saw on a nameplate.
type Reading struct {
	RawText string         `json:"raw_text"`
	Info    appliance.Info `json:"info"`
}

// NameplateReader reads brand, model and serial from nameplate photos.
// Results are cached per image hash.
type NameplateReader struct {
	caller
	cache *expirable.LRU[string, Reading]
}

// NewNameplateReader builds the vision agent with a bounded result cache.
func NewNameplateReader(client ChatClient, settings Settings, validator SchemaValidator, cacheSize int, ttl time.Duration, logger *slog.Logger) *NameplateReader {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	return &NameplateReader{
		caller: newCaller("nameplate_reader", client, settings, validator, logger),
		cache:  expirable.NewLRU[string, Reading](cacheSize, nil, ttl),
	}
}

// Read sends the image to the vision model. hash identifies the image for
// caching; an empty hash disables the cache lookup.
func (r *NameplateReader) Read(ctx context.Context, hash, mimeType string, image []byte) (Reading, error) {
	if hash != "" {
		if cached, ok := r.cache.Get(hash); ok {
			r.logger.Debug("nameplate reading served from cache", "hash", hash)
			return cached, nil
		}
	}
	content, err := r.complete(ctx, []chatgpt.Message{{
		Role:  "user",
		Parts: []chatgpt.ContentPart{chatgpt.TextPart(nameplatePrompt), chatgpt.ImagePart(mimeType, image)},
	}}, nameplateSchema)
	if err != nil {
		return Reading{}, apperrors.Wrap(apperrors.CodeLLM, "Error reading image", err)
	}

	reading := r.parse(content)
	if hash != "" {
		r.cache.Add(hash, reading)
	}
	return reading, nil
}

func (r *NameplateReader) parse(content string) Reading {
	var structured struct {
		RawText string `json:"raw_text"`
		looseInfo
	}
	if r.decode(content, nameplateSchema, &structured) {
		return Reading{RawText: structured.RawText, Info: structured.info()}
	}
	return ParseNameplateText(content)
}

// ParseNameplateText handles the "RAW_TEXT: ... JSON: {...}" reply format,
// falling back to the outermost braces anywhere in the reply.
func ParseNameplateText(content string) Reading {
	if strings.Contains(content, "RAW_TEXT:") && strings.Contains(content, "JSON:") {
		before, after, _ := strings.Cut(content, "JSON:")
		reading := Reading{RawText: strings.TrimSpace(strings.Replace(before, "RAW_TEXT:", "", 1))}
		if info, ok := decodeInfo(stripCodeFence(after)); ok {
			reading.Info = info
		}
		return reading
	}
	reading := Reading{RawText: content}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		if info, ok := decodeInfo(content[start : end+1]); ok {
			reading.Info = info
		}
	}
	return reading
}

// Extractor pulls appliance details out of free text.
type Extractor struct {
	caller
}

// NewExtractor builds the free-text extraction agent.
func NewExtractor(client ChatClient, settings Settings, validator SchemaValidator, logger *slog.Logger) *Extractor {
	return &Extractor{caller: newCaller("extractor", client, settings, validator, logger)}
}

// Extract returns whatever brand, model, serial and age the text mentions.
func (e *Extractor) Extract(ctx context.Context, text string) appliance.Info {
	content, err := e.complete(ctx, []chatgpt.Message{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(extractionPrompt, text)},
	}, infoSchema)
	if err != nil {
		e.logger.Warn("appliance extraction failed", "error", err)
		return appliance.Info{}
	}
	var structured looseInfo
	if e.decode(content, infoSchema, &structured) {
		return structured.info()
	}
	info, ok := decodeInfo(stripCodeFence(content))
	if !ok {
		e.logger.Warn("appliance extraction returned invalid json")
	}
	return info
}

// looseInfo accepts the loosely typed JSON models return: null fields,
// numeric serials and ages given as strings or floats.
type looseInfo struct {
	Brand  any `json:"brand"`
	Model  any `json:"model"`
	Serial any `json:"serial"`
	Age    any `json:"age"`
}

func (l looseInfo) info() appliance.Info {
	return appliance.Info{
		Brand:  looseString(l.Brand),
		Model:  looseString(l.Model),
		Serial: looseString(l.Serial),
		Age:    looseAge(l.Age),
	}
}

func decodeInfo(raw string) (appliance.Info, bool) {
	var l looseInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &l); err != nil {
		return appliance.Info{}, false
	}
	return l.info(), true
}

func looseString(v any) string {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if strings.EqualFold(s, "null") {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func looseAge(v any) *int {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if f <= 0 {
		return nil
	}
	age := int(math.Round(f))
	return &age
}
