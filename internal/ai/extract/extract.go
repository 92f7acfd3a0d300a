// Package extract recovers JSON payloads from free-form model output.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"formgen-workers/internal/common/errors"
	"formgen-workers/internal/models"
)

var (
	fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

	componentCodePattern = regexp.MustCompile(`"componentCode"\s*:\s*"([\s\S]*?)"\s*,?\s*"templateCode"`)
	templateCodePattern  = regexp.MustCompile(`"templateCode"\s*:\s*"([\s\S]*?)"\s*}`)
)

// ExtractJSON returns the trimmed contents of the first fenced code block,
// or the trimmed input when there is none.
func ExtractJSON(text string) string {
	if inner, ok := FencedBlock(text); ok {
		return inner
	}
	return strings.TrimSpace(text)
}

// FencedBlock returns the trimmed contents of the first fenced code block.
func FencedBlock(text string) (string, bool) {
	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// BraceSpan trims text and cuts it to the span between the first '{' and the
// last '}'. Text without such a span is returned trimmed.
func BraceSpan(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

// ExtractPayload applies BraceSpan and then ExtractJSON.
func ExtractPayload(text string) string {
	return ExtractJSON(BraceSpan(text))
}

// LooksLikeJSON reports whether the trimmed text opens an object.
func LooksLikeJSON(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "{")
}

type customComponentPayload struct {
	ComponentCode string `json:"componentCode"`
	TemplateCode  string `json:"templateCode"`
}

// ExtractCustomComponent pulls componentCode and templateCode out of a model
// reply. When the payload is not decodable JSON it falls back to matching the
// two fields directly in the raw text.
func ExtractCustomComponent(text string) (*models.CustomComponentResult, error) {
	var payload customComponentPayload
	err := json.Unmarshal([]byte(ExtractPayload(text)), &payload)
	if err == nil {
		return &models.CustomComponentResult{
			ComponentCode: unescape(payload.ComponentCode),
			TemplateCode:  unescape(payload.TemplateCode),
		}, nil
	}

	if result, ok := salvage(text); ok {
		return result, nil
	}
	return nil, errors.NewExtractionError("Failed to parse custom component response: "+err.Error(), err)
}

// salvage is the degraded path for replies whose string fields carry raw
// newlines or unescaped quotes.
func salvage(text string) (*models.CustomComponentResult, bool) {
	cm := componentCodePattern.FindStringSubmatch(text)
	tm := templateCodePattern.FindStringSubmatch(text)
	if cm == nil || tm == nil {
		return nil, false
	}
	return &models.CustomComponentResult{
		ComponentCode: unescape(cm[1]),
		TemplateCode:  unescape(tm[1]),
	}, true
}

// unescape resolves escape sequences the model leaves literal after decoding.
// The order matters: \\ is resolved last.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}
