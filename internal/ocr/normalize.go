package ocr

import (
	"encoding/json"
	"strings"
)

// Item is one extracted receipt line.
type Item struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// Result is the structured extraction. RawText always carries the unmodified
// model output so nothing is lost when parsing fails.
type Result struct {
	Items   []Item  `json:"items"`
	Total   float64 `json:"total"`
	Date    string  `json:"date"`
	Shop    string  `json:"shop"`
	RawText string  `json:"raw_text"`
}

// Normalize parses model output into a Result. It tries a fenced ```json
// block first, then the raw text, and on failure returns a well-formed empty
// result carrying the raw text. It never returns an error.
func Normalize(raw string) Result {
	if fenced := extractFenced(raw); fenced != "" {
		var res Result
		if err := json.Unmarshal([]byte(fenced), &res); err == nil {
			return withRawText(res, raw)
		}
	}

	var res Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &res); err != nil {
		return Result{Items: []Item{}, RawText: raw}
	}
	return withRawText(res, raw)
}

func withRawText(res Result, raw string) Result {
	if res.Items == nil {
		res.Items = []Item{}
	}
	res.RawText = raw
	return res
}

// extractFenced returns the body of the first ```json or ``` fenced block,
// or "" when no complete fence is present.
func extractFenced(raw string) string {
	start := strings.Index(raw, "```")
	if start < 0 {
		return ""
	}
	rest := raw[start+3:]
	if trimmed := strings.TrimPrefix(rest, "json"); trimmed != rest {
		rest = trimmed
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(rest[:end])
}
