package generator

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSONFound is returned when the model output holds no JSON object at all.
var ErrNoJSONFound = errors.New("no JSON object found in model output")

// The info string after the opening fence (json, JSON, javascript, ...) is dropped whole.
var fencedBlock = regexp.MustCompile("(?s)```[^\\n`]*\\r?\\n(.*?)```")

// ExtractJSON pulls the JSON object out of raw model text. It accepts, in order:
// the whole trimmed text when it is brace-delimited, the body of the first
// fenced code block, and the span from the first '{' to the last '}'.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrNoJSONFound
	}

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text, nil
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if body := strings.TrimSpace(m[1]); body != "" {
			return body, nil
		}
	}

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first >= 0 && last > first {
		return text[first : last+1], nil
	}
	return "", ErrNoJSONFound
}
