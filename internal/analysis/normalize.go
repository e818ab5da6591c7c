package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedResponse means the collaborator ignored the schema. It is never
// fatal: Normalize degrades to the raw-text envelope instead.
var ErrMalformedResponse = errors.New("malformed collaborator response")

var (
	fencedJSONPattern    = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// maxScanStarts bounds how many top-level '{' the scan tries over long prose.
// maxScanAttempts bounds every decode attempt, nested ones included.
const (
	maxScanStarts   = 64
	maxScanAttempts = 1024
)

var resultKeys = map[string]bool{
	"schemaVersion":        true,
	"summary":              true,
	"overallCompatibility": true,
	"suitableItems":        true,
	"neutralItems":         true,
	"unsuitableItems":      true,
	"recommendations":      true,
	"menuSections":         true,
}

// Normalize turns collaborator output into a Result. It never fails: output
// without a usable JSON object comes back with empty sequences and
// RawResponse holding text verbatim.
func Normalize(text string) Result {
	r, err := Parse(text)
	if err != nil {
		return Fallback(text)
	}
	return r
}

// Fallback is the raw-text envelope.
func Fallback(text string) Result {
	return Result{RawResponse: text}.withDefaults()
}

// Parse is the strict variant of Normalize.
//
// Candidates are tried in order: a fenced ```json block, the greedy span from
// the first '{' to the last '}', then each '{' in turn decoded as a single
// streaming value. The last step copes with stray braces in prose and with
// several objects; a truncated object still fails.
func Parse(text string) (Result, error) {
	if m := fencedJSONPattern.FindStringSubmatch(text); len(m) > 1 {
		if r, ok := decodeCandidate(m[1]); ok {
			return r, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return Result{}, ErrMalformedResponse
	}
	if r, ok := decodeCandidate(text[start : end+1]); ok {
		return r, nil
	}

	return scan(text, start)
}

// scan tries each '{' from start as the beginning of a single JSON value.
// A value that decodes but is not an analysis is skipped whole. Braces
// nested inside an object that failed to decode are still tried, but only
// top-level starts count against maxScanStarts.
func scan(text string, start int) (Result, error) {
	var (
		depth    int
		inString bool
		escaped  bool
		starts   int
		attempts int
	)
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			// Quotes in prose are not JSON strings.
			if depth > 0 {
				inString = true
			}
		case '}':
			if depth > 0 {
				depth--
			}
		case '{':
			if depth == 0 {
				if starts == maxScanStarts {
					return Result{}, ErrMalformedResponse
				}
				starts++
			}
			if attempts == maxScanAttempts {
				return Result{}, ErrMalformedResponse
			}
			attempts++

			dec := json.NewDecoder(strings.NewReader(text[i:]))
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				depth++
				continue
			}
			if r, ok := decodeCandidate(string(raw)); ok {
				return r, nil
			}
			i += int(dec.InputOffset()) - 1
		}
	}
	return Result{}, ErrMalformedResponse
}

func decodeCandidate(s string) (Result, bool) {
	if r, ok := decodeResult([]byte(s)); ok {
		return r, true
	}
	cleaned := trailingCommaPattern.ReplaceAllString(s, "$1")
	if cleaned == s {
		return Result{}, false
	}
	return decodeResult([]byte(cleaned))
}

// decodeResult accepts only objects that carry at least one schema key, so a
// stray {"note": "..."} in prose is not mistaken for an analysis.
func decodeResult(b []byte) (Result, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return Result{}, false
	}
	known := false
	for k := range keys {
		if resultKeys[k] {
			known = true
			break
		}
	}
	if !known {
		return Result{}, false
	}

	var r Result
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(&r); err != nil {
		return Result{}, false
	}
	r.RawResponse = ""
	return r.withDefaults(), true
}
