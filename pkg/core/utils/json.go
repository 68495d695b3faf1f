package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes the usual defects in model-written JSON: unquoted keys,
// single quotes, trailing commas, comments and unclosed brackets.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("repair json: %w", err)
	}
	return repaired, nil
}

// ParseHJSON reads Hjson and returns the equivalent standard JSON.
func ParseHJSON(data string) (string, error) {
	var v interface{}
	if err := hjson.Unmarshal([]byte(data), &v); err != nil {
		return "", fmt.Errorf("parse hjson: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal hjson result: %w", err)
	}
	return string(out), nil
}

// ExtractJSON drops code fences and any prose around the outermost object.
func ExtractJSON(s string) string {
	s = CleanMarkdown(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// SmartParse decodes input into v. Strategies in order: strict JSON,
// repaired JSON, then Hjson.
func SmartParse(input string, v interface{}) error {
	body := ExtractJSON(input)
	if err := json.Unmarshal([]byte(body), v); err == nil {
		return nil
	}
	if repaired, err := RepairJSON(body); err == nil {
		if err := json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}
	if converted, err := ParseHJSON(body); err == nil {
		if err := json.Unmarshal([]byte(converted), v); err == nil {
			return nil
		}
	}
	return fmt.Errorf("smart parse: no strategy produced valid JSON")
}
