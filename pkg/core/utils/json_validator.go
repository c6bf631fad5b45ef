package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ExtractJSONObject pulls the outermost JSON object out of an LLM reply:
// code fences (with or without a "json" tag) are stripped and the text from
// the first "{" to the last "}" is returned.
func ExtractJSONObject(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
		if strings.HasPrefix(strings.ToLower(cleaned), "json") {
			cleaned = strings.TrimSpace(cleaned[len("json"):])
		}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("JSON_NOT_FOUND: no JSON object in response")
	}
	return cleaned[start : end+1], nil
}

// RepairJSON attempts to fix common JSON errors from LLM outputs.
// Uses github.com/RealAlexandreAI/json-repair for intelligent repair.
// Supported repairs:
// - Missing quotes around keys
// - Single quotes instead of double quotes
// - Unclosed arrays/objects
// - Trailing commas
// - Comments in JSON
func RepairJSON(malformedJSON string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformedJSON)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON parses Human-friendly JSON (Hjson) and returns standard JSON.
// Object keys come back sorted, so it is the last resort of SmartParse.
func ParseHJSON(hjsonData string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(hjsonData), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(jsonBytes), nil
}

// SmartParse tries multiple parsing strategies and returns the first
// candidate that is a valid JSON object.
// Order of attempts:
// 1. Standard JSON parse
// 2. JSON repair
// 3. Hjson parse (most lenient)
func SmartParse(input string) (string, error) {
	if isObject(input) {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil && isObject(repaired) {
		return repaired, nil
	}

	if converted, err := ParseHJSON(input); err == nil && isObject(converted) {
		return converted, nil
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed for input")
}

func isObject(s string) bool {
	var probe map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &probe) == nil && probe != nil
}
