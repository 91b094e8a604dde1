package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// decodeToolCall pulls the tool name and ordered arguments out of a tool
// call cell's fenced JSON body. Argument order follows the document's key
// order, which a plain map decode would destroy, so the object is walked
// token by token.
func decodeToolCall(body string) (string, []Arg, error) {
	inner, err := fencedJSON(body)
	if err != nil {
		return "", nil, err
	}

	dec := json.NewDecoder(strings.NewReader(inner))
	tok, err := dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("decode tool call: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", nil, errors.New("tool call body is not a JSON object")
	}

	var name string
	var argsRaw json.RawMessage
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", nil, fmt.Errorf("decode tool call: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return "", nil, fmt.Errorf("decode tool call: unexpected token %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", nil, fmt.Errorf("decode tool call field %q: %w", key, err)
		}

		switch key {
		case "tool_name":
			if err := json.Unmarshal(value, &name); err != nil {
				return "", nil, errors.New("tool_name is not a string")
			}
		case "arguments":
			argsRaw = value
		}
		// Other fields are producer metadata and carry no action content.
	}

	if name == "" {
		return "", nil, errors.New("tool call has no tool_name")
	}

	args, err := decodeArgs(argsRaw)
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

// fencedJSON returns the text between a ```json fence and its closing ```.
func fencedJSON(body string) (string, error) {
	const fence = "```json"
	start := strings.Index(body, fence)
	if start < 0 {
		return "", errors.New("no fenced JSON block")
	}
	rest := body[start+len(fence):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", errors.New("unterminated fenced JSON block")
	}
	return strings.TrimSpace(rest[:end]), nil
}

// decodeArgs converts an arguments value into ordered Args. An object
// yields one Arg per key in document order; a bare string or other scalar
// yields a single unnamed Arg; null or absent yields none.
func decodeArgs(raw json.RawMessage) ([]Arg, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		var args []Arg
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("decode arguments: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("decode arguments: unexpected token %v", keyTok)
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("decode argument %q: %w", key, err)
			}
			args = append(args, Arg{Name: key, Value: renderValue(value)})
		}
		return args, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("decode arguments: %w", err)
		}
		return []Arg{{Value: s}}, nil
	default:
		return []Arg{{Value: renderValue(trimmed)}}, nil
	}
}

// renderValue flattens a JSON value to display text: strings lose their
// quotes, everything else is compacted JSON.
func renderValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}
