// Package params turns user input into the parameters mapping sent to a workflow.
package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joelfokou/cozewf/internal/apperror"
	"github.com/pelletier/go-toml/v2"
)

// Params is the JSON object passed to the remote workflow as its input variables.
type Params map[string]any

// Build constructs parameters from raw input. Input that looks like JSON must
// decode to an object and is used verbatim; anything else is wrapped as
// {key: input}. Surrounding whitespace is trimmed in both cases.
func Build(raw, key string) (Params, error) {
	input := strings.TrimSpace(raw)
	if input == "" {
		return nil, apperror.Validation(apperror.ErrEmptyInput)
	}

	if LooksLikeJSON(input) {
		return decodeObject([]byte(input))
	}

	if key == "" {
		key = "topic"
	}
	return Params{key: input}, nil
}

// LooksLikeJSON reports whether trimmed input should be parsed as JSON rather
// than treated as free text. Bare numbers and literals stay free text.
func LooksLikeJSON(input string) bool {
	if input == "" {
		return false
	}
	switch input[0] {
	case '{', '[', '"':
		return true
	}
	return false
}

// LoadFile reads parameters from a .json or .toml file.
func LoadFile(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.Validation(fmt.Errorf("failed to read parameters file %s: %w", path, err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, apperror.Validation(fmt.Errorf("parameters file %s: %w", path, apperror.ErrEmptyInput))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return decodeObject(data)
	case ".toml":
		var p Params
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, apperror.Validation(fmt.Errorf("failed to parse TOML %s: %w", path, err))
		}
		return p, nil
	default:
		return nil, apperror.Validation(fmt.Errorf("unsupported parameters file %s: expected .json or .toml", path))
	}
}

// decodeObject parses exactly one JSON value and requires it to be an object.
// Numbers are kept as json.Number so re-encoding preserves them exactly.
func decodeObject(data []byte) (Params, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, apperror.Validation(fmt.Errorf("%w: %v", apperror.ErrBadJSON, err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, apperror.Validation(fmt.Errorf("%w: unexpected data after top-level value", apperror.ErrBadJSON))
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperror.Validation(apperror.ErrNotObject)
	}
	return Params(obj), nil
}

// Format renders parameters as indented JSON without escaping HTML or non-ASCII text.
func Format(p Params) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("failed to format parameters: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
