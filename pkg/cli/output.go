package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatYAML is YAML output.
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat parses a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text, json or yaml)", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatTo(w io.Writer, data any) error
}

// TextWriter is implemented by results that render their own text form.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// TextFormatter formats output as plain text.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data any) ([]byte, error) {
	var b strings.Builder
	if err := f.FormatTo(&b, data); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	if tw, ok := data.(TextWriter); ok {
		return tw.WriteText(w)
	}
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data any) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// Format converts data to YAML format.
func (f *YAMLFormatter) Format(data any) ([]byte, error) {
	return yaml.Marshal(data)
}

// FormatTo writes data to writer in YAML format.
func (f *YAMLFormatter) FormatTo(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}
