package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"dario.cat/mergo"
)

// Reason classifies a LoadError.
type Reason string

const (
	// ReasonUnreadable means the source could not be read at all.
	ReasonUnreadable Reason = "unreadable"

	// ReasonParse means the source was read but is malformed.
	ReasonParse Reason = "parse"

	// ReasonTypeMismatch means a value has the wrong type for its field.
	ReasonTypeMismatch Reason = "type_mismatch"

	// ReasonMissingField means a field tagged required:"true" is empty
	// after all layers were merged.
	ReasonMissingField Reason = "missing_field"

	// ReasonMerge means a layer could not be merged into the result.
	ReasonMerge Reason = "merge"
)

// LoadError reports which source failed and why.
type LoadError struct {
	// Source is the Name of the failing source, or "merged" for checks run
	// on the merged result.
	Source string

	// Reason classifies the failure.
	Reason Reason

	// Field is the dotted path or variable name involved, if known.
	Field string

	// Err is the underlying error.
	Err error
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "load %s: %s", e.Source, e.Reason)
	if e.Field != "" {
		fmt.Fprintf(&sb, " (%s)", e.Field)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Source produces one configuration layer. Fields a layer does not set
// must be left at their zero value so lower layers show through.
type Source[C any] interface {
	// Name identifies the source in errors and logs.
	Name() string

	// Load returns a freshly built layer. It must not retain or reuse
	// values between calls.
	Load(ctx context.Context) (C, error)
}

// Loader merges layered sources, lowest precedence first.
//
// The merge is field-wise: a non-zero field in a later layer replaces the
// same field of earlier layers, maps are merged key by key, and non-empty
// slices replace earlier slices. A later layer cannot reset a field to its
// zero value; use a non-zero sentinel or a pointer field for that.
//
// C must be a struct or a map type.
type Loader[C any] struct {
	sources []Source[C]
}

// NewLoader returns a Loader over sources, lowest precedence first.
func NewLoader[C any](sources ...Source[C]) *Loader[C] {
	return &Loader[C]{sources: sources}
}

// Sources returns the names of the configured sources in precedence order.
func (l *Loader[C]) Sources() []string {
	names := make([]string, len(l.sources))
	for i, src := range l.sources {
		names[i] = src.Name()
	}
	return names
}

// Load builds the merged configuration. Loading the same unchanged sources
// twice yields equal values.
func (l *Loader[C]) Load(ctx context.Context) (C, error) {
	var merged, zero C

	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		layer, err := src.Load(ctx)
		if err != nil {
			var le *LoadError
			if !errors.As(err, &le) {
				err = &LoadError{Source: src.Name(), Reason: ReasonUnreadable, Err: err}
			}
			return zero, err
		}

		if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
			return zero, &LoadError{Source: src.Name(), Reason: ReasonMerge, Err: err}
		}
	}

	if field := missingRequired(reflect.ValueOf(merged), ""); field != "" {
		return zero, &LoadError{
			Source: "merged",
			Reason: ReasonMissingField,
			Field:  field,
			Err:    fmt.Errorf("field %s is required", field),
		}
	}

	return merged, nil
}

// LoadFunc adapts a function to the Source interface.
type LoadFunc[C any] struct {
	name string
	fn   func(ctx context.Context) (C, error)
}

// SourceFunc returns a Source named name that calls fn.
func SourceFunc[C any](name string, fn func(ctx context.Context) (C, error)) *LoadFunc[C] {
	return &LoadFunc[C]{name: name, fn: fn}
}

// Name returns the source name.
func (s *LoadFunc[C]) Name() string { return s.name }

// Load calls the wrapped function.
func (s *LoadFunc[C]) Load(ctx context.Context) (C, error) { return s.fn(ctx) }

// Defaults returns the lowest layer. fn is called on every load and must
// return a fresh value each time.
func Defaults[C any](fn func() C) Source[C] {
	return SourceFunc("defaults", func(context.Context) (C, error) {
		return fn(), nil
	})
}

// missingRequired returns the path of the first field tagged
// required:"true" that holds its zero value, or "" if there is none.
func missingRequired(v reflect.Value, prefix string) string {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ""
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := fieldName(f)
		if name == "-" {
			continue
		}
		path := joinPath(prefix, name)
		fv := v.Field(i)

		if f.Tag.Get("required") == "true" && fv.IsZero() {
			return path
		}
		if fv.Kind() == reflect.Struct || fv.Kind() == reflect.Pointer {
			if missing := missingRequired(fv, path); missing != "" {
				return missing
			}
		}
	}
	return ""
}

// fieldName returns the configuration key of a struct field, preferring
// the yaml tag, then toml, then json, then the lowercased Go name.
func fieldName(f reflect.StructField) string {
	for _, key := range []string{"yaml", "toml", "json"} {
		tag := f.Tag.Get(key)
		if tag == "" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}
	return strings.ToLower(f.Name)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
