package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// EnvSource reads variables named PREFIX_SECTION_FIELD, where each segment is
// the upper-cased configuration key of a struct field. For example, with
// prefix "KEEPER" the field at logging.level is read from KEEPER_LOGGING_LEVEL.
//
// Supported field kinds are strings, booleans, integers, floats,
// time.Duration and []string (comma separated). Maps are not addressable
// through the environment.
type EnvSource[C any] struct {
	// Prefix is prepended to every variable name, without the trailing "_".
	Prefix string

	// Lookup reads a variable. Defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)
}

// Env returns a source reading variables with the given prefix.
func Env[C any](prefix string) *EnvSource[C] {
	return &EnvSource[C]{Prefix: prefix}
}

// Name returns "env:<prefix>".
func (s *EnvSource[C]) Name() string { return "env:" + s.Prefix }

// Load builds a layer holding only the variables that are set.
func (s *EnvSource[C]) Load(_ context.Context) (C, error) {
	var v C

	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	rv := reflect.ValueOf(&v).Elem()
	if rv.Kind() != reflect.Struct {
		return v, &LoadError{
			Source: s.Name(),
			Reason: ReasonTypeMismatch,
			Err:    fmt.Errorf("environment overrides require a struct, got %s", rv.Type()),
		}
	}

	if err := s.fill(rv, strings.ToUpper(s.Prefix), lookup); err != nil {
		return v, err
	}
	return v, nil
}

func (s *EnvSource[C]) fill(v reflect.Value, prefix string, lookup func(string) (string, bool)) error {
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

		key := strings.ToUpper(name)
		if prefix != "" {
			key = prefix + "_" + key
		}
		fv := v.Field(i)

		if fv.Kind() == reflect.Struct && fv.Type() != reflect.TypeOf(time.Time{}) {
			if err := s.fill(fv, key, lookup); err != nil {
				return err
			}
			continue
		}

		raw, ok := lookup(key)
		if !ok {
			continue
		}
		if err := setFromString(fv, raw); err != nil {
			return &LoadError{Source: s.Name(), Reason: ReasonTypeMismatch, Field: key, Err: err}
		}
	}
	return nil
}

// setFromString parses raw into v according to v's kind.
func setFromString(v reflect.Value, raw string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(n)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", v.Type())
		}
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(v.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p).Convert(v.Type().Elem()))
			}
		}
		v.Set(out)
	case reflect.Pointer:
		elem := reflect.New(v.Type().Elem())
		if err := setFromString(elem.Elem(), raw); err != nil {
			return err
		}
		v.Set(elem)
	default:
		return fmt.Errorf("unsupported field type %s", v.Type())
	}
	return nil
}
