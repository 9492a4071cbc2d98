package config

import (
	"reflect"
	"sort"
)

// Diff returns the dotted paths of leaf fields that differ between old and
// updated, sorted. Struct fields are compared recursively; every other
// value, including maps and slices, is compared as a whole.
func Diff[C any](old, updated C) []string {
	var paths []string
	diffValue(reflect.ValueOf(old), reflect.ValueOf(updated), "", &paths)
	sort.Strings(paths)
	return paths
}

func diffValue(a, b reflect.Value, path string, out *[]string) {
	if !a.IsValid() || !b.IsValid() {
		if a.IsValid() != b.IsValid() {
			*out = append(*out, rootPath(path))
		}
		return
	}

	if a.Kind() == reflect.Struct && a.Type() == b.Type() && hasExportedFields(a.Type()) {
		t := a.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := fieldName(f)
			if name == "-" {
				continue
			}
			diffValue(a.Field(i), b.Field(i), joinPath(path, name), out)
		}
		return
	}

	if !reflect.DeepEqual(a.Interface(), b.Interface()) {
		*out = append(*out, rootPath(path))
	}
}

func hasExportedFields(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).IsExported() {
			return true
		}
	}
	return false
}

func rootPath(path string) string {
	if path == "" {
		return "."
	}
	return path
}
