package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Supported file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// FileSource loads one configuration file. The format is taken from Format,
// or from the file extension when Format is empty.
type FileSource[C any] struct {
	// Path is the file to read.
	Path string

	// Format overrides extension detection: "yaml", "toml" or "json".
	Format string

	// Optional turns a missing file into an empty layer.
	Optional bool

	// Strict rejects keys that do not map to a field of C.
	Strict bool
}

// File returns a required, non-strict source for path.
func File[C any](path string) *FileSource[C] {
	return &FileSource[C]{Path: path}
}

// Name returns "file:<path>".
func (s *FileSource[C]) Name() string { return "file:" + s.Path }

// Load reads and decodes the file.
func (s *FileSource[C]) Load(ctx context.Context) (C, error) {
	var zero C

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if s.Optional && errors.Is(err, fs.ErrNotExist) {
			return zero, nil
		}
		return zero, &LoadError{Source: s.Name(), Reason: ReasonUnreadable, Err: err}
	}

	format := s.Format
	if format == "" {
		format = FormatForPath(s.Path)
	}
	if format == "" {
		return zero, &LoadError{
			Source: s.Name(),
			Reason: ReasonParse,
			Err:    fmt.Errorf("unsupported file extension %q", filepath.Ext(s.Path)),
		}
	}

	v, err := decode[C](data, format, s.Strict)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = s.Name()
			return zero, le
		}
		return zero, &LoadError{Source: s.Name(), Reason: ReasonParse, Err: err}
	}
	return v, nil
}

// FormatForPath returns the format implied by path's extension, or "" if
// the extension is not recognized.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return ""
	}
}

func decode[C any](data []byte, format string, strict bool) (C, error) {
	var v C

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(&v); err != nil && !errors.Is(err, io.EOF) {
			var typeErr *yaml.TypeError
			if errors.As(err, &typeErr) {
				return v, &LoadError{Reason: ReasonTypeMismatch, Err: err}
			}
			return v, &LoadError{Reason: ReasonParse, Err: err}
		}

	case FormatTOML:
		md, err := toml.Decode(string(data), &v)
		if err != nil {
			reason := ReasonParse
			if strings.Contains(err.Error(), "incompatible types") {
				reason = ReasonTypeMismatch
			}
			return v, &LoadError{Reason: reason, Err: err}
		}
		if strict {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return v, &LoadError{
					Reason: ReasonParse,
					Field:  undecoded[0].String(),
					Err:    fmt.Errorf("%d unknown key(s)", len(undecoded)),
				}
			}
		}

	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&v); err != nil && !errors.Is(err, io.EOF) {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return v, &LoadError{Reason: ReasonTypeMismatch, Field: typeErr.Field, Err: err}
			}
			return v, &LoadError{Reason: ReasonParse, Err: err}
		}

	default:
		return v, &LoadError{Reason: ReasonParse, Err: fmt.Errorf("unsupported format %q", format)}
	}

	return v, nil
}

// DirSource loads every matching file in a directory, in lexical order,
// and merges them into one layer. Hidden files are skipped.
type DirSource[C any] struct {
	// Path is the directory to scan. Subdirectories are not descended.
	Path string

	// Extensions filters files by extension, including the dot.
	// Empty means .yaml, .yml, .toml and .json.
	Extensions []string

	// Optional turns a missing directory into an empty layer.
	Optional bool

	// Strict is passed to each file.
	Strict bool
}

// Dir returns a source over the files in path with the given extensions.
func Dir[C any](path string, exts ...string) *DirSource[C] {
	return &DirSource[C]{Path: path, Extensions: exts}
}

// Name returns "dir:<path>".
func (s *DirSource[C]) Name() string { return "dir:" + s.Path }

// Files returns the files that Load would read, in order.
func (s *DirSource[C]) Files() ([]string, error) {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return nil, err
	}

	exts := s.Extensions
	if len(exts) == 0 {
		exts = []string{".yaml", ".yml", ".toml", ".json"}
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !hasExtension(name, exts) {
			continue
		}
		files = append(files, filepath.Join(s.Path, name))
	}
	sort.Strings(files)
	return files, nil
}

// Load merges all matching files.
func (s *DirSource[C]) Load(ctx context.Context) (C, error) {
	var merged, zero C

	files, err := s.Files()
	if err != nil {
		if s.Optional && errors.Is(err, fs.ErrNotExist) {
			return zero, nil
		}
		return zero, &LoadError{Source: s.Name(), Reason: ReasonUnreadable, Err: err}
	}

	for _, path := range files {
		file := &FileSource[C]{Path: path, Strict: s.Strict}
		layer, err := file.Load(ctx)
		if err != nil {
			return zero, err
		}
		if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
			return zero, &LoadError{Source: file.Name(), Reason: ReasonMerge, Err: err}
		}
	}
	return merged, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
