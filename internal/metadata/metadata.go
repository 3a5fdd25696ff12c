// Package metadata parses the asset.* metadata block from the leading
// comment lines of an asset file.
package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

// Field names with special meaning to the engine.
const (
	FieldName    = "name"
	FieldSchema  = "schema"
	FieldDepends = "depends"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	fieldLinePattern  = regexp.MustCompile(`^asset\.([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.*)$`)
)

// Block holds the parsed metadata of a single asset file.
// Fields keeps every occurrence of a field in source order, so callers can
// distinguish "declared twice" from "declared once".
type Block struct {
	Fields map[string][]string

	// HasBody reports whether any non-blank content follows the block.
	HasBody bool
}

// MetadataError reports a malformed or incomplete metadata block.
type MetadataError struct {
	Path    string
	Field   string
	Message string
}

func (e *MetadataError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: asset.%s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Parse scans the leading comment block of source, using the given comment
// prefix, and extracts asset.* fields.
//
// The block is the contiguous run of blank and comment lines at the top of
// the file; the first non-blank non-comment line terminates it. A shebang
// line is tolerated as preamble when it appears before any metadata, so
// script assets can start with #!/usr/bin/env bash.
func Parse(path, source, prefix string) (*Block, error) {
	block := &Block{Fields: make(map[string][]string)}

	lines := strings.Split(source, "\n")
	bodyStart := len(lines)

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if strings.HasPrefix(stripped, "#!") && len(block.Fields) == 0 {
			continue
		}
		if !strings.HasPrefix(stripped, prefix) {
			bodyStart = i
			break
		}

		content := strings.TrimSpace(stripped[len(prefix):])
		if !strings.HasPrefix(content, "asset.") {
			continue
		}
		m := fieldLinePattern.FindStringSubmatch(content)
		if m == nil {
			return nil, &MetadataError{Path: path, Message: fmt.Sprintf("invalid metadata line: %s", content)}
		}
		field, value := m[1], strings.TrimSpace(m[2])
		block.Fields[field] = append(block.Fields[field], value)
	}

	for _, line := range lines[min(bodyStart, len(lines)):] {
		if strings.TrimSpace(line) != "" {
			block.HasBody = true
			break
		}
	}

	if len(block.Fields) == 0 {
		return nil, &MetadataError{Path: path, Message: "missing asset metadata"}
	}

	return block, nil
}

// Single returns the value of a field that must appear exactly once with a
// non-empty value.
func (b *Block) Single(path, field string) (string, error) {
	values := b.Fields[field]
	switch {
	case len(values) == 0:
		return "", &MetadataError{Path: path, Field: field, Message: "required field is missing"}
	case len(values) > 1:
		return "", &MetadataError{Path: path, Field: field, Message: "must appear exactly once"}
	case values[0] == "":
		return "", &MetadataError{Path: path, Field: field, Message: "must have a value"}
	}
	return values[0], nil
}

// Identifier returns a Single value that must also be a valid identifier.
func (b *Block) Identifier(path, field string) (string, error) {
	value, err := b.Single(path, field)
	if err != nil {
		return "", err
	}
	if !identifierPattern.MatchString(value) {
		return "", &MetadataError{Path: path, Field: field, Message: fmt.Sprintf("invalid identifier %q", value)}
	}
	return value, nil
}

// Depends merges every occurrence of the depends field into a single
// ordered, deduplicated list of schema.table references. The first
// occurrence of a reference wins, so the order is stable across runs.
func (b *Block) Depends(path string) ([]string, error) {
	var deps []string
	seen := make(map[string]bool)
	for _, raw := range b.Fields[FieldDepends] {
		for _, item := range strings.Split(raw, ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if err := ValidateReference(path, item); err != nil {
				return nil, err
			}
			if seen[item] {
				continue
			}
			seen[item] = true
			deps = append(deps, item)
		}
	}
	return deps, nil
}

// RawDepends returns every declared dependency item without deduplication,
// for validation rules that care about repeated declarations.
func (b *Block) RawDepends() []string {
	var deps []string
	for _, raw := range b.Fields[FieldDepends] {
		for _, item := range strings.Split(raw, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				deps = append(deps, item)
			}
		}
	}
	return deps
}

// ValidateReference checks that value is a schema.table reference with both
// halves valid identifiers.
func ValidateReference(path, value string) error {
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return &MetadataError{
			Path:    path,
			Field:   FieldDepends,
			Message: fmt.Sprintf("invalid reference %q, expected schema.table", value),
		}
	}
	for _, part := range parts {
		if !identifierPattern.MatchString(part) {
			return &MetadataError{
				Path:    path,
				Field:   FieldDepends,
				Message: fmt.Sprintf("invalid reference %q, expected schema.table", value),
			}
		}
	}
	return nil
}

// ValidIdentifier reports whether value is usable as a schema or table name.
func ValidIdentifier(value string) bool {
	return identifierPattern.MatchString(value)
}
