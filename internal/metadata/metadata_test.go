package metadata

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_SQLBlock(t *testing.T) {
	source := `-- asset.name = daily_totals
-- asset.schema = analytics
-- asset.depends = raw.orders, raw.customers
select 1
`
	block, err := Parse("daily_totals.sql", source, "--")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	name, err := block.Single("daily_totals.sql", FieldName)
	if err != nil {
		t.Fatalf("Single(name) failed: %v", err)
	}
	if name != "daily_totals" {
		t.Errorf("expected name daily_totals, got %q", name)
	}

	deps, err := block.Depends("daily_totals.sql")
	if err != nil {
		t.Fatalf("Depends failed: %v", err)
	}
	if !reflect.DeepEqual(deps, []string{"raw.orders", "raw.customers"}) {
		t.Errorf("unexpected depends: %v", deps)
	}

	if !block.HasBody {
		t.Error("expected HasBody for file with a query")
	}
}

func TestParse_HashBlockWithShebang(t *testing.T) {
	source := `#!/usr/bin/env bash
# asset.name = loader
# asset.schema = raw
echo hello
`
	block, err := Parse("loader.sh", source, "#")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if name, _ := block.Single("loader.sh", FieldName); name != "loader" {
		t.Errorf("expected name loader, got %q", name)
	}
}

func TestParse_BlockStopsAtFirstNonComment(t *testing.T) {
	source := `-- asset.name = a
-- asset.schema = raw
select 1
-- asset.depends = raw.b
`
	block, err := Parse("a.sql", source, "--")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	deps, err := block.Depends("a.sql")
	if err != nil {
		t.Fatalf("Depends failed: %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("metadata after the body should be ignored, got depends %v", deps)
	}
}

func TestParse_BlankLinesInsideBlock(t *testing.T) {
	source := `-- asset.name = a

-- asset.schema = raw
select 1
`
	block, err := Parse("a.sql", source, "--")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := block.Single("a.sql", FieldSchema); err != nil {
		t.Errorf("schema after blank line should belong to the block: %v", err)
	}
}

func TestParse_MalformedFieldLine(t *testing.T) {
	source := `-- asset.name daily_totals
select 1
`
	_, err := Parse("a.sql", source, "--")
	var merr *MetadataError
	if !errors.As(err, &merr) {
		t.Fatalf("expected MetadataError, got %v", err)
	}
}

func TestParse_NoMetadata(t *testing.T) {
	_, err := Parse("a.sql", "select 1\n", "--")
	if err == nil {
		t.Error("expected error for file without metadata")
	}
}

func TestParse_NoBody(t *testing.T) {
	source := `-- asset.name = a
-- asset.schema = raw
`
	block, err := Parse("a.sql", source, "--")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if block.HasBody {
		t.Error("expected HasBody=false for metadata-only file")
	}
}

func TestSingle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"missing", "-- asset.schema = raw\nselect 1\n"},
		{"repeated", "-- asset.name = a\n-- asset.name = b\nselect 1\n"},
		{"empty value", "-- asset.name =\n-- asset.schema = raw\nselect 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := Parse("a.sql", tt.source, "--")
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if _, err := block.Single("a.sql", FieldName); err == nil {
				t.Error("expected error from Single")
			}
		})
	}
}

func TestIdentifier_Invalid(t *testing.T) {
	source := "-- asset.name = 1bad\n-- asset.schema = raw\nselect 1\n"
	block, err := Parse("a.sql", source, "--")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, err := block.Identifier("a.sql", FieldName); err == nil {
		t.Error("expected error for identifier starting with a digit")
	}
}

func TestDepends_RepeatableAndDeduplicated(t *testing.T) {
	source := `-- asset.name = a
-- asset.schema = marts
-- asset.depends = raw.x, raw.y
-- asset.depends = raw.x
select 1
`
	block, err := Parse("a.sql", source, "--")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	deps, err := block.Depends("a.sql")
	if err != nil {
		t.Fatalf("Depends failed: %v", err)
	}
	if !reflect.DeepEqual(deps, []string{"raw.x", "raw.y"}) {
		t.Errorf("expected deduplicated first-wins order, got %v", deps)
	}

	raw := block.RawDepends()
	if !reflect.DeepEqual(raw, []string{"raw.x", "raw.y", "raw.x"}) {
		t.Errorf("expected raw occurrences preserved, got %v", raw)
	}
}

func TestDepends_InvalidReference(t *testing.T) {
	tests := []string{"orders", "a.b.c", "raw.1bad", ".orders"}
	for _, ref := range tests {
		t.Run(ref, func(t *testing.T) {
			source := "-- asset.name = a\n-- asset.schema = raw\n-- asset.depends = " + ref + "\nselect 1\n"
			block, err := Parse("a.sql", source, "--")
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if _, err := block.Depends("a.sql"); err == nil {
				t.Errorf("expected error for reference %q", ref)
			}
		})
	}
}

func TestValidIdentifier(t *testing.T) {
	valid := []string{"orders", "_private", "Table1", "a_b_c"}
	for _, v := range valid {
		if !ValidIdentifier(v) {
			t.Errorf("expected %q to be valid", v)
		}
	}
	invalid := []string{"", "1a", "a-b", "a b", "a.b"}
	for _, v := range invalid {
		if ValidIdentifier(v) {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}
