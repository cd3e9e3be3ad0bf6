package envfile

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     []Variable
	}{
		{
			name:     "simple pairs with comment",
			contents: "API_KEY=sk_live_abcdef1234567890\n# comment\nDEBUG=true",
			want: []Variable{
				{Name: "API_KEY", RawValue: "sk_live_abcdef1234567890", IsSecret: true},
				{Name: "DEBUG", RawValue: "true", IsSecret: false},
			},
		},
		{
			name:     "empty input",
			contents: "",
			want:     nil,
		},
		{
			name:     "blank lines and indented comments skipped",
			contents: "\n\n   # indented comment\nHOST=localhost\n",
			want: []Variable{
				{Name: "HOST", RawValue: "localhost"},
			},
		},
		{
			name:     "value containing equals",
			contents: "DATABASE_URL=postgres://u:p@localhost/db?sslmode=disable",
			want: []Variable{
				{Name: "DATABASE_URL", RawValue: "postgres://u:p@localhost/db?sslmode=disable", IsSecret: true},
			},
		},
		{
			name:     "double quotes stripped",
			contents: `GREETING="hello world"`,
			want: []Variable{
				{Name: "GREETING", RawValue: "hello world"},
			},
		},
		{
			name:     "single quotes stripped",
			contents: "MODE='production'",
			want: []Variable{
				{Name: "MODE", RawValue: "production"},
			},
		},
		{
			name:     "mismatched quotes kept",
			contents: `ODD="half quoted`,
			want: []Variable{
				{Name: "ODD", RawValue: `"half quoted`},
			},
		},
		{
			name:     "no escape processing inside quotes",
			contents: `PATTERN="a\nb"`,
			want: []Variable{
				{Name: "PATTERN", RawValue: `a\nb`},
			},
		},
		{
			name:     "unparseable lines skipped",
			contents: "export FOO=bar\n123=nope\nVALID=yes\njust words",
			want: []Variable{
				{Name: "VALID", RawValue: "yes"},
			},
		},
		{
			name:     "later duplicate overwrites earlier keeping position",
			contents: "A=1\nB=2\nA=3",
			want: []Variable{
				{Name: "A", RawValue: "3"},
				{Name: "B", RawValue: "2"},
			},
		},
		{
			name:     "empty value",
			contents: "EMPTY_TOKEN=",
			want: []Variable{
				{Name: "EMPTY_TOKEN", RawValue: "", IsSecret: false},
			},
		},
		{
			name:     "whitespace around value trimmed before unquoting",
			contents: "PADDED=  spaced  ",
			want: []Variable{
				{Name: "PADDED", RawValue: "spaced"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.contents)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	contents := "API_KEY=sk_live_abcdef1234567890\nDEBUG=true\nDB_PASSWORD='hunter2'\n"

	first := Parse(contents)
	second := Parse(contents)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse is not idempotent: first %+v, second %+v", first, second)
	}
}

func TestParsePreservesFileOrder(t *testing.T) {
	contents := "ZULU=1\nALPHA=2\nMIKE=3"

	got := Parse(contents)

	wantOrder := []string{"ZULU", "ALPHA", "MIKE"}
	if len(got) != len(wantOrder) {
		t.Fatalf("Parse returned %d variables, want %d", len(got), len(wantOrder))
	}
	for i, name := range wantOrder {
		if got[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, got[i].Name, name)
		}
	}
}
