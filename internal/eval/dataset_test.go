// ABOUTME: Tests for loading and validating evaluation datasets
// ABOUTME: Uses the bundled sample dataset and inline YAML fixtures

package eval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDataset(t *testing.T) {
	ds, err := LoadDataset("testdata/sample.yaml")
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if ds.Name != "pets-and-rockets" {
		t.Errorf("Name = %s, want pets-and-rockets", ds.Name)
	}
	if len(ds.Documents) != 2 {
		t.Fatalf("got %d documents, want 2", len(ds.Documents))
	}
	if got := ds.resolve(ds.Documents[0]); got != filepath.Join("testdata", "pets.txt") {
		t.Errorf("resolve() = %s, want testdata/pets.txt", got)
	}
	if len(ds.Cases) != 2 {
		t.Fatalf("got %d cases, want 2", len(ds.Cases))
	}

	c, ok := ds.Case("cats-sleep")
	if !ok {
		t.Fatal("Case(cats-sleep) not found")
	}
	if len(c.ExpectedContext) != 1 || c.ExpectedContext[0] != "warm sunny places" {
		t.Errorf("ExpectedContext = %v", c.ExpectedContext)
	}
	if len(c.ForbiddenAnswer) != 1 || c.ForbiddenAnswer[0] != "orbit" {
		t.Errorf("ForbiddenAnswer = %v", c.ForbiddenAnswer)
	}
	if _, ok := ds.Case("missing"); ok {
		t.Error("Case(missing) should not be found")
	}
}

func TestLoadDataset_NameDefaultsToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoke.yaml")
	body := "cases:\n  - id: one\n    question: What is this?\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset() error = %v", err)
	}
	if ds.Name != "smoke" {
		t.Errorf("Name = %s, want smoke", ds.Name)
	}
}

func TestDatasetValidate(t *testing.T) {
	tests := []struct {
		name    string
		ds      Dataset
		wantErr string
	}{
		{"no cases", Dataset{}, "no cases"},
		{"missing id", Dataset{Cases: []Case{{Question: "q"}}}, "id is required"},
		{"duplicate id", Dataset{Cases: []Case{{ID: "a", Question: "q"}, {ID: "a", Question: "q"}}}, "duplicate id"},
		{"blank question", Dataset{Cases: []Case{{ID: "a", Question: " "}}}, "question is required"},
		{
			"document with path and text",
			Dataset{Cases: []Case{{ID: "a", Question: "q"}}, Documents: []Document{{Path: "p", Text: "t", Source: "s"}}},
			"exactly one",
		},
		{
			"inline text without source",
			Dataset{Cases: []Case{{ID: "a", Question: "q"}}, Documents: []Document{{Text: "t"}}},
			"needs a source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	valid := Dataset{Cases: []Case{{ID: "a", Question: "q"}}, Documents: []Document{{Path: "doc.pdf"}}}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on a valid dataset error = %v", err)
	}
}

func TestLoadDataset_Errors(t *testing.T) {
	if _, err := LoadDataset(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("LoadDataset() on a missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("cases: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDataset(path); err == nil {
		t.Error("LoadDataset() on malformed YAML should fail")
	}
}
