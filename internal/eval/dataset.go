// ABOUTME: Evaluation dataset definitions loaded from YAML
// ABOUTME: A dataset lists documents to ingest and question cases with ground truth

package eval

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset is a set of evaluation cases over a corpus of documents
type Dataset struct {
	Name      string     `yaml:"name"`
	Documents []Document `yaml:"documents"`
	Cases     []Case     `yaml:"cases"`

	// dir resolves relative document paths
	dir string
}

// Document is ingested before the cases run. Exactly one of Path or
// Text is set; relative paths resolve against the dataset file.
type Document struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	Text   string `yaml:"text"`
}

// Case is one question with its ground truth
type Case struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Question string `yaml:"question"`

	// ExpectedContext are strings the retrieved chunks must contain
	ExpectedContext []string `yaml:"expected_context"`
	// ExpectedAnswer are strings the answer must contain
	ExpectedAnswer []string `yaml:"expected_answer"`
	// ForbiddenAnswer are strings the answer must not contain
	ForbiddenAnswer []string `yaml:"forbidden_answer"`
}

// LoadDataset reads and validates the YAML dataset at path
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	ds.dir = filepath.Dir(path)
	if ds.Name == "" {
		ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset %s: %w", path, err)
	}
	return &ds, nil
}

// Validate checks that every case is answerable and IDs are unique
func (d *Dataset) Validate() error {
	var errs []error
	if len(d.Cases) == 0 {
		errs = append(errs, errors.New("dataset has no cases"))
	}

	seen := make(map[string]bool, len(d.Cases))
	for i, c := range d.Cases {
		switch {
		case c.ID == "":
			errs = append(errs, fmt.Errorf("case %d: id is required", i))
		case seen[c.ID]:
			errs = append(errs, fmt.Errorf("case %s: duplicate id", c.ID))
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Question) == "" {
			errs = append(errs, fmt.Errorf("case %s: question is required", c.ID))
		}
	}

	for i, doc := range d.Documents {
		if (doc.Path == "") == (doc.Text == "") {
			errs = append(errs, fmt.Errorf("document %d: set exactly one of path or text", i))
		}
		if doc.Text != "" && doc.Source == "" {
			errs = append(errs, fmt.Errorf("document %d: inline text needs a source", i))
		}
	}
	return errors.Join(errs...)
}

// Case returns the case with the given id
func (d *Dataset) Case(id string) (Case, bool) {
	for _, c := range d.Cases {
		if c.ID == id {
			return c, true
		}
	}
	return Case{}, false
}

// resolve returns the document path relative to the dataset file
func (d *Dataset) resolve(doc Document) string {
	if doc.Path == "" || filepath.IsAbs(doc.Path) || d.dir == "" {
		return doc.Path
	}
	return filepath.Join(d.dir, doc.Path)
}
