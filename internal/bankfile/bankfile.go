// Package bankfile reads and writes portable question bank documents.
package bankfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/abhisek/quizpool/internal/bank"
)

// FormatVersion is written by Encode. Decode accepts any v1.x.y document.
const FormatVersion = "v1.0.0"

const schemaURL = "schema://quizpool/bank.json"

//go:embed schema.json
var schemaJSON []byte

var ErrUnsupportedVersion = errors.New("unsupported format version")

// InvalidError lists every problem found in a document.
type InvalidError struct {
	Issues []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid bank document:\n  %s", strings.Join(e.Issues, "\n  "))
}

type document struct {
	FormatVersion string     `json:"formatVersion"`
	Bank          *bank.Bank `json:"bank"`
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Decode reads a bank document. The document must match the bank schema,
// carry a v1 format version and describe a consistent bank.
func Decode(r io.Reader) (*bank.Bank, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bank document: %w", err)
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := schema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode bank document: %w", err)
	}
	if !semver.IsValid(doc.FormatVersion) || semver.Major(doc.FormatVersion) != semver.Major(FormatVersion) {
		return nil, fmt.Errorf("%w: %q (want %s.x.y)", ErrUnsupportedVersion, doc.FormatVersion, semver.Major(FormatVersion))
	}

	if issues := doc.Bank.Validate(); len(issues) > 0 {
		return nil, &InvalidError{Issues: issues}
	}
	return doc.Bank, nil
}

// Encode writes b as an indented document at the current format version.
func Encode(w io.Writer, b *bank.Bank) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{FormatVersion: FormatVersion, Bank: b}); err != nil {
		return fmt.Errorf("encode bank %q: %w", b.ID, err)
	}
	return nil
}
