// Package docfile reads and writes documents as YAML files so they can be
// imported into and exported from the store.
package docfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valpere/doctran/internal/document"
)

// File is the on-disk layout of a document.
type File struct {
	ID          string               `yaml:"id,omitempty"`
	Entity      string               `yaml:"entity"`
	Project     string               `yaml:"project"`
	Title       string               `yaml:"title"`
	Description string               `yaml:"description,omitempty"`
	Blocks      []document.WireBlock `yaml:"blocks"`
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(r io.Reader) (*document.Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty document file")
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if f.Title == "" {
		return nil, fmt.Errorf("document has no title")
	}

	blocks, err := document.DecodeBlocks(f.Blocks)
	if err != nil {
		return nil, err
	}
	return &document.Document{
		ID:          f.ID,
		Entity:      f.Entity,
		Project:     f.Project,
		Title:       f.Title,
		Description: f.Description,
		Blocks:      blocks,
	}, nil
}

func Read(path string) (*document.Document, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	doc, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes doc as YAML.
func Marshal(doc *document.Document) ([]byte, error) {
	blocks, err := document.EncodeBlocks(doc.Blocks)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(File{
		ID:          doc.ID,
		Entity:      doc.Entity,
		Project:     doc.Project,
		Title:       doc.Title,
		Description: doc.Description,
		Blocks:      blocks,
	}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Write(path string, doc *document.Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
