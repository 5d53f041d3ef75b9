package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docsense/internal/core/classify"
	"github.com/joseph-ayodele/docsense/internal/core/fields"
)

// Manifest describes the model assets a deployment ships with.
//
//	version: 1
//	ocr:
//	  lang: eng+deu
//	  psm: 4
//	ner: true
//	keywords:
//	  - {type: Invoice, phrase: purchase order, weight: 2}
//	gazetteer:
//	  - {phrase: ABC Solutions Pvt Ltd, label: ORG}
type Manifest struct {
	Version   int                     `yaml:"version"`
	OCR       ManifestOCR             `yaml:"ocr"`
	NER       *bool                   `yaml:"ner"`
	Keywords  []classify.Keyword      `yaml:"keywords"`
	Gazetteer []fields.GazetteerEntry `yaml:"gazetteer"`
}

type ManifestOCR struct {
	Lang string `yaml:"lang"`
	PSM  int    `yaml:"psm"`
	OEM  int    `yaml:"oem"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Version > 1 {
		return nil, fmt.Errorf("manifest version %d is not supported", m.Version)
	}
	for i, k := range m.Keywords {
		if !k.Type.IsSpecific() {
			return nil, fmt.Errorf("manifest keyword %d: unknown document type %q", i, k.Type)
		}
	}
	return &m, nil
}
