package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type CorrectionStrategy string

const (
	// CorrectionToken replaces whole identifiers only, leaving string literals untouched.
	CorrectionToken CorrectionStrategy = "token"
	// CorrectionSubstring replaces every occurrence of an alias, wherever it appears.
	CorrectionSubstring CorrectionStrategy = "substring"
)

func ParseCorrectionStrategy(raw string) (CorrectionStrategy, error) {
	switch CorrectionStrategy(raw) {
	case "", CorrectionToken:
		return CorrectionToken, nil
	case CorrectionSubstring:
		return CorrectionSubstring, nil
	default:
		return "", fmt.Errorf("unknown correction strategy: %s", raw)
	}
}

type ColumnAlias struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// SchemaProfile describes the single view questions are answered against and the names
// a language model commonly invents for it.
type SchemaProfile struct {
	View          string        `yaml:"view" json:"view"`
	TableAliases  []string      `yaml:"table_aliases" json:"tableAliases"`
	ColumnAliases []ColumnAlias `yaml:"column_aliases" json:"columnAliases"`
}

func DefaultSchemaProfile() SchemaProfile {
	return SchemaProfile{
		View:         "Property_Tax_Summary_View",
		TableAliases: []string{"property_table", "properties"},
		ColumnAliases: []ColumnAlias{
			{From: "owner_name", To: "owner_name"},
			{From: "city", To: "city"},
			{From: "property_type", To: "property_type"},
			{From: "zip_code", To: "zip_code"},
		},
	}
}

func (slf SchemaProfile) Validate() error {
	if slf.View == "" {
		return errors.New("schema profile: view is empty")
	}
	for _, alias := range slf.TableAliases {
		if alias == "" {
			return errors.New("schema profile: empty table alias")
		}
	}
	for i, alias := range slf.ColumnAliases {
		if alias.From == "" || alias.To == "" {
			return fmt.Errorf("schema profile: column alias #%d is incomplete", i)
		}
	}
	return nil
}

// LoadSchemaProfile reads a YAML profile. An empty path yields the default profile.
func LoadSchemaProfile(path string) (SchemaProfile, error) {
	if path == "" {
		return DefaultSchemaProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return SchemaProfile{}, fmt.Errorf("read schema profile %s: %w", path, err)
	}

	var profile SchemaProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return SchemaProfile{}, fmt.Errorf("parse schema profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return SchemaProfile{}, err
	}
	return profile, nil
}
