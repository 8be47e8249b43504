package transform

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

// DefaultAliases maps alternate column spellings to canonical names.
// "logitud" is how the legacy store-location table spells it.
var DefaultAliases = map[string]string{
	"logitud": models.ColLongitude,
	"ano":     models.ColYear,
}

// Normalizer renames alternate column names to canonical ones.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a normalizer from DefaultAliases plus extra pairs.
// Extra pairs win over defaults for the same alternate name.
func NewNormalizer(extra map[string]string) *Normalizer {
	aliases := make(map[string]string, len(DefaultAliases)+len(extra))
	for alt, canonical := range DefaultAliases {
		aliases[alt] = canonical
	}
	for alt, canonical := range extra {
		alt = strings.ToLower(strings.TrimSpace(alt))
		canonical = strings.ToLower(strings.TrimSpace(canonical))
		if alt == "" || canonical == "" || alt == canonical {
			continue
		}
		aliases[alt] = canonical
	}
	return &Normalizer{aliases: aliases}
}

// aliasFile is the YAML layout of OBEYA_ALIAS_FILE:
//
//	aliases:
//	  longitude: longitud
//	  store: almacen
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliasFile reads extra alias pairs from a YAML file.
func LoadAliasFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading alias file: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing alias file %s: %w", path, err)
	}
	return f.Aliases, nil
}

// Normalize returns a frame that uses canonical names. An alternate is only
// renamed when its canonical name is absent, so canonical columns always win.
// The input frame is not modified.
func (n *Normalizer) Normalize(frame *models.Frame) *models.Frame {
	renames := make(map[string]string)
	taken := make(map[string]bool)
	for _, col := range frame.Columns() {
		taken[col] = true
	}
	for _, col := range frame.Columns() {
		canonical, ok := n.aliases[col]
		if !ok || taken[canonical] {
			continue
		}
		renames[col] = canonical
		taken[canonical] = true
	}
	return frame.Rename(renames)
}
