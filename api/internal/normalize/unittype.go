package normalize

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"condo-extract/api/internal/record"
)

//go:embed unittypes.yaml
var unitTypesYAML []byte

var unitTypes = mustLoadUnitTypes(unitTypesYAML)

func mustLoadUnitTypes(b []byte) map[string]record.UnitType {
	m, err := loadUnitTypes(b)
	if err != nil {
		panic(err)
	}
	return m
}

func loadUnitTypes(b []byte) (map[string]record.UnitType, error) {
	var table map[record.UnitType][]string
	if err := yaml.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("unit types table: %w", err)
	}
	out := make(map[string]record.UnitType)
	for typ, spellings := range table {
		switch typ {
		case record.Apartment, record.Garage, record.Room, record.Store, record.Other:
		default:
			return nil, fmt.Errorf("unit types table: unknown type %q", typ)
		}
		for _, s := range spellings {
			key := unitTypeKey(s)
			if prev, ok := out[key]; ok && prev != typ {
				return nil, fmt.Errorf("unit types table: %q listed under %s and %s", s, prev, typ)
			}
			out[key] = typ
		}
	}
	return out, nil
}

func unitTypeKey(s string) string {
	return strings.ToLower(strings.TrimRight(collapse(s), "."))
}

// UnitType maps a raw type text ("Apto", "Gar", "Lj.") to the canonical enum.
// The trimmed raw text is returned alongside. Empty input defaults to
// Apartment; unknown text is Other and Ambiguous.
func UnitType(raw string) (record.UnitType, string, Confidence) {
	text := collapse(raw)
	if text == "" {
		return record.Apartment, "", OK
	}
	if typ, ok := unitTypes[unitTypeKey(text)]; ok {
		return typ, text, OK
	}
	return record.Other, text, Ambiguous
}
