// Package pricing quotes approximate ticket fares for destination cities.
package pricing

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// NotSpecified is returned when no city is given.
const NotSpecified = "Şehir belirtilmedi."

//go:embed fares.yaml
var faresYAML []byte

// Table is a fare lookup table.
type Table struct {
	Currency string         `yaml:"currency"`
	Default  int            `yaml:"default"`
	Fares    map[string]int `yaml:"fares"`
}

var defaultTable = mustParse(faresYAML)

// Parse decodes a YAML fare table. City keys are lower-cased.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("pricing: parse fares: %w", err)
	}
	if t.Currency == "" {
		return nil, fmt.Errorf("pricing: fares: currency is required")
	}
	if t.Default <= 0 {
		return nil, fmt.Errorf("pricing: fares: default must be positive, got %d", t.Default)
	}
	fares := make(map[string]int, len(t.Fares))
	for city, fare := range t.Fares {
		fares[strings.ToLower(city)] = fare
	}
	t.Fares = fares
	return &t, nil
}

func mustParse(data []byte) *Table {
	t, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return t
}

// Default returns the built-in fare table.
func Default() *Table {
	return defaultTable
}

// Fare returns the fare for city, falling back to the table default.
func (t *Table) Fare(city string) int {
	if fare, ok := t.Fares[strings.ToLower(strings.TrimSpace(city))]; ok {
		return fare
	}
	return t.Default
}

// Quote returns a human-readable fare sentence for city.
func (t *Table) Quote(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return NotSpecified
	}
	return fmt.Sprintf("%s için yaklaşık bilet fiyatı: %d %s", Title(city), t.Fare(city), t.Currency)
}

// Quote quotes city against the built-in table.
func Quote(city string) string {
	return defaultTable.Quote(city)
}

// Title upper-cases the first letter of each word and lower-cases the rest.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}
