package payroll

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed schedules.yaml
var defaultSchedulesYAML []byte

type InsuranceItem struct {
	Name         string
	BaseMin      decimal.Decimal
	BaseMax      decimal.Decimal
	CompanyRate  decimal.Decimal
	PersonalRate decimal.Decimal
	Mandatory    bool
	Description  string
}

// IsHousingFund reports whether the item is rounded to whole units.
func (i InsuranceItem) IsHousingFund() bool {
	return strings.Contains(i.Name, HousingFundName) ||
		strings.EqualFold(strings.TrimSpace(i.Name), HousingFundAlias)
}

// CitySchedules maps a city key to its insurance items in presentation order.
type CitySchedules map[string][]InsuranceItem

// MinWageTable maps a city key to the monthly minimum wage used as basic salary.
type MinWageTable map[string]decimal.Decimal

// Config is the read-only calculation configuration shared by every row of a batch.
type Config struct {
	Schedules CitySchedules
	MinWages  MinWageTable
	Brackets  TaxBrackets
}

// Cities returns every configured city, sorted.
func (c *Config) Cities() []string {
	seen := make(map[string]struct{}, len(c.Schedules)+len(c.MinWages))
	for city := range c.Schedules {
		seen[city] = struct{}{}
	}
	for city := range c.MinWages {
		seen[city] = struct{}{}
	}
	cities := make([]string, 0, len(seen))
	for city := range seen {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

// KnownCity reports whether the city has either a schedule or a minimum wage.
func (c *Config) KnownCity(city string) bool {
	if _, ok := c.Schedules[city]; ok {
		return true
	}
	_, ok := c.MinWages[city]
	return ok
}

// RequireCity returns ErrUnknownCity for a city without schedule or wage.
func (c *Config) RequireCity(city string) error {
	if !c.KnownCity(city) {
		return fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return nil
}

func (c *Config) Validate() error {
	for city, items := range c.Schedules {
		for _, item := range items {
			if strings.TrimSpace(item.Name) == "" {
				return fmt.Errorf("city %s: insurance item name is required", city)
			}
			if item.CompanyRate.IsNegative() || item.PersonalRate.IsNegative() {
				return fmt.Errorf("city %s item %s: rates must be non-negative", city, item.Name)
			}
			if item.CompanyRate.GreaterThan(decimal.NewFromInt(1)) || item.PersonalRate.GreaterThan(decimal.NewFromInt(1)) {
				return fmt.Errorf("city %s item %s: rates must be fractions", city, item.Name)
			}
			if item.BaseMin.IsNegative() {
				return fmt.Errorf("city %s item %s: base_min must be non-negative", city, item.Name)
			}
		}
	}
	for city, wage := range c.MinWages {
		if wage.IsNegative() {
			return fmt.Errorf("city %s: minimum wage must be non-negative", city)
		}
	}
	return c.Brackets.Validate()
}

type scheduleFile struct {
	Cities []cityEntry `yaml:"cities"`
}

type cityEntry struct {
	Name    string      `yaml:"name"`
	MinWage string      `yaml:"min_wage"`
	Items   []itemEntry `yaml:"items"`
}

type itemEntry struct {
	Name         string `yaml:"name"`
	BaseMin      string `yaml:"base_min"`
	BaseMax      string `yaml:"base_max"`
	CompanyRate  string `yaml:"company_rate"`
	PersonalRate string `yaml:"personal_rate"`
	Mandatory    *bool  `yaml:"mandatory"`
	Description  string `yaml:"description"`
}

// DefaultConfig returns the built-in Hangzhou and Jiaxing schedules.
func DefaultConfig() (*Config, error) {
	return LoadConfig(bytes.NewReader(defaultSchedulesYAML))
}

// LoadConfig parses a YAML schedule document. Tax brackets are always the
// statutory defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	var file scheduleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode insurance schedules: %w", err)
	}

	cfg := &Config{
		Schedules: make(CitySchedules, len(file.Cities)),
		MinWages:  make(MinWageTable, len(file.Cities)),
		Brackets:  DefaultTaxBrackets(),
	}
	for _, entry := range file.Cities {
		city := strings.TrimSpace(entry.Name)
		if city == "" {
			return nil, fmt.Errorf("insurance schedules: city name is required")
		}
		if _, dup := cfg.Schedules[city]; dup {
			return nil, fmt.Errorf("insurance schedules: duplicate city %s", city)
		}
		if entry.MinWage != "" {
			wage, err := decimal.NewFromString(entry.MinWage)
			if err != nil {
				return nil, fmt.Errorf("city %s min_wage: %w", city, err)
			}
			cfg.MinWages[city] = wage
		}
		items := make([]InsuranceItem, 0, len(entry.Items))
		for _, raw := range entry.Items {
			item, err := raw.toItem()
			if err != nil {
				return nil, fmt.Errorf("city %s: %w", city, err)
			}
			items = append(items, item)
		}
		cfg.Schedules[city] = items
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (e itemEntry) toItem() (InsuranceItem, error) {
	item := InsuranceItem{
		Name:        strings.TrimSpace(e.Name),
		Mandatory:   true,
		Description: e.Description,
	}
	if e.Mandatory != nil {
		item.Mandatory = *e.Mandatory
	}
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"base_min", e.BaseMin, &item.BaseMin},
		{"base_max", e.BaseMax, &item.BaseMax},
		{"company_rate", e.CompanyRate, &item.CompanyRate},
		{"personal_rate", e.PersonalRate, &item.PersonalRate},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			*f.dst = decimal.Zero
			continue
		}
		v, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return InsuranceItem{}, fmt.Errorf("item %s %s: %w", item.Name, f.name, err)
		}
		*f.dst = v
	}
	return item, nil
}
