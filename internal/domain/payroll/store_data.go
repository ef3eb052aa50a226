package payroll

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListInsuranceItems(ctx context.Context) (CitySchedules, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT city, name, base_min::text, base_max::text, company_rate::text, personal_rate::text,
           is_mandatory, COALESCE(description, '')
    FROM insurance_items
    ORDER BY city, position
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := CitySchedules{}
	for rows.Next() {
		var city string
		var entry itemEntry
		var mandatory bool
		if err := rows.Scan(&city, &entry.Name, &entry.BaseMin, &entry.BaseMax, &entry.CompanyRate, &entry.PersonalRate, &mandatory, &entry.Description); err != nil {
			return nil, err
		}
		entry.Mandatory = &mandatory
		item, err := entry.toItem()
		if err != nil {
			return nil, fmt.Errorf("city %s: %w", city, err)
		}
		schedules[city] = append(schedules[city], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *Store) ListMinWages(ctx context.Context) (MinWageTable, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT city, amount::text
    FROM city_min_wages
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wages := MinWageTable{}
	for rows.Next() {
		var city, raw string
		if err := rows.Scan(&city, &raw); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("city %s min wage: %w", city, err)
		}
		wages[city] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return wages, nil
}

// LoadConfigFromStore reads every schedule once. An empty store is an error so
// a misconfigured database never silently produces zero contributions.
func LoadConfigFromStore(ctx context.Context, store StoreAPI) (*Config, error) {
	schedules, err := store.ListInsuranceItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load insurance items: %w", err)
	}
	wages, err := store.ListMinWages(ctx)
	if err != nil {
		return nil, fmt.Errorf("load min wages: %w", err)
	}
	if len(schedules) == 0 && len(wages) == 0 {
		return nil, fmt.Errorf("insurance schedule store is empty")
	}
	cfg := &Config{Schedules: schedules, MinWages: wages, Brackets: DefaultTaxBrackets()}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
