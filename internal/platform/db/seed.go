package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"xinan/internal/domain/payroll"
)

// Seed writes the built-in schedules when the insurance tables are empty.
func Seed(ctx context.Context, pool *pgxpool.Pool, defaults *payroll.Config) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM insurance_items").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, city := range defaults.Cities() {
		for position, item := range defaults.Schedules[city] {
			if _, err := tx.Exec(ctx, `
        INSERT INTO insurance_items (city, position, name, base_min, base_max, company_rate, personal_rate, is_mandatory, description)
        VALUES ($1,$2,$3,$4::numeric,$5::numeric,$6::numeric,$7::numeric,$8,$9)
      `, city, position, item.Name, item.BaseMin.String(), item.BaseMax.String(), item.CompanyRate.String(), item.PersonalRate.String(), item.Mandatory, item.Description); err != nil {
				return err
			}
		}
		if wage, ok := defaults.MinWages[city]; ok {
			if _, err := tx.Exec(ctx, `
        INSERT INTO city_min_wages (city, amount) VALUES ($1, $2::numeric)
        ON CONFLICT (city) DO NOTHING
      `, city, wage.String()); err != nil {
				return err
			}
		}
	}
	return tx.Commit(ctx)
}
