package payroll

import "context"

// StoreAPI is a persistent source of insurance schedules.
type StoreAPI interface {
	ListInsuranceItems(ctx context.Context) (CitySchedules, error)
	ListMinWages(ctx context.Context) (MinWageTable, error)
}
