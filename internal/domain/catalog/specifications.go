package catalog

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SpecificationsVersion is the only schema version of ProductSpecifications
// this release reads and writes.
const SpecificationsVersion = 1

// Specifications are the technical properties of a dry-mix product, stored
// in products.specifications.
type Specifications struct {
	SchemaVersion          int              `json:"schema_version"`
	CompressiveStrengthMPa *decimal.Decimal `json:"compressive_strength_mpa,omitempty"`
	SettingTimeMin         *int             `json:"setting_time_min,omitempty"`
	PotLifeMin             *int             `json:"pot_life_min,omitempty"`
	CoverageKgM2           *decimal.Decimal `json:"coverage_kg_m2,omitempty"`
	WaterDemandPct         *decimal.Decimal `json:"water_demand_pct,omitempty"`
	MaxAggregateMM         *decimal.Decimal `json:"max_aggregate_mm,omitempty"`
	ShelfLifeMonths        *int             `json:"shelf_life_months,omitempty"`
	Standards              []string         `json:"standards,omitempty"`
}

// Validate checks the schema version and that every measure is non-negative
func (s Specifications) Validate() error {
	var v shared.ValidationError
	v.Check(s.SchemaVersion == SpecificationsVersion, "specifications.schema_version",
		"unsupported schema version %d", s.SchemaVersion)

	for field, d := range map[string]*decimal.Decimal{
		"compressive_strength_mpa": s.CompressiveStrengthMPa,
		"coverage_kg_m2":           s.CoverageKgM2,
		"water_demand_pct":         s.WaterDemandPct,
		"max_aggregate_mm":         s.MaxAggregateMM,
	} {
		if d != nil {
			v.CheckNonNegative("specifications."+field, *d)
		}
	}
	for field, n := range map[string]*int{
		"setting_time_min":  s.SettingTimeMin,
		"pot_life_min":      s.PotLifeMin,
		"shelf_life_months": s.ShelfLifeMonths,
	} {
		if n != nil {
			v.Check(*n >= 0, "specifications."+field, "cannot be negative")
		}
	}
	if s.WaterDemandPct != nil {
		v.Check(s.WaterDemandPct.LessThanOrEqual(decimal.NewFromInt(100)),
			"specifications.water_demand_pct", "cannot exceed 100")
	}
	for _, std := range s.Standards {
		v.Check(std != "" && len(std) <= 50, "specifications.standards", "entries must be 1-50 characters")
	}
	return v.Err()
}
