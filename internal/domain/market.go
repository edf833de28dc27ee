package domain

import "time"

// MarketObservation is a point-in-time market snapshot for one crop.
// Used only when no trained model bundle is available.
type MarketObservation struct {
	Crop             string    `json:"crop"`
	Date             time.Time `json:"date"`
	PricePerKg       float64   `json:"price_per_kg"` // DA/kg
	DemandIndex      float64   `json:"demand_index"` // 1.0 = normal demand
	SupplyVolumeTons float64   `json:"supply_volume_tons"`
}

// SupplyDemandRatio is supply relative to normalized demand. Values above 1.0
// indicate supply already exceeds demand at current levels.
func (m MarketObservation) SupplyDemandRatio() float64 {
	demand := m.DemandIndex
	if demand <= 0 {
		demand = 1.0
	}
	return m.SupplyVolumeTons / (demand * 1000)
}
