package domain

import "strings"

// RegionClimate is the coarse aridity class of a region.
type RegionClimate string

const (
	ClimateDesert     RegionClimate = "desert"
	ClimateSemiDesert RegionClimate = "semi-desert"
	ClimateTemperate  RegionClimate = "temperate"
)

// desertRegions are Saharan wilayas where only desert-suitable crops are viable.
var desertRegions = map[string]bool{
	"adrar": true, "tamanrasset": true, "ouargla": true, "bechar": true,
	"illizi": true, "tindouf": true, "in salah": true, "djanet": true,
}

// semiDesertRegions sit on the pre-Saharan fringe: oasis agriculture works,
// rain-fed thirsty crops do not.
var semiDesertRegions = map[string]bool{
	"biskra": true, "el oued": true, "ghardaia": true, "laghouat": true,
	"naama": true, "el bayadh": true, "touggourt": true,
}

// ClassifyRegion maps a region name to its climate class. Unknown regions are
// treated as temperate so the climate penalty is never applied on a guess.
func ClassifyRegion(region string) RegionClimate {
	r := strings.ToLower(strings.TrimSpace(region))
	if desertRegions[r] {
		return ClimateDesert
	}
	if semiDesertRegions[r] {
		return ClimateSemiDesert
	}
	return ClimateTemperate
}

// IsArid reports whether the class carries the desert penalty.
func (c RegionClimate) IsArid() bool {
	return c == ClimateDesert || c == ClimateSemiDesert
}
