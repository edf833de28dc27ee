package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRegion(t *testing.T) {
	tests := []struct {
		name     string
		region   string
		expected RegionClimate
	}{
		{"saharan wilaya", "Adrar", ClimateDesert},
		{"case insensitive", "TAMANRASSET", ClimateDesert},
		{"with whitespace", "  ouargla ", ClimateDesert},
		{"pre-saharan fringe", "Biskra", ClimateSemiDesert},
		{"oasis town", "El Oued", ClimateSemiDesert},
		{"coastal wilaya", "Algiers", ClimateTemperate},
		{"unknown region", "Atlantis", ClimateTemperate},
		{"empty", "", ClimateTemperate},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyRegion(tc.region))
		})
	}
}

func TestRegionClimate_IsArid(t *testing.T) {
	assert.True(t, ClimateDesert.IsArid())
	assert.True(t, ClimateSemiDesert.IsArid())
	assert.False(t, ClimateTemperate.IsArid())
}
