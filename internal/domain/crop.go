package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Crop is static agronomic reference data for one crop.
type Crop struct {
	Name               string  `json:"name" yaml:"name"`
	IdealPHMin         float64 `json:"ideal_ph_min" yaml:"ideal_ph_min"`
	IdealPHMax         float64 `json:"ideal_ph_max" yaml:"ideal_ph_max"`
	WaterRequirementMM float64 `json:"water_requirement_mm" yaml:"water_requirement_mm"`
	GrowingDays        int     `json:"growing_days" yaml:"growing_days"`
	BaseYieldPerHa     float64 `json:"base_yield_per_ha" yaml:"base_yield_per_ha"`

	// Requirements is nil for crops scored under the generic desert rules.
	Requirements *CropRequirements `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// CropRequirements are hard climate and soil constraints for crops with
// known strict tolerances. Violations dominate the soil score.
type CropRequirements struct {
	MaxTempC          float64       `json:"max_temp_c" yaml:"max_temp_c"`
	MinRainMM         float64       `json:"min_rain_mm" yaml:"min_rain_mm"`
	DesertSuitable    bool          `json:"desert_suitable" yaml:"desert_suitable"`
	PreferredTextures []SoilTexture `json:"preferred_textures" yaml:"preferred_textures"`
}

// PrefersTexture reports whether t is among the crop's preferred textures.
// An empty preference list accepts every texture.
func (r *CropRequirements) PrefersTexture(t SoilTexture) bool {
	if r == nil || len(r.PreferredTextures) == 0 {
		return true
	}
	for _, p := range r.PreferredTextures {
		if p == t {
			return true
		}
	}
	return false
}

// Catalog holds the crop reference table, indexed by name.
type Catalog struct {
	crops map[string]Crop
	order []string
}

// NewCatalog builds a catalog from a crop list. Later duplicates overwrite
// earlier entries.
func NewCatalog(crops []Crop) *Catalog {
	c := &Catalog{crops: make(map[string]Crop, len(crops))}
	for _, crop := range crops {
		if _, seen := c.crops[crop.Name]; !seen {
			c.order = append(c.order, crop.Name)
		}
		c.crops[crop.Name] = crop
	}
	return c
}

// LoadCatalog reads a YAML crop catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read crop catalog: %w", err)
	}
	var file struct {
		Crops []Crop `yaml:"crops"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse crop catalog: %w", err)
	}
	if len(file.Crops) == 0 {
		return nil, fmt.Errorf("crop catalog %s contains no crops", path)
	}
	return NewCatalog(file.Crops), nil
}

// Lookup returns the crop by name.
func (c *Catalog) Lookup(name string) (Crop, bool) {
	crop, ok := c.crops[name]
	return crop, ok
}

// Names returns crop names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of crops in the catalog.
func (c *Catalog) Len() int { return len(c.crops) }

// overPlanted lists crops that smallholders habitually over-plant, earning an
// extra risk penalty once supply already exceeds demand.
var overPlanted = map[string]bool{
	"Potato":     true,
	"Tomato":     true,
	"Onion":      true,
	"Watermelon": true,
}

// IsOverPlanted reports whether the crop is on the commonly over-planted list.
func IsOverPlanted(crop string) bool { return overPlanted[crop] }

// DefaultCatalog returns the built-in crop table, used when no catalog file
// is configured. Values mirror the curated seed dataset.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Crop{
		{
			Name: "Potato", IdealPHMin: 5.0, IdealPHMax: 6.5, WaterRequirementMM: 500, GrowingDays: 110, BaseYieldPerHa: 30,
			Requirements: &CropRequirements{MaxTempC: 30, MinRainMM: 60, PreferredTextures: []SoilTexture{TextureLoam, TextureSilt}},
		},
		{
			Name: "Tomato", IdealPHMin: 6.0, IdealPHMax: 6.8, WaterRequirementMM: 600, GrowingDays: 130, BaseYieldPerHa: 45,
			Requirements: &CropRequirements{MaxTempC: 35, MinRainMM: 50, PreferredTextures: []SoilTexture{TextureLoam, TextureSilt}},
		},
		{
			Name: "Onion", IdealPHMin: 6.0, IdealPHMax: 7.0, WaterRequirementMM: 450, GrowingDays: 120, BaseYieldPerHa: 35,
			Requirements: &CropRequirements{MaxTempC: 33, MinRainMM: 40, PreferredTextures: []SoilTexture{TextureLoam, TextureSilt, TextureClay}},
		},
		{
			Name: "Wheat", IdealPHMin: 6.0, IdealPHMax: 7.5, WaterRequirementMM: 450, GrowingDays: 150, BaseYieldPerHa: 3.5,
			Requirements: &CropRequirements{MaxTempC: 32, MinRainMM: 45, PreferredTextures: []SoilTexture{TextureLoam, TextureClay}},
		},
		{Name: "Barley", IdealPHMin: 6.0, IdealPHMax: 8.0, WaterRequirementMM: 350, GrowingDays: 130, BaseYieldPerHa: 3},
		{
			Name: "Dates", IdealPHMin: 7.0, IdealPHMax: 8.0, WaterRequirementMM: 250, GrowingDays: 200, BaseYieldPerHa: 8,
			Requirements: &CropRequirements{MaxTempC: 45, MinRainMM: 0, DesertSuitable: true, PreferredTextures: []SoilTexture{TextureSand, TextureLoam}},
		},
		{
			Name: "Olives", IdealPHMin: 6.5, IdealPHMax: 8.0, WaterRequirementMM: 300, GrowingDays: 180, BaseYieldPerHa: 5,
			Requirements: &CropRequirements{MaxTempC: 40, MinRainMM: 20, DesertSuitable: true, PreferredTextures: []SoilTexture{TextureLoam, TextureClay, TextureSand}},
		},
		{Name: "Watermelon", IdealPHMin: 6.0, IdealPHMax: 7.0, WaterRequirementMM: 400, GrowingDays: 90, BaseYieldPerHa: 40},
		{Name: "Carrot", IdealPHMin: 6.0, IdealPHMax: 7.0, WaterRequirementMM: 400, GrowingDays: 75, BaseYieldPerHa: 35},
		{Name: "Lettuce", IdealPHMin: 6.0, IdealPHMax: 7.0, WaterRequirementMM: 300, GrowingDays: 60, BaseYieldPerHa: 25},
	})
}
