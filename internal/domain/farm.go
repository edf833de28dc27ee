package domain

import "strings"

// SoilTexture is one of the four canonical soil texture categories.
type SoilTexture string

const (
	TextureLoam SoilTexture = "Loam"
	TextureClay SoilTexture = "Clay"
	TextureSilt SoilTexture = "Silt"
	TextureSand SoilTexture = "Sand"
)

// ParseTexture normalizes a free-form soil type label to a canonical texture.
// Upstream datasets mix noun and adjective forms ("Sand", "Sandy", "sandy soil").
// Unrecognized labels default to Loam, the most permissive texture.
func ParseTexture(label string) SoilTexture {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "clay"):
		return TextureClay
	case strings.HasPrefix(l, "silt"):
		return TextureSilt
	case strings.HasPrefix(l, "sand"):
		return TextureSand
	default:
		return TextureLoam
	}
}

// Farm is the unit of analysis for a scoring pass. Immutable during the pass.
type Farm struct {
	Name         string  `json:"name"`
	Region       string  `json:"region"` // wilaya-level location name
	SoilType     string  `json:"soil_type"`
	SizeHectares float64 `json:"size_hectares"`
	IntendedCrop string  `json:"intended_crop,omitempty"`
}

// SoilSample is a lab-measured soil analysis for a farm.
// Nutrient levels are percentages on a 0–100 sufficiency scale.
type SoilSample struct {
	PHLevel       float64     `json:"ph_level"`
	Texture       SoilTexture `json:"texture"`
	Nitrogen      float64     `json:"nitrogen"`
	Phosphorus    float64     `json:"phosphorus"`
	Potassium     float64     `json:"potassium"`
	OrganicMatter float64     `json:"organic_matter"`
	Salinity      float64     `json:"salinity"`
}

// SoilProfile is the tagged soil input consumed by the scorer: either a real
// lab sample or a synthetic default derived from the farm's declared texture.
// The two cases score through the same code path; only nutrient adjustments
// are restricted to measured samples.
type SoilProfile struct {
	Measured bool       `json:"measured"`
	Sample   SoilSample `json:"sample"`
}

// MeasuredSoil wraps a lab sample.
func MeasuredSoil(s SoilSample) SoilProfile {
	return SoilProfile{Measured: true, Sample: s}
}

// DefaultSoil builds the neutral fallback profile for a farm without samples:
// pH 6.5, mid-range nutrients, the declared texture.
func DefaultSoil(texture SoilTexture) SoilProfile {
	return SoilProfile{
		Sample: SoilSample{
			PHLevel:       6.5,
			Texture:       texture,
			Nitrogen:      50,
			Phosphorus:    50,
			Potassium:     50,
			OrganicMatter: 3.0,
			Salinity:      1.0,
		},
	}
}
