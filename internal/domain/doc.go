// Package domain models farms, crops, soil, weather, and market conditions
// for crop planting recommendations.
//
// # Units and Conventions
//
// Money:
//
//	All monetary values are Algerian dinars (DA). Market prices are quoted
//	per kilogram; the trained price model predicts DA per ton and is divided
//	by 1000 at the prediction boundary.
//
// Yields and areas:
//
//	Yields are tons per hectare, farm sizes and planting areas are hectares.
//	Water requirements are millimeters per growing season; resolved rainfall
//	is the monthly total in millimeters.
//
// Soil texture:
//
//	Four canonical textures: Loam, Clay, Silt, Sand. Upstream data sources
//	use adjective forms ("Loamy", "Sandy", "Silty"), which ParseTexture
//	normalizes. A farm with no lab sample scores against a synthetic default
//	profile (pH 6.5, mid-range nutrients, the farm's declared texture).
//	This substitution is expected operation, not an error.
//
// Scores:
//
//	Soil, yield, risk, and profit sub-scores are each bounded to [0,100].
//	Risk measures oversupply badness: higher is worse. The final score is
//	reported as computed and may go negative under the risk-crisis regime.
//
// Regions:
//
//	Region names are wilaya-level place names. Saharan wilayas (Adrar,
//	Tamanrasset, ...) are classified desert, the high-plateau fringe
//	semi-desert, the rest temperate. See [ClassifyRegion].
package domain
