package catalog

import "github.com/agroplan/crop-window-planner/internal/agro"

// DefaultProfiles are the built-in crop profiles used when no catalog file is
// configured. Base temperatures and requirements follow common agronomic
// reference values.
func DefaultProfiles() []agro.CropProfile {
	return []agro.CropProfile{
		{CropID: "corn", Variety: "dent", BaseTempC: 10, GDDRequirement: 1500},
		{CropID: "corn", Variety: "sweet", BaseTempC: 10, GDDRequirement: 1250},
		{CropID: "wheat", Variety: "spring", BaseTempC: 4.4, GDDRequirement: 1600},
		{CropID: "soybean", Variety: "group-2", BaseTempC: 10, GDDRequirement: 1300},
		{CropID: "sunflower", Variety: "oilseed", BaseTempC: 7.2, GDDRequirement: 1450},
	}
}
