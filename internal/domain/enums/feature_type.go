package enums

import "strings"

type FeatureType string

const (
	FeatureRamp               FeatureType = "ramp"
	FeatureElevator           FeatureType = "elevator"
	FeatureAccessibleRestroom FeatureType = "accessible_restroom"
	FeatureAccessibleParking  FeatureType = "accessible_parking"
	FeatureAutomaticDoor      FeatureType = "automatic_door"
	FeatureTactilePaving      FeatureType = "tactile_paving"
	FeatureBrailleSignage     FeatureType = "braille_signage"
	FeatureHandrail           FeatureType = "handrail"
)

var featureTypes = map[FeatureType]struct{}{
	FeatureRamp:               {},
	FeatureElevator:           {},
	FeatureAccessibleRestroom: {},
	FeatureAccessibleParking:  {},
	FeatureAutomaticDoor:      {},
	FeatureTactilePaving:      {},
	FeatureBrailleSignage:     {},
	FeatureHandrail:           {},
}

func ParseFeatureType(value string) (FeatureType, bool) {
	ft := FeatureType(strings.ToLower(strings.TrimSpace(value)))
	_, ok := featureTypes[ft]
	return ft, ok
}
