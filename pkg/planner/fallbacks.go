package planner

import (
	"fmt"
	"strings"
)

// Curated lookups used when the live provider cannot resolve a city or
// returns no activity supply.

var cityIATAFallbacks = map[string]string{
	"tokyo":         "TYO",
	"new york":      "NYC",
	"london":        "LON",
	"paris":         "PAR",
	"los angeles":   "LAX",
	"san francisco": "SFO",
	"singapore":     "SIN",
	"dubai":         "DXB",
	"rome":          "ROM",
	"milan":         "MIL",
}

var cityActivityFallbacks = map[string][]string{
	"tokyo": {
		"Senso-ji Temple and Asakusa walk",
		"Shibuya Crossing and Hachiko Square",
		"Meiji Shrine and Yoyogi Park",
		"Tsukiji Outer Market food tour",
		"TeamLab Planets digital art museum",
		"Tokyo Skytree sunset view",
	},
	"paris": {
		"Louvre Museum highlights",
		"Seine river walk and bookstalls",
		"Montmartre and Sacre-Coeur",
		"Eiffel Tower and Champ de Mars",
		"Le Marais cafe and gallery hopping",
		"Latin Quarter evening stroll",
	},
	"london": {
		"Westminster and St James's Park walk",
		"British Museum highlights",
		"South Bank and Borough Market",
		"Tower Bridge and Tower of London",
		"Covent Garden and Soho food walk",
		"Greenwich observatory and riverside",
	},
}

func fallbackIATAForCity(city string) string {
	if city == "" {
		return ""
	}
	return cityIATAFallbacks[strings.ToLower(strings.TrimSpace(city))]
}

func fallbackActivitiesForCity(city string) []string {
	key := strings.ToLower(strings.TrimSpace(city))
	if acts, ok := cityActivityFallbacks[key]; ok {
		return acts
	}
	return []string{
		fmt.Sprintf("Old town walking tour in %s", city),
		fmt.Sprintf("Local market and food tasting in %s", city),
		fmt.Sprintf("Top viewpoints around %s", city),
		fmt.Sprintf("Museum and cultural district visit in %s", city),
		fmt.Sprintf("Neighborhood cafe hopping in %s", city),
		fmt.Sprintf("Riverside or waterfront evening walk in %s", city),
	}
}
