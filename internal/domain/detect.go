package domain

import "strings"

// detectionKeywords maps emergency types to the phrases that suggest them.
// Order matters: the first category with a matching phrase wins.
var detectionKeywords = []struct {
	Type     EmergencyType
	Keywords []string
}{
	{Fire, []string{"smoke", "fire", "flames", "burn"}},
	{Medical, []string{"faint", "bleed", "injury", "hurt", "chest pain", "unconscious"}},
	{Flood, []string{"flood", "water", "inundated", "submerged"}},
	{Earthquake, []string{"earthquake", "quake", "tremor", "shake"}},
	{Theft, []string{"robbery", "stolen", "theft", "thief", "attack"}},
	{Accident, []string{"accident", "crash", "hit", "car accident"}},
}

// DetectEmergency guesses the emergency type from a free-text description.
// Returns ok=false when no keyword matches.
func DetectEmergency(text string) (EmergencyType, bool) {
	t := strings.ToLower(text)
	if strings.TrimSpace(t) == "" {
		return "", false
	}
	for _, entry := range detectionKeywords {
		for _, k := range entry.Keywords {
			if strings.Contains(t, k) {
				return entry.Type, true
			}
		}
	}
	return "", false
}
