package domain

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// EmergencyProfile is the static guidance for one emergency category.
type EmergencyProfile struct {
	Type     EmergencyType `yaml:"type" json:"type"`
	Helpline string        `yaml:"helpline" json:"helpline"`
	Do       []string      `yaml:"do" json:"do"`
	Dont     []string      `yaml:"dont" json:"dont"`
	Places   []string      `yaml:"places" json:"places"`
}

var (
	profilesOnce sync.Once
	profiles     map[EmergencyType]EmergencyProfile
	profilesErr  error
)

// ParseProfiles decodes a YAML list of emergency profiles. Every profile must
// name a known emergency type and a helpline, and types must not repeat.
func ParseProfiles(data []byte) (map[EmergencyType]EmergencyProfile, error) {
	var list []EmergencyProfile
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse emergency profiles: %w", err)
	}
	out := make(map[EmergencyType]EmergencyProfile, len(list))
	for _, p := range list {
		t, err := ParseEmergencyType(string(p.Type))
		if err != nil {
			return nil, fmt.Errorf("parse emergency profiles: %w", err)
		}
		if p.Helpline == "" {
			return nil, fmt.Errorf("parse emergency profiles: %s has no helpline", t)
		}
		if _, dup := out[t]; dup {
			return nil, fmt.Errorf("parse emergency profiles: duplicate profile %s", t)
		}
		p.Type = t
		out[t] = p
	}
	return out, nil
}

func loadProfiles() (map[EmergencyType]EmergencyProfile, error) {
	profilesOnce.Do(func() {
		profiles, profilesErr = ParseProfiles(profilesYAML)
	})
	return profiles, profilesErr
}

// Profile returns the built-in profile for an emergency type.
func Profile(t EmergencyType) (EmergencyProfile, bool) {
	all, err := loadProfiles()
	if err != nil {
		return EmergencyProfile{}, false
	}
	p, ok := all[t]
	return p, ok
}

// MustProfiles returns all built-in profiles, panicking if the embedded
// document is invalid. Intended for startup checks.
func MustProfiles() map[EmergencyType]EmergencyProfile {
	all, err := loadProfiles()
	if err != nil {
		panic(err)
	}
	return all
}
