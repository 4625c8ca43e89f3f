package domain

import (
	"slices"
	"strings"
)

// City is one of the supported locations.
type City string

const (
	Delhi     City = "Delhi"
	Mumbai    City = "Mumbai"
	Bangalore City = "Bangalore"
	Chennai   City = "Chennai"
	Kolkata   City = "Kolkata"
	Hyderabad City = "Hyderabad"
	Pune      City = "Pune"
	Ahmedabad City = "Ahmedabad"
)

// TimeOfDay buckets the report time.
type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
	Night     TimeOfDay = "Night"
)

// DayOfWeek uses three-letter English abbreviations.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Mon"
	Tuesday   DayOfWeek = "Tue"
	Wednesday DayOfWeek = "Wed"
	Thursday  DayOfWeek = "Thu"
	Friday    DayOfWeek = "Fri"
	Saturday  DayOfWeek = "Sat"
	Sunday    DayOfWeek = "Sun"
)

// Weather is the reported weather condition.
type Weather string

const (
	Clear  Weather = "Clear"
	Cloudy Weather = "Cloudy"
	Rainy  Weather = "Rainy"
	Foggy  Weather = "Foggy"
	Stormy Weather = "Stormy"
)

// EmergencyType is the emergency category.
type EmergencyType string

const (
	Fire       EmergencyType = "Fire"
	Medical    EmergencyType = "Medical"
	Accident   EmergencyType = "Accident"
	Flood      EmergencyType = "Flood"
	Earthquake EmergencyType = "Earthquake"
	Theft      EmergencyType = "Theft"
)

// Severity is the ordinal urgency label.
type Severity string

const (
	Low      Severity = "Low"
	Medium   Severity = "Medium"
	High     Severity = "High"
	Critical Severity = "Critical"
)

// Field names as they appear in the CSV header and JSON payloads.
const (
	FieldCity              = "city"
	FieldTimeOfDay         = "time_of_day"
	FieldDayOfWeek         = "day_of_week"
	FieldWeather           = "weather"
	FieldTemperature       = "temp"
	FieldPopulationDensity = "population_density"
	FieldEmergencyType     = "emergency_type"
	FieldSeverity          = "severity"
)

var (
	cities         = []City{Delhi, Mumbai, Bangalore, Chennai, Kolkata, Hyderabad, Pune, Ahmedabad}
	highDensity    = []City{Delhi, Mumbai, Kolkata}
	timesOfDay     = []TimeOfDay{Morning, Afternoon, Evening, Night}
	daysOfWeek     = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
	weathers       = []Weather{Clear, Cloudy, Rainy, Foggy, Stormy}
	emergencyTypes = []EmergencyType{Fire, Medical, Accident, Flood, Earthquake, Theft}
	severities     = []Severity{Low, Medium, High, Critical}
)

// Cities returns every supported city in declaration order.
func Cities() []City { return slices.Clone(cities) }

// TimesOfDay returns every time-of-day bucket in declaration order.
func TimesOfDay() []TimeOfDay { return slices.Clone(timesOfDay) }

// DaysOfWeek returns Mon through Sun.
func DaysOfWeek() []DayOfWeek { return slices.Clone(daysOfWeek) }

// Weathers returns every weather condition in declaration order.
func Weathers() []Weather { return slices.Clone(weathers) }

// EmergencyTypes returns every emergency category in declaration order.
func EmergencyTypes() []EmergencyType { return slices.Clone(emergencyTypes) }

// Severities returns the labels from least to most urgent.
func Severities() []Severity { return slices.Clone(severities) }

// HighDensity reports whether the city belongs to the high population density group.
func (c City) HighDensity() bool { return slices.Contains(highDensity, c) }

func (c City) Valid() bool          { return slices.Contains(cities, c) }
func (t TimeOfDay) Valid() bool     { return slices.Contains(timesOfDay, t) }
func (d DayOfWeek) Valid() bool     { return slices.Contains(daysOfWeek, d) }
func (w Weather) Valid() bool       { return slices.Contains(weathers, w) }
func (e EmergencyType) Valid() bool { return slices.Contains(emergencyTypes, e) }
func (s Severity) Valid() bool      { return slices.Contains(severities, s) }

// Rank returns 0 for Low through 3 for Critical, or -1 for an unknown label.
func (s Severity) Rank() int { return slices.Index(severities, s) }

// Escalates reports whether the label warrants notifying contacts.
func (s Severity) Escalates() bool { return s == High || s == Critical }

// ParseCity decodes a city name, ignoring case and surrounding space.
func ParseCity(s string) (City, error) { return parseEnum(FieldCity, cities, s) }

// ParseTimeOfDay decodes a time-of-day bucket.
func ParseTimeOfDay(s string) (TimeOfDay, error) { return parseEnum(FieldTimeOfDay, timesOfDay, s) }

// ParseDayOfWeek decodes a three-letter day abbreviation.
func ParseDayOfWeek(s string) (DayOfWeek, error) { return parseEnum(FieldDayOfWeek, daysOfWeek, s) }

// ParseWeather decodes a weather condition.
func ParseWeather(s string) (Weather, error) { return parseEnum(FieldWeather, weathers, s) }

// ParseEmergencyType decodes an emergency category.
func ParseEmergencyType(s string) (EmergencyType, error) {
	return parseEnum(FieldEmergencyType, emergencyTypes, s)
}

// ParseSeverity decodes a severity label.
func ParseSeverity(s string) (Severity, error) { return parseEnum(FieldSeverity, severities, s) }

// parseEnum matches s case-insensitively against values and returns the
// canonical spelling, or an UnknownCategoryError naming field.
func parseEnum[T ~string](field string, values []T, s string) (T, error) {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return T(s), &UnknownCategoryError{Field: field, Value: s}
}
