// Package domain models emergency situation reports and the reference data
// used to score them.
//
// # Situation Records
//
// A situation record describes one reported emergency context:
//
//	city,time_of_day,day_of_week,weather,temp,population_density,emergency_type,severity
//	Delhi,Night,Fri,Stormy,35,9000,Fire,Critical
//
// Categorical fields are closed enumerations ([City], [TimeOfDay], [DayOfWeek],
// [Weather], [EmergencyType], [Severity]). Values are decoded and checked at
// the boundary with the Parse* functions and [SituationRecord.Validate];
// nothing downstream accepts a raw string.
//
// Numeric domains:
//
//	temp                 integer degrees, clamped to [10, 45]
//	population_density   integer people per unit area, clamped to [500, 20000]
//
// # Severity
//
// Severity is ordinal: Low < Medium < High < Critical. High and Critical are
// escalation levels; callers may notify contacts and synthesize voice guidance
// for them (see [Severity.Escalates]). The scoring core never does so itself.
//
// # Error Taxonomy
//
//	DataDomainError       a field value violates its domain (numeric bounds, empty values)
//	UnknownCategoryError  a categorical value is outside its enumeration
//	ErrModelUntrained     prediction requested before a model exists
//
// Unknown categories are a soft failure at prediction time: the value is
// logged and encoded as all-zero indicators unless strict mode is enabled.
//
// # Reference Data
//
// Emergency profiles (helplines, do/don't lists, relevant facility kinds) are
// loaded from an embedded YAML document. City coordinates back the nearby
// facility markers handed to the map renderer.
package domain
