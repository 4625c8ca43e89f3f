package severity

import (
	"slices"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// LabelEncoder maps severity labels to contiguous class indices. Classes are
// kept in severity rank order, so index 0 is the least urgent label present.
type LabelEncoder struct {
	classes []domain.Severity
}

// FitLabels builds an encoder over the labels that occur in records.
func FitLabels(records []domain.SituationRecord) LabelEncoder {
	seen := make(map[domain.Severity]bool, 4)
	for _, r := range records {
		seen[r.Severity] = true
	}
	var classes []domain.Severity
	for _, s := range domain.Severities() {
		if seen[s] {
			classes = append(classes, s)
		}
	}
	return LabelEncoder{classes: classes}
}

// Classes returns the labels in index order.
func (e LabelEncoder) Classes() []domain.Severity { return slices.Clone(e.classes) }

// Len returns the number of classes.
func (e LabelEncoder) Len() int { return len(e.classes) }

// Encode returns the index of a label, or false if the label was not seen at fit time.
func (e LabelEncoder) Encode(s domain.Severity) (int, bool) {
	i := slices.Index(e.classes, s)
	return i, i >= 0
}

// Decode returns the label for an index.
func (e LabelEncoder) Decode(i int) domain.Severity {
	return e.classes[i]
}
