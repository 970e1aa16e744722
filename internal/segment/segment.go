// Package segment classifies a person's purchase mix into a categorical
// segment from a configurable reference set of "aesthetic" product IDs.
package segment

import "github.com/vitrine-labs/crmsync/internal/model"

// Classifier maps product-ID sets to segments. The reference set is fixed
// at construction; callers swap the set through config, not by editing
// classification logic.
type Classifier struct {
	aesthetic map[string]struct{}
}

// NewClassifier builds a Classifier over the given aesthetic reference set.
func NewClassifier(aestheticProductIDs []string) *Classifier {
	set := make(map[string]struct{}, len(aestheticProductIDs))
	for _, id := range aestheticProductIDs {
		set[id] = struct{}{}
	}
	return &Classifier{aesthetic: set}
}

// Classify returns the segment for the given product IDs:
//
//   - empty input: "" (no segment)
//   - every ID in the reference set: ESTETICA
//   - no ID in the reference set: ILPI
//   - a mix of both: AMBOS
//
// Duplicates in the input are irrelevant. Pure function, no I/O.
func (c *Classifier) Classify(productIDs []string) model.Segment {
	if len(productIDs) == 0 {
		return ""
	}

	hasAesthetic := false
	hasOther := false
	for _, id := range productIDs {
		if _, ok := c.aesthetic[id]; ok {
			hasAesthetic = true
		} else {
			hasOther = true
		}
	}

	switch {
	case hasAesthetic && hasOther:
		return model.SegmentAmbos
	case hasAesthetic:
		return model.SegmentEstetica
	default:
		return model.SegmentILPI
	}
}

// IsAesthetic reports whether a single product ID belongs to the reference
// set. Used by the audience layer to split LTV per segment.
func (c *Classifier) IsAesthetic(productID string) bool {
	_, ok := c.aesthetic[productID]
	return ok
}
