package engine

import (
	"fmt"

	"cashflow/internal/core"
)

// Merge combines the base timeline with a scenario overlay into one
// effective entry set. It is a plain union: base entries first, overlay
// entries after, in their input order, so merging the same inputs twice
// yields an identical set. A scenario entry reusing a base entry id is an
// authoring error and is rejected with ErrDuplicateID. Cancellations are
// kept as entries; the materializer consumes them.
func Merge(base, overlay []core.Entry) ([]core.Entry, error) {
	seen := make(map[string]struct{}, len(base))
	effective := make([]core.Entry, 0, len(base)+len(overlay))
	for _, e := range base {
		seen[e.ID] = struct{}{}
		effective = append(effective, e)
	}
	for _, e := range overlay {
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: scenario entry %s collides with a base entry", core.ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
		effective = append(effective, e)
	}
	return effective, nil
}
