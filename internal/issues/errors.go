// Package issues converts raw validator findings into canonical issue
// records with stable content fingerprints.
package issues

import (
	"fmt"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
)

// MalformedFindingError represents a raw finding carrying neither evidence
// nor explanation. Callers normally drop the finding and continue.
type MalformedFindingError struct {
	Source  types.IssueSource
	PageURL string
}

func (e *MalformedFindingError) Error() string {
	return fmt.Sprintf("malformed finding from %s on %s: missing both evidence and explanation", e.Source, e.PageURL)
}
