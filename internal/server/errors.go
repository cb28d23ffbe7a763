package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/db"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/diff"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/guidelines"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/issues"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/types"
	"github.com/subramaniyam22/Copy-Content-Validation-Tool/internal/urlutil"
)

// VersionNotFoundError indicates a guideline set has no version with the
// requested version number.
type VersionNotFoundError struct {
	SetID   int64
	Version int
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("guideline set %d has no version %d", e.SetID, e.Version)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Errors may arrive wrapped, so matching goes through errors.As/Is.
func HTTPStatus(err error) int {
	var (
		incomparable *diff.IncomparableJobsError
		noBaseline   *diff.NoBaselineError
		scanMissing  *diff.ScanNotFoundError
		setMissing   *guidelines.SetNotFoundError
		versionMiss  *VersionNotFoundError
		badFile      *guidelines.UnsupportedFileError
		badEnum      *types.InvalidEnumError
		badURL       *urlutil.ParseError
		ssrf         *urlutil.SSRFError
		malformed    *issues.MalformedFindingError
		invalid      validator.ValidationErrors
	)

	switch {
	case errors.As(err, &incomparable):
		return http.StatusConflict
	case errors.As(err, &noBaseline),
		errors.As(err, &scanMissing),
		errors.As(err, &setMissing),
		errors.As(err, &versionMiss),
		errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &badFile),
		errors.As(err, &badEnum),
		errors.As(err, &badURL),
		errors.As(err, &ssrf):
		return http.StatusBadRequest
	case errors.As(err, &malformed),
		errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
