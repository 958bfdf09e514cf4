package repositories

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"tasktracker/internal/models"
)

const pqUniqueViolation = "23505"

// mapPQError turns driver errors the API cares about into model errors.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w (%s)", models.ErrConflict, pqErr.Constraint)
	}
	return err
}
