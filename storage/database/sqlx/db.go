package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// trapNoRows maps sql.ErrNoRows to the domain's notFound sentinel.
func trapNoRows(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapUniqueViolation maps a psql unique_violation on the given constraint to
// the domain sentinel; other errors pass through wrapped.
func trapUniqueViolation(err, sentinel error, constraints ...string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		for _, c := range constraints {
			if pqErr.Constraint == c {
				return sentinel
			}
		}
	}
	return err
}

// jsonInts stores an []int in a JSONB column.
type jsonInts []int

func (s jsonInts) Value() (driver.Value, error) { return json.Marshal([]int(s)) }

func (s *jsonInts) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("unsupported jsonb source %T", src)
	}
	return json.Unmarshal(b, (*[]int)(s))
}

// jsonAnswers stores a quiz.Answers map in a JSONB column.
type jsonAnswers map[string][]int

func (a jsonAnswers) Value() (driver.Value, error) { return json.Marshal(map[string][]int(a)) }

func (a *jsonAnswers) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.Errorf("unsupported jsonb source %T", src)
	}
	return json.Unmarshal(b, (*map[string][]int)(a))
}
