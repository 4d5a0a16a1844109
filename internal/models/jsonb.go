package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

//
// JSONB helpers
//

// ReviewResults is stored as a Postgres jsonb column.
type ReviewResults []ReviewResult

func (r ReviewResults) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *ReviewResults) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("ReviewResults: expected []byte, got %T", value)
	}

	if len(b) == 0 {
		*r = nil
		return nil
	}

	return json.Unmarshal(b, r)
}
