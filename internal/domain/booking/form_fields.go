package booking

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// FormFields is the dynamic field bag attached to a quotation. Operators
// capture itinerary-specific attributes here; for vendor-side quotations
// one of the recognized cost-price keys may carry the buy price.
// Stored as JSONB.
type FormFields map[string]any

// Value implements driver.Valuer for GORM to store as JSONB
func (f FormFields) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (f *FormFields) Scan(value interface{}) error {
	if value == nil {
		*f = FormFields{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan FormFields: unsupported type")
	}

	if len(bytes) == 0 {
		*f = FormFields{}
		return nil
	}

	return json.Unmarshal(bytes, f)
}
