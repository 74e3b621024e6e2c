package fixed

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// Value stores the integer as a decimal string column.
func (a Int) Value() (driver.Value, error) { return a.String(), nil }

func (a *Int) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Int{}
		return nil
	case string:
		return a.setDecimal(v)
	case []byte:
		return a.setDecimal(string(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("fixed: scan negative %d", v)
		}
		*a = New(uint64(v))
		return nil
	default:
		return fmt.Errorf("fixed: cannot scan %T", src)
	}
}

func (a *Int) setDecimal(s string) error {
	if s == "" {
		*a = Int{}
		return nil
	}
	var out Int
	if err := out.v.SetFromDecimal(s); err != nil {
		return fmt.Errorf("fixed: scan %q: %w", s, err)
	}
	*a = out
	return nil
}

func (a Int) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}

// UnmarshalJSON accepts both "123" and 123.
func (a *Int) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*a = Int{}
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
