package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB-колонки хранят вложенные структуры заказа и реквизитов как есть.

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("models: marshal jsonb: %w", err)
	}
	return b, nil
}

func scanJSON(src interface{}, dest interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("models: unsupported jsonb source %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
