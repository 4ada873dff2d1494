package postgres

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"feedhost/internal/domain"
)

// authorJSON maps a nullable jsonb column to an optional author record.
type authorJSON struct {
	Author *domain.Author
}

func (a authorJSON) Value() (driver.Value, error) {
	if a.Author == nil {
		return nil, nil
	}
	return json.Marshal(a.Author)
}

func (a *authorJSON) Scan(src any) error {
	if src == nil {
		a.Author = nil
		return nil
	}
	data, err := jsonBytes(src)
	if err != nil {
		return err
	}
	a.Author = &domain.Author{}
	return json.Unmarshal(data, a.Author)
}

// authorsJSON maps a nullable jsonb column to an author list.
type authorsJSON struct {
	Authors []domain.Author
}

func (a authorsJSON) Value() (driver.Value, error) {
	if a.Authors == nil {
		return nil, nil
	}
	return json.Marshal(a.Authors)
}

func (a *authorsJSON) Scan(src any) error {
	if src == nil {
		a.Authors = nil
		return nil
	}
	data, err := jsonBytes(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &a.Authors)
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
