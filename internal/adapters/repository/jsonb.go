package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/okian/judgeboard/internal/domain/model"
)

// scoresColumn stores model.Scores as jsonb.
type scoresColumn model.Scores

// Value implements driver.Valuer.
func (c scoresColumn) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(model.Scores(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *scoresColumn) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		*c = nil
		return err
	}
	var s model.Scores
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode scores: %w", err)
	}
	*c = scoresColumn(s)
	return nil
}

// criteriaColumn stores a track's criteria list as jsonb.
type criteriaColumn model.TrackConfig

// Value implements driver.Valuer.
func (c criteriaColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(model.TrackConfig(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *criteriaColumn) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil || b == nil {
		*c = criteriaColumn{}
		return err
	}
	var tc model.TrackConfig
	if err := json.Unmarshal(b, &tc); err != nil {
		return fmt.Errorf("decode scoring criteria: %w", err)
	}
	*c = criteriaColumn(tc)
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source %T", src)
	}
}
