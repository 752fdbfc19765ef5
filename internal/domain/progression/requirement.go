package progression

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

type RequirementKind string

const (
	RequirementReceipts RequirementKind = "receipts"
	RequirementLuvy     RequirementKind = "luvy"
	RequirementStreak   RequirementKind = "streak"
)

// Requirement is the typed unlock condition of an achievement.
// Each kind checks one UserLevel counter.
type Requirement interface {
	Kind() RequirementKind
	SatisfiedBy(l *UserLevel) bool
}

// ReceiptsRequirement needs at least Count approved receipts
type ReceiptsRequirement struct{ Count int64 }

// LuvyRequirement needs at least Amount tokens earned in total
type LuvyRequirement struct{ Amount decimal.Decimal }

// StreakRequirement needs a streak of at least Days consecutive days
type StreakRequirement struct{ Days int }

func (ReceiptsRequirement) Kind() RequirementKind { return RequirementReceipts }
func (LuvyRequirement) Kind() RequirementKind     { return RequirementLuvy }
func (StreakRequirement) Kind() RequirementKind   { return RequirementStreak }

func (r ReceiptsRequirement) SatisfiedBy(l *UserLevel) bool { return l.ReceiptsSubmitted >= r.Count }
func (r LuvyRequirement) SatisfiedBy(l *UserLevel) bool {
	return l.TotalLuvyEarned.GreaterThanOrEqual(r.Amount)
}
func (r StreakRequirement) SatisfiedBy(l *UserLevel) bool { return l.ConsecutiveDays >= r.Days }

type requirementWire struct {
	Type  RequirementKind `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ParseRequirement decodes {"type": "...", "value": ...}
func ParseRequirement(raw []byte) (Requirement, error) {
	var w requirementWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequirement, err)
	}
	if len(w.Value) == 0 {
		return nil, fmt.Errorf("%w: missing value", ErrInvalidRequirement)
	}

	switch w.Type {
	case RequirementReceipts:
		n, err := parseCount(w.Value)
		if err != nil {
			return nil, err
		}
		return ReceiptsRequirement{Count: n}, nil
	case RequirementStreak:
		n, err := parseCount(w.Value)
		if err != nil {
			return nil, err
		}
		return StreakRequirement{Days: int(n)}, nil
	case RequirementLuvy:
		var d decimal.Decimal
		if err := d.UnmarshalJSON(w.Value); err != nil || d.IsNegative() {
			return nil, fmt.Errorf("%w: luvy value %s", ErrInvalidRequirement, w.Value)
		}
		return LuvyRequirement{Amount: d}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRequirement, w.Type)
}

func parseCount(raw json.RawMessage) (int64, error) {
	n, err := strconv.ParseInt(string(bytes.Trim(raw, `"`)), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: count %s", ErrInvalidRequirement, raw)
	}
	return n, nil
}

func encodeRequirement(r Requirement) ([]byte, error) {
	var value any
	switch v := r.(type) {
	case ReceiptsRequirement:
		value = v.Count
	case StreakRequirement:
		value = v.Days
	case LuvyRequirement:
		value = v.Amount
	default:
		return nil, fmt.Errorf("%w: unsupported %T", ErrInvalidRequirement, r)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(requirementWire{Type: r.Kind(), Value: raw})
}

// RequirementSpec stores a Requirement as JSON, in a JSONB column or a request body
type RequirementSpec struct {
	Requirement
}

func (s RequirementSpec) MarshalJSON() ([]byte, error) {
	if s.Requirement == nil {
		return []byte("null"), nil
	}
	return encodeRequirement(s.Requirement)
}

func (s *RequirementSpec) UnmarshalJSON(raw []byte) error {
	r, err := ParseRequirement(raw)
	if err != nil {
		return err
	}
	s.Requirement = r
	return nil
}

func (s RequirementSpec) Value() (driver.Value, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (s *RequirementSpec) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	}
	return errors.New("progression: unsupported requirement type")
}

// Goal is the number of activity units a challenge needs, stored as {"value": n}
type Goal struct {
	Target int64 `json:"value"`
}

func (g Goal) Value() (driver.Value, error) {
	raw, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (g *Goal) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	}
	return errors.New("progression: unsupported goal type")
}

// Reward is the bonus paid once on unlock or completion, stored as {"luvy": "25.00"}.
// A zero reward is stored as NULL.
type Reward struct {
	Luvy decimal.Decimal `json:"luvy"`
}

// Pays reports whether the reward issues a credit
func (r Reward) Pays() bool {
	return r.Luvy.IsPositive()
}

func (r Reward) Value() (driver.Value, error) {
	if !r.Pays() {
		return nil, nil
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (r *Reward) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = Reward{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return errors.New("progression: unsupported reward type")
}
