// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrInvalidScoreValue is returned when a submitted score value is neither
// a JSON number nor a JSON string.
var ErrInvalidScoreValue = errors.New("score value must be a number or a string")

type valueKind uint8

const (
	kindNumber valueKind = iota
	kindText
	kindNull
	kindOther
)

// ScoreValue is one entry of a judge's score bag: a number, a categorical
// selection, or whatever else a writer stored there (null, a boolean, an
// object). Only numbers and strings are accepted on the write path; the
// read path keeps the rest so one bad entry never hides its siblings. The
// zero value is the number 0.
type ScoreValue struct {
	num  float64
	str  string
	kind valueKind
}

// Number returns a numeric ScoreValue.
func Number(v float64) ScoreValue { return ScoreValue{num: v} }

// Text returns a string ScoreValue.
func Text(s string) ScoreValue { return ScoreValue{str: s, kind: kindText} }

// Null returns the ScoreValue of a JSON null.
func Null() ScoreValue { return ScoreValue{kind: kindNull} }

// IsText reports whether the value was submitted as a string.
func (v ScoreValue) IsText() bool { return v.kind == kindText }

// IsNull reports whether the value was a JSON null.
func (v ScoreValue) IsNull() bool { return v.kind == kindNull }

// Valid reports whether the value is a number or a string.
func (v ScoreValue) Valid() bool { return v.kind == kindNumber || v.kind == kindText }

// Float coerces the value to a number. Strings contribute their leading
// decimal number, so "8", " 8.5 " and "8 pts" all count; a string without
// one, a null and any other JSON value yield NaN.
func (v ScoreValue) Float() float64 {
	switch v.kind {
	case kindNumber:
		return v.num
	case kindText:
		return leadingFloat(v.str)
	default:
		return math.NaN()
	}
}

// Exact returns the value as a number only when it is a number or a string
// that is entirely a decimal number.
func (v ScoreValue) Exact() (float64, bool) {
	switch v.kind {
	case kindNumber:
		return v.num, !math.IsNaN(v.num)
	case kindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}

// String renders the value as it would appear in a categorical tally.
// Values that are neither numbers nor strings render as their JSON text.
func (v ScoreValue) String() string {
	switch v.kind {
	case kindText, kindOther:
		return v.str
	case kindNull:
		return "null"
	default:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
}

// MarshalJSON writes the value back in the shape it was read.
func (v ScoreValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.str)
	case kindNull:
		return []byte("null"), nil
	case kindOther:
		return []byte(v.str), nil
	}
	if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v.num)
}

// UnmarshalJSON accepts any JSON value. Numbers and strings keep their
// meaning; null and other shapes are kept for the aggregator to skip.
func (v *ScoreValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || !json.Valid(b) {
		return ErrInvalidScoreValue
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 'n':
		*v = Null()
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			return ErrInvalidScoreValue
		}
		*v = Number(f)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, b); err != nil {
			return ErrInvalidScoreValue
		}
		*v = ScoreValue{str: buf.String(), kind: kindOther}
	}
	return nil
}

// leadingFloat parses the longest decimal number at the start of s after
// leading whitespace, the way a lenient form field is read. It returns NaN
// when s does not start with one.
func leadingFloat(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if digits > 0 || frac > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	// A range error still returns ±Inf, which is what an overflow means here.
	f, _ := strconv.ParseFloat(s[:i], 64)
	return f
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Scores maps a criterion id to the judge's value.
type Scores map[string]ScoreValue

// ScoreRecord is one judge's evaluation of one project within one track,
// joined with the display fields the leaderboard and exports need.
type ScoreRecord struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	TrackID   string `json:"track_id"`
	JudgeID   string `json:"judge_id"`
	EventID   string `json:"event_id"`
	Scores    Scores `json:"scores"`
	Comments  string `json:"comments,omitempty"`

	ProjectName string `json:"project_name"`
	LeadName    string `json:"lead_name"`
	LeadEmail   string `json:"lead_email"`
	TrackName   string `json:"track_name"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Key identifies the (project, track, judge) triple a record belongs to.
func (r *ScoreRecord) Key() string {
	return r.ProjectID + "/" + r.TrackID + "/" + r.JudgeID
}
