package grade

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind tells how a grade Value was entered.
type Kind uint8

const (
	KindNone Kind = iota
	KindLetter
	KindPercentage
	KindPoints
)

var kindNames = map[Kind]string{
	KindNone:       "none",
	KindLetter:     "letter",
	KindPercentage: "percentage",
	KindPoints:     "points",
}

func (k Kind) String() string { return kindNames[k] }

// Value is a classified grade: a letter token, a percentage or raw grade points.
// The zero Value means "no grade".
type Value struct {
	kind   Kind
	letter string
	number float64
}

func Letter(letter string) Value {
	letter = NormalizeLetter(letter)
	if letter == "" {
		return Value{}
	}
	return Value{kind: KindLetter, letter: letter}
}

func Percentage(pct float64) Value { return Value{kind: KindPercentage, number: pct} }

func Points(pts float64) Value { return Value{kind: KindPoints, number: pts} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsSet() bool     { return v.kind != KindNone }
func (v Value) Letter() string  { return v.letter }
func (v Value) Number() float64 { return v.number }

// Is reports whether v is the given letter token.
func (v Value) Is(letter string) bool {
	return v.kind == KindLetter && v.letter == NormalizeLetter(letter)
}

func (v Value) String() string {
	switch v.kind {
	case KindLetter:
		return v.letter
	case KindPercentage, KindPoints:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindLetter:
		return json.Marshal(v.letter)
	case KindPercentage, KindPoints:
		return json.Marshal(v.number)
	}
	return []byte("null"), nil
}

// Value implements driver.Valuer as "<kind>:<text>".
func (v Value) Value() (driver.Value, error) {
	if !v.IsSet() {
		return nil, nil
	}
	return v.kind.String() + ":" + v.String(), nil
}

// Scan implements sql.Scanner for values written by Value.
func (v *Value) Scan(src interface{}) error {
	var s string
	switch t := src.(type) {
	case nil:
		*v = Value{}
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return fmt.Errorf("grade.Value: cannot scan %T", src)
	}
	if s == "" {
		*v = Value{}
		return nil
	}

	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("grade.Value: malformed %q", s)
	}
	switch parts[0] {
	case KindLetter.String():
		*v = Letter(parts[1])
		return nil
	case KindPercentage.String(), KindPoints.String():
		n, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return errors.Wrapf(err, "grade.Value: parsing %q", s)
		}
		if parts[0] == KindPoints.String() {
			*v = Points(n)
		} else {
			*v = Percentage(n)
		}
		return nil
	}
	return fmt.Errorf("grade.Value: unknown kind %q", parts[0])
}

// ClassifyNumber decides whether a bare number entered as a course grade is
// grade points or a percentage: on the 4.0 and 4.3 scales, values in (0, ceiling]
// are taken as points, anything else as a percentage.
// A 4.0 on a 4.0-scale course is therefore always read as 4.0 points.
func ClassifyNumber(n float64, scale Scale) Value {
	if scale != ScalePercentage && n > 0 && n <= scale.Ceiling() {
		return Points(n)
	}
	return Percentage(n)
}

// Input is an unclassified grade as sent by a client: a JSON string or number.
type Input struct {
	Text     string
	Number   float64
	IsNumber bool
	Set      bool
}

func InputText(s string) Input { return Input{Text: s, Set: true} }

func InputNumber(n float64) Input { return Input{Number: n, IsNumber: true, Set: true} }

func (in *Input) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*in = Input{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*in = Input{}
			return nil
		}
		*in = InputText(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("grade must be a string or a number")
	}
	*in = InputNumber(n)
	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	switch {
	case !in.Set:
		return []byte("null"), nil
	case in.IsNumber:
		return json.Marshal(in.Number)
	}
	return json.Marshal(in.Text)
}

// number returns the numeric reading of the input, parsing numeric strings.
func (in Input) number() (float64, bool) {
	if in.IsNumber {
		return in.Number, true
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(in.Text), 64)
	return n, err == nil
}

// Assignment classifies an assignment grade: numbers and numeric strings are percentages.
func (in Input) Assignment() Value {
	if !in.Set {
		return Value{}
	}
	if n, ok := in.number(); ok {
		return Percentage(n)
	}
	return Letter(in.Text)
}

// Direct classifies a course's direct grade (or an override) on scale.
func (in Input) Direct(scale Scale) Value {
	if !in.Set {
		return Value{}
	}
	if n, ok := in.number(); ok {
		return ClassifyNumber(n, scale)
	}
	return Letter(in.Text)
}
