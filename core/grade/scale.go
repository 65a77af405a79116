// Package grade converts assignment and course grades to grade points and aggregates them into GPAs.
package grade

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Scale selects the conversion tables used to turn percentages and letters into grade points.
type Scale string

const (
	Scale40         Scale = "4.0"
	Scale43         Scale = "4.3"
	ScalePercentage Scale = "percentage"
)

var (
	Scales = []Scale{Scale40, Scale43, ScalePercentage}

	ErrInvalidScale = errors.New("invalid gpa scale")
)

func ParseScale(s string) (Scale, error) {
	scale := Scale(strings.ToLower(strings.TrimSpace(s)))
	if !scale.IsValid() {
		return "", errors.Wrapf(ErrInvalidScale, "%q", s)
	}
	return scale, nil
}

func (s Scale) IsValid() bool {
	switch s {
	case Scale40, Scale43, ScalePercentage:
		return true
	}
	return false
}

// Ceiling is the highest value a grade can reach on the scale.
func (s Scale) Ceiling() float64 {
	switch s {
	case Scale43:
		return 4.3
	case ScalePercentage:
		return 100
	default:
		return 4.0
	}
}

func (s Scale) String() string { return string(s) }

// round rounds x to the given number of decimal places.
func round(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
