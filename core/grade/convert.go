package grade

import "strings"

// Letter grades. P, NP, W and I carry no grade points.
const (
	LetterAPlus  = "A+"
	LetterA      = "A"
	LetterAMinus = "A-"
	LetterBPlus  = "B+"
	LetterB      = "B"
	LetterBMinus = "B-"
	LetterCPlus  = "C+"
	LetterC      = "C"
	LetterCMinus = "C-"
	LetterDPlus  = "D+"
	LetterD      = "D"
	LetterDMinus = "D-"
	LetterF      = "F"

	LetterPass       = "P"
	LetterNoPass     = "NP"
	LetterWithdrawn  = "W"
	LetterIncomplete = "I"

	NotAvailable = "N/A"
)

type breakpoint struct {
	min    float64 // percentage, inclusive
	letter string
	points float64
}

// breakpoints are scanned top-down with >= comparisons.
// The A+ row only applies on the 4.3 scale.
var breakpoints = []breakpoint{
	{97, LetterAPlus, 4.3},
	{93, LetterA, 4.0},
	{90, LetterAMinus, 3.7},
	{87, LetterBPlus, 3.3},
	{83, LetterB, 3.0},
	{80, LetterBMinus, 2.7},
	{77, LetterCPlus, 2.3},
	{73, LetterC, 2.0},
	{70, LetterCMinus, 1.7},
	{67, LetterDPlus, 1.3},
	{63, LetterD, 1.0},
	{60, LetterDMinus, 0.7},
}

var (
	letterPoints40 = map[string]float64{
		LetterAPlus:  4.0,
		LetterA:      4.0,
		LetterAMinus: 3.7,
		LetterBPlus:  3.3,
		LetterB:      3.0,
		LetterBMinus: 2.7,
		LetterCPlus:  2.3,
		LetterC:      2.0,
		LetterCMinus: 1.7,
		LetterDPlus:  1.3,
		LetterD:      1.0,
		LetterDMinus: 0.7,
		LetterF:      0.0,

		LetterPass:       0.0,
		LetterNoPass:     0.0,
		LetterWithdrawn:  0.0,
		LetterIncomplete: 0.0,
	}
	letterPoints43 = withAPlus(letterPoints40, 4.3)

	// letterPercentages is used for percentage-scale grade points.
	// F is anchored at 50, not 0.
	letterPercentages = map[string]float64{
		LetterAPlus:  97,
		LetterA:      93,
		LetterAMinus: 90,
		LetterBPlus:  87,
		LetterB:      83,
		LetterBMinus: 80,
		LetterCPlus:  77,
		LetterC:      73,
		LetterCMinus: 70,
		LetterDPlus:  67,
		LetterD:      63,
		LetterDMinus: 60,
		LetterF:      50,
	}

	// letterAverages is used when a lettered assignment enters a weighted average; F counts as 0.
	letterAverages = withF(letterPercentages, 0)
)

func withAPlus(tbl map[string]float64, pts float64) map[string]float64 {
	out := make(map[string]float64, len(tbl))
	for k, v := range tbl {
		out[k] = v
	}
	out[LetterAPlus] = pts
	return out
}

func withF(tbl map[string]float64, pct float64) map[string]float64 {
	out := make(map[string]float64, len(tbl))
	for k, v := range tbl {
		out[k] = v
	}
	out[LetterF] = pct
	return out
}

// NormalizeLetter trims and upper-cases a letter token.
func NormalizeLetter(letter string) string {
	return strings.ToUpper(strings.TrimSpace(letter))
}

// IsKnownLetter reports whether letter is one of the recognised grade tokens.
func IsKnownLetter(letter string) bool {
	_, ok := letterPoints40[NormalizeLetter(letter)]
	return ok
}

// PercentageToPoints maps a 0-100 percentage to grade points on scale.
func PercentageToPoints(pct float64, scale Scale) float64 {
	if scale == ScalePercentage {
		return pct
	}
	for _, bp := range breakpoints {
		if bp.letter == LetterAPlus && scale != Scale43 {
			continue
		}
		if pct >= bp.min {
			return bp.points
		}
	}
	return 0
}

// LetterToPoints maps a letter to grade points on scale. Unknown tokens yield 0.
func LetterToPoints(letter string, scale Scale) float64 {
	letter = NormalizeLetter(letter)
	switch scale {
	case ScalePercentage:
		return letterPercentages[letter]
	case Scale43:
		return letterPoints43[letter]
	default:
		return letterPoints40[letter]
	}
}

// LetterToPercentage is the percentage a lettered assignment contributes to a weighted average.
func LetterToPercentage(letter string) float64 {
	return letterAverages[NormalizeLetter(letter)]
}

// LetterForPercentage is the display letter of a percentage.
func LetterForPercentage(pct float64) string {
	for _, bp := range breakpoints {
		if pct >= bp.min {
			return bp.letter
		}
	}
	return LetterF
}

// LetterForPoints is the display letter of a grade-points value on scale.
func LetterForPoints(pts float64, scale Scale) string {
	if scale == ScalePercentage {
		return LetterForPercentage(pts)
	}
	for _, bp := range breakpoints {
		if bp.letter == LetterAPlus && scale != Scale43 {
			continue
		}
		if pts >= bp.points {
			return bp.letter
		}
	}
	return LetterF
}

// PointsFor converts an already classified grade to points on scale.
func PointsFor(v Value, scale Scale) float64 {
	switch v.Kind() {
	case KindLetter:
		return LetterToPoints(v.Letter(), scale)
	case KindPercentage:
		return PercentageToPoints(v.Number(), scale)
	case KindPoints:
		return v.Number()
	}
	return 0
}

// ConvertPoints re-expresses grade points computed on one scale on another.
// 4.0 and 4.3 share every step but A+; percentages go through the breakpoints;
// GPA points go to percentage through their letter.
func ConvertPoints(pts float64, from, to Scale) float64 {
	if from == to {
		return pts
	}
	switch {
	case from == ScalePercentage:
		return PercentageToPoints(pts, to)
	case to == ScalePercentage:
		return letterPercentages[LetterForPoints(pts, from)]
	case to == Scale40 && pts > 4.0:
		return 4.0
	}
	return pts
}

// ConversionRow is one line of a scale's conversion table.
type ConversionRow struct {
	Letter        string  `json:"letter"`
	MinPercentage float64 `json:"min_percentage"`
	Points        float64 `json:"points"`
}

// ConversionTable lists the letter/percentage/points steps applied on scale.
func ConversionTable(scale Scale) []ConversionRow {
	rows := make([]ConversionRow, 0, len(breakpoints)+1)
	for _, bp := range breakpoints {
		if bp.letter == LetterAPlus && scale == Scale40 {
			continue
		}
		rows = append(rows, ConversionRow{
			Letter:        bp.letter,
			MinPercentage: bp.min,
			Points:        LetterToPoints(bp.letter, scale),
		})
	}
	return append(rows, ConversionRow{Letter: LetterF, Points: LetterToPoints(LetterF, scale)})
}
