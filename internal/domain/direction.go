package domain

// Direction is the text direction of the active locale.
type Direction string

const (
	DirectionLTR Direction = "ltr"
	DirectionRTL Direction = "rtl"
)

func (d Direction) IsRTL() bool {
	return d == DirectionRTL
}

// ParseDirection accepts "rtl" and "ltr"; anything else is left-to-right.
func ParseDirection(s string) Direction {
	if s == string(DirectionRTL) {
		return DirectionRTL
	}
	return DirectionLTR
}
