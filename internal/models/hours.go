package model

import "github.com/shopspring/decimal"

// HoursScale is the number of decimal places the hour columns keep.
const HoursScale = 2

// MaxHours bounds a single offer, report or opening balance.
var MaxHours = decimal.NewFromInt(10000)

// ValidHours reports whether h is a positive amount of at most MaxHours that
// the hour columns store without rounding.
func ValidHours(h decimal.Decimal) bool {
	return h.IsPositive() && !h.GreaterThan(MaxHours) && FitsHoursScale(h)
}

// FitsHoursScale reports whether h has no more than HoursScale significant
// decimal places.
func FitsHoursScale(h decimal.Decimal) bool {
	return h.Equal(h.Truncate(HoursScale))
}
