package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is a wall-clock "HH:MM" value without a date. Shift and break
// boundaries are stored in this form and expanded to absolute instants per
// calendar day by the slot generator.
type TimeOfDay string

// Minutes returns the value as minutes since midnight.
func (t TimeOfDay) Minutes() (int, error) {
	parts := strings.SplitN(strings.TrimSpace(string(t)), ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time of day %q", string(t))
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", string(t))
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", string(t))
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", string(t))
	}
	return hour*60 + minute, nil
}

// Valid reports whether the value parses as HH:MM.
func (t TimeOfDay) Valid() bool {
	_, err := t.Minutes()
	return err == nil
}
