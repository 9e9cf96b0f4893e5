package table

import "strings"

// Status is one of the five canonical status kinds. The string values are
// part of the stored data format and must not change.
type Status string

const (
	StatusOK        Status = "ok"
	StatusRevision  Status = "revisión"
	StatusFalla     Status = "falla"
	StatusLibre     Status = "libre"
	StatusReservado Status = "reservado"
)

// Statuses lists the canonical kinds in display order.
var Statuses = []Status{StatusOK, StatusRevision, StatusFalla, StatusLibre, StatusReservado}

// BadgeColor is the display color of a status cell.
type BadgeColor string

const (
	BadgeGreen  BadgeColor = "green"
	BadgeYellow BadgeColor = "yellow"
	BadgeRed    BadgeColor = "red"
	BadgeGray   BadgeColor = "gray"
	BadgeBlue   BadgeColor = "blue"
)

// ParseStatus normalizes raw (trim + lower case) and matches it against the
// canonical kinds. "revision" without the accent is accepted as revisión.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ok":
		return StatusOK, true
	case "revisión", "revision":
		return StatusRevision, true
	case "falla":
		return StatusFalla, true
	case "libre":
		return StatusLibre, true
	case "reservado":
		return StatusReservado, true
	}
	return "", false
}

// Color returns the badge color of a canonical status.
func (s Status) Color() BadgeColor {
	switch s {
	case StatusOK:
		return BadgeGreen
	case StatusRevision:
		return BadgeYellow
	case StatusFalla:
		return BadgeRed
	case StatusReservado:
		return BadgeBlue
	default:
		return BadgeGray
	}
}

// Label returns the human readable name of a canonical status.
func (s Status) Label() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusRevision:
		return "Under Review"
	case StatusFalla:
		return "Critical Failure"
	case StatusLibre:
		return "Available"
	case StatusReservado:
		return "Reserved"
	default:
		return string(s)
	}
}

// StatusColor maps any raw status string to its badge color. Unrecognized
// values are gray.
func StatusColor(raw string) BadgeColor {
	if s, ok := ParseStatus(raw); ok {
		return s.Color()
	}
	return BadgeGray
}
