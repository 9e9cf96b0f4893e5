package table

// Level is the overall traffic-light summary of a table.
type Level string

const (
	LevelGreen  Level = "green"
	LevelYellow Level = "yellow"
	LevelRed    Level = "red"
	LevelGray   Level = "gray"
)

// HealthCounts tallies canonical statuses across a table.
type HealthCounts struct {
	OK        int `json:"ok"`
	Revision  int `json:"revision"`
	Falla     int `json:"falla"`
	Libre     int `json:"libre"`
	Reservado int `json:"reservado"`
}

// Total returns the sum of all counters.
func (c HealthCounts) Total() int {
	return c.OK + c.Revision + c.Falla + c.Libre + c.Reservado
}

// Health pairs the counts with their derived level.
type Health struct {
	Level  Level        `json:"level"`
	Counts HealthCounts `json:"counts"`
}

// Counts scans every status-typed column of every row. Values that are not
// one of the canonical kinds are not counted.
func Counts(t Table) HealthCounts {
	var c HealthCounts
	var statusCols []Column
	for _, col := range t.Columns {
		if col.Type == TypeStatus {
			statusCols = append(statusCols, col)
		}
	}
	if len(statusCols) == 0 {
		return c
	}
	for _, r := range t.Rows {
		for _, col := range statusCols {
			s, ok := ParseStatus(ReadCell(r, col).String())
			if !ok {
				continue
			}
			switch s {
			case StatusOK:
				c.OK++
			case StatusRevision:
				c.Revision++
			case StatusFalla:
				c.Falla++
			case StatusLibre:
				c.Libre++
			case StatusReservado:
				c.Reservado++
			}
		}
	}
	return c
}

// LevelOf derives the summary level: red if any falla, else yellow if any
// revision, else green if any ok, else gray.
func LevelOf(c HealthCounts) Level {
	switch {
	case c.Falla > 0:
		return LevelRed
	case c.Revision > 0:
		return LevelYellow
	case c.OK > 0:
		return LevelGreen
	default:
		return LevelGray
	}
}

// HealthOf computes counts and level for t.
func HealthOf(t Table) Health {
	c := Counts(t)
	return Health{Level: LevelOf(c), Counts: c}
}
