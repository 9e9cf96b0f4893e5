package table

// Placeholder is shown for empty non-status cells.
const Placeholder = "-"

// ReadCell returns the raw value under col.Key, or Null if the key is absent.
func ReadCell(r Row, col Column) Value {
	if v, ok := r[col.Key]; ok {
		return v
	}
	return Null()
}

// Rendered is the display form of one cell. Badge is set only for status
// columns. Rendering is identical in view and edit mode.
type Rendered struct {
	Text  string     `json:"text"`
	Badge BadgeColor `json:"badge,omitempty"`
}

// RenderCell returns the display form of a cell. Status cells render as a
// labelled badge; unknown status strings keep their raw text on a gray badge.
// Other empty cells render as Placeholder.
func RenderCell(r Row, col Column) Rendered {
	v := ReadCell(r, col)
	if col.Type == TypeStatus {
		if s, ok := ParseStatus(v.String()); ok {
			return Rendered{Text: s.Label(), Badge: s.Color()}
		}
		return Rendered{Text: v.String(), Badge: BadgeGray}
	}
	if v.IsEmpty() {
		return Rendered{Text: Placeholder}
	}
	return Rendered{Text: v.String()}
}

// InputKind is the edit affordance offered for a column.
type InputKind string

const (
	InputFreeText InputKind = "free_text"
	InputChoice   InputKind = "choice"
)

// Input describes how an editor should let the user change a cell.
type Input struct {
	Kind    InputKind `json:"kind"`
	Choices []string  `json:"choices,omitempty"`
}

// EditorFor returns the input affordance for col: a closed choice from
// Options for select columns, from the canonical statuses for status
// columns, free text otherwise.
func EditorFor(col Column) Input {
	switch col.Type {
	case TypeSelect:
		return Input{Kind: InputChoice, Choices: append([]string(nil), col.Options...)}
	case TypeStatus:
		choices := make([]string, len(Statuses))
		for i, s := range Statuses {
			choices[i] = string(s)
		}
		return Input{Kind: InputChoice, Choices: choices}
	default:
		return Input{Kind: InputFreeText}
	}
}

// WriteCell returns a copy of r with col.Key set to v. No coercion or
// validation is applied, whatever the column type.
func WriteCell(r Row, col Column, v Value) Row {
	out := r.clone()
	out[col.Key] = v
	return out
}
