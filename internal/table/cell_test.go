package table

import (
	"reflect"
	"testing"
)

func TestRenderCell(t *testing.T) {
	status := Column{Key: "status", Label: "Status", Type: TypeStatus}
	port := Column{Key: "port", Label: "Port", Type: TypeNumber}
	tray := Column{Key: "tray", Label: "Tray", Type: TypeText}

	tests := []struct {
		name string
		row  Row
		col  Column
		want Rendered
	}{
		{"status ok", Row{"status": Text("OK")}, status, Rendered{Text: "OK", Badge: BadgeGreen}},
		{"status review", Row{"status": Text("revisión")}, status, Rendered{Text: "Under Review", Badge: BadgeYellow}},
		{"status failure", Row{"status": Text("falla")}, status, Rendered{Text: "Critical Failure", Badge: BadgeRed}},
		{"status free", Row{"status": Text("libre")}, status, Rendered{Text: "Available", Badge: BadgeGray}},
		{"status reserved", Row{"status": Text("reservado")}, status, Rendered{Text: "Reserved", Badge: BadgeBlue}},
		{"unknown status keeps raw text", Row{"status": Text("maintenance")}, status, Rendered{Text: "maintenance", Badge: BadgeGray}},
		{"empty status", Row{"status": Text("")}, status, Rendered{Text: "", Badge: BadgeGray}},
		{"number", Row{"port": Number(12)}, port, Rendered{Text: "12"}},
		{"lenient number text", Row{"port": Text("12a")}, port, Rendered{Text: "12a"}},
		{"empty text", Row{"tray": Text("")}, tray, Rendered{Text: Placeholder}},
		{"blank text", Row{"tray": Text("  ")}, tray, Rendered{Text: Placeholder}},
		{"null", Row{"tray": Null()}, tray, Rendered{Text: Placeholder}},
		{"missing key", Row{}, tray, Rendered{Text: Placeholder}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderCell(tt.row, tt.col); got != tt.want {
				t.Errorf("RenderCell() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEditorFor(t *testing.T) {
	sel := Column{Key: "kind", Type: TypeSelect, Options: []string{"LC", "SC"}}
	got := EditorFor(sel)
	if got.Kind != InputChoice || !reflect.DeepEqual(got.Choices, []string{"LC", "SC"}) {
		t.Errorf("EditorFor(select) = %+v", got)
	}
	got.Choices[0] = "changed"
	if sel.Options[0] != "LC" {
		t.Error("EditorFor(select) aliases column options")
	}

	st := EditorFor(Column{Key: "status", Type: TypeStatus})
	want := []string{"ok", "revisión", "falla", "libre", "reservado"}
	if st.Kind != InputChoice || !reflect.DeepEqual(st.Choices, want) {
		t.Errorf("EditorFor(status) = %+v, want choices %v", st, want)
	}

	for _, typ := range []ColumnType{TypeText, TypeNumber, TypeDate} {
		if got := EditorFor(Column{Key: "x", Type: typ}); got.Kind != InputFreeText || got.Choices != nil {
			t.Errorf("EditorFor(%s) = %+v, want free text", typ, got)
		}
	}
}

func TestWriteCell_NoCoercion(t *testing.T) {
	port := Column{Key: "port", Type: TypeNumber}
	row := Row{"port": Number(1)}

	got := WriteCell(row, port, Text("abc"))
	if got["port"] != Text("abc") {
		t.Errorf("WriteCell() stored %#v, want text abc", got["port"])
	}
	if row["port"] != Number(1) {
		t.Error("WriteCell() modified its input")
	}
}

func TestReadCell_Missing(t *testing.T) {
	if v := ReadCell(Row{}, Column{Key: "tray"}); !v.IsNull() {
		t.Errorf("ReadCell(missing) = %#v, want null", v)
	}
}
