package token

import "testing"

func TestSourceMapOffsetToPosition(t *testing.T) {
	src := "abc\ndef\nghi"
	m := NewSourceMap(src)

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 0, Column: 0, Offset: 0}},
		{3, Position{Line: 0, Column: 3, Offset: 3}}, // the '\n' itself
		{4, Position{Line: 1, Column: 0, Offset: 4}}, // 'd'
		{7, Position{Line: 1, Column: 3, Offset: 7}}, // the second '\n'
		{8, Position{Line: 2, Column: 0, Offset: 8}}, // 'g'
		{100, Position{Line: 2, Column: 3, Offset: len(src)}}, // clamped
		{-5, Position{Line: 0, Column: 0, Offset: 0}},         // clamped
	}
	for _, tt := range tests {
		got := m.OffsetToPosition(tt.offset)
		if got != tt.want {
			t.Errorf("OffsetToPosition(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestSourceMapCRLF(t *testing.T) {
	src := "ab\r\ncd"
	m := NewSourceMap(src)
	// '\r' at offset 2, '\n' at offset 3, 'c' at offset 4.
	pos := m.OffsetToPosition(4)
	if pos.Line != 1 || pos.Column != 0 {
		t.Errorf("OffsetToPosition(4) = %+v, want line 1 column 0", pos)
	}
}

func TestSourceMapPositionToOffset(t *testing.T) {
	src := "abc\ndef"
	m := NewSourceMap(src)

	offset, ok := m.PositionToOffset(1, 1)
	if !ok || offset != 5 {
		t.Errorf("PositionToOffset(1, 1) = (%d, %v), want (5, true)", offset, ok)
	}

	_, ok = m.PositionToOffset(5, 0)
	if ok {
		t.Errorf("PositionToOffset(5, 0) should fail for out-of-range line")
	}
}

func TestSourceMapRangeText(t *testing.T) {
	src := "Patient.name"
	m := NewSourceMap(src)
	r := Range{Start: Position{Offset: 0}, End: Position{Offset: 7}}
	if got := m.RangeText(r); got != "Patient" {
		t.Errorf("RangeText = %q, want %q", got, "Patient")
	}

	// Out-of-order range clamps to empty rather than panicking.
	inverted := Range{Start: Position{Offset: 7}, End: Position{Offset: 0}}
	if got := m.RangeText(inverted); got != "" {
		t.Errorf("RangeText(inverted) = %q, want empty", got)
	}
}

func TestSourceMapLineText(t *testing.T) {
	src := "one\r\ntwo\nthree"
	m := NewSourceMap(src)
	if got := m.LineText(0); got != "one" {
		t.Errorf("LineText(0) = %q, want %q", got, "one")
	}
	if got := m.LineText(1); got != "two" {
		t.Errorf("LineText(1) = %q, want %q", got, "two")
	}
	if got := m.LineText(2); got != "three" {
		t.Errorf("LineText(2) = %q, want %q", got, "three")
	}
	if got := m.LineText(99); got != "" {
		t.Errorf("LineText(99) = %q, want empty", got)
	}
}

func TestSourceMapLineCount(t *testing.T) {
	m := NewSourceMap("a\nb\nc")
	if got := m.LineCount(); got != 3 {
		t.Errorf("LineCount() = %d, want 3", got)
	}
	empty := NewSourceMap("")
	if got := empty.LineCount(); got != 1 {
		t.Errorf("LineCount() for empty source = %d, want 1", got)
	}
}
