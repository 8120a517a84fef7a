package span

import "testing"

func TestRegionsAddFinalizeMergesOverlapAndAbut(t *testing.T) {
	var rs Regions
	rs.Add(10, 20)
	rs.Add(0, 5)
	rs.Add(5, 10) // abuts the first region
	rs.Add(15, 25) // overlaps the merged first region
	rs.Finalize()

	want := Regions{{Start: 0, End: 25}}
	if len(rs) != len(want) || rs[0] != want[0] {
		t.Fatalf("got %v, want %v", rs, want)
	}
}

func TestRegionsAddRejectsEmptyRange(t *testing.T) {
	var rs Regions
	rs.Add(5, 5)
	rs.Add(5, 3)
	if len(rs) != 0 {
		t.Fatalf("expected empty regions, got %v", rs)
	}
}

func TestRegionsContains(t *testing.T) {
	rs := Regions{{Start: 5, End: 10}, {Start: 20, End: 30}}
	tests := []struct {
		offset int
		want   bool
	}{
		{4, false},
		{5, true},
		{9, true},
		{10, false},
		{15, false},
		{20, true},
		{29, true},
		{30, false},
	}
	for _, tt := range tests {
		if got := rs.Contains(tt.offset); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestRegionsOverlaps(t *testing.T) {
	rs := Regions{{Start: 5, End: 10}}
	tests := []struct {
		start, end int
		want       bool
	}{
		{0, 5, false},
		{0, 6, true},
		{9, 12, true},
		{10, 12, false},
		{6, 8, true},
	}
	for _, tt := range tests {
		if got := rs.Overlaps(tt.start, tt.end); got != tt.want {
			t.Errorf("Overlaps(%d,%d) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestTablePositionAsciiLines(t *testing.T) {
	src := []byte("abc\ndef\nghi")
	table := NewTable(src)

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{Line: 0, Column: 0}},
		{3, Position{Line: 0, Column: 3}},
		{4, Position{Line: 1, Column: 0}},
		{7, Position{Line: 1, Column: 3}},
		{8, Position{Line: 2, Column: 0}},
	}
	for _, tt := range tests {
		if got := table.Position(tt.offset); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestTablePositionCRLFCountsAsOneLineBreak(t *testing.T) {
	src := []byte("abc\r\ndef")
	table := NewTable(src)

	if got := table.Position(5); got != (Position{Line: 1, Column: 0}) {
		t.Errorf("Position(5) = %+v, want line 1 col 0", got)
	}
}

func TestTablePositionCountsCodePointsNotBytes(t *testing.T) {
	src := []byte("héllo\nwörld")
	table := NewTable(src)

	// "héllo" is 5 code points but 6 bytes; offset 6 is the '\n'.
	if got := table.Position(6); got != (Position{Line: 0, Column: 5}) {
		t.Errorf("Position(6) = %+v, want line 0 col 5", got)
	}
	// offset 7 is start of second line, "wörld".
	if got := table.Position(7); got != (Position{Line: 1, Column: 0}) {
		t.Errorf("Position(7) = %+v, want line 1 col 0", got)
	}
}

func TestTableLineStartOffset(t *testing.T) {
	table := NewTable([]byte("abc\ndef\nghi"))
	tests := []struct {
		line int
		want int
	}{
		{0, 0},
		{1, 4},
		{2, 8},
		{-1, 0}, // clamps
		{99, 8}, // clamps
	}
	for _, tt := range tests {
		if got := table.LineStartOffset(tt.line); got != tt.want {
			t.Errorf("LineStartOffset(%d) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
