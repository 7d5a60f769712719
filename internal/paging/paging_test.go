package paging

import "testing"

func TestPageCount(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{total: 0, want: 1},
		{total: 1, want: 1},
		{total: 9, want: 1},
		{total: 10, want: 1},
		{total: 11, want: 2},
		{total: 20, want: 2},
		{total: 23, want: 3},
		{total: 30, want: 3},
	}

	for _, tc := range tests {
		if got := PageCount(tc.total); got != tc.want {
			t.Errorf("PageCount(%d) = %d, want %d", tc.total, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		requested int
		pages     int
		want      int
	}{
		{requested: 5, pages: 3, want: 3},
		{requested: 0, pages: 3, want: 1},
		{requested: -2, pages: 3, want: 1},
		{requested: 2, pages: 3, want: 2},
		{requested: 1, pages: 1, want: 1},
	}

	for _, tc := range tests {
		if got := Clamp(tc.requested, tc.pages); got != tc.want {
			t.Errorf("Clamp(%d, %d) = %d, want %d", tc.requested, tc.pages, got, tc.want)
		}
	}
}

func TestPageOf(t *testing.T) {
	tests := []struct {
		position int
		want     int
	}{
		{position: 1, want: 1},
		{position: 10, want: 1},
		{position: 11, want: 2},
		{position: 20, want: 2},
		{position: 21, want: 3},
	}

	for _, tc := range tests {
		if got := PageOf(tc.position); got != tc.want {
			t.Errorf("PageOf(%d) = %d, want %d", tc.position, got, tc.want)
		}
	}
}

func TestAfterRemoval(t *testing.T) {
	tests := []struct {
		name     string
		removed  int
		newTotal int
		want     int
	}{
		{name: "middle of first page", removed: 5, newTotal: 22, want: 1},
		{name: "end of first page stays on first", removed: 10, newTotal: 22, want: 1},
		{name: "second page", removed: 13, newTotal: 22, want: 2},
		{name: "last item of last page collapses back", removed: 21, newTotal: 20, want: 2},
		{name: "removing the only item", removed: 1, newTotal: 0, want: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AfterRemoval(tc.removed, tc.newTotal); got != tc.want {
				t.Fatalf("AfterRemoval(%d, %d) = %d, want %d", tc.removed, tc.newTotal, got, tc.want)
			}
		})
	}
}

func TestAfterMove(t *testing.T) {
	if got := AfterMove(15); got != 2 {
		t.Fatalf("AfterMove(15) = %d, want 2", got)
	}
	if got := AfterMove(10); got != 1 {
		t.Fatalf("AfterMove(10) = %d, want 1", got)
	}
}
