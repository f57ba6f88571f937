package model

import "testing"

func TestPriorityTiers(t *testing.T) {
	cases := []struct {
		p     Priority
		z     int
		split bool
		name  string
	}{
		{PriorityFlexibleSegment, 5, true, "flexible-segment"},
		{PriorityFlexibleWhole, 5, true, "flexible"},
		{PriorityFixed, 10, false, "fixed"},
	}
	for _, tc := range cases {
		if tc.p.ZIndex() != tc.z || tc.p.Splittable() != tc.split || tc.p.String() != tc.name {
			t.Fatalf("%v: z=%d split=%v", tc.p, tc.p.ZIndex(), tc.p.Splittable())
		}
	}
}

func TestSegmentEventUsesParentInterval(t *testing.T) {
	s := Segment{OriginalIndex: 3, Day: 2, Start: "10:00", End: "11:00", ParentStart: "09:00", ParentEnd: "12:00", Title: "Gym", Overwriteable: true}
	ev := s.Event()
	if ev.Start != "09:00" || ev.End != "12:00" || ev.OriginalIndex != 3 || !ev.Overwriteable {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestViewConfigZoom(t *testing.T) {
	if (ViewConfig{}).Zoom() != 1 || (ViewConfig{ZoomLevel: -2}).Zoom() != 1 || (ViewConfig{ZoomLevel: 1.5}).Zoom() != 1.5 {
		t.Fatal("unexpected zoom normalisation")
	}
}
