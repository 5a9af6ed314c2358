package services

import "testing"

func TestRoadmapHasOneItemPerWeek(t *testing.T) {
	items := RoadmapItems()
	if len(items) != 36 {
		t.Fatalf("len(RoadmapItems()) = %d, want 36", len(items))
	}
	seen := make(map[string]struct{}, len(items))
	for index, item := range items {
		if item.Week != index+1 {
			t.Fatalf("item %q has week %d, want %d", item.ID, item.Week, index+1)
		}
		if _, ok := seen[item.ID]; ok {
			t.Fatalf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	items[0].Label = "mutated"
	if RoadmapItems()[0].Label == "mutated" {
		t.Fatal("RoadmapItems() must return a copy")
	}
}

func TestBadgeThresholds(t *testing.T) {
	tests := []struct {
		weeks int
		want  Badge
	}{
		{weeks: 0, want: BadgeNone},
		{weeks: 11, want: BadgeNone},
		{weeks: 12, want: BadgeBronze},
		{weeks: 23, want: BadgeBronze},
		{weeks: 24, want: BadgeSilver},
		{weeks: 35, want: BadgeSilver},
		{weeks: 36, want: BadgeGold},
	}
	for _, test := range tests {
		if got := BadgeFor(test.weeks); got != test.want {
			t.Fatalf("BadgeFor(%d) = %q, want %q", test.weeks, got, test.want)
		}
	}
}

func TestProgressPercentageBounds(t *testing.T) {
	items := RoadmapItems()
	state := RoadmapState{}
	for completed := 0; completed <= len(items); completed++ {
		if completed > 0 {
			state[items[completed-1].ID] = true
		}
		progress := Progress(state)
		if progress.Completed != completed || progress.Total != 36 {
			t.Fatalf("Progress() counts = %d/%d, want %d/36", progress.Completed, progress.Total, completed)
		}
		if progress.Percentage < 0 || progress.Percentage > 100 {
			t.Fatalf("percentage %d out of bounds", progress.Percentage)
		}
		if (progress.Percentage == 100) != (completed == 36) {
			t.Fatalf("percentage %d with %d completed", progress.Percentage, completed)
		}
	}
}

func TestProgressWithOnlyFinalWeekChecked(t *testing.T) {
	progress := Progress(RoadmapState{"final-check": true, "not-a-roadmap-item": true})
	if progress.Completed != 1 {
		t.Fatalf("Completed = %d, want 1", progress.Completed)
	}
	if progress.CompletedWeeks != 36 || progress.Badge != BadgeGold || progress.Percentage != 3 {
		t.Fatalf("Progress() = %+v, want week 36, gold, 3%%", progress)
	}
}

func TestPartition(t *testing.T) {
	state := RoadmapState{"choose-clinic": true, "route-to-hospital": true}

	partition := Partition(state, 10)
	if len(partition.ThisWeek) != 1 || partition.ThisWeek[0].Week != 10 {
		t.Fatalf("ThisWeek = %+v, want the week 10 item", partition.ThisWeek)
	}
	if len(partition.Upcoming) != 3 || partition.Upcoming[0].Week != 11 || partition.Upcoming[2].Week != 13 {
		t.Fatalf("Upcoming = %+v, want weeks 11..13", partition.Upcoming)
	}
	if len(partition.Unlocked) != 10 {
		t.Fatalf("len(Unlocked) = %d, want 10", len(partition.Unlocked))
	}
	if len(partition.Completed) != 2 {
		t.Fatalf("len(Completed) = %d, want 2", len(partition.Completed))
	}

	early := Partition(RoadmapState{}, 0)
	if len(early.ThisWeek) != 0 || len(early.Unlocked) != 0 || early.Upcoming[0].Week != 1 {
		t.Fatalf("Partition(week 0) = %+v", early)
	}

	late := Partition(RoadmapState{}, 40)
	if len(late.ThisWeek) != 0 || len(late.Upcoming) != 0 || len(late.Unlocked) != 36 {
		t.Fatalf("Partition(week 40) = %+v", late)
	}
}
