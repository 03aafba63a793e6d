package service

import (
	"testing"

	"linguabridge/backend/internal/model"
)

func testCatalog(slots ...string) []model.TimeSlot {
	catalog := make([]model.TimeSlot, 0, len(slots))
	for i, s := range slots {
		catalog = append(catalog, model.TimeSlot{Slot: s, SortOrder: i + 1, IsActive: true})
	}
	return catalog
}

func TestStrategySelection(t *testing.T) {
	cases := []struct {
		lessons int
		want    string
	}{
		{1, "single"},
		{2, "sequential"},
		{3, "sequential"},
		{4, "spread"},
		{7, "spread"},
		{8, "intensive"},
		{12, "intensive"},
	}
	for _, c := range cases {
		var got string
		switch strategyFor(c.lessons).(type) {
		case singleStrategy:
			got = "single"
		case sequentialStrategy:
			got = "sequential"
		case spreadStrategy:
			got = "spread"
		case intensiveStrategy:
			got = "intensive"
		}
		if got != c.want {
			t.Errorf("lessons=%d 期望策略 %s，实际 %s", c.lessons, c.want, got)
		}
	}
}

func TestSingleStrategy(t *testing.T) {
	res := strategyFor(1).Distribute(1, "14:00-14:30", 1, nil)
	if len(res.Placements) != 1 {
		t.Fatalf("期望 1 个落位，实际 %d", len(res.Placements))
	}
	if res.Placements[0].Day != 1 || res.Placements[0].Slot != "14:00-14:30" {
		t.Errorf("落位不符: %+v", res.Placements[0])
	}
	if res.LessonType != model.LessonTypeRegular {
		t.Errorf("期望 regular 类型，实际 %s", res.LessonType)
	}
}

func TestSequentialStrategy_SameDayConsecutiveSlots(t *testing.T) {
	catalog := testCatalog("13:00-13:30", "14:00-14:30", "14:30-15:00", "15:00-15:30")
	res := strategyFor(3).Distribute(1, "14:00-14:30", 3, catalog)

	if len(res.Placements) != 3 {
		t.Fatalf("期望 3 个落位，实际 %d", len(res.Placements))
	}
	wantSlots := []string{"14:00-14:30", "14:30-15:00", "15:00-15:30"}
	for i, p := range res.Placements {
		if p.Day != 1 {
			t.Errorf("落位 %d 期望在同一天 1，实际 %d", i, p.Day)
		}
		if p.Slot != wantSlots[i] {
			t.Errorf("落位 %d 期望时段 %s，实际 %s", i, wantSlots[i], p.Slot)
		}
	}
	if res.Dropped != 0 {
		t.Errorf("期望无截断，实际 dropped=%d", res.Dropped)
	}
}

func TestSequentialStrategy_CatalogExhausted(t *testing.T) {
	// 锚点在目录末尾，后续时段不足：剩余节数截断而非回绕
	catalog := testCatalog("14:00-14:30", "14:30-15:00")
	res := strategyFor(3).Distribute(2, "14:30-15:00", 3, catalog)

	if len(res.Placements) != 1 {
		t.Fatalf("期望截断到 1 个落位，实际 %d", len(res.Placements))
	}
	if res.Dropped != 2 {
		t.Errorf("期望 dropped=2，实际 %d", res.Dropped)
	}
}

func TestSequentialStrategy_AnchorNotInCatalog(t *testing.T) {
	catalog := testCatalog("09:00-09:30")
	res := strategyFor(2).Distribute(0, "22:00-22:30", 2, catalog)

	if len(res.Placements) != 1 {
		t.Fatalf("期望仅保留锚点落位，实际 %d", len(res.Placements))
	}
	if res.Placements[0].Slot != "22:00-22:30" {
		t.Errorf("锚点落位时段不符: %s", res.Placements[0].Slot)
	}
	if res.Dropped != 1 {
		t.Errorf("期望 dropped=1，实际 %d", res.Dropped)
	}
}

func TestSpreadStrategy_ConsecutiveDays(t *testing.T) {
	res := strategyFor(5).Distribute(4, "10:00-10:30", 5, nil)

	if len(res.Placements) != 5 {
		t.Fatalf("期望 5 个落位，实际 %d", len(res.Placements))
	}
	// 从周五(4)起逐日推进，模 7 回绕到周一
	wantDays := []int{4, 5, 6, 0, 1}
	for i, p := range res.Placements {
		if p.Day != wantDays[i] {
			t.Errorf("落位 %d 期望天 %d，实际 %d", i, wantDays[i], p.Day)
		}
		if p.Slot != defaultSpreadSlot {
			t.Errorf("分散策略应使用固定默认时段，实际 %s", p.Slot)
		}
	}
}

func TestIntensiveStrategy_AdvanceDayEveryFourLessons(t *testing.T) {
	res := strategyFor(10).Distribute(0, "10:00-10:30", 10, nil)

	if len(res.Placements) != 10 {
		t.Fatalf("期望 10 个落位，实际 %d", len(res.Placements))
	}
	if res.LessonType != model.LessonTypeIntensive {
		t.Errorf("期望 intensive 类型，实际 %s", res.LessonType)
	}
	// 前 4 节在第 0 天循环 4 个固定时段，第 5 节开始推进到第 1 天
	for i := 0; i < 4; i++ {
		if res.Placements[i].Day != 0 {
			t.Errorf("第 %d 节期望在第 0 天，实际 %d", i, res.Placements[i].Day)
		}
		if res.Placements[i].Slot != intensiveSlotCatalog[i] {
			t.Errorf("第 %d 节期望时段 %s，实际 %s", i, intensiveSlotCatalog[i], res.Placements[i].Slot)
		}
	}
	for i := 4; i < 8; i++ {
		if res.Placements[i].Day != 1 {
			t.Errorf("第 %d 节期望在第 1 天，实际 %d", i, res.Placements[i].Day)
		}
	}
	if res.Placements[8].Day != 2 || res.Placements[9].Day != 2 {
		t.Errorf("第 9/10 节期望在第 2 天，实际 %d/%d", res.Placements[8].Day, res.Placements[9].Day)
	}
	if res.Placements[8].Slot != intensiveSlotCatalog[0] {
		t.Errorf("第 9 节期望时段目录回到起点，实际 %s", res.Placements[8].Slot)
	}
}
