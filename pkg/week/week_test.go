package week

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStart_AlwaysMonday(t *testing.T) {
	// 覆盖一整年加跨年边界
	start := date(2023, 12, 25)
	for i := 0; i < 400; i++ {
		d := start.AddDate(0, 0, i)
		ws := Start(d)
		if ws.Weekday() != time.Monday {
			t.Errorf("Start(%s) = %s，不是周一", d.Format("2006-01-02"), ws.Format("2006-01-02"))
		}
		if ws.After(d) {
			t.Errorf("Start(%s) = %s，不应晚于输入日期", d.Format("2006-01-02"), ws.Format("2006-01-02"))
		}
	}
}

func TestStart_Idempotent(t *testing.T) {
	cases := []time.Time{
		date(2024, 1, 1),  // 周一
		date(2024, 1, 2),  // 周二
		date(2024, 1, 7),  // 周日
		date(2024, 2, 29), // 闰日（周四）
		time.Date(2024, 3, 5, 18, 45, 3, 0, time.UTC), // 带时间成分
	}
	for _, d := range cases {
		once := Start(d)
		twice := Start(once)
		if !once.Equal(twice) {
			t.Errorf("Start 不幂等: Start(%s)=%s, Start(Start)=%s", d, once, twice)
		}
	}
}

func TestStart_KnownDates(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2024, 1, 1), date(2024, 1, 1)},   // 2024-01-01 本身是周一
		{date(2024, 1, 4), date(2024, 1, 1)},   // 周四
		{date(2024, 1, 7), date(2024, 1, 1)},   // 周日仍属本周
		{date(2024, 1, 8), date(2024, 1, 8)},   // 下个周一
		{date(2024, 2, 1), date(2024, 1, 29)},  // 跨月
		{date(2025, 1, 1), date(2024, 12, 30)}, // 跨年
	}
	for _, c := range cases {
		got := Start(c.in)
		if !got.Equal(c.want) {
			t.Errorf("Start(%s) = %s，期望 %s",
				c.in.Format("2006-01-02"), got.Format("2006-01-02"), c.want.Format("2006-01-02"))
		}
	}
}

func TestDayIndex(t *testing.T) {
	// 2024-01-01 是周一
	for i := 0; i < 7; i++ {
		d := date(2024, 1, 1).AddDate(0, 0, i)
		if DayIndex(d) != i {
			t.Errorf("DayIndex(%s) = %d，期望 %d", d.Format("2006-01-02"), DayIndex(d), i)
		}
	}
}

func TestNextAndAdd(t *testing.T) {
	d := date(2024, 1, 3) // 周三
	if got := Next(d); !got.Equal(date(2024, 1, 8)) {
		t.Errorf("Next = %s，期望 2024-01-08", got.Format("2006-01-02"))
	}
	if got := Add(d, 2); !got.Equal(date(2024, 1, 15)) {
		t.Errorf("Add(2) = %s，期望 2024-01-15", got.Format("2006-01-02"))
	}
	if got := Add(d, 0); !got.Equal(date(2024, 1, 1)) {
		t.Errorf("Add(0) = %s，期望 2024-01-01", got.Format("2006-01-02"))
	}
}

func TestDateOf(t *testing.T) {
	ws := date(2024, 1, 1)
	if got := DateOf(ws, 1); !got.Equal(date(2024, 1, 2)) {
		t.Errorf("DateOf(周二) = %s，期望 2024-01-02", got.Format("2006-01-02"))
	}
	// 传入未归一化日期时自动归一
	if got := DateOf(date(2024, 1, 3), 4); !got.Equal(date(2024, 1, 5)) {
		t.Errorf("DateOf(周五) = %s，期望 2024-01-05", got.Format("2006-01-02"))
	}
}

func TestIsStart(t *testing.T) {
	if !IsStart(date(2024, 1, 1)) {
		t.Error("2024-01-01 应是周起始")
	}
	if IsStart(date(2024, 1, 2)) {
		t.Error("2024-01-02 不应是周起始")
	}
	if IsStart(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Error("带时间成分的周一不应视为已归一化")
	}
}
