package week

import "time"

// 本包提供周一锚定的周归一化。所有写入路径都必须经过 Start，
// 保证课次与模板的 week_start_date 永远落在周一零点（UTC 日期语义）。

// Start 返回 t 所在周的周一（零点，UTC）。
// 对已是周一的日期幂等：Start(Start(t)) == Start(t)。
func Start(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -DayIndex(day))
}

// Next 返回 t 所在周的下一个周一。
func Next(t time.Time) time.Time {
	return Start(t).AddDate(0, 0, 7)
}

// Add 返回以 t 所在周为基准偏移 n 周后的周一。
func Add(t time.Time, n int) time.Time {
	return Start(t).AddDate(0, 0, 7*n)
}

// IsStart 判断 t 是否已是归一化的周起始日（周一）。
func IsStart(t time.Time) bool {
	return Start(t).Equal(t)
}

// DayIndex 返回周一锚定的星期下标：周一=0 … 周日=6。
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DateOf 返回某周中第 day 天（周一=0）的具体日期。
func DateOf(weekStart time.Time, day int) time.Time {
	return Start(weekStart).AddDate(0, 0, day)
}
