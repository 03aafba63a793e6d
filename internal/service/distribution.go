package service

import "linguabridge/backend/internal/model"

// placement 单节课的周内落位
type placement struct {
	Day  int    // 0=周一 … 6=周日
	Slot string // "14:00-14:30"
}

// distributionResult 分配结果
type distributionResult struct {
	Placements []placement
	Dropped    int    // 时段目录耗尽被截断的节数
	LessonType string // regular | intensive
}

// 密集排课（8+ 节/周）使用的固定 4 时段目录
var intensiveSlotCatalog = []string{
	"09:00-09:30",
	"10:00-10:30",
	"14:00-14:30",
	"15:00-15:30",
}

// 分散排课（4-7 节/周）使用的固定默认时段
const defaultSpreadSlot = "14:00-14:30"

// distributionStrategy 按每周节数区间选择的分配策略
type distributionStrategy interface {
	// Distribute 从锚点 (day, slot) 出发给出每节课的落位
	Distribute(anchorDay int, anchorSlot string, lessons int, catalog []model.TimeSlot) distributionResult
}

// strategyFor 按节数选择策略：
//
//	1 节   — 锚点时段单节
//	2-3 节 — 同日沿时段目录顺延
//	4-7 节 — 从锚点日起逐日分散（固定默认时段）
//	8+ 节  — 固定 4 时段目录密集循环，每满 4 节推进一天
func strategyFor(lessons int) distributionStrategy {
	switch {
	case lessons <= 1:
		return singleStrategy{}
	case lessons <= 3:
		return sequentialStrategy{}
	case lessons <= 7:
		return spreadStrategy{}
	default:
		return intensiveStrategy{}
	}
}

// ── 单节 ──

type singleStrategy struct{}

func (singleStrategy) Distribute(anchorDay int, anchorSlot string, _ int, _ []model.TimeSlot) distributionResult {
	return distributionResult{
		Placements: []placement{{Day: anchorDay, Slot: anchorSlot}},
		LessonType: model.LessonTypeRegular,
	}
}

// ── 同日顺延（2-3 节）──

type sequentialStrategy struct{}

// Distribute 从锚点时段沿有序目录向后取相邻时段，目录耗尽时
// 剩余节数不再创建（不回绕），由调用方记录截断日志
func (sequentialStrategy) Distribute(anchorDay int, anchorSlot string, lessons int, catalog []model.TimeSlot) distributionResult {
	start := -1
	for i, s := range catalog {
		if s.Slot == anchorSlot {
			start = i
			break
		}
	}
	if start < 0 {
		// 锚点时段不在目录中：只排锚点这一节，其余截断
		return distributionResult{
			Placements: []placement{{Day: anchorDay, Slot: anchorSlot}},
			Dropped:    lessons - 1,
			LessonType: model.LessonTypeRegular,
		}
	}

	var placements []placement
	for i := 0; i < lessons && start+i < len(catalog); i++ {
		placements = append(placements, placement{Day: anchorDay, Slot: catalog[start+i].Slot})
	}
	return distributionResult{
		Placements: placements,
		Dropped:    lessons - len(placements),
		LessonType: model.LessonTypeRegular,
	}
}

// ── 逐日分散（4-7 节）──

type spreadStrategy struct{}

func (spreadStrategy) Distribute(anchorDay int, _ string, lessons int, _ []model.TimeSlot) distributionResult {
	placements := make([]placement, 0, lessons)
	for i := 0; i < lessons; i++ {
		placements = append(placements, placement{
			Day:  (anchorDay + i) % 7,
			Slot: defaultSpreadSlot,
		})
	}
	return distributionResult{
		Placements: placements,
		LessonType: model.LessonTypeRegular,
	}
}

// ── 密集循环（8+ 节）──

type intensiveStrategy struct{}

func (intensiveStrategy) Distribute(anchorDay int, _ string, lessons int, _ []model.TimeSlot) distributionResult {
	placements := make([]placement, 0, lessons)
	for i := 0; i < lessons; i++ {
		placements = append(placements, placement{
			Day:  (anchorDay + i/len(intensiveSlotCatalog)) % 7,
			Slot: intensiveSlotCatalog[i%len(intensiveSlotCatalog)],
		})
	}
	return distributionResult{
		Placements: placements,
		LessonType: model.LessonTypeIntensive,
	}
}
