package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"linguabridge/backend/internal/model"
	"linguabridge/backend/internal/repository"
	"linguabridge/backend/pkg/week"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoOccurrences = errors.New("该范围内无课次可导出")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 周课表导出为 Excel (.xlsx)：时段为行、星期为列的网格
//   - 教师/学生个人课表导出为 iCalendar (.ics)，可订阅到日历客户端
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportWeekGrid 导出指定周的全量课表网格
	ExportWeekGrid(ctx context.Context, weekStart string) (*bytes.Buffer, string, error)
	// ExportTeacherCalendar 导出教师个人课表为 ICS（教师角色只能导出自己的）
	ExportTeacherCalendar(ctx context.Context, teacherID string, caller *Caller) (*bytes.Buffer, string, error)
	// ExportStudentCalendar 导出学生个人课表为 ICS
	// 教师角色只能导出与自己有启用配对的学生，且仅含自己授课的课次
	ExportStudentCalendar(ctx context.Context, studentID string, caller *Caller) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportWeekGrid — 导出周课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 行头：时段目录（按 sort_order）
//   - 列头：周一 ~ 周日
//   - 单元格：学生姓名 / 教师姓名，同格多节课换行堆叠

func (s *exportService) ExportWeekGrid(ctx context.Context, weekStart string) (*bytes.Buffer, string, error) {
	d, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil, "", ErrInvalidDate
	}
	targetWeek := week.Start(d)

	occs, err := s.repo.Occurrence.List(ctx, repository.OccurrenceFilter{WeekStart: &targetWeek})
	if err != nil {
		s.logger.Error("查询周课次失败", zap.Error(err))
		return nil, "", err
	}
	if len(occs) == 0 {
		return nil, "", ErrExportNoOccurrences
	}

	catalog, err := s.repo.TimeSlot.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询时段目录失败", zap.Error(err))
		return nil, "", err
	}

	// 数据索引: "day:slot" → 单元格文本（多节课换行堆叠）
	cellIndex := make(map[string][]string)
	for i := range occs {
		occ := &occs[i]
		studentName := occ.StudentID
		if occ.Student != nil {
			studentName = occ.Student.Name
		}
		teacherName := occ.TeacherID
		if occ.Teacher != nil {
			teacherName = occ.Teacher.Name
		}
		key := fmt.Sprintf("%d:%s", occ.DayOfWeek, occ.TimeSlot)
		cellIndex[key] = append(cellIndex[key], fmt.Sprintf("%s / %s", studentName, teacherName))
	}

	// 行 = 有序时段目录；目录外出现过的时段（如密集排课固定时段）补到末尾
	var rowSlots []string
	seen := make(map[string]bool)
	for _, sl := range catalog {
		rowSlots = append(rowSlots, sl.Slot)
		seen[sl.Slot] = true
	}
	var extra []string
	for i := range occs {
		if !seen[occs[i].TimeSlot] {
			seen[occs[i].TimeSlot] = true
			extra = append(extra, occs[i].TimeSlot)
		}
	}
	sort.Strings(extra)
	rowSlots = append(rowSlots, extra...)

	dayNames := []string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "周课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	for i := range dayNames {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetColWidth(sheetName, col, col, 24)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	weekLabel := targetWeek.Format("2006-01-02")
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("周课表 — %s 起", weekLabel))
	f.MergeCell(sheetName, "A1", cell(colName(len(dayNames)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "时段")
	for i, name := range dayNames {
		f.SetCellValue(sheetName, cell(colName(1+i), row), name)
	}

	// 数据行
	row = 3
	for _, slot := range rowSlots {
		f.SetCellValue(sheetName, cell("A", row), slot)
		for day := 0; day < 7; day++ {
			key := fmt.Sprintf("%d:%s", day, slot)
			if texts, ok := cellIndex[key]; ok {
				f.SetCellValue(sheetName, cell(colName(1+day), row), strings.Join(texts, "\n"))
			} else {
				f.SetCellValue(sheetName, cell(colName(1+day), row), "-")
			}
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("周课表_%s.xlsx", weekLabel)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ICS 个人课表导出
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTeacherCalendar(ctx context.Context, teacherID string, caller *Caller) (*bytes.Buffer, string, error) {
	if caller.Role == model.RoleTeacher && teacherID != caller.TeacherID {
		return nil, "", ErrScopeForbidden
	}

	teacher, err := s.repo.Teacher.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, "", err
	}

	occs, err := s.repo.Occurrence.List(ctx, repository.OccurrenceFilter{TeacherID: teacherID})
	if err != nil {
		s.logger.Error("查询教师课次失败", zap.Error(err))
		return nil, "", err
	}

	buf, err := s.buildCalendar(occs, func(occ *model.ScheduleOccurrence) string {
		if occ.Student != nil {
			return fmt.Sprintf("课程: %s", occ.Student.Name)
		}
		return "课程"
	})
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("课表_%s.ics", teacher.Name), nil
}

func (s *exportService) ExportStudentCalendar(ctx context.Context, studentID string, caller *Caller) (*bytes.Buffer, string, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, "", err
	}

	filter := repository.OccurrenceFilter{StudentID: studentID}

	// 教师角色：学生须与自己有启用配对，且只导出自己授课的课次
	if caller.Role == model.RoleTeacher {
		assignments, err := s.repo.Assignment.ListByStudent(ctx, studentID)
		if err != nil {
			s.logger.Error("查询学生配对失败", zap.Error(err))
			return nil, "", err
		}
		assigned := false
		for i := range assignments {
			if assignments[i].TeacherID == caller.TeacherID && assignments[i].IsActive {
				assigned = true
				break
			}
		}
		if !assigned {
			return nil, "", ErrScopeForbidden
		}
		filter.TeacherID = caller.TeacherID
	}

	occs, err := s.repo.Occurrence.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询学生课次失败", zap.Error(err))
		return nil, "", err
	}

	buf, err := s.buildCalendar(occs, func(occ *model.ScheduleOccurrence) string {
		if occ.Teacher != nil {
			return fmt.Sprintf("课程: %s 老师", occ.Teacher.Name)
		}
		return "课程"
	})
	if err != nil {
		return nil, "", err
	}
	return buf, fmt.Sprintf("课表_%s.ics", student.Name), nil
}

// buildCalendar 将课次序列转换为 ICS 日历
func (s *exportService) buildCalendar(occs []model.ScheduleOccurrence, summaryOf func(*model.ScheduleOccurrence) string) (*bytes.Buffer, error) {
	if len(occs) == 0 {
		return nil, ErrExportNoOccurrences
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//linguabridge//schedule//CN")

	for i := range occs {
		occ := &occs[i]
		start, end, err := slotInterval(occ.WeekStartDate, occ.DayOfWeek, occ.TimeSlot)
		if err != nil {
			s.logger.Warn("时段格式不合法，跳过课次",
				zap.String("occurrence_id", occ.OccurrenceID),
				zap.String("time_slot", occ.TimeSlot),
			)
			continue
		}
		event := cal.AddEvent(occ.OccurrenceID + "@linguabridge")
		event.SetCreatedTime(occ.CreatedAt)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(summaryOf(occ))
		event.SetDescription(fmt.Sprintf("出勤状态: %s", occ.AttendanceStatus))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, nil
}

// slotInterval 由周起始 + 周内天 + "HH:MM-HH:MM" 时段推出课次的起止时刻（UTC）
func slotInterval(weekStart time.Time, day int, slot string) (time.Time, time.Time, error) {
	parts := strings.Split(slot, "-")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("时段格式不合法: %s", slot)
	}
	date := week.DateOf(weekStart, day)
	start, err := time.Parse("15:04", parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse("15:04", parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	startAt := time.Date(date.Year(), date.Month(), date.Day(), start.Hour(), start.Minute(), 0, 0, time.UTC)
	endAt := time.Date(date.Year(), date.Month(), date.Day(), end.Hour(), end.Minute(), 0, 0, time.UTC)
	return startAt, endAt, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
