package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"linguabridge/backend/config"
	"linguabridge/backend/internal/dto"
	"linguabridge/backend/internal/model"
	"linguabridge/backend/internal/repository"
	"linguabridge/backend/pkg/week"
)

// ── 排课模块业务错误 ──

var (
	ErrTemplateNotFound        = errors.New("课程模板不存在")
	ErrTemplateInactive        = errors.New("课程模板已停用")
	ErrOccurrenceNotFound      = errors.New("课次不存在")
	ErrInvalidTimeSlot         = errors.New("时段不在时段目录中")
	ErrTimeSlotNotFound        = errors.New("时段不存在")
	ErrInvalidDate             = errors.New("日期格式不合法")
	ErrInvalidAttendanceStatus = errors.New("出勤状态不合法")
	ErrStudentDoubleBooked     = errors.New("学生在该时段已有课次")
	ErrTeacherDoubleBooked     = errors.New("教师在该时段已有课次")
	ErrPastImmutable           = errors.New("过去周的课次不可删除或改排")
	ErrScopeForbidden          = errors.New("无权操作其他教师的课次")
)

// Caller 请求主体（由 JWT 中间件解出）
type Caller struct {
	UserID    string
	Role      string
	TeacherID string // 仅教师角色非空
}

// ScheduleService 排课业务接口
type ScheduleService interface {
	// 创建或更新周期课程模板，并物化近期课次
	CreateOrUpdateTemplate(ctx context.Context, req *dto.CreateTemplateRequest, callerID string) (*dto.GenerationResultResponse, error)
	// 停用模板（不删除已物化课次）
	DeactivateTemplate(ctx context.Context, templateID, callerID string) error
	// 模板列表（教师角色只能查询自己名下模板）
	ListTemplates(ctx context.Context, req *dto.TemplateListRequest, caller *Caller) ([]dto.TemplateResponse, error)
	// 课次列表（教师角色只能查询自己名下课次）
	ListOccurrences(ctx context.Context, req *dto.OccurrenceListRequest, caller *Caller) ([]dto.OccurrenceResponse, error)
	// 出勤标记（允许覆盖改标）
	MarkAttendance(ctx context.Context, occurrenceID string, req *dto.MarkAttendanceRequest, caller *Caller) (*dto.OccurrenceResponse, error)
	// 删除未来课次（过去课次不可删除）
	DeleteOccurrence(ctx context.Context, occurrenceID, callerID string) error
	// 学生换教师：历史课次保留原教师，仅未来课次切换
	ReassignStudent(ctx context.Context, req *dto.ReassignStudentRequest, callerID string) (*dto.ReassignResultResponse, error)
	// 单周补排（幂等）
	GenerateWeek(ctx context.Context, req *dto.GenerateWeekRequest, callerID string) (*dto.GenerationResultResponse, error)
	// 所有启用模板向前续排一周（幂等）
	ExtendOneWeek(ctx context.Context, callerID string) (*dto.ExtensionResultResponse, error)
	// 统计待续排模板数（只读，用于提醒）
	CountDueForExtension(ctx context.Context) (*dto.ExtensionDueResponse, error)
	// 排课历史
	ListHistory(ctx context.Context, req *dto.HistoryListRequest) ([]dto.HistoryResponse, int64, error)
	// 时段目录
	ListTimeSlots(ctx context.Context) ([]dto.TimeSlotResponse, error)
	// 时段启停：停用的时段不再参与分布策略与模板校验，已排课次不受影响
	UpdateTimeSlot(ctx context.Context, id string, req *dto.UpdateTimeSlotRequest, callerID string) (*dto.TimeSlotResponse, error)
}

type scheduleService struct {
	repo           *repository.Repository
	logger         *zap.Logger
	horizonWeeks   int
	lookaheadWeeks int
	now            func() time.Time // 可注入固定时钟用于测试
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{
		repo:           repo,
		logger:         logger,
		horizonWeeks:   cfg.Schedule.HorizonWeeks,
		lookaheadWeeks: cfg.Schedule.ExtensionLookaheadWeeks,
		now:            time.Now,
	}
}

// currentWeek 当前周起始（周一）
func (s *scheduleService) currentWeek() time.Time {
	return week.Start(s.now())
}

// ════════════════════════════════════════════════════════════
// 模板管理
// ════════════════════════════════════════════════════════════

func (s *scheduleService) CreateOrUpdateTemplate(ctx context.Context, req *dto.CreateTemplateRequest, callerID string) (*dto.GenerationResultResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	var endDate *time.Time
	if req.EndDate != nil {
		e, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, ErrInvalidDate
		}
		endDate = &e
	}

	// 1. 校验学生与教师存在且启用
	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}
	if !student.IsActive {
		return nil, ErrStudentNotFound
	}
	teacher, err := s.repo.Teacher.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	if !teacher.IsActive {
		return nil, ErrTeacherNotFound
	}

	// 2. 校验锚点时段在启用目录中
	catalog, err := s.repo.TimeSlot.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询时段目录失败", zap.Error(err))
		return nil, err
	}
	if !catalogContains(catalog, req.TimeSlot) {
		return nil, ErrInvalidTimeSlot
	}

	// 3. 构造模板（StartDate/EndDate 归一化到周一）
	tpl := model.NewScheduleTemplate(
		req.StudentID, req.TeacherID, *req.DayOfWeek,
		req.TimeSlot, req.LessonsPerWeek, startDate, endDate,
	)
	tpl.CreatedBy = &callerID
	tpl.UpdatedBy = &callerID

	// 4. 事务：模板 upsert + 近期课次物化（撞课则整体回滚）
	var created, skipped, dropped int
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Template.Upsert(ctx, tpl); err != nil {
			s.logger.Error("模板 upsert 失败", zap.Error(err))
			return err
		}
		weeks := weeksFrom(tpl.StartDate, s.horizonWeeks)
		created, skipped, dropped, err = s.ensureOccurrences(ctx, tx, tpl, weeks, callerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("模板已保存并物化课次",
		zap.String("template_id", tpl.TemplateID),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
		zap.Int("dropped", dropped),
	)
	return &dto.GenerationResultResponse{
		Template: templateToResponse(tpl),
		Created:  created,
		Skipped:  skipped,
		Dropped:  dropped,
	}, nil
}

func (s *scheduleService) DeactivateTemplate(ctx context.Context, templateID, callerID string) error {
	if _, err := s.repo.Template.GetByID(ctx, templateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.Error(err))
		return err
	}
	if err := s.repo.Template.SetActive(ctx, templateID, false, &callerID); err != nil {
		s.logger.Error("停用模板失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *scheduleService) ListTemplates(ctx context.Context, req *dto.TemplateListRequest, caller *Caller) ([]dto.TemplateResponse, error) {
	filter := repository.TemplateFilter{
		StudentID:  req.StudentID,
		TeacherID:  req.TeacherID,
		ActiveOnly: req.ActiveOnly,
	}

	// 教师角色只能查询自己名下模板
	if caller.Role == model.RoleTeacher {
		if filter.TeacherID != "" && filter.TeacherID != caller.TeacherID {
			return nil, ErrScopeForbidden
		}
		filter.TeacherID = caller.TeacherID
	}

	tpls, err := s.repo.Template.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询模板列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.TemplateResponse, 0, len(tpls))
	for i := range tpls {
		out = append(out, templateToResponse(&tpls[i]))
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// 课次查询与出勤
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListOccurrences(ctx context.Context, req *dto.OccurrenceListRequest, caller *Caller) ([]dto.OccurrenceResponse, error) {
	filter := repository.OccurrenceFilter{
		StudentID: req.StudentID,
		TeacherID: req.TeacherID,
	}

	// 教师角色只能查询自己名下课次
	if caller.Role == model.RoleTeacher {
		if filter.TeacherID != "" && filter.TeacherID != caller.TeacherID {
			return nil, ErrScopeForbidden
		}
		filter.TeacherID = caller.TeacherID
	}

	if req.WeekStart != "" {
		d, err := time.Parse("2006-01-02", req.WeekStart)
		if err != nil {
			return nil, ErrInvalidDate
		}
		w := week.Start(d)
		filter.WeekStart = &w
	}

	occs, err := s.repo.Occurrence.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询课次列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.OccurrenceResponse, 0, len(occs))
	for i := range occs {
		out = append(out, occurrenceToResponse(&occs[i]))
	}
	return out, nil
}

func (s *scheduleService) MarkAttendance(ctx context.Context, occurrenceID string, req *dto.MarkAttendanceRequest, caller *Caller) (*dto.OccurrenceResponse, error) {
	if !model.ValidAttendanceMark(req.Status) {
		return nil, ErrInvalidAttendanceStatus
	}

	occ, err := s.repo.Occurrence.GetByID(ctx, occurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOccurrenceNotFound
		}
		s.logger.Error("查询课次失败", zap.Error(err))
		return nil, err
	}
	if caller.Role == model.RoleTeacher && occ.TeacherID != caller.TeacherID {
		return nil, ErrScopeForbidden
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Occurrence.UpdateAttendance(ctx, occ.OccurrenceID, req.Status, occ.Version, &caller.UserID); err != nil {
			return err
		}
		occID := occ.OccurrenceID
		return tx.History.Create(ctx, &model.ScheduleHistory{
			OccurrenceID: &occID,
			Action:       model.HistoryActionAttendanceMarked,
			ActorID:      caller.UserID,
			Note:         fmt.Sprintf("出勤标记: %s -> %s", occ.AttendanceStatus, req.Status),
		})
	})
	if err != nil {
		return nil, err
	}

	occ.AttendanceStatus = req.Status
	occ.Version++
	resp := occurrenceToResponse(occ)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 变更：删除 / 换教师
// ════════════════════════════════════════════════════════════

func (s *scheduleService) DeleteOccurrence(ctx context.Context, occurrenceID, callerID string) error {
	occ, err := s.repo.Occurrence.GetByID(ctx, occurrenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOccurrenceNotFound
		}
		s.logger.Error("查询课次失败", zap.Error(err))
		return err
	}

	// 过去周的课次是出勤审计记录，不可删除
	if occ.WeekStartDate.Before(s.currentWeek()) {
		return ErrPastImmutable
	}

	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		occID := occ.OccurrenceID
		if err := tx.History.Create(ctx, &model.ScheduleHistory{
			OccurrenceID: &occID,
			Action:       model.HistoryActionDeleted,
			OldTeacherID: &occ.TeacherID,
			ActorID:      callerID,
		}); err != nil {
			return err
		}
		return tx.Occurrence.Delete(ctx, occ.OccurrenceID)
	})
}

func (s *scheduleService) ReassignStudent(ctx context.Context, req *dto.ReassignStudentRequest, callerID string) (*dto.ReassignResultResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}
	if !student.IsActive {
		return nil, ErrStudentNotFound
	}
	newTeacher, err := s.repo.Teacher.GetByID(ctx, req.ToTeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	if !newTeacher.IsActive {
		return nil, ErrTeacherNotFound
	}

	occs, err := s.repo.Occurrence.ListByStudentAndTeacher(ctx, req.StudentID, req.FromTeacherID)
	if err != nil {
		s.logger.Error("查询配对课次失败", zap.Error(err))
		return nil, err
	}

	currentWeek := s.currentWeek()
	result := &dto.ReassignResultResponse{TotalOccurrences: len(occs)}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 阶段1: 撞课预检 — 新教师在所有未来落位上必须空闲
		for i := range occs {
			occ := &occs[i]
			if occ.WeekStartDate.Before(currentWeek) {
				continue
			}
			other, err := tx.Occurrence.GetTeacherAt(ctx, req.ToTeacherID, occ.DayOfWeek, occ.TimeSlot, occ.WeekStartDate)
			if err != nil {
				return err
			}
			if other != nil {
				return ErrTeacherDoubleBooked
			}
		}

		// 阶段2: 未来课次切换教师并保留原教师；全部课次写历史
		entries := make([]*model.ScheduleHistory, 0, len(occs))
		for i := range occs {
			occ := &occs[i]
			occID := occ.OccurrenceID
			oldTeacherID := occ.TeacherID
			entries = append(entries, &model.ScheduleHistory{
				OccurrenceID: &occID,
				Action:       model.HistoryActionReassigned,
				OldTeacherID: &oldTeacherID,
				NewTeacherID: &req.ToTeacherID,
				ActorID:      callerID,
			})
			if occ.WeekStartDate.Before(currentWeek) {
				continue // 历史课次保留实际授课教师
			}
			original := occ.OriginalTeacherID
			if original == nil {
				o := occ.TeacherID
				original = &o
			}
			if err := tx.Occurrence.UpdateTeacher(ctx, occ.OccurrenceID, req.ToTeacherID, original, occ.Version, &callerID); err != nil {
				return err
			}
			result.FutureReassigned++
		}
		if err := tx.History.BatchCreate(ctx, entries); err != nil {
			return err
		}
		result.HistoryEntries = len(entries)

		// 阶段3: 常设配对与启用模板跟随切换
		if err := tx.Assignment.Deactivate(ctx, req.StudentID, req.FromTeacherID, &callerID); err != nil {
			return err
		}
		if err := tx.Assignment.Ensure(ctx, req.StudentID, req.ToTeacherID, &callerID); err != nil {
			return err
		}
		switched, err := tx.Template.UpdateTeacherForStudent(ctx, req.StudentID, req.FromTeacherID, req.ToTeacherID, &callerID)
		if err != nil {
			return err
		}
		result.TemplatesSwitched = int(switched)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("学生换教师完成",
		zap.String("student_id", req.StudentID),
		zap.String("from_teacher", req.FromTeacherID),
		zap.String("to_teacher", req.ToTeacherID),
		zap.Int("future_reassigned", result.FutureReassigned),
	)
	return result, nil
}

// ════════════════════════════════════════════════════════════
// 课次生成：单周补排 / 批量续排
// ════════════════════════════════════════════════════════════

func (s *scheduleService) GenerateWeek(ctx context.Context, req *dto.GenerateWeekRequest, callerID string) (*dto.GenerationResultResponse, error) {
	d, err := time.Parse("2006-01-02", req.WeekStart)
	if err != nil {
		return nil, ErrInvalidDate
	}
	targetWeek := week.Start(d)

	tpl, err := s.repo.Template.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		s.logger.Error("查询模板失败", zap.Error(err))
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrTemplateInactive
	}

	var created, skipped, dropped int
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		created, skipped, dropped, err = s.ensureOccurrences(ctx, tx, tpl, []time.Time{targetWeek}, callerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &dto.GenerationResultResponse{
		Template: templateToResponse(tpl),
		Created:  created,
		Skipped:  skipped,
		Dropped:  dropped,
	}, nil
}

func (s *scheduleService) ExtendOneWeek(ctx context.Context, callerID string) (*dto.ExtensionResultResponse, error) {
	tpls, err := s.repo.Template.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询启用模板失败", zap.Error(err))
		return nil, err
	}

	// 续排上界：当前周 + 前瞻窗口。已覆盖到上界的模板跳过，
	// 因此重复调用收敛后不再新增课次（幂等）
	cutoff := week.Add(s.currentWeek(), s.lookaheadWeeks)

	result := &dto.ExtensionResultResponse{}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for i := range tpls {
			tpl := &tpls[i]

			// 下一周 = 该模板已物化课次的最大周 + 1；尚无课次则从起始周开始
			latest, err := tx.Occurrence.LatestWeekByTemplate(ctx, tpl.TemplateID)
			if err != nil {
				return err
			}
			nextWeek := tpl.StartDate
			if latest != nil {
				nextWeek = week.Next(*latest)
			}
			if nextWeek.After(cutoff) {
				continue
			}
			if tpl.EndDate != nil && nextWeek.After(*tpl.EndDate) {
				continue
			}

			created, _, _, err := s.ensureOccurrences(ctx, tx, tpl, []time.Time{nextWeek}, callerID)
			if err != nil {
				return err
			}
			if created > 0 {
				result.TemplatesExtended++
				result.OccurrencesAdded += created
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("批量续排完成",
		zap.Int("templates_extended", result.TemplatesExtended),
		zap.Int("occurrences_added", result.OccurrencesAdded),
	)
	return result, nil
}

func (s *scheduleService) CountDueForExtension(ctx context.Context) (*dto.ExtensionDueResponse, error) {
	cutoff := week.Add(s.currentWeek(), s.lookaheadWeeks)
	count, err := s.repo.Template.CountActiveDue(ctx, cutoff)
	if err != nil {
		s.logger.Error("统计待续排模板失败", zap.Error(err))
		return nil, err
	}
	return &dto.ExtensionDueResponse{
		DueCount: count,
		Cutoff:   cutoff.Format("2006-01-02"),
	}, nil
}

// ════════════════════════════════════════════════════════════
// 历史与目录
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListHistory(ctx context.Context, req *dto.HistoryListRequest) ([]dto.HistoryResponse, int64, error) {
	entries, total, err := s.repo.History.List(ctx, repository.HistoryFilter{
		OccurrenceID: req.OccurrenceID,
		Action:       req.Action,
		Page:         req.GetPage(),
		PageSize:     req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询排课历史失败", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.HistoryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		out = append(out, dto.HistoryResponse{
			ID:           e.HistoryID,
			OccurrenceID: e.OccurrenceID,
			Action:       e.Action,
			OldTeacherID: e.OldTeacherID,
			NewTeacherID: e.NewTeacherID,
			ActorID:      e.ActorID,
			Note:         e.Note,
			CreatedAt:    e.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, total, nil
}

func (s *scheduleService) ListTimeSlots(ctx context.Context) ([]dto.TimeSlotResponse, error) {
	slots, err := s.repo.TimeSlot.List(ctx)
	if err != nil {
		s.logger.Error("查询时段目录失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.TimeSlotResponse, 0, len(slots))
	for i := range slots {
		sl := &slots[i]
		out = append(out, dto.TimeSlotResponse{
			ID:        sl.TimeSlotID,
			Slot:      sl.Slot,
			SortOrder: sl.SortOrder,
			IsActive:  sl.IsActive,
		})
	}
	return out, nil
}

func (s *scheduleService) UpdateTimeSlot(ctx context.Context, id string, req *dto.UpdateTimeSlotRequest, callerID string) (*dto.TimeSlotResponse, error) {
	slot, err := s.repo.TimeSlot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeSlotNotFound
		}
		s.logger.Error("查询时段失败", zap.Error(err))
		return nil, err
	}

	slot.IsActive = *req.IsActive
	slot.UpdatedBy = &callerID
	if err := s.repo.TimeSlot.Update(ctx, slot); err != nil {
		s.logger.Error("更新时段失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("时段启停已更新",
		zap.String("time_slot_id", id),
		zap.Bool("is_active", slot.IsActive),
	)
	return &dto.TimeSlotResponse{
		ID:        slot.TimeSlotID,
		Slot:      slot.Slot,
		SortOrder: slot.SortOrder,
		IsActive:  slot.IsActive,
	}, nil
}

// ════════════════════════════════════════════════════════════
// 课次物化核心
// ════════════════════════════════════════════════════════════

// ensureOccurrences 在给定各周内幂等物化模板课次：
//
//	阶段1: 全量扫描所有落位做撞课检测（学生先于教师），任一冲突即返回错误，
//	       由外层事务回滚，保证零部分写入
//	阶段2: 批量创建课次 + 写 created 历史 + 确保学生-教师常设配对存在
//
// 已存在且归属同一教师的落位计入 skipped（幂等跳过）
func (s *scheduleService) ensureOccurrences(ctx context.Context, tx *repository.Repository, tpl *model.ScheduleTemplate, weeks []time.Time, actorID string) (created, skipped, dropped int, err error) {
	catalog, err := tx.TimeSlot.ListActive(ctx)
	if err != nil {
		return 0, 0, 0, err
	}

	res := strategyFor(tpl.LessonsPerWeek).Distribute(tpl.DayOfWeek, tpl.TimeSlot, tpl.LessonsPerWeek, catalog)
	if res.Dropped > 0 {
		s.logger.Warn("时段目录耗尽，部分课节未创建",
			zap.String("template_id", tpl.TemplateID),
			zap.String("anchor_slot", tpl.TimeSlot),
			zap.Int("dropped_per_week", res.Dropped),
		)
	}

	// ── 阶段1: 撞课预检 ──
	var toCreate []*model.ScheduleOccurrence
	for _, wk := range weeks {
		wk = week.Start(wk)
		if wk.Before(tpl.StartDate) {
			continue
		}
		if tpl.EndDate != nil && wk.After(*tpl.EndDate) {
			continue
		}
		dropped += res.Dropped

		for _, p := range res.Placements {
			existing, err := tx.Occurrence.GetStudentAt(ctx, tpl.StudentID, p.Day, p.Slot, wk)
			if err != nil {
				return 0, 0, 0, err
			}
			if existing != nil {
				if existing.TeacherID == tpl.TeacherID {
					skipped++
					continue
				}
				return 0, 0, 0, ErrStudentDoubleBooked
			}
			other, err := tx.Occurrence.GetTeacherAt(ctx, tpl.TeacherID, p.Day, p.Slot, wk)
			if err != nil {
				return 0, 0, 0, err
			}
			if other != nil {
				return 0, 0, 0, ErrTeacherDoubleBooked
			}

			occ := model.NewScheduleOccurrence(&tpl.TemplateID, tpl.StudentID, tpl.TeacherID, p.Day, p.Slot, wk, res.LessonType)
			occ.CreatedBy = &actorID
			toCreate = append(toCreate, occ)
		}
	}

	// ── 阶段2: 批量写入 ──
	if err := tx.Occurrence.BatchCreate(ctx, toCreate); err != nil {
		return 0, 0, 0, err
	}
	entries := make([]*model.ScheduleHistory, 0, len(toCreate))
	for _, occ := range toCreate {
		occID := occ.OccurrenceID
		teacherID := tpl.TeacherID
		entries = append(entries, &model.ScheduleHistory{
			OccurrenceID: &occID,
			Action:       model.HistoryActionCreated,
			NewTeacherID: &teacherID,
			ActorID:      actorID,
		})
	}
	if err := tx.History.BatchCreate(ctx, entries); err != nil {
		return 0, 0, 0, err
	}
	if len(toCreate) > 0 {
		if err := tx.Assignment.Ensure(ctx, tpl.StudentID, tpl.TeacherID, &actorID); err != nil {
			return 0, 0, 0, err
		}
	}
	return len(toCreate), skipped, dropped, nil
}

// ── 辅助 ──

func catalogContains(catalog []model.TimeSlot, slot string) bool {
	for _, s := range catalog {
		if s.Slot == slot {
			return true
		}
	}
	return false
}

// weeksFrom 从起始周起连续 n 周的周一序列
func weeksFrom(start time.Time, n int) []time.Time {
	weeks := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		weeks = append(weeks, week.Add(start, i))
	}
	return weeks
}

func templateToResponse(tpl *model.ScheduleTemplate) dto.TemplateResponse {
	resp := dto.TemplateResponse{
		ID:             tpl.TemplateID,
		DayOfWeek:      tpl.DayOfWeek,
		TimeSlot:       tpl.TimeSlot,
		LessonsPerWeek: tpl.LessonsPerWeek,
		StartDate:      tpl.StartDate.Format("2006-01-02"),
		IsActive:       tpl.IsActive,
		CreatedAt:      tpl.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      tpl.UpdatedAt.Format(time.RFC3339),
	}
	if tpl.EndDate != nil {
		e := tpl.EndDate.Format("2006-01-02")
		resp.EndDate = &e
	}
	if tpl.Student != nil {
		resp.Student = &dto.StudentBrief{ID: tpl.Student.StudentID, Name: tpl.Student.Name}
	} else {
		resp.Student = &dto.StudentBrief{ID: tpl.StudentID}
	}
	if tpl.Teacher != nil {
		resp.Teacher = &dto.TeacherBrief{ID: tpl.Teacher.TeacherID, Name: tpl.Teacher.Name}
	} else {
		resp.Teacher = &dto.TeacherBrief{ID: tpl.TeacherID}
	}
	return resp
}

func occurrenceToResponse(occ *model.ScheduleOccurrence) dto.OccurrenceResponse {
	resp := dto.OccurrenceResponse{
		ID:                occ.OccurrenceID,
		TemplateID:        occ.TemplateID,
		OriginalTeacherID: occ.OriginalTeacherID,
		DayOfWeek:         occ.DayOfWeek,
		TimeSlot:          occ.TimeSlot,
		WeekStartDate:     occ.WeekStartDate.Format("2006-01-02"),
		AttendanceStatus:  occ.AttendanceStatus,
		LessonType:        occ.LessonType,
		Version:           occ.Version,
	}
	if occ.Student != nil {
		resp.Student = &dto.StudentBrief{ID: occ.Student.StudentID, Name: occ.Student.Name}
	} else {
		resp.Student = &dto.StudentBrief{ID: occ.StudentID}
	}
	if occ.Teacher != nil {
		resp.Teacher = &dto.TeacherBrief{ID: occ.Teacher.TeacherID, Name: occ.Teacher.Name}
	} else {
		resp.Teacher = &dto.TeacherBrief{ID: occ.TeacherID}
	}
	return resp
}
