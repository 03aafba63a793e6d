package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"linguabridge/backend/internal/dto"
	"linguabridge/backend/internal/model"
	"linguabridge/backend/internal/repository"
	"linguabridge/backend/pkg/week"
)

// ── 教师模块业务错误 ──

var ErrTeacherNotFound = errors.New("教师不存在")

// TeacherService 教师档案业务接口
type TeacherService interface {
	Create(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error)
	Get(ctx context.Context, id string) (*dto.TeacherResponse, error)
	List(ctx context.Context, activeOnly bool) ([]dto.TeacherResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID string) (*dto.TeacherResponse, error)
	// Deactivate 停用教师：删除未来课次、停用模板与配对；历史课次与出勤保留
	Deactivate(ctx context.Context, id, callerID string) error
	// HardDelete 彻底删除教师：级联删除课次/模板/报告/配对，历史保留（课次引用置空）
	HardDelete(ctx context.Context, id, callerID string) error
}

type teacherService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewTeacherService 创建 TeacherService 实例
func NewTeacherService(repo *repository.Repository, logger *zap.Logger) TeacherService {
	return &teacherService{repo: repo, logger: logger, now: time.Now}
}

func (s *teacherService) Create(ctx context.Context, req *dto.CreateTeacherRequest, callerID string) (*dto.TeacherResponse, error) {
	teacher := &model.Teacher{
		Name:     req.Name,
		Email:    req.Email,
		IsActive: true,
	}
	teacher.CreatedBy = &callerID
	if err := s.repo.Teacher.Create(ctx, teacher); err != nil {
		s.logger.Error("创建教师失败", zap.Error(err))
		return nil, err
	}
	resp := teacherToResponse(teacher)
	return &resp, nil
}

func (s *teacherService) Get(ctx context.Context, id string) (*dto.TeacherResponse, error) {
	teacher, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	resp := teacherToResponse(teacher)
	return &resp, nil
}

func (s *teacherService) List(ctx context.Context, activeOnly bool) ([]dto.TeacherResponse, error) {
	teachers, err := s.repo.Teacher.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("查询教师列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.TeacherResponse, 0, len(teachers))
	for i := range teachers {
		out = append(out, teacherToResponse(&teachers[i]))
	}
	return out, nil
}

func (s *teacherService) Update(ctx context.Context, id string, req *dto.UpdateTeacherRequest, callerID string) (*dto.TeacherResponse, error) {
	teacher, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	if req.Name != nil {
		teacher.Name = *req.Name
	}
	if req.Email != nil {
		teacher.Email = *req.Email
	}
	teacher.UpdatedBy = &callerID
	if err := s.repo.Teacher.Update(ctx, teacher); err != nil {
		s.logger.Error("更新教师失败", zap.Error(err))
		return nil, err
	}
	resp := teacherToResponse(teacher)
	return &resp, nil
}

func (s *teacherService) Deactivate(ctx context.Context, id, callerID string) error {
	teacher, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return err
	}

	currentWeek := week.Start(s.now())
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 当前周及之后的课次删除并留痕，更早的保留出勤记录
		future, err := tx.Occurrence.ListFutureByTeacher(ctx, id, currentWeek)
		if err != nil {
			return err
		}
		entries := make([]*model.ScheduleHistory, 0, len(future))
		ids := make([]string, 0, len(future))
		for i := range future {
			occ := &future[i]
			occID := occ.OccurrenceID
			oldTeacherID := occ.TeacherID
			entries = append(entries, &model.ScheduleHistory{
				OccurrenceID: &occID,
				Action:       model.HistoryActionDeactivated,
				OldTeacherID: &oldTeacherID,
				ActorID:      callerID,
				Note:         "教师停用",
			})
			ids = append(ids, occ.OccurrenceID)
		}
		if err := tx.History.BatchCreate(ctx, entries); err != nil {
			return err
		}
		if err := tx.Occurrence.DeleteByIDs(ctx, ids); err != nil {
			return err
		}

		if err := tx.Template.DeactivateByTeacher(ctx, id, &callerID); err != nil {
			return err
		}
		if err := tx.Assignment.DeactivateByTeacher(ctx, id, &callerID); err != nil {
			return err
		}

		teacher.IsActive = false
		teacher.UpdatedBy = &callerID
		return tx.Teacher.Update(ctx, teacher)
	})
	if err != nil {
		return err
	}

	s.logger.Info("教师已停用", zap.String("teacher_id", id))
	return nil
}

func (s *teacherService) HardDelete(ctx context.Context, id, callerID string) error {
	if _, err := s.repo.Teacher.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return err
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Occurrence.DeleteByTeacher(ctx, id); err != nil {
			return err
		}
		// 换教师后留在其他教师名下的课次仍引用该教师的原教师字段与模板，先解除引用
		if err := tx.Occurrence.ClearOriginalTeacher(ctx, id); err != nil {
			return err
		}
		tpls, err := tx.Template.List(ctx, repository.TemplateFilter{TeacherID: id})
		if err != nil {
			return err
		}
		tplIDs := make([]string, 0, len(tpls))
		for i := range tpls {
			tplIDs = append(tplIDs, tpls[i].TemplateID)
		}
		if err := tx.Occurrence.DetachTemplates(ctx, tplIDs); err != nil {
			return err
		}
		if err := tx.Template.DeleteByTeacher(ctx, id); err != nil {
			return err
		}
		if err := tx.Report.DeleteByTeacher(ctx, id); err != nil {
			return err
		}
		if err := tx.Assignment.DeleteByTeacher(ctx, id); err != nil {
			return err
		}
		return tx.Teacher.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("教师已彻底删除", zap.String("teacher_id", id), zap.String("actor", callerID))
	return nil
}

func teacherToResponse(teacher *model.Teacher) dto.TeacherResponse {
	return dto.TeacherResponse{
		ID:        teacher.TeacherID,
		Name:      teacher.Name,
		Email:     teacher.Email,
		IsActive:  teacher.IsActive,
		CreatedAt: teacher.CreatedAt.Format(time.RFC3339),
		UpdatedAt: teacher.UpdatedAt.Format(time.RFC3339),
	}
}
