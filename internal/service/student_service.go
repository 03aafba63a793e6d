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

// ── 学生模块业务错误 ──

var ErrStudentNotFound = errors.New("学生不存在")

// StudentService 学生档案业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error)
	Get(ctx context.Context, id string) (*dto.StudentResponse, error)
	List(ctx context.Context, activeOnly bool) ([]dto.StudentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error)
	// Deactivate 停用学生：删除未来课次、停用模板与配对；历史课次保留
	Deactivate(ctx context.Context, id, callerID string) error
	// HardDelete 彻底删除学生：级联删除课次/模板/报告/配对，历史保留（课次引用置空）
	HardDelete(ctx context.Context, id, callerID string) error
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger, now: time.Now}
}

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	student := &model.Student{
		Name:     req.Name,
		Level:    req.Level,
		IsActive: true,
	}
	student.CreatedBy = &callerID
	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}
	resp := studentToResponse(student)
	return &resp, nil
}

func (s *studentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}
	resp := studentToResponse(student)
	return &resp, nil
}

func (s *studentService) List(ctx context.Context, activeOnly bool) ([]dto.StudentResponse, error) {
	students, err := s.repo.Student.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		out = append(out, studentToResponse(&students[i]))
	}
	return out, nil
}

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest, callerID string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Level != nil {
		student.Level = *req.Level
	}
	student.UpdatedBy = &callerID
	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学生失败", zap.Error(err))
		return nil, err
	}
	resp := studentToResponse(student)
	return &resp, nil
}

func (s *studentService) Deactivate(ctx context.Context, id, callerID string) error {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return err
	}

	currentWeek := week.Start(s.now())
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 未来课次对已停用的学生无意义，直接删除并留痕
		future, err := tx.Occurrence.ListFutureByStudent(ctx, id, currentWeek)
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
				Note:         "学生停用",
			})
			ids = append(ids, occ.OccurrenceID)
		}
		if err := tx.History.BatchCreate(ctx, entries); err != nil {
			return err
		}
		if err := tx.Occurrence.DeleteByIDs(ctx, ids); err != nil {
			return err
		}

		// 模板与配对停用而非删除，阻止后续续排
		if err := tx.Template.DeactivateByStudent(ctx, id, &callerID); err != nil {
			return err
		}
		if err := tx.Assignment.DeactivateByStudent(ctx, id, &callerID); err != nil {
			return err
		}

		student.IsActive = false
		student.UpdatedBy = &callerID
		return tx.Student.Update(ctx, student)
	})
	if err != nil {
		return err
	}

	s.logger.Info("学生已停用", zap.String("student_id", id))
	return nil
}

func (s *studentService) HardDelete(ctx context.Context, id, callerID string) error {
	if _, err := s.repo.Student.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return err
	}

	// 历史条目由存储层外键置空课次引用，审计轨迹保留
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Occurrence.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := tx.Template.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := tx.Report.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		if err := tx.Assignment.DeleteByStudent(ctx, id); err != nil {
			return err
		}
		return tx.Student.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("学生已彻底删除", zap.String("student_id", id), zap.String("actor", callerID))
	return nil
}

func studentToResponse(student *model.Student) dto.StudentResponse {
	return dto.StudentResponse{
		ID:        student.StudentID,
		Name:      student.Name,
		Level:     student.Level,
		IsActive:  student.IsActive,
		CreatedAt: student.CreatedAt.Format(time.RFC3339),
		UpdatedAt: student.UpdatedAt.Format(time.RFC3339),
	}
}
