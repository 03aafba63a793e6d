package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"linguabridge/backend/internal/model"
	"linguabridge/backend/internal/repository"
	pkgerrors "linguabridge/backend/pkg/errors"
)

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
	seq      int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		m.seq++
		student.StudentID = fmt.Sprintf("stu-%d", m.seq)
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context, activeOnly bool) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if activeOnly && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	if _, ok := m.students[student.StudentID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	delete(m.students, id)
	return nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers map[string]*model.Teacher
	seq      int
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher)}
}

func (m *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	if teacher.TeacherID == "" {
		m.seq++
		teacher.TeacherID = fmt.Sprintf("tch-%d", m.seq)
	}
	m.teachers[teacher.TeacherID] = teacher
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) List(_ context.Context, activeOnly bool) ([]model.Teacher, error) {
	var result []model.Teacher
	for _, t := range m.teachers {
		if activeOnly && !t.IsActive {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	if _, ok := m.teachers[teacher.TeacherID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.teachers[teacher.TeacherID] = teacher
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id string) error {
	delete(m.teachers, id)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("usr-%d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TimeSlotRepository ──

type mockTimeSlotRepo struct {
	slots []*model.TimeSlot
}

func newMockTimeSlotRepo() *mockTimeSlotRepo {
	return &mockTimeSlotRepo{}
}

func (m *mockTimeSlotRepo) seed(slots ...string) {
	for i, s := range slots {
		m.slots = append(m.slots, &model.TimeSlot{
			TimeSlotID: fmt.Sprintf("slot-%d", len(m.slots)+1),
			Slot:       s,
			SortOrder:  i + 1,
			IsActive:   true,
		})
	}
}

func (m *mockTimeSlotRepo) ListActive(_ context.Context) ([]model.TimeSlot, error) {
	var result []model.TimeSlot
	for _, s := range m.slots {
		if s.IsActive {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockTimeSlotRepo) List(_ context.Context) ([]model.TimeSlot, error) {
	var result []model.TimeSlot
	for _, s := range m.slots {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (m *mockTimeSlotRepo) GetByID(_ context.Context, id string) (*model.TimeSlot, error) {
	for _, s := range m.slots {
		if s.TimeSlotID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeSlotRepo) Update(_ context.Context, slot *model.TimeSlot) error {
	for i, s := range m.slots {
		if s.TimeSlotID == slot.TimeSlotID {
			m.slots[i] = slot
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock OccurrenceRepository ──

type mockOccurrenceRepo struct {
	occurrences map[string]*model.ScheduleOccurrence
	seq         int
}

func newMockOccurrenceRepo() *mockOccurrenceRepo {
	return &mockOccurrenceRepo{occurrences: make(map[string]*model.ScheduleOccurrence)}
}

func (m *mockOccurrenceRepo) Create(_ context.Context, occ *model.ScheduleOccurrence) error {
	if occ.OccurrenceID == "" {
		m.seq++
		occ.OccurrenceID = fmt.Sprintf("occ-%d", m.seq)
	}
	if occ.Version == 0 {
		occ.Version = 1
	}
	m.occurrences[occ.OccurrenceID] = occ
	return nil
}

func (m *mockOccurrenceRepo) BatchCreate(ctx context.Context, occs []*model.ScheduleOccurrence) error {
	for _, occ := range occs {
		if err := m.Create(ctx, occ); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockOccurrenceRepo) GetByID(_ context.Context, id string) (*model.ScheduleOccurrence, error) {
	if occ, ok := m.occurrences[id]; ok {
		// 返回副本，模拟数据库查询得到的独立行
		copied := *occ
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOccurrenceRepo) List(_ context.Context, filter repository.OccurrenceFilter) ([]model.ScheduleOccurrence, error) {
	var result []model.ScheduleOccurrence
	for _, occ := range m.occurrences {
		if filter.StudentID != "" && occ.StudentID != filter.StudentID {
			continue
		}
		if filter.TeacherID != "" && occ.TeacherID != filter.TeacherID {
			continue
		}
		if filter.WeekStart != nil && !occ.WeekStartDate.Equal(*filter.WeekStart) {
			continue
		}
		if filter.ActiveOnly && !occ.IsActive {
			continue
		}
		result = append(result, *occ)
	}
	return result, nil
}

func (m *mockOccurrenceRepo) ListByTemplate(_ context.Context, templateID string) ([]model.ScheduleOccurrence, error) {
	var result []model.ScheduleOccurrence
	for _, occ := range m.occurrences {
		if occ.TemplateID != nil && *occ.TemplateID == templateID {
			result = append(result, *occ)
		}
	}
	return result, nil
}

func (m *mockOccurrenceRepo) ListByStudentAndTeacher(_ context.Context, studentID, teacherID string) ([]model.ScheduleOccurrence, error) {
	var result []model.ScheduleOccurrence
	for _, occ := range m.occurrences {
		if occ.StudentID == studentID && occ.TeacherID == teacherID {
			result = append(result, *occ)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WeekStartDate.Before(result[j].WeekStartDate) })
	return result, nil
}

func (m *mockOccurrenceRepo) GetStudentAt(_ context.Context, studentID string, dayOfWeek int, timeSlot string, weekStart time.Time) (*model.ScheduleOccurrence, error) {
	for _, occ := range m.occurrences {
		if occ.StudentID == studentID && occ.DayOfWeek == dayOfWeek && occ.TimeSlot == timeSlot && occ.WeekStartDate.Equal(weekStart) {
			return occ, nil
		}
	}
	return nil, nil
}

func (m *mockOccurrenceRepo) GetTeacherAt(_ context.Context, teacherID string, dayOfWeek int, timeSlot string, weekStart time.Time) (*model.ScheduleOccurrence, error) {
	for _, occ := range m.occurrences {
		if occ.TeacherID == teacherID && occ.DayOfWeek == dayOfWeek && occ.TimeSlot == timeSlot && occ.WeekStartDate.Equal(weekStart) {
			return occ, nil
		}
	}
	return nil, nil
}

func (m *mockOccurrenceRepo) LatestWeekByTemplate(_ context.Context, templateID string) (*time.Time, error) {
	var latest *time.Time
	for _, occ := range m.occurrences {
		if occ.TemplateID == nil || *occ.TemplateID != templateID {
			continue
		}
		w := occ.WeekStartDate
		if latest == nil || w.After(*latest) {
			latest = &w
		}
	}
	return latest, nil
}

func (m *mockOccurrenceRepo) UpdateAttendance(_ context.Context, id, status string, version int, _ *string) error {
	occ, ok := m.occurrences[id]
	if !ok || occ.Version != version {
		return pkgerrors.ErrOptimisticLock
	}
	occ.AttendanceStatus = status
	occ.Version++
	return nil
}

func (m *mockOccurrenceRepo) UpdateTeacher(_ context.Context, id, newTeacherID string, originalTeacherID *string, version int, _ *string) error {
	occ, ok := m.occurrences[id]
	if !ok || occ.Version != version {
		return pkgerrors.ErrOptimisticLock
	}
	occ.TeacherID = newTeacherID
	occ.OriginalTeacherID = originalTeacherID
	occ.Version++
	return nil
}

func (m *mockOccurrenceRepo) Delete(_ context.Context, id string) error {
	delete(m.occurrences, id)
	return nil
}

func (m *mockOccurrenceRepo) DeleteByIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.occurrences, id)
	}
	return nil
}

func (m *mockOccurrenceRepo) ListFutureByStudent(_ context.Context, studentID string, fromWeek time.Time) ([]model.ScheduleOccurrence, error) {
	var result []model.ScheduleOccurrence
	for _, occ := range m.occurrences {
		if occ.StudentID == studentID && !occ.WeekStartDate.Before(fromWeek) {
			result = append(result, *occ)
		}
	}
	return result, nil
}

func (m *mockOccurrenceRepo) ListFutureByTeacher(_ context.Context, teacherID string, fromWeek time.Time) ([]model.ScheduleOccurrence, error) {
	var result []model.ScheduleOccurrence
	for _, occ := range m.occurrences {
		if occ.TeacherID == teacherID && !occ.WeekStartDate.Before(fromWeek) {
			result = append(result, *occ)
		}
	}
	return result, nil
}

func (m *mockOccurrenceRepo) DeleteByStudent(_ context.Context, studentID string) error {
	for id, occ := range m.occurrences {
		if occ.StudentID == studentID {
			delete(m.occurrences, id)
		}
	}
	return nil
}

func (m *mockOccurrenceRepo) DeleteByTeacher(_ context.Context, teacherID string) error {
	for id, occ := range m.occurrences {
		if occ.TeacherID == teacherID {
			delete(m.occurrences, id)
		}
	}
	return nil
}

func (m *mockOccurrenceRepo) ClearOriginalTeacher(_ context.Context, teacherID string) error {
	for _, occ := range m.occurrences {
		if occ.OriginalTeacherID != nil && *occ.OriginalTeacherID == teacherID {
			occ.OriginalTeacherID = nil
		}
	}
	return nil
}

func (m *mockOccurrenceRepo) DetachTemplates(_ context.Context, templateIDs []string) error {
	ids := make(map[string]bool, len(templateIDs))
	for _, id := range templateIDs {
		ids[id] = true
	}
	for _, occ := range m.occurrences {
		if occ.TemplateID != nil && ids[*occ.TemplateID] {
			occ.TemplateID = nil
		}
	}
	return nil
}

// ── Mock TemplateRepository ──

// mockTemplateRepo 持有课次 mock 的引用以便模拟 CountActiveDue 的子查询
type mockTemplateRepo struct {
	templates map[string]*model.ScheduleTemplate
	occ       *mockOccurrenceRepo
	seq       int
}

func newMockTemplateRepo(occ *mockOccurrenceRepo) *mockTemplateRepo {
	return &mockTemplateRepo{templates: make(map[string]*model.ScheduleTemplate), occ: occ}
}

func (m *mockTemplateRepo) Upsert(_ context.Context, tpl *model.ScheduleTemplate) error {
	for _, existing := range m.templates {
		if existing.StudentID == tpl.StudentID &&
			existing.TeacherID == tpl.TeacherID &&
			existing.DayOfWeek == tpl.DayOfWeek &&
			existing.TimeSlot == tpl.TimeSlot &&
			existing.StartDate.Equal(tpl.StartDate) {
			existing.LessonsPerWeek = tpl.LessonsPerWeek
			existing.EndDate = tpl.EndDate
			existing.IsActive = true
			existing.UpdatedBy = tpl.UpdatedBy
			*tpl = *existing
			return nil
		}
	}
	m.seq++
	tpl.TemplateID = fmt.Sprintf("tpl-%d", m.seq)
	m.templates[tpl.TemplateID] = tpl
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id string) (*model.ScheduleTemplate, error) {
	if tpl, ok := m.templates[id]; ok {
		return tpl, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTemplateRepo) List(_ context.Context, filter repository.TemplateFilter) ([]model.ScheduleTemplate, error) {
	var result []model.ScheduleTemplate
	for _, tpl := range m.templates {
		if filter.StudentID != "" && tpl.StudentID != filter.StudentID {
			continue
		}
		if filter.TeacherID != "" && tpl.TeacherID != filter.TeacherID {
			continue
		}
		if filter.ActiveOnly && !tpl.IsActive {
			continue
		}
		result = append(result, *tpl)
	}
	return result, nil
}

func (m *mockTemplateRepo) ListActive(ctx context.Context) ([]model.ScheduleTemplate, error) {
	return m.List(ctx, repository.TemplateFilter{ActiveOnly: true})
}

func (m *mockTemplateRepo) SetActive(_ context.Context, id string, active bool, updatedBy *string) error {
	tpl, ok := m.templates[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	tpl.IsActive = active
	tpl.UpdatedBy = updatedBy
	return nil
}

func (m *mockTemplateRepo) UpdateTeacherForStudent(_ context.Context, studentID, oldTeacherID, newTeacherID string, updatedBy *string) (int64, error) {
	var switched int64
	for _, tpl := range m.templates {
		if tpl.StudentID == studentID && tpl.TeacherID == oldTeacherID && tpl.IsActive {
			tpl.TeacherID = newTeacherID
			tpl.UpdatedBy = updatedBy
			switched++
		}
	}
	return switched, nil
}

func (m *mockTemplateRepo) DeactivateByStudent(_ context.Context, studentID string, updatedBy *string) error {
	for _, tpl := range m.templates {
		if tpl.StudentID == studentID && tpl.IsActive {
			tpl.IsActive = false
			tpl.UpdatedBy = updatedBy
		}
	}
	return nil
}

func (m *mockTemplateRepo) DeactivateByTeacher(_ context.Context, teacherID string, updatedBy *string) error {
	for _, tpl := range m.templates {
		if tpl.TeacherID == teacherID && tpl.IsActive {
			tpl.IsActive = false
			tpl.UpdatedBy = updatedBy
		}
	}
	return nil
}

func (m *mockTemplateRepo) DeleteByStudent(_ context.Context, studentID string) error {
	for id, tpl := range m.templates {
		if tpl.StudentID == studentID {
			delete(m.templates, id)
		}
	}
	return nil
}

func (m *mockTemplateRepo) DeleteByTeacher(_ context.Context, teacherID string) error {
	for id, tpl := range m.templates {
		if tpl.TeacherID == teacherID {
			delete(m.templates, id)
		}
	}
	return nil
}

func (m *mockTemplateRepo) CountActiveDue(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for _, tpl := range m.templates {
		if !tpl.IsActive {
			continue
		}
		if tpl.EndDate != nil && tpl.EndDate.Before(cutoff) {
			continue
		}
		covered := false
		for _, occ := range m.occ.occurrences {
			if occ.TemplateID != nil && *occ.TemplateID == tpl.TemplateID && !occ.WeekStartDate.Before(cutoff) {
				covered = true
				break
			}
		}
		if !covered {
			count++
		}
	}
	return count, nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*model.StudentTeacherAssignment
	seq         int
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*model.StudentTeacherAssignment)}
}

func pairKey(studentID, teacherID string) string {
	return studentID + "|" + teacherID
}

func (m *mockAssignmentRepo) Ensure(_ context.Context, studentID, teacherID string, createdBy *string) error {
	key := pairKey(studentID, teacherID)
	if a, ok := m.assignments[key]; ok {
		a.IsActive = true
		return nil
	}
	m.seq++
	a := &model.StudentTeacherAssignment{
		AssignmentID: fmt.Sprintf("asg-%d", m.seq),
		StudentID:    studentID,
		TeacherID:    teacherID,
		IsActive:     true,
	}
	a.CreatedBy = createdBy
	m.assignments[key] = a
	return nil
}

func (m *mockAssignmentRepo) Deactivate(_ context.Context, studentID, teacherID string, updatedBy *string) error {
	if a, ok := m.assignments[pairKey(studentID, teacherID)]; ok {
		a.IsActive = false
		a.UpdatedBy = updatedBy
	}
	return nil
}

func (m *mockAssignmentRepo) ListByStudent(_ context.Context, studentID string) ([]model.StudentTeacherAssignment, error) {
	var result []model.StudentTeacherAssignment
	for _, a := range m.assignments {
		if a.StudentID == studentID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) DeactivateByStudent(_ context.Context, studentID string, updatedBy *string) error {
	for _, a := range m.assignments {
		if a.StudentID == studentID && a.IsActive {
			a.IsActive = false
			a.UpdatedBy = updatedBy
		}
	}
	return nil
}

func (m *mockAssignmentRepo) DeactivateByTeacher(_ context.Context, teacherID string, updatedBy *string) error {
	for _, a := range m.assignments {
		if a.TeacherID == teacherID && a.IsActive {
			a.IsActive = false
			a.UpdatedBy = updatedBy
		}
	}
	return nil
}

func (m *mockAssignmentRepo) DeleteByStudent(_ context.Context, studentID string) error {
	for key, a := range m.assignments {
		if a.StudentID == studentID {
			delete(m.assignments, key)
		}
	}
	return nil
}

func (m *mockAssignmentRepo) DeleteByTeacher(_ context.Context, teacherID string) error {
	for key, a := range m.assignments {
		if a.TeacherID == teacherID {
			delete(m.assignments, key)
		}
	}
	return nil
}

// ── Mock HistoryRepository ──

type mockHistoryRepo struct {
	entries []*model.ScheduleHistory
	seq     int
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{}
}

func (m *mockHistoryRepo) Create(_ context.Context, entry *model.ScheduleHistory) error {
	m.seq++
	if entry.HistoryID == "" {
		entry.HistoryID = fmt.Sprintf("his-%d", m.seq)
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockHistoryRepo) BatchCreate(ctx context.Context, entries []*model.ScheduleHistory) error {
	for _, e := range entries {
		if err := m.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockHistoryRepo) List(_ context.Context, filter repository.HistoryFilter) ([]model.ScheduleHistory, int64, error) {
	var filtered []model.ScheduleHistory
	for _, e := range m.entries {
		if filter.OccurrenceID != "" && (e.OccurrenceID == nil || *e.OccurrenceID != filter.OccurrenceID) {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		filtered = append(filtered, *e)
	}
	total := int64(len(filtered))
	offset := (filter.Page - 1) * filter.PageSize
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + filter.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

// countByAction 测试辅助：按动作统计历史条目
func (m *mockHistoryRepo) countByAction(action string) int {
	n := 0
	for _, e := range m.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	reports map[string]*model.LessonReport
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*model.LessonReport)}
}

func (m *mockReportRepo) DeleteByStudent(_ context.Context, studentID string) error {
	for id, r := range m.reports {
		if r.StudentID == studentID {
			delete(m.reports, id)
		}
	}
	return nil
}

func (m *mockReportRepo) DeleteByTeacher(_ context.Context, teacherID string) error {
	for id, r := range m.reports {
		if r.TeacherID == teacherID {
			delete(m.reports, id)
		}
	}
	return nil
}
