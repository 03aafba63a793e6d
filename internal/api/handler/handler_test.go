package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"linguabridge/backend/internal/dto"
	"linguabridge/backend/internal/service"
	pkgerrors "linguabridge/backend/pkg/errors"
	"linguabridge/backend/pkg/jwt"
	"linguabridge/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult      *dto.TokenResponse
	loginErr         error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	logoutErr        error
	getCurrentResult *dto.UserResponse
	getCurrentErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ *jwt.Claims) error {
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}

// ── Mock StudentService ──

type mockStudentService struct {
	createResult *dto.StudentResponse
	createErr    error
	getResult    *dto.StudentResponse
	getErr       error
	listResult   []dto.StudentResponse
	listErr      error
	updateResult *dto.StudentResponse
	updateErr    error
	deactivate   error
	hardDelete   error
}

func (m *mockStudentService) Create(_ context.Context, _ *dto.CreateStudentRequest, _ string) (*dto.StudentResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockStudentService) Get(_ context.Context, _ string) (*dto.StudentResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockStudentService) List(_ context.Context, _ bool) ([]dto.StudentResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockStudentService) Update(_ context.Context, _ string, _ *dto.UpdateStudentRequest, _ string) (*dto.StudentResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockStudentService) Deactivate(_ context.Context, _, _ string) error {
	return m.deactivate
}
func (m *mockStudentService) HardDelete(_ context.Context, _, _ string) error {
	return m.hardDelete
}

// ── Mock ScheduleService ──

type mockScheduleService struct {
	createTplResult  *dto.GenerationResultResponse
	createTplErr     error
	deactivateTplErr error
	templatesResult  []dto.TemplateResponse
	templatesErr     error
	occsResult       []dto.OccurrenceResponse
	occsErr          error
	markResult       *dto.OccurrenceResponse
	markErr          error
	deleteOccErr     error
	reassignResult   *dto.ReassignResultResponse
	reassignErr      error
	generateResult   *dto.GenerationResultResponse
	generateErr      error
	extendResult     *dto.ExtensionResultResponse
	extendErr        error
	dueResult        *dto.ExtensionDueResponse
	dueErr           error
	historyResult    []dto.HistoryResponse
	historyTotal     int64
	historyErr       error
	slotsResult      []dto.TimeSlotResponse
	slotsErr         error
	slotUpdateResult *dto.TimeSlotResponse
	slotUpdateErr    error
}

func (m *mockScheduleService) CreateOrUpdateTemplate(_ context.Context, _ *dto.CreateTemplateRequest, _ string) (*dto.GenerationResultResponse, error) {
	return m.createTplResult, m.createTplErr
}
func (m *mockScheduleService) DeactivateTemplate(_ context.Context, _, _ string) error {
	return m.deactivateTplErr
}
func (m *mockScheduleService) ListTemplates(_ context.Context, _ *dto.TemplateListRequest, _ *service.Caller) ([]dto.TemplateResponse, error) {
	return m.templatesResult, m.templatesErr
}
func (m *mockScheduleService) ListOccurrences(_ context.Context, _ *dto.OccurrenceListRequest, _ *service.Caller) ([]dto.OccurrenceResponse, error) {
	return m.occsResult, m.occsErr
}
func (m *mockScheduleService) MarkAttendance(_ context.Context, _ string, _ *dto.MarkAttendanceRequest, _ *service.Caller) (*dto.OccurrenceResponse, error) {
	return m.markResult, m.markErr
}
func (m *mockScheduleService) DeleteOccurrence(_ context.Context, _, _ string) error {
	return m.deleteOccErr
}
func (m *mockScheduleService) ReassignStudent(_ context.Context, _ *dto.ReassignStudentRequest, _ string) (*dto.ReassignResultResponse, error) {
	return m.reassignResult, m.reassignErr
}
func (m *mockScheduleService) GenerateWeek(_ context.Context, _ *dto.GenerateWeekRequest, _ string) (*dto.GenerationResultResponse, error) {
	return m.generateResult, m.generateErr
}
func (m *mockScheduleService) ExtendOneWeek(_ context.Context, _ string) (*dto.ExtensionResultResponse, error) {
	return m.extendResult, m.extendErr
}
func (m *mockScheduleService) CountDueForExtension(_ context.Context) (*dto.ExtensionDueResponse, error) {
	return m.dueResult, m.dueErr
}
func (m *mockScheduleService) ListHistory(_ context.Context, _ *dto.HistoryListRequest) ([]dto.HistoryResponse, int64, error) {
	return m.historyResult, m.historyTotal, m.historyErr
}
func (m *mockScheduleService) ListTimeSlots(_ context.Context) ([]dto.TimeSlotResponse, error) {
	return m.slotsResult, m.slotsErr
}
func (m *mockScheduleService) UpdateTimeSlot(_ context.Context, _ string, _ *dto.UpdateTimeSlotRequest, _ string) (*dto.TimeSlotResponse, error) {
	return m.slotUpdateResult, m.slotUpdateErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportWeekGrid(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportTeacherCalendar(_ context.Context, _ string, _ *service.Caller) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportStudentCalendar(_ context.Context, _ string, _ *service.Caller) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
	c.Set("teacher_id", "")
}

func setTeacherAuth(c *gin.Context) {
	c.Set("user_id", "test-teacher-user-id")
	c.Set("role", "teacher")
	c.Set("teacher_id", "tch-self")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func intPtr(i int) *int { return &i }

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@school.cn",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@school.cn",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10101 {
		t.Errorf("expected error code 10101, got %d", resp.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		getCurrentResult: &dto.UserResponse{ID: "test-user-id", Email: "admin@school.cn", Role: "admin"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", func(c *gin.Context) {
		setAuth(c)
		h.Me(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	// 未注入 user_id（模拟中间件缺失）
	r := gin.New()
	r.GET("/auth/me", h.Me)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func validTemplateRequest() dto.CreateTemplateRequest {
	return dto.CreateTemplateRequest{
		StudentID:      "6f1e8b2a-0c3d-4e5f-8a9b-1c2d3e4f5a6b",
		TeacherID:      "7a2f9c3b-1d4e-5f6a-9b0c-2d3e4f5a6b7c",
		DayOfWeek:      intPtr(1),
		TimeSlot:       "14:00-14:30",
		LessonsPerWeek: 1,
		StartDate:      "2024-01-01",
	}
}

func TestScheduleHandler_CreateTemplate_Success(t *testing.T) {
	mock := &mockScheduleService{
		createTplResult: &dto.GenerationResultResponse{Created: 8},
	}
	h := NewScheduleHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/templates", jsonBody(validTemplateRequest()))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/schedules/templates", func(c *gin.Context) {
		setAuth(c)
		h.CreateTemplate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestScheduleHandler_CreateTemplate_MissingFields(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/templates", jsonBody(map[string]string{
		"student_id": "not-a-uuid",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/schedules/templates", func(c *gin.Context) {
		setAuth(c)
		h.CreateTemplate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13001 {
		t.Errorf("expected error code 13001, got %d", resp.Code)
	}
}

func TestScheduleHandler_CreateTemplate_LessonsAboveCap(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{})

	body := validTemplateRequest()
	body.LessonsPerWeek = 15

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/templates", jsonBody(body))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/schedules/templates", func(c *gin.Context) {
		setAuth(c)
		h.CreateTemplate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13001 {
		t.Errorf("expected error code 13001, got %d", resp.Code)
	}
}

func TestScheduleHandler_ListTemplates_ScopeForbidden(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{templatesErr: service.ErrScopeForbidden})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/schedules/templates?teacher_id=8b3f0d4c-2e5f-6a7b-0c1d-3e4f5a6b7c8d", nil)

	r := gin.New()
	r.GET("/schedules/templates", func(c *gin.Context) {
		setTeacherAuth(c)
		h.ListTemplates(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13112 {
		t.Errorf("expected error code 13112, got %d", resp.Code)
	}
}

func TestScheduleHandler_CreateTemplate_TeacherConflict(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{createTplErr: service.ErrTeacherDoubleBooked})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/templates", jsonBody(validTemplateRequest()))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/schedules/templates", func(c *gin.Context) {
		setAuth(c)
		h.CreateTemplate(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13110 {
		t.Errorf("expected error code 13110, got %d", resp.Code)
	}
}

func TestScheduleHandler_DeleteOccurrence_PastImmutable(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{deleteOccErr: service.ErrPastImmutable})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/schedules/occurrences/occ-1", nil)

	r := gin.New()
	r.DELETE("/schedules/occurrences/:id", func(c *gin.Context) {
		setAuth(c)
		h.DeleteOccurrence(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13111 {
		t.Errorf("expected error code 13111, got %d", resp.Code)
	}
}

func TestScheduleHandler_MarkAttendance_ScopeForbidden(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{markErr: service.ErrScopeForbidden})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/schedules/occurrences/occ-1/attendance", jsonBody(dto.MarkAttendanceRequest{
		Status: "completed",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/schedules/occurrences/:id/attendance", func(c *gin.Context) {
		setAuth(c)
		h.MarkAttendance(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13112 {
		t.Errorf("expected error code 13112, got %d", resp.Code)
	}
}

func TestScheduleHandler_MarkAttendance_OptimisticLock(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{markErr: pkgerrors.ErrOptimisticLock})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PATCH", "/schedules/occurrences/occ-1/attendance", jsonBody(dto.MarkAttendanceRequest{
		Status: "absent",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PATCH("/schedules/occurrences/:id/attendance", func(c *gin.Context) {
		setAuth(c)
		h.MarkAttendance(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 13113 {
		t.Errorf("expected error code 13113, got %d", resp.Code)
	}
}

func TestScheduleHandler_Extend_Success(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{
		extendResult: &dto.ExtensionResultResponse{TemplatesExtended: 3, OccurrencesAdded: 12},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/schedules/extend", nil)

	r := gin.New()
	r.POST("/schedules/extend", func(c *gin.Context) {
		setAuth(c)
		h.Extend(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// StudentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestStudentHandler_Create_Success(t *testing.T) {
	mock := &mockStudentService{
		createResult: &dto.StudentResponse{ID: "stu-1", Name: "小林", IsActive: true},
	}
	h := NewStudentHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/students", jsonBody(dto.CreateStudentRequest{
		Name:  "小林",
		Level: "A2",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/students", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestStudentHandler_Get_NotFound(t *testing.T) {
	h := NewStudentHandler(&mockStudentService{getErr: service.ErrStudentNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/students/stu-none", nil)

	r := gin.New()
	r.GET("/students/:id", h.Get)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11101 {
		t.Errorf("expected error code 11101, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_WeekGrid_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("fake-xlsx-bytes"),
		filename: "周课表_2024-01-01.xlsx",
	}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/week?week_start=2024-01-01", nil)

	r := gin.New()
	r.GET("/export/week", h.ExportWeekGrid)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_WeekGrid_MissingParam(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/week", nil)

	r := gin.New()
	r.GET("/export/week", h.ExportWeekGrid)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestExportHandler_TeacherCalendar_NoOccurrences(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoOccurrences})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/teachers/tch-1/calendar", nil)

	r := gin.New()
	r.GET("/export/teachers/:id/calendar", func(c *gin.Context) {
		setAuth(c)
		h.ExportTeacherCalendar(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14101 {
		t.Errorf("expected error code 14101, got %d", resp.Code)
	}
}

func TestExportHandler_TeacherCalendar_ScopeForbidden(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrScopeForbidden})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/teachers/tch-other/calendar", nil)

	r := gin.New()
	r.GET("/export/teachers/:id/calendar", func(c *gin.Context) {
		setTeacherAuth(c)
		h.ExportTeacherCalendar(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14105 {
		t.Errorf("expected error code 14105, got %d", resp.Code)
	}
}
