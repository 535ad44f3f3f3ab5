package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/branchstack/engine/internal/models"
	"github.com/branchstack/engine/internal/services"
	appErr "github.com/branchstack/engine/pkg/errors"
)

type mockBranchService struct {
	mock.Mock
}

func (m *mockBranchService) RequestCreate(ctx context.Context, input *services.CreateBranchInput) (*models.Branch, error) {
	args := m.Called(ctx, input)
	if v := args.Get(0); v != nil {
		return v.(*models.Branch), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBranchService) RequestDelete(ctx context.Context, name, resource string) (*models.Branch, error) {
	args := m.Called(ctx, name, resource)
	if v := args.Get(0); v != nil {
		return v.(*models.Branch), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBranchService) Get(ctx context.Context, name, resource string) (*models.Branch, error) {
	args := m.Called(ctx, name, resource)
	if v := args.Get(0); v != nil {
		return v.(*models.Branch), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBranchService) List(ctx context.Context, resource string) ([]models.Branch, error) {
	args := m.Called(ctx, resource)
	if v := args.Get(0); v != nil {
		return v.([]models.Branch), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBranchService) History(ctx context.Context, name, resource string) ([]models.Event, error) {
	args := m.Called(ctx, name, resource)
	if v := args.Get(0); v != nil {
		return v.([]models.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestRouter(svc services.BranchService) http.Handler {
	h := NewBranchesHandler(svc)
	r := chi.NewRouter()
	r.Route("/{resource}/branches", func(br chi.Router) {
		br.Post("/", h.Create)
		br.Get("/", h.List)
		br.Get("/{name}", h.Get)
		br.Delete("/{name}", h.Delete)
		br.Get("/{name}/events", h.Events)
	})
	return r
}

func TestCreateBranchReturns201(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("RequestCreate", mock.Anything, mock.MatchedBy(func(in *services.CreateBranchInput) bool {
		return in.Name == "db1" && in.Resource == "postgres" && in.Strategy == "dbDumpRestore"
	})).Return(&models.Branch{Name: "db1", Resource: "postgres", Status: models.StatusRequested}, nil)

	body := `{"name":"db1","parent":"template","strategy":"dbDumpRestore"}`
	req := httptest.NewRequest(http.MethodPost, "/postgres/branches", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"requested"`)
	svc.AssertExpectations(t)
}

func TestCreateBranchRejectsInvalidJSON(t *testing.T) {
	svc := &mockBranchService{}
	req := httptest.NewRequest(http.MethodPost, "/postgres/branches", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "RequestCreate")
}

func TestCreateBranchMapsValidationErrorTo400(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("RequestCreate", mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeInvalid, "missing required field 'parent'"))

	req := httptest.NewRequest(http.MethodPost, "/postgres/branches", strings.NewReader(`{"name":"db1"}`))
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateBranchMapsConflictTo409(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("RequestCreate", mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeConflict, "Branch 'db1' already exists for resource 'postgres'"))

	body := `{"name":"db1","parent":"template","strategy":"dbDumpRestore"}`
	req := httptest.NewRequest(http.MethodPost, "/postgres/branches", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"conflict"`)
}

func TestCreateBranchMapsUnsupportedStrategyTo400(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("RequestCreate", mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeUnsupported, "strategy \"ghost\" is not supported for resource \"postgres\""))

	body := `{"name":"db1","parent":"template","strategy":"ghost"}`
	req := httptest.NewRequest(http.MethodPost, "/postgres/branches", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"unsupported"`)
}

func TestGetBranchNotFoundIs404(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("Get", mock.Anything, "missing", "postgres").
		Return(nil, appErr.New(appErr.CodeNotFound, "Branch 'missing' not found"))

	req := httptest.NewRequest(http.MethodGet, "/postgres/branches/missing", nil)
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListBranches(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("List", mock.Anything, "postgres").Return([]models.Branch{
		{Name: "db1", Resource: "postgres", Status: models.StatusActive},
		{Name: "db2", Resource: "postgres", Status: models.StatusRequested},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/postgres/branches", nil)
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"total":2`)
}

func TestDeleteBranchReturnsDeactivating(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("RequestDelete", mock.Anything, "db1", "postgres").
		Return(&models.Branch{Name: "db1", Resource: "postgres", Status: models.StatusDeactivating}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/postgres/branches/db1", nil)
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"deactivating"`)
}

func TestBranchEventsHistory(t *testing.T) {
	svc := &mockBranchService{}
	svc.On("History", mock.Anything, "db1", "postgres").Return([]models.Event{
		{ID: 1, Branch: "db1", Resource: "postgres", Status: models.StatusRequested},
		{ID: 2, Branch: "db1", Resource: "postgres", Status: models.StatusActivating},
		{ID: 3, Branch: "db1", Resource: "postgres", Status: models.StatusError, Message: "disk full"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/postgres/branches/db1/events", nil)
	rr := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"disk full"`)
}
