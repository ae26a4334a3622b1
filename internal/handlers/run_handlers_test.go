package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mainajackson95/gau-tools/internal/models"
	"github.com/mainajackson95/gau-tools/internal/services"
	"github.com/mainajackson95/gau-tools/pkg/artifacts"
)

type MockRunService struct {
	mock.Mock
}

func (m *MockRunService) ListRuns(page, limit int) ([]models.ReconRun, int64, error) {
	args := m.Called(page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.ReconRun), args.Get(1).(int64), args.Error(2)
}

func (m *MockRunService) GetRunByUUID(id string) (*models.ReconRun, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconRun), args.Error(1)
}

func (m *MockRunService) DeleteRun(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestListRuns(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockRunService)
	mockService.On("ListRuns", 1, 10).Return([]models.ReconRun{
		{UUID: "run-1", OutputRoot: "/tmp/recon_results"},
	}, int64(1), nil)

	handler := NewRunHandler(mockService)
	router := gin.New()
	router.GET("/api/runs", handler.ListRuns)

	req, _ := http.NewRequest("GET", "/api/runs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"run-1"`)
	assert.Contains(t, w.Body.String(), `"total":1`)
	mockService.AssertExpectations(t)
}

func TestGetRunByUUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		runID          string
		setupMock      func(*MockRunService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "Valid ID - Run Found",
			runID: "123e4567-e89b-12d3-a456-426614174000",
			setupMock: func(m *MockRunService) {
				m.On("GetRunByUUID", "123e4567-e89b-12d3-a456-426614174000").
					Return(&models.ReconRun{
						UUID:         "123e4567-e89b-12d3-a456-426614174000",
						OutputRoot:   "/tmp/recon_results",
						HarvestState: "COMPLETED",
					}, nil)
			},
			expectedStatus: 200,
		},
		{
			name:  "Run Not Found",
			runID: "missing-id",
			setupMock: func(m *MockRunService) {
				m.On("GetRunByUUID", "missing-id").Return(nil, services.ErrRunNotFound)
			},
			expectedStatus: 404,
			expectedBody:   `{"error":"Run not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockRunService)
			tt.setupMock(mockService)

			handler := NewRunHandler(mockService)
			router := gin.New()
			router.GET("/api/runs/:id", handler.GetRunByUUID)

			req, _ := http.NewRequest("GET", fmt.Sprintf("/api/runs/%s", tt.runID), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestDeleteRun(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockRunService)
	mockService.On("DeleteRun", "run-1").Return(nil)
	mockService.On("DeleteRun", "missing").Return(services.ErrRunNotFound)

	handler := NewRunHandler(mockService)
	router := gin.New()
	router.DELETE("/api/runs/:id", handler.DeleteRun)

	req, _ := http.NewRequest("DELETE", "/api/runs/run-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 204, w.Code)

	req, _ = http.NewRequest("DELETE", "/api/runs/missing", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 404, w.Code)
}

func TestGetArtifact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	outputRoot := t.TempDir()
	analysisDir := filepath.Join(outputRoot, artifacts.DirAnalysis)
	require.NoError(t, os.MkdirAll(analysisDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(analysisDir, artifacts.EmptyTargetsFile),
		[]byte("gone.example.com\n"), 0644))

	mockService := new(MockRunService)
	mockService.On("GetRunByUUID", "run-1").
		Return(&models.ReconRun{UUID: "run-1", OutputRoot: outputRoot}, nil)

	handler := NewRunHandler(mockService)
	router := gin.New()
	router.GET("/api/runs/:id/artifacts/:name", handler.GetArtifact)

	// Known artifact that exists.
	req, _ := http.NewRequest("GET", "/api/runs/run-1/artifacts/"+artifacts.EmptyTargetsFile, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "gone.example.com\n", w.Body.String())

	// Known artifact name that this run never produced.
	req, _ = http.NewRequest("GET", "/api/runs/run-1/artifacts/"+artifacts.HighPriorityFile, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 404, w.Code)

	// Unknown names are rejected before any filesystem access.
	req, _ = http.NewRequest("GET", "/api/runs/run-1/artifacts/passwd", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, 404, w.Code)
	assert.JSONEq(t, `{"error":"Unknown artifact"}`, w.Body.String())
}
