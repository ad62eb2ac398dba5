package mocks

import (
	"context"
	"io"

	"github.com/roster-import-api/internal/models"
)

// MockImportService is a mock implementation of service.ImportService
type MockImportService struct {
	RunFunc  func(ctx context.Context, req *models.ImportRequest, file io.Reader, ext string) (*models.ImportResult, error)
	RunCalls int
	LastReq  *models.ImportRequest
}

func (m *MockImportService) Run(ctx context.Context, req *models.ImportRequest, file io.Reader, ext string) (*models.ImportResult, error) {
	m.RunCalls++
	m.LastReq = req
	if m.RunFunc != nil {
		return m.RunFunc(ctx, req, file, ext)
	}
	return &models.ImportResult{Summary: "0 records uploaded successfully, 0 errors found"}, nil
}

// MockTemplateService is a mock implementation of service.TemplateService
type MockTemplateService struct {
	RenderFunc func(role string, scope models.CallerScope) ([]byte, string, error)
}

func (m *MockTemplateService) Render(role string, scope models.CallerScope) ([]byte, string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(role, scope)
	}
	return []byte("FirstName,LastName\n"), role + "_template.csv", nil
}
