package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mainajackson95/gau-tools/internal/dao"
	"github.com/mainajackson95/gau-tools/internal/models"
)

var ErrRunNotFound = errors.New("run not found")

// RunServiceMethods is the handler-facing surface over run history.
type RunServiceMethods interface {
	ListRuns(page, limit int) ([]models.ReconRun, int64, error)
	GetRunByUUID(id string) (*models.ReconRun, error)
	DeleteRun(id string) error
}

type RunService struct {
	runDAO dao.RunDAO
}

func NewRunService(runDAO dao.RunDAO) *RunService {
	return &RunService{runDAO: runDAO}
}

func (s *RunService) ListRuns(page, limit int) ([]models.ReconRun, int64, error) {
	return s.runDAO.ListRunsWithPagination(page, limit)
}

func (s *RunService) GetRunByUUID(id string) (*models.ReconRun, error) {
	run, err := s.runDAO.GetRunByUUID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (s *RunService) DeleteRun(id string) error {
	if err := s.runDAO.DeleteRun(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRunNotFound
		}
		return err
	}
	return nil
}
