package dao

import (
	"gorm.io/gorm"

	"github.com/mainajackson95/gau-tools/internal/models"
)

type RunDAO interface {
	SaveRun(run *models.ReconRun) error
	GetRunByUUID(uuid string) (*models.ReconRun, error)
	ListRuns() ([]models.ReconRun, error)
	ListRunsWithPagination(page, limit int) ([]models.ReconRun, int64, error)
	UpdateRun(run *models.ReconRun) error
	DeleteRun(uuid string) error
}

type runDAO struct {
	db *gorm.DB
}

func NewRunDAO(db *gorm.DB) RunDAO {
	return &runDAO{db: db}
}

func (dao *runDAO) SaveRun(run *models.ReconRun) error {
	return dao.db.Create(run).Error
}

func (dao *runDAO) UpdateRun(run *models.ReconRun) error {
	return dao.db.Save(run).Error
}

func (dao *runDAO) GetRunByUUID(uuid string) (*models.ReconRun, error) {
	var run models.ReconRun
	if err := dao.db.Where("uuid = ?", uuid).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (dao *runDAO) ListRuns() ([]models.ReconRun, error) {
	var runs []models.ReconRun
	if err := dao.db.Order("created_at desc").Limit(50).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (dao *runDAO) ListRunsWithPagination(page, limit int) ([]models.ReconRun, int64, error) {
	var runs []models.ReconRun
	var total int64

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	if err := dao.db.Model(&models.ReconRun{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := dao.db.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error; err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}

func (dao *runDAO) DeleteRun(uuid string) error {
	result := dao.db.Where("uuid = ?", uuid).Delete(&models.ReconRun{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
