package repository

import (
	"context"
	"errors"

	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
	"gorm.io/gorm"
)

// WorkflowRepository 工作流配置仓库
type WorkflowRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository 创建工作流配置仓库
func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

// ListActive 取全部启用中的工作流
func (r *WorkflowRepository) ListActive(ctx context.Context) ([]entity.Workflow, error) {
	var workflows []entity.Workflow
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.WorkflowStatusActive).
		Order("created_at").
		Find(&workflows).Error
	return workflows, err
}

// List 取全部工作流
func (r *WorkflowRepository) List(ctx context.Context) ([]entity.Workflow, error) {
	var workflows []entity.Workflow
	err := r.db.WithContext(ctx).Order("created_at").Find(&workflows).Error
	return workflows, err
}

// FindByPlant 取工厂的生效工作流，按创建顺序首个匹配生效
func (r *WorkflowRepository) FindByPlant(ctx context.Context, plantID int) (*entity.Workflow, error) {
	var workflow entity.Workflow
	err := r.db.WithContext(ctx).
		Where("plant_id = ? AND status = ?", plantID, entity.WorkflowStatusActive).
		Order("created_at").
		First(&workflow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &workflow, nil
}

// FindByID 按ID查找
func (r *WorkflowRepository) FindByID(ctx context.Context, id string) (*entity.Workflow, error) {
	var workflow entity.Workflow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&workflow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &workflow, nil
}

// Create 创建工作流
func (r *WorkflowRepository) Create(ctx context.Context, workflow *entity.Workflow) error {
	return r.db.WithContext(ctx).Create(workflow).Error
}

// Update 更新工作流
func (r *WorkflowRepository) Update(ctx context.Context, workflow *entity.Workflow) error {
	return r.db.WithContext(ctx).Save(workflow).Error
}

// Delete 删除工作流
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Workflow{}).Error
}
