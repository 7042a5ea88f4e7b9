package repository

import (
	"context"
	"errors"
	"time"

	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
	"gorm.io/gorm"
)

// ChangeApprovalRepository 变更审批台账仓库
type ChangeApprovalRepository struct {
	db *gorm.DB
}

// NewChangeApprovalRepository 创建变更审批台账仓库
func NewChangeApprovalRepository(db *gorm.DB) *ChangeApprovalRepository {
	return &ChangeApprovalRepository{db: db}
}

// WithTx 绑定事务
func (r *ChangeApprovalRepository) WithTx(tx *gorm.DB) *ChangeApprovalRepository {
	return &ChangeApprovalRepository{db: tx}
}

// Create 创建台账条目
func (r *ChangeApprovalRepository) Create(ctx context.Context, ca *entity.ChangeApproval) error {
	return r.db.WithContext(ctx).Create(ca).Error
}

// FindByID 按ID查找
func (r *ChangeApprovalRepository) FindByID(ctx context.Context, id string) (*entity.ChangeApproval, error) {
	var ca entity.ChangeApproval
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ca).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ca, nil
}

// List 按模块/状态筛选
func (r *ChangeApprovalRepository) List(ctx context.Context, module, status string) ([]entity.ChangeApproval, error) {
	query := r.db.WithContext(ctx).Model(&entity.ChangeApproval{})
	if module != "" {
		query = query.Where("module = ?", module)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var items []entity.ChangeApproval
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

// Decide 一次性状态迁移（CAS：仅当仍为 PENDING 时生效），返回受影响行数
func (r *ChangeApprovalRepository) Decide(ctx context.Context, id, status, decidedBy, comments string, decidedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entity.ChangeApproval{}).
		Where("id = ? AND status = ?", id, entity.ChangeStatusPending).
		Updates(map[string]interface{}{
			"status":            status,
			"approved_by":       decidedBy,
			"approval_comments": comments,
			"decided_at":        decidedAt,
			"updated_at":        decidedAt,
		})
	return res.RowsAffected, res.Error
}
