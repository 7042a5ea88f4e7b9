package repository

import (
	"context"
	"errors"
	"time"

	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
	"gorm.io/gorm"
)

// RequestRepository 访问申请仓库
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository 创建访问申请仓库
func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// WithTx 绑定事务
func (r *RequestRepository) WithTx(tx *gorm.DB) *RequestRepository {
	return &RequestRepository{db: tx}
}

// Create 批量创建任务行（一次申请按目标应用展开多行）
func (r *RequestRepository) Create(ctx context.Context, rows []entity.AccessRequest) error {
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByTransactionID 按事务号取全部任务行
func (r *RequestRepository) FindByTransactionID(ctx context.Context, txID string) ([]entity.AccessRequest, error) {
	var rows []entity.AccessRequest
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", txID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows, nil
}

// FirstByTransactionID 取事务的代表行
func (r *RequestRepository) FirstByTransactionID(ctx context.Context, txID string) (*entity.AccessRequest, error) {
	var row entity.AccessRequest
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", txID).
		Order("id").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// ListPending 取全部待审批任务行（视图过滤在服务层完成）
func (r *RequestRepository) ListPending(ctx context.Context) ([]entity.AccessRequest, error) {
	var rows []entity.AccessRequest
	err := r.db.WithContext(ctx).
		Where("task_status = ?", entity.ApprovalStatusPending).
		Order("created_at DESC, id").
		Find(&rows).Error
	return rows, err
}

// ListByApproverEmail 取某审批人名下（任一级别）的全部任务行
func (r *RequestRepository) ListByApproverEmail(ctx context.Context, email string) ([]entity.AccessRequest, error) {
	var rows []entity.AccessRequest
	err := r.db.WithContext(ctx).
		Where("LOWER(approver1_email) = LOWER(?) OR LOWER(approver2_email) = LOWER(?)", email, email).
		Order("created_at DESC, id").
		Find(&rows).Error
	return rows, err
}

// UpdateLevel 对指定级别做一次性判定（CAS：仅当该级别仍为 Pending 时生效）。
// 返回受影响行数，0 表示该级别已被判定过。
func (r *RequestRepository) UpdateLevel(ctx context.Context, txID string, level int, status, approverEmail, comments string, actionAt time.Time) (int64, error) {
	values := map[string]interface{}{
		"updated_at": actionAt,
	}
	var guard string
	switch level {
	case 2:
		guard = "approver2_status = ?"
		values["approver2_status"] = status
		values["approver2_action_at"] = actionAt
		values["approver2_comments"] = comments
		if approverEmail != "" {
			values["approver2_email"] = approverEmail
		}
	default:
		guard = "approver1_status = ?"
		values["approver1_status"] = status
		values["approver1_action_at"] = actionAt
		values["approver1_comments"] = comments
		if approverEmail != "" {
			values["approver1_email"] = approverEmail
		}
	}

	res := r.db.WithContext(ctx).Model(&entity.AccessRequest{}).
		Where("transaction_id = ? AND "+guard, txID, entity.ApprovalStatusPending).
		Updates(values)
	return res.RowsAffected, res.Error
}

// UpdateTaskStatus 回写事务的聚合状态
func (r *RequestRepository) UpdateTaskStatus(ctx context.Context, txID, status string) error {
	return r.db.WithContext(ctx).Model(&entity.AccessRequest{}).
		Where("transaction_id = ?", txID).
		Updates(map[string]interface{}{
			"task_status": status,
			"updated_at":  time.Now(),
		}).Error
}
