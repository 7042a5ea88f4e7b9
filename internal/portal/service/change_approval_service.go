package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/repository"
	"gorm.io/gorm"
)

// ChangeApprovalService 主数据变更审批台账。
// 提交时存前后快照，审批通过时在同一事务里落库并迁移台账状态：
// 落库失败整体回滚，条目保持 PENDING，绝不出现"已APPROVED但未落库"。
type ChangeApprovalService struct {
	db             *gorm.DB
	ledgerRepo     *repository.ChangeApprovalRepository
	masterDataRepo *repository.MasterDataRepository
}

// NewChangeApprovalService 创建变更审批服务
func NewChangeApprovalService(db *gorm.DB, ledgerRepo *repository.ChangeApprovalRepository, masterDataRepo *repository.MasterDataRepository) *ChangeApprovalService {
	return &ChangeApprovalService{db: db, ledgerRepo: ledgerRepo, masterDataRepo: masterDataRepo}
}

// SubmitChangeReq 提交变更审批参数
type SubmitChangeReq struct {
	Module   string       `json:"module" binding:"required"`
	Table    string       `json:"table_name" binding:"required"`
	Action   string       `json:"action" binding:"required"`
	RecordID *string      `json:"record_id"`
	OldValue entity.JSONB `json:"old_value"`
	NewValue entity.JSONB `json:"new_value"`
	Comments string       `json:"comments"`
}

// Submit 登记一条待审批的主数据变更
func (s *ChangeApprovalService) Submit(ctx context.Context, req SubmitChangeReq, requestedBy string) (*entity.ChangeApproval, error) {
	if err := validateChangeReq(&req); err != nil {
		return nil, err
	}

	ca := &entity.ChangeApproval{
		ID:              uuid.New().String(),
		Module:          req.Module,
		Table:           req.Table,
		Action:          req.Action,
		RecordID:        req.RecordID,
		OldValue:        req.OldValue,
		NewValue:        req.NewValue,
		RequestedBy:     requestedBy,
		RequestComments: req.Comments,
		Status:          entity.ChangeStatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := s.ledgerRepo.Create(ctx, ca); err != nil {
		return nil, fmt.Errorf("登记变更审批失败: %w", err)
	}
	return ca, nil
}

// validateChangeReq 校验动作与快照的搭配：
// old_value 仅 create 可空，new_value 仅 delete 可空，create 以外必须带 record_id
func validateChangeReq(req *SubmitChangeReq) error {
	if !repository.ValidIdentifier(req.Module) || !repository.ValidIdentifier(req.Table) {
		return fmt.Errorf("%w: 非法模块或表名", ErrValidation)
	}
	switch req.Action {
	case entity.ChangeActionCreate:
		if len(req.NewValue) == 0 {
			return fmt.Errorf("%w: create 必须携带 new_value", ErrValidation)
		}
		if len(req.OldValue) != 0 {
			return fmt.Errorf("%w: create 不应携带 old_value", ErrValidation)
		}
	case entity.ChangeActionUpdate:
		if req.RecordID == nil || strings.TrimSpace(*req.RecordID) == "" {
			return fmt.Errorf("%w: update 必须携带 record_id", ErrValidation)
		}
		if len(req.OldValue) == 0 || len(req.NewValue) == 0 {
			return fmt.Errorf("%w: update 必须携带 old_value 与 new_value", ErrValidation)
		}
	case entity.ChangeActionDelete:
		if req.RecordID == nil || strings.TrimSpace(*req.RecordID) == "" {
			return fmt.Errorf("%w: delete 必须携带 record_id", ErrValidation)
		}
		if len(req.OldValue) == 0 {
			return fmt.Errorf("%w: delete 必须携带 old_value", ErrValidation)
		}
		if len(req.NewValue) != 0 {
			return fmt.Errorf("%w: delete 不应携带 new_value", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: 未知变更动作 %q", ErrValidation, req.Action)
	}
	return nil
}

// 判定动作常量
const (
	VerdictApprove = "approve"
	VerdictReject  = "reject"
)

// Decide 判定台账条目。reject 必须携带意见；approve 在同一事务内落库变更。
func (s *ChangeApprovalService) Decide(ctx context.Context, id, verdict string, actor Identity, comments string) (*entity.ChangeApproval, error) {
	var status string
	switch verdict {
	case VerdictApprove:
		status = entity.ChangeStatusApproved
	case VerdictReject:
		if strings.TrimSpace(comments) == "" {
			return nil, fmt.Errorf("%w: 驳回意见不能为空", ErrValidation)
		}
		status = entity.ChangeStatusRejected
	default:
		return nil, fmt.Errorf("%w: 未知判定动作 %q", ErrValidation, verdict)
	}

	var result *entity.ChangeApproval

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledgerRepo.WithTx(tx)

		ca, err := ledger.FindByID(ctx, id)
		if err != nil {
			return err
		}

		now := time.Now()
		affected, err := ledger.Decide(ctx, id, status, actor.Email, comments, now)
		if err != nil {
			return fmt.Errorf("更新台账状态失败: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: 台账条目已判定（当前状态: %s）", ErrAlreadyDecided, ca.Status)
		}

		// 通过时落库；失败回滚让条目回到 PENDING
		if status == entity.ChangeStatusApproved {
			if err := s.apply(ctx, s.masterDataRepo.WithTx(tx), ca); err != nil {
				if errors.Is(err, repository.ErrBadIdentifier) {
					return fmt.Errorf("%w: %v", ErrValidation, err)
				}
				return fmt.Errorf("%w: %v", ErrApplyFailed, err)
			}
		}

		ca.Status = status
		ca.ApprovedBy = actor.Email
		ca.ApprovalComments = comments
		ca.DecidedAt = &now
		ca.UpdatedAt = now
		result = ca
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// apply 按动作落库：create 插入 new_value，update 以 new_value 覆写，
// delete 按 record_id 删除（old_value 仅留审计展示用）
func (s *ChangeApprovalService) apply(ctx context.Context, masterData *repository.MasterDataRepository, ca *entity.ChangeApproval) error {
	switch ca.Action {
	case entity.ChangeActionCreate:
		return masterData.Insert(ctx, ca.Table, ca.NewValue)
	case entity.ChangeActionUpdate:
		return masterData.Update(ctx, ca.Table, *ca.RecordID, ca.NewValue)
	case entity.ChangeActionDelete:
		return masterData.Delete(ctx, ca.Table, *ca.RecordID)
	default:
		return fmt.Errorf("未知变更动作 %q", ca.Action)
	}
}

// Get 台账条目详情
func (s *ChangeApprovalService) Get(ctx context.Context, id string) (*entity.ChangeApproval, error) {
	return s.ledgerRepo.FindByID(ctx, id)
}

// List 按模块/状态筛选台账。状态缺省为 PENDING，"all" 表示不过滤。
func (s *ChangeApprovalService) List(ctx context.Context, module, status string) ([]entity.ChangeApproval, error) {
	switch status {
	case "":
		status = entity.ChangeStatusPending
	case "all":
		status = ""
	}
	return s.ledgerRepo.List(ctx, module, status)
}
