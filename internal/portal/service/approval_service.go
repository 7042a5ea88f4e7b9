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

// ApprovalService 两级顺序审批状态机。
// 每级独立记录 Pending/Approved/Rejected，聚合状态只由 DeriveTaskStatus 推导；
// 同级判定走CAS，一次且仅一次生效。
type ApprovalService struct {
	db          *gorm.DB
	requestRepo *repository.RequestRepository
	workflowSvc *WorkflowService
}

// NewApprovalService 创建审批服务
func NewApprovalService(db *gorm.DB, requestRepo *repository.RequestRepository, workflowSvc *WorkflowService) *ApprovalService {
	return &ApprovalService{db: db, requestRepo: requestRepo, workflowSvc: workflowSvc}
}

// CreateRequestReq 提交访问申请参数
type CreateRequestReq struct {
	RequesterName  string   `json:"requester_name" binding:"required"`
	EmployeeCode   string   `json:"employee_code"`
	Location       string   `json:"location"`
	Department     string   `json:"department"`
	Applications   []string `json:"applications" binding:"required"`
	AccessRole     string   `json:"access_role"`
	VendorName     string   `json:"vendor_name"`
	VendorCode     string   `json:"vendor_code"`
	TrainingStatus string   `json:"training_status"`
	PlantID        int      `json:"plant_id"`
	DepartmentID   int      `json:"department_id"`
	ReportsTo      string   `json:"reports_to"`
}

// SubmitRequest 提交访问申请：按目标应用展开任务行，共用一个事务号，
// 并在提交时通过工作流注册表盖戳一、二级审批人邮箱。
// 工厂无工作流且未直接指派时拒绝提交（否则申请对任何审批人不可见）。
func (s *ApprovalService) SubmitRequest(ctx context.Context, req CreateRequestReq) ([]entity.AccessRequest, error) {
	if len(req.Applications) == 0 {
		return nil, fmt.Errorf("%w: 至少选择一个目标应用", ErrValidation)
	}

	var approver1, approver2 string
	if req.PlantID > 0 {
		var err error
		approver1, approver2, err = s.workflowSvc.ResolveApproverEmails(ctx, req.PlantID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("解析审批人失败: %w", err)
		}
	}
	if approver1 == "" && strings.TrimSpace(req.ReportsTo) == "" {
		return nil, fmt.Errorf("%w: 工厂 %d 未配置审批工作流，且未指定直接审批人", ErrValidation, req.PlantID)
	}

	txID := newTransactionID()
	now := time.Now()
	rows := make([]entity.AccessRequest, 0, len(req.Applications))
	for _, app := range req.Applications {
		rows = append(rows, entity.AccessRequest{
			TransactionID:   txID,
			RequesterName:   req.RequesterName,
			EmployeeCode:    req.EmployeeCode,
			Location:        req.Location,
			Department:      req.Department,
			Application:     app,
			AccessRole:      req.AccessRole,
			VendorName:      req.VendorName,
			VendorCode:      req.VendorCode,
			TrainingStatus:  req.TrainingStatus,
			PlantID:         req.PlantID,
			DepartmentID:    req.DepartmentID,
			ReportsTo:       strings.TrimSpace(req.ReportsTo),
			Approver1Email:  approver1,
			Approver1Status: entity.ApprovalStatusPending,
			Approver2Email:  approver2,
			Approver2Status: entity.ApprovalStatusPending,
			TaskStatus:      entity.ApprovalStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	if err := s.requestRepo.Create(ctx, rows); err != nil {
		return nil, fmt.Errorf("创建访问申请失败: %w", err)
	}
	return rows, nil
}

// newTransactionID 人类可读的申请事务号
func newTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("IDAMS-%s-%s", time.Now().Format("20060102"), suffix)
}

// Approve 审批通过指定事务的一个级别
func (s *ApprovalService) Approve(ctx context.Context, txID string, actor Identity, comments string) (*entity.AccessRequest, error) {
	return s.decide(ctx, txID, actor, entity.ApprovalStatusApproved, comments)
}

// Reject 驳回指定事务的一个级别，驳回意见必填
func (s *ApprovalService) Reject(ctx context.Context, txID string, actor Identity, comments string) (*entity.AccessRequest, error) {
	if strings.TrimSpace(comments) == "" {
		return nil, fmt.Errorf("%w: 驳回意见不能为空", ErrValidation)
	}
	return s.decide(ctx, txID, actor, entity.ApprovalStatusRejected, comments)
}

// decide 单级判定：授权 → CAS置位 → 重推聚合状态，整体一个数据库事务
func (s *ApprovalService) decide(ctx context.Context, txID string, actor Identity, verdict, comments string) (*entity.AccessRequest, error) {
	var result *entity.AccessRequest

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.requestRepo.WithTx(tx)

		rep, err := repo.FirstByTransactionID(ctx, txID)
		if err != nil {
			return err
		}

		level, stampEmail := resolveLevel(rep, actor)
		if level == 0 {
			return fmt.Errorf("%w: %s 不是申请 %s 的审批人", ErrNotAuthorized, actor.Email, txID)
		}

		now := time.Now()
		affected, err := repo.UpdateLevel(ctx, txID, level, verdict, stampEmail, comments, now)
		if err != nil {
			return fmt.Errorf("更新审批槽位失败: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: 第%d级审批已判定", ErrAlreadyDecided, level)
		}

		rep, err = repo.FirstByTransactionID(ctx, txID)
		if err != nil {
			return err
		}
		if err := repo.UpdateTaskStatus(ctx, txID, rep.DeriveStatus()); err != nil {
			return fmt.Errorf("回写聚合状态失败: %w", err)
		}

		rep.TaskStatus = rep.DeriveStatus()
		result = rep
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolveLevel 调用者在该申请上的判定级别：
// 邮箱匹配一级 → 1，邮箱匹配二级 → 2，直接指派（reports_to）→ 1。
// 一级优先于二级；直接指派判定时以实际操作者邮箱盖戳一级槽位，留痕到审计与已办视图。
func resolveLevel(r *entity.AccessRequest, actor Identity) (level int, stampEmail string) {
	if r.Approver1Email != "" && strings.EqualFold(r.Approver1Email, actor.Email) {
		return 1, ""
	}
	if r.Approver2Email != "" && strings.EqualFold(r.Approver2Email, actor.Email) {
		return 2, ""
	}
	if r.ReportsTo != "" && r.ReportsTo == actor.Username {
		return 1, actor.Email
	}
	return 0, ""
}

// GetByTransaction 按事务号取申请全部任务行
func (s *ApprovalService) GetByTransaction(ctx context.Context, txID string) ([]entity.AccessRequest, error) {
	return s.requestRepo.FindByTransactionID(ctx, txID)
}

// ListPendingFor 审批人"待我审批"视图
func (s *ApprovalService) ListPendingFor(ctx context.Context, viewer Identity) ([]entity.AccessRequest, error) {
	rows, err := s.requestRepo.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	plantIDs, err := s.workflowSvc.ApproverPlantIDs(ctx, viewer.ID)
	if err != nil {
		return nil, err
	}
	return PendingView(rows, viewer, plantIDs), nil
}

// ListHistoryFor 审批人"我的已办"视图
func (s *ApprovalService) ListHistoryFor(ctx context.Context, viewer Identity) ([]HistoryEntry, error) {
	rows, err := s.requestRepo.ListByApproverEmail(ctx, viewer.Email)
	if err != nil {
		return nil, err
	}
	return HistoryView(rows, viewer), nil
}
