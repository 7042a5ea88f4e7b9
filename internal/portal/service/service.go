package service

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/unichemlab/idamsLite-sub000/internal/config"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/repository"
	"gorm.io/gorm"
)

// 业务错误定义。调用方通过 errors.Is 分派，引擎内部不吞错误。
var (
	// ErrValidation 入参校验失败（如驳回意见为空），未发生任何状态变更
	ErrValidation = errors.New("validation failed")
	// ErrNotAuthorized 调用者不具备该请求/条目的任何判定角色
	ErrNotAuthorized = errors.New("not authorized")
	// ErrAlreadyDecided 该级别/条目已离开 Pending 状态，重试可安全探测
	ErrAlreadyDecided = errors.New("already decided")
	// ErrApplyFailed 台账审批通过但变更落库失败，条目保持 PENDING
	ErrApplyFailed = errors.New("apply change failed")
)

// Identity 调用者身份。引擎不读取任何隐式会话状态，
// 所有判定操作都要求显式传入身份。
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Services 服务集合
type Services struct {
	Workflow       *WorkflowService
	Approval       *ApprovalService
	ChangeApproval *ChangeApprovalService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	workflowSvc := NewWorkflowService(repos.Workflow, repos.User, rdb, cfg.Workflow.CacheTTL)
	return &Services{
		Workflow:       workflowSvc,
		Approval:       NewApprovalService(db, repos.Request, workflowSvc),
		ChangeApproval: NewChangeApprovalService(db, repos.ChangeApproval, repos.MasterData),
	}
}
