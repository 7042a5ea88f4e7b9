package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound      = errors.New("record not found")
	ErrBadIdentifier = errors.New("invalid identifier")
)

// Repositories 仓库集合
type Repositories struct {
	User           *UserRepository
	Request        *RequestRepository
	Workflow       *WorkflowRepository
	ChangeApproval *ChangeApprovalRepository
	MasterData     *MasterDataRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Request:        NewRequestRepository(db),
		Workflow:       NewWorkflowRepository(db),
		ChangeApproval: NewChangeApprovalRepository(db),
		MasterData:     NewMasterDataRepository(db),
	}
}
