package entity

import (
	"time"
)

// 变更审批状态常量
const (
	ChangeStatusPending  = "PENDING"
	ChangeStatusApproved = "APPROVED"
	ChangeStatusRejected = "REJECTED"
)

// 变更动作常量
const (
	ChangeActionCreate = "create"
	ChangeActionUpdate = "update"
	ChangeActionDelete = "delete"
)

// ChangeApproval 主数据变更审批台账。
// 记录变更前后快照，审批通过时才把变更落到目标表；
// 不变量：old_value 仅在 create 时为空，new_value 仅在 delete 时为空。
type ChangeApproval struct {
	ID       string  `json:"id" gorm:"primaryKey;size:36"`
	Module   string  `json:"module" gorm:"size:64;not null;index"`
	Table    string  `json:"table_name" gorm:"column:table_name;size:64;not null"`
	Action   string  `json:"action" gorm:"size:10;not null"`
	RecordID *string `json:"record_id" gorm:"size:64"`

	OldValue JSONB `json:"old_value" gorm:"type:jsonb"`
	NewValue JSONB `json:"new_value" gorm:"type:jsonb"`

	RequestedBy     string `json:"requested_by" gorm:"size:64;not null"`
	RequestComments string `json:"request_comments" gorm:"type:text"`

	Status           string     `json:"status" gorm:"size:16;not null;default:'PENDING';index"`
	ApprovedBy       string     `json:"approved_by" gorm:"size:64"`
	ApprovalComments string     `json:"approval_comments" gorm:"type:text"`
	DecidedAt        *time.Time `json:"decided_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ChangeApproval) TableName() string {
	return "change_approvals"
}
