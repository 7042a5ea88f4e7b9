package entity

import (
	"strings"
	"time"
)

// 审批状态常量（单级槽位与聚合状态共用）
const (
	ApprovalStatusPending  = "Pending"
	ApprovalStatusApproved = "Approved"
	ApprovalStatusRejected = "Rejected"
)

// AccessRequest 门禁/系统访问申请任务行。
// 一个逻辑申请（transaction_id）可能按目标应用拆成多行，审批按事务号一次生效。
type AccessRequest struct {
	ID            uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionID string `json:"transaction_id" gorm:"size:50;not null;index"`

	// 申请人信息
	RequesterName  string `json:"requester_name" gorm:"size:128;not null"`
	EmployeeCode   string `json:"employee_code" gorm:"size:32;index"`
	Location       string `json:"location" gorm:"size:128"`
	Department     string `json:"department" gorm:"size:128"`
	Application    string `json:"application" gorm:"size:128;not null"`
	AccessRole     string `json:"access_role" gorm:"size:128"`
	VendorName     string `json:"vendor_name" gorm:"size:128"`
	VendorCode     string `json:"vendor_code" gorm:"size:64"`
	TrainingStatus string `json:"training_status" gorm:"size:32"`

	// 路由信息：工厂/部门走工作流，reports_to 为直接指派
	PlantID      int    `json:"plant_id" gorm:"index"`
	DepartmentID int    `json:"department_id"`
	ReportsTo    string `json:"reports_to" gorm:"size:64;index"`

	// 两级审批槽位，各自独立记录
	Approver1Email    string     `json:"approver1_email" gorm:"size:128;index"`
	Approver1Status   string     `json:"approver1_status" gorm:"size:20;not null;default:'Pending'"`
	Approver1ActionAt *time.Time `json:"approver1_action_at"`
	Approver1Comments string     `json:"approver1_comments" gorm:"type:text"`

	Approver2Email    string     `json:"approver2_email" gorm:"size:128;index"`
	Approver2Status   string     `json:"approver2_status" gorm:"size:20;not null;default:'Pending'"`
	Approver2ActionAt *time.Time `json:"approver2_action_at"`
	Approver2Comments string     `json:"approver2_comments" gorm:"type:text"`

	// 聚合状态，仅由 DeriveTaskStatus 推导
	TaskStatus string `json:"task_status" gorm:"size:20;not null;default:'Pending';index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AccessRequest) TableName() string {
	return "access_requests"
}

// HasLevel2 是否配置了二级审批
func (r *AccessRequest) HasLevel2() bool {
	return strings.TrimSpace(r.Approver2Email) != ""
}

// LevelStatus 指定级别的槽位状态
func (r *AccessRequest) LevelStatus(level int) string {
	if level == 2 {
		return r.Approver2Status
	}
	return r.Approver1Status
}

// DeriveTaskStatus 聚合状态推导：
// 任一级别 Rejected → Rejected；所有已配置级别 Approved → Approved；否则 Pending。
func DeriveTaskStatus(level1, level2 string, hasLevel2 bool) string {
	if level1 == ApprovalStatusRejected {
		return ApprovalStatusRejected
	}
	if hasLevel2 && level2 == ApprovalStatusRejected {
		return ApprovalStatusRejected
	}
	if level1 == ApprovalStatusApproved {
		if !hasLevel2 || level2 == ApprovalStatusApproved {
			return ApprovalStatusApproved
		}
	}
	return ApprovalStatusPending
}

// DeriveStatus 针对单行重新推导聚合状态
func (r *AccessRequest) DeriveStatus() string {
	return DeriveTaskStatus(r.Approver1Status, r.Approver2Status, r.HasLevel2())
}
