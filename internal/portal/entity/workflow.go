package entity

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// 工作流状态常量
const (
	WorkflowStatusActive   = "active"
	WorkflowStatusInactive = "inactive"
)

// Workflow 工厂级审批链配置。
// 历史上存在两种审批人编码：
//   - approvers: 按级别嵌套的用户对象数组 [[{id,email,name},...],[...]]
//   - approver_1_ids..approver_5_ids: 逗号分隔的用户ID串（旧版）
// 业务逻辑只消费 ApproverLevels() 归一化后的结构，不感知编码差异。
type Workflow struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	PlantID   int             `json:"plant_id" gorm:"not null;index"`
	Name      string          `json:"name" gorm:"size:128;not null"`
	Status    string          `json:"status" gorm:"size:16;not null;default:'active'"`
	Approvers json.RawMessage `json:"approvers" gorm:"type:jsonb"`

	Approver1IDs string `json:"approver_1_ids" gorm:"size:256"`
	Approver2IDs string `json:"approver_2_ids" gorm:"size:256"`
	Approver3IDs string `json:"approver_3_ids" gorm:"size:256"`
	Approver4IDs string `json:"approver_4_ids" gorm:"size:256"`
	Approver5IDs string `json:"approver_5_ids" gorm:"size:256"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Workflow) TableName() string {
	return "workflows"
}

// ApproverSet 单级审批人ID集合（字符串化ID），任一成员动作即满足该级别
type ApproverSet map[string]bool

// Contains 成员判定
func (s ApproverSet) Contains(userID string) bool {
	return s[strings.TrimSpace(userID)]
}

// approverMember 嵌套编码中的用户对象
type approverMember struct {
	ID     json.RawMessage `json:"id"`
	UserID json.RawMessage `json:"user_id"`
	Email  string          `json:"email"`
	Name   string          `json:"name"`
}

// ApproverLevels 将两种编码归一化为有序的审批人ID集合列表，空级别被跳过
func (w *Workflow) ApproverLevels() []ApproverSet {
	if levels := w.nestedLevels(); len(levels) > 0 {
		return levels
	}
	return w.flatLevels()
}

// ApproverEmails 各级别成员邮箱（仅嵌套编码携带），与 ApproverLevels 同序对齐：
// 成员无邮箱的级别保留空槽位，不得让后续级别的邮箱上移。
func (w *Workflow) ApproverEmails() [][]string {
	var raw [][]json.RawMessage
	if len(w.Approvers) == 0 || json.Unmarshal(w.Approvers, &raw) != nil {
		return nil
	}
	var out [][]string
	for _, group := range raw {
		var emails []string
		hasMember := false
		for _, m := range group {
			if memberID(m) != "" {
				hasMember = true
			}
			var member approverMember
			if err := json.Unmarshal(m, &member); err == nil && member.Email != "" {
				emails = append(emails, member.Email)
			}
		}
		if hasMember {
			out = append(out, emails)
		}
	}
	return out
}

// HasApprover 用户是否出现在任一级别
func (w *Workflow) HasApprover(userID string) bool {
	for _, level := range w.ApproverLevels() {
		if level.Contains(userID) {
			return true
		}
	}
	return false
}

func (w *Workflow) nestedLevels() []ApproverSet {
	if len(w.Approvers) == 0 {
		return nil
	}
	var raw [][]json.RawMessage
	if err := json.Unmarshal(w.Approvers, &raw); err != nil {
		return nil
	}
	var levels []ApproverSet
	for _, group := range raw {
		set := ApproverSet{}
		for _, m := range group {
			if id := memberID(m); id != "" {
				set[id] = true
			}
		}
		if len(set) > 0 {
			levels = append(levels, set)
		}
	}
	return levels
}

func (w *Workflow) flatLevels() []ApproverSet {
	var levels []ApproverSet
	for _, ids := range []string{w.Approver1IDs, w.Approver2IDs, w.Approver3IDs, w.Approver4IDs, w.Approver5IDs} {
		set := ApproverSet{}
		for _, id := range strings.Split(ids, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				set[id] = true
			}
		}
		if len(set) > 0 {
			levels = append(levels, set)
		}
	}
	return levels
}

// memberID 从用户对象或裸值中提取字符串化ID
func memberID(raw json.RawMessage) string {
	var member approverMember
	if err := json.Unmarshal(raw, &member); err == nil {
		if id := normalizeID(member.ID); id != "" {
			return id
		}
		if id := normalizeID(member.UserID); id != "" {
			return id
		}
	}
	// 裸字符串或数字元素
	return normalizeID(raw)
}

// normalizeID 数字与字符串统一成无引号、无小数的字符串
func normalizeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
