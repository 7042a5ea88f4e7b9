package service

import (
	"strings"
	"time"

	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
)

// 本文件是纯函数：对显式传入的申请快照做视图推导，不触库、无副作用。

// AggregateByTransaction 按事务号把多任务行折叠成一行逻辑申请。
// 同事务号首行保留、后续丢弃；保持输入顺序，不做隐式排序。
func AggregateByTransaction(rows []entity.AccessRequest) []entity.AccessRequest {
	seen := make(map[string]bool, len(rows))
	out := make([]entity.AccessRequest, 0, len(rows))
	for _, row := range rows {
		if seen[row.TransactionID] {
			continue
		}
		seen[row.TransactionID] = true
		out = append(out, row)
	}
	return out
}

// PendingView "待我审批"视图：聚合状态为 Pending，
// 且申请所在工厂在审批人的工作流工厂集合内，或申请直接指派给该审批人。
func PendingView(rows []entity.AccessRequest, viewer Identity, plantIDs map[int]bool) []entity.AccessRequest {
	out := []entity.AccessRequest{}
	for _, row := range AggregateByTransaction(rows) {
		if row.TaskStatus != entity.ApprovalStatusPending {
			continue
		}
		if plantIDs[row.PlantID] || (row.ReportsTo != "" && row.ReportsTo == viewer.Username) {
			out = append(out, row)
		}
	}
	return out
}

// HistoryEntry "我的已办"条目：申请加上本人命中的级别及该级别的判定内容
type HistoryEntry struct {
	entity.AccessRequest
	Level      int        `json:"level"`
	MyStatus   string     `json:"my_status"`
	MyComments string     `json:"my_comments"`
	MyActionAt *time.Time `json:"my_action_at"`
}

// HistoryView "我的已办"视图：本人是某级审批人且该级已离开 Pending。
// 两级同人时一级优先（正常配置不应出现，但不能因此崩溃）。
func HistoryView(rows []entity.AccessRequest, viewer Identity) []HistoryEntry {
	out := []HistoryEntry{}
	for _, row := range AggregateByTransaction(rows) {
		level := matchLevel(&row, viewer)
		if level == 0 {
			continue
		}
		if row.LevelStatus(level) == entity.ApprovalStatusPending {
			continue
		}
		entry := HistoryEntry{AccessRequest: row, Level: level}
		if level == 2 {
			entry.MyStatus = row.Approver2Status
			entry.MyComments = row.Approver2Comments
			entry.MyActionAt = row.Approver2ActionAt
		} else {
			entry.MyStatus = row.Approver1Status
			entry.MyComments = row.Approver1Comments
			entry.MyActionAt = row.Approver1ActionAt
		}
		out = append(out, entry)
	}
	return out
}

// matchLevel 本人命中的审批级别，一级优先
func matchLevel(r *entity.AccessRequest, viewer Identity) int {
	if r.Approver1Email != "" && strings.EqualFold(r.Approver1Email, viewer.Email) {
		return 1
	}
	if r.Approver2Email != "" && strings.EqualFold(r.Approver2Email, viewer.Email) {
		return 2
	}
	return 0
}
