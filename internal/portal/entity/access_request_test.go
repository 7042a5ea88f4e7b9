package entity

import (
	"testing"
)

func TestDeriveTaskStatusTwoLevels(t *testing.T) {
	cases := []struct {
		name   string
		level1 string
		level2 string
		want   string
	}{
		{"both pending", ApprovalStatusPending, ApprovalStatusPending, ApprovalStatusPending},
		{"level1 approved only", ApprovalStatusApproved, ApprovalStatusPending, ApprovalStatusPending},
		{"level2 approved only", ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusPending},
		{"both approved", ApprovalStatusApproved, ApprovalStatusApproved, ApprovalStatusApproved},
		{"level1 rejected", ApprovalStatusRejected, ApprovalStatusPending, ApprovalStatusRejected},
		{"level2 rejected", ApprovalStatusPending, ApprovalStatusRejected, ApprovalStatusRejected},
		{"level1 approved level2 rejected", ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusRejected},
		{"level1 rejected level2 approved", ApprovalStatusRejected, ApprovalStatusApproved, ApprovalStatusRejected},
	}

	for _, tc := range cases {
		got := DeriveTaskStatus(tc.level1, tc.level2, true)
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestDeriveTaskStatusSingleLevel(t *testing.T) {
	// 未配置二级审批时一级即终审
	if got := DeriveTaskStatus(ApprovalStatusApproved, ApprovalStatusPending, false); got != ApprovalStatusApproved {
		t.Errorf("expected Approved, got %s", got)
	}
	if got := DeriveTaskStatus(ApprovalStatusPending, ApprovalStatusPending, false); got != ApprovalStatusPending {
		t.Errorf("expected Pending, got %s", got)
	}
	if got := DeriveTaskStatus(ApprovalStatusRejected, ApprovalStatusPending, false); got != ApprovalStatusRejected {
		t.Errorf("expected Rejected, got %s", got)
	}
}

// 聚合状态为 Pending 当且仅当存在未决级别且无任何级别被驳回
func TestTaskStatusPendingInvariant(t *testing.T) {
	statuses := []string{ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected}
	for _, l1 := range statuses {
		for _, l2 := range statuses {
			got := DeriveTaskStatus(l1, l2, true)
			anyPending := l1 == ApprovalStatusPending || l2 == ApprovalStatusPending
			anyRejected := l1 == ApprovalStatusRejected || l2 == ApprovalStatusRejected
			wantPending := anyPending && !anyRejected
			if (got == ApprovalStatusPending) != wantPending {
				t.Errorf("level1=%s level2=%s: got %s, pending invariant violated", l1, l2, got)
			}
		}
	}
}

func TestHasLevel2(t *testing.T) {
	r := &AccessRequest{Approver2Email: "  "}
	if r.HasLevel2() {
		t.Error("blank approver2 email should not count as configured level")
	}
	r.Approver2Email = "qa.head@unichem.local"
	if !r.HasLevel2() {
		t.Error("expected level 2 configured")
	}
}
