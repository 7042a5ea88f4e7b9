package service

import (
	"context"
	"errors"
	"testing"

	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/repository"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/testutil"
	"gorm.io/gorm"
)

var approver = Identity{ID: "u-admin", Username: "admin", Name: "Admin", Email: "admin@test.com"}

func setupChangeApprovalTest(t *testing.T) (*ChangeApprovalService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	// 审批落库目标表
	db.Exec(`CREATE TABLE IF NOT EXISTS plants (
		id VARCHAR(36) PRIMARY KEY,
		code VARCHAR(32) NOT NULL,
		name VARCHAR(128) NOT NULL
	)`)

	svc := NewChangeApprovalService(db,
		repository.NewChangeApprovalRepository(db),
		repository.NewMasterDataRepository(db))
	return svc, db
}

func strPtr(s string) *string { return &s }

func countPlants(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var n int64
	if err := db.Table("plants").Where("id = ?", id).Count(&n).Error; err != nil {
		t.Fatalf("count plants: %v", err)
	}
	return n
}

func TestSubmitChangeValidation(t *testing.T) {
	svc, _ := setupChangeApprovalTest(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  SubmitChangeReq
	}{
		{"create missing new_value", SubmitChangeReq{Module: "plant", Table: "plants", Action: "create"}},
		{"create carries old_value", SubmitChangeReq{Module: "plant", Table: "plants", Action: "create",
			OldValue: entity.JSONB{"id": "p1"}, NewValue: entity.JSONB{"id": "p1"}}},
		{"update missing record_id", SubmitChangeReq{Module: "plant", Table: "plants", Action: "update",
			OldValue: entity.JSONB{"name": "a"}, NewValue: entity.JSONB{"name": "b"}}},
		{"delete carries new_value", SubmitChangeReq{Module: "plant", Table: "plants", Action: "delete",
			RecordID: strPtr("p1"), OldValue: entity.JSONB{"id": "p1"}, NewValue: entity.JSONB{"id": "p1"}}},
		{"unknown action", SubmitChangeReq{Module: "plant", Table: "plants", Action: "upsert",
			NewValue: entity.JSONB{"id": "p1"}}},
		{"malicious table name", SubmitChangeReq{Module: "plant", Table: "plants; DROP TABLE users", Action: "create",
			NewValue: entity.JSONB{"id": "p1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tc.req, "requester@test.com")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestApproveCreateAppliesRow(t *testing.T) {
	svc, db := setupChangeApprovalTest(t)
	ctx := context.Background()

	ca, err := svc.Submit(ctx, SubmitChangeReq{
		Module:   "plant",
		Table:    "plants",
		Action:   entity.ChangeActionCreate,
		NewValue: entity.JSONB{"id": "p-101", "code": "P101", "name": "苏州一厂"},
		Comments: "新建工厂主数据",
	}, "requester@test.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if ca.Status != entity.ChangeStatusPending {
		t.Fatalf("submitted status = %q, want PENDING", ca.Status)
	}

	decided, err := svc.Decide(ctx, ca.ID, VerdictApprove, approver, "")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != entity.ChangeStatusApproved {
		t.Errorf("status = %q, want APPROVED", decided.Status)
	}
	if decided.ApprovedBy != approver.Email {
		t.Errorf("approved_by = %q", decided.ApprovedBy)
	}
	if decided.DecidedAt == nil {
		t.Error("decided_at not set")
	}
	if n := countPlants(t, db, "p-101"); n != 1 {
		t.Errorf("plant row count = %d, want 1", n)
	}
}

func TestApproveUpdateAppliesRow(t *testing.T) {
	svc, db := setupChangeApprovalTest(t)
	ctx := context.Background()
	db.Exec(`INSERT INTO plants (id, code, name) VALUES ('p-200', 'P200', '老名字')`)

	ca, err := svc.Submit(ctx, SubmitChangeReq{
		Module:   "plant",
		Table:    "plants",
		Action:   entity.ChangeActionUpdate,
		RecordID: strPtr("p-200"),
		OldValue: entity.JSONB{"name": "老名字"},
		NewValue: entity.JSONB{"name": "新名字"},
	}, "requester@test.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Decide(ctx, ca.ID, VerdictApprove, approver, ""); err != nil {
		t.Fatalf("decide: %v", err)
	}

	var name string
	db.Table("plants").Where("id = ?", "p-200").Select("name").Scan(&name)
	if name != "新名字" {
		t.Errorf("plant name = %q, want updated value", name)
	}
}

func TestApproveDeleteRemovesRow(t *testing.T) {
	svc, db := setupChangeApprovalTest(t)
	ctx := context.Background()
	db.Exec(`INSERT INTO plants (id, code, name) VALUES ('p-300', 'P300', '待删除厂')`)

	ca, err := svc.Submit(ctx, SubmitChangeReq{
		Module:   "plant",
		Table:    "plants",
		Action:   entity.ChangeActionDelete,
		RecordID: strPtr("p-300"),
		OldValue: entity.JSONB{"id": "p-300", "code": "P300", "name": "待删除厂"},
	}, "requester@test.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Decide(ctx, ca.ID, VerdictApprove, approver, ""); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if n := countPlants(t, db, "p-300"); n != 0 {
		t.Errorf("plant row count = %d, want 0", n)
	}
}

func TestRejectKeepsRecordUntouched(t *testing.T) {
	svc, db := setupChangeApprovalTest(t)
	ctx := context.Background()
	db.Exec(`INSERT INTO plants (id, code, name) VALUES ('p-400', 'P400', '保留厂')`)

	ca, err := svc.Submit(ctx, SubmitChangeReq{
		Module:   "plant",
		Table:    "plants",
		Action:   entity.ChangeActionDelete,
		RecordID: strPtr("p-400"),
		OldValue: entity.JSONB{"id": "p-400"},
	}, "requester@test.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	decided, err := svc.Decide(ctx, ca.ID, VerdictReject, approver, "主数据仍在使用")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if decided.Status != entity.ChangeStatusRejected {
		t.Errorf("status = %q, want REJECTED", decided.Status)
	}
	if n := countPlants(t, db, "p-400"); n != 1 {
		t.Errorf("rejected delete removed the row")
	}
}

func TestChangeRejectRequiresComments(t *testing.T) {
	svc, _ := setupChangeApprovalTest(t)
	ctx := context.Background()

	ca, err := svc.Submit(ctx, SubmitChangeReq{
		Module:   "plant",
		Table:    "plants",
		Action:   entity.ChangeActionCreate,
		NewValue: entity.JSONB{"id": "p-500", "code": "P500", "name": "x"},
	}, "requester@test.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.Decide(ctx, ca.ID, VerdictReject, approver, "")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	got, err := svc.Get(ctx, ca.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != entity.ChangeStatusPending {
		t.Errorf("status = %q, failed reject must not mutate", got.Status)
	}
}

func TestDecideTwice(t *testing.T) {
	svc, _ := setupChangeApprovalTest(t)
	ctx := context.Background()

	ca, err := svc.Submit(ctx, SubmitChangeReq{
		Module:   "plant",
		Table:    "plants",
		Action:   entity.ChangeActionCreate,
		NewValue: entity.JSONB{"id": "p-600", "code": "P600", "name": "x"},
	}, "requester@test.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.Decide(ctx, ca.ID, VerdictApprove, approver, ""); err != nil {
		t.Fatalf("first decide: %v", err)
	}
	_, err = svc.Decide(ctx, ca.ID, VerdictReject, approver, "重复判定")
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestApplyFailureKeepsPending(t *testing.T) {
	svc, _ := setupChangeApprovalTest(t)
	ctx := context.Background()

	ca, err := svc.Submit(ctx, SubmitChangeReq{
		Module:   "plant",
		Table:    "no_such_table",
		Action:   entity.ChangeActionCreate,
		NewValue: entity.JSONB{"id": "p-700"},
	}, "requester@test.com")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = svc.Decide(ctx, ca.ID, VerdictApprove, approver, "")
	if !errors.Is(err, ErrApplyFailed) {
		t.Fatalf("expected ErrApplyFailed, got %v", err)
	}

	got, err := svc.Get(ctx, ca.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != entity.ChangeStatusPending {
		t.Errorf("status = %q, rollback must keep PENDING", got.Status)
	}
}

func TestListDefaultsToPending(t *testing.T) {
	svc, _ := setupChangeApprovalTest(t)
	ctx := context.Background()

	a, _ := svc.Submit(ctx, SubmitChangeReq{
		Module: "plant", Table: "plants", Action: entity.ChangeActionCreate,
		NewValue: entity.JSONB{"id": "p-800", "code": "P800", "name": "x"},
	}, "requester@test.com")
	svc.Submit(ctx, SubmitChangeReq{
		Module: "plant", Table: "plants", Action: entity.ChangeActionCreate,
		NewValue: entity.JSONB{"id": "p-801", "code": "P801", "name": "y"},
	}, "requester@test.com")
	if _, err := svc.Decide(ctx, a.ID, VerdictApprove, approver, ""); err != nil {
		t.Fatalf("decide: %v", err)
	}

	pending, err := svc.List(ctx, "plant", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending list = %d entries, want 1", len(pending))
	}

	all, err := svc.List(ctx, "plant", "all")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all list = %d entries, want 2", len(all))
	}
}
