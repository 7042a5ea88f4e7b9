package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/repository"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/service"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/testutil"
)

const (
	handlerTestPlant = 201

	aliceToken = "alice"
	bobToken   = "bob"
)

func approverToken(who string) string {
	switch who {
	case aliceToken:
		return testutil.GenerateTestToken("u-alice", "alice", "Alice Lin", "alice@test.com")
	case bobToken:
		return testutil.GenerateTestToken("u-bob", "bob", "Bob Wu", "bob@test.com")
	}
	return testutil.DefaultTestToken()
}

func setupApprovalHandlerTest(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	workflowSvc := service.NewWorkflowService(repos.Workflow, repos.User, nil, 0)
	approvalSvc := service.NewApprovalService(db, repos.Request, workflowSvc)

	approvers, _ := json.Marshal([][]map[string]string{
		{{"id": "u-alice", "email": "alice@test.com", "name": "Alice Lin"}},
		{{"id": "u-bob", "email": "bob@test.com", "name": "Bob Wu"}},
	})
	if _, err := workflowSvc.Create(context.Background(), service.CreateWorkflowReq{
		PlantID:   handlerTestPlant,
		Name:      "201厂访问审批",
		Approvers: approvers,
	}, "seed"); err != nil {
		t.Fatalf("seed workflow: %v", err)
	}

	h := NewApprovalHandler(approvalSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	requests := api.Group("/requests")
	requests.POST("", h.SubmitRequest)
	requests.GET("/pending", h.ListPending)
	requests.GET("/history", h.ListHistory)
	requests.GET("/:txid", h.GetRequest)
	requests.POST("/:txid/approve", h.Approve)
	requests.POST("/:txid/reject", h.Reject)

	return router
}

func submitViaAPI(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := testutil.DoRequest(router, "POST", "/api/v1/requests", map[string]interface{}{
		"requester_name": "张三",
		"employee_code":  "E2001",
		"applications":   []string{"SAP", "MES"},
		"access_role":    "operator",
		"plant_id":       handlerTestPlant,
	}, testutil.DefaultTestToken())
	if w.Code != http.StatusCreated {
		t.Fatalf("submit expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	return data["transaction_id"].(string)
}

func TestSubmitAndGetRequest(t *testing.T) {
	router := setupApprovalHandlerTest(t)
	txID := submitViaAPI(t, router)

	w := testutil.DoRequest(router, "GET", "/api/v1/requests/"+txID, nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("get expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["task_status"] != "Pending" {
		t.Errorf("task_status = %v, want Pending", data["task_status"])
	}
	tasks := data["tasks"].([]interface{})
	if len(tasks) != 2 {
		t.Errorf("tasks = %d rows, want 2", len(tasks))
	}
}

func TestSubmitRequestUnauthenticated(t *testing.T) {
	router := setupApprovalHandlerTest(t)

	w := testutil.DoRequest(router, "POST", "/api/v1/requests", map[string]interface{}{
		"requester_name": "张三",
		"applications":   []string{"SAP"},
		"plant_id":       handlerTestPlant,
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestApproveFlowOverHTTP(t *testing.T) {
	router := setupApprovalHandlerTest(t)
	txID := submitViaAPI(t, router)

	w := testutil.DoRequest(router, "POST", "/api/v1/requests/"+txID+"/approve",
		map[string]interface{}{"comments": "同意"}, approverToken(aliceToken))
	if w.Code != http.StatusOK {
		t.Fatalf("level 1 approve expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["task_status"] != "Pending" {
		t.Errorf("task_status after level 1 = %v, want Pending", data["task_status"])
	}

	w = testutil.DoRequest(router, "POST", "/api/v1/requests/"+txID+"/approve", nil, approverToken(bobToken))
	if w.Code != http.StatusOK {
		t.Fatalf("level 2 approve expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["task_status"] != "Approved" {
		t.Errorf("task_status after both levels = %v, want Approved", data["task_status"])
	}
}

func TestApproveTwiceConflict(t *testing.T) {
	router := setupApprovalHandlerTest(t)
	txID := submitViaAPI(t, router)

	w := testutil.DoRequest(router, "POST", "/api/v1/requests/"+txID+"/approve", nil, approverToken(aliceToken))
	if w.Code != http.StatusOK {
		t.Fatalf("first approve expected 200, got %d", w.Code)
	}
	w = testutil.DoRequest(router, "POST", "/api/v1/requests/"+txID+"/approve", nil, approverToken(aliceToken))
	if w.Code != http.StatusConflict {
		t.Fatalf("second approve expected 409, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if int(resp["code"].(float64)) != 40900 {
		t.Errorf("business code = %v, want 40900", resp["code"])
	}
}

func TestRejectWithoutCommentsOverHTTP(t *testing.T) {
	router := setupApprovalHandlerTest(t)
	txID := submitViaAPI(t, router)

	w := testutil.DoRequest(router, "POST", "/api/v1/requests/"+txID+"/reject", nil, approverToken(aliceToken))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestApproveByStrangerForbidden(t *testing.T) {
	router := setupApprovalHandlerTest(t)
	txID := submitViaAPI(t, router)

	stranger := testutil.GenerateTestToken("u-zhao", "zhao", "Zhao Liu", "zhao@test.com")
	w := testutil.DoRequest(router, "POST", "/api/v1/requests/"+txID+"/approve", nil, stranger)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestApproveUnknownTransactionNotFound(t *testing.T) {
	router := setupApprovalHandlerTest(t)

	w := testutil.DoRequest(router, "POST", "/api/v1/requests/IDAMS-20260101-DEADBEEF/approve",
		nil, approverToken(aliceToken))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPendingListOverHTTP(t *testing.T) {
	router := setupApprovalHandlerTest(t)
	txID := submitViaAPI(t, router)

	w := testutil.DoRequest(router, "GET", "/api/v1/requests/pending", nil, approverToken(aliceToken))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if int(data["total"].(float64)) != 1 {
		t.Fatalf("total = %v, want 1", data["total"])
	}
	items := data["items"].([]interface{})
	first := items[0].(map[string]interface{})
	if first["transaction_id"] != txID {
		t.Errorf("pending item transaction = %v, want %s", first["transaction_id"], txID)
	}
}
