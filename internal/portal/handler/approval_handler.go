package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/service"
)

// ApprovalHandler 访问申请审批处理器
type ApprovalHandler struct {
	svc *service.ApprovalService
}

// NewApprovalHandler 创建审批处理器
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

// SubmitRequest 提交访问申请
// POST /api/v1/requests
func (h *ApprovalHandler) SubmitRequest(c *gin.Context) {
	var req service.CreateRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rows, err := h.svc.SubmitRequest(c.Request.Context(), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, gin.H{
		"transaction_id": rows[0].TransactionID,
		"tasks":          rows,
	})
}

// GetRequest 申请详情（同事务号全部任务行）
// GET /api/v1/requests/:txid
func (h *ApprovalHandler) GetRequest(c *gin.Context) {
	rows, err := h.svc.GetByTransaction(c.Request.Context(), c.Param("txid"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{
		"transaction_id": rows[0].TransactionID,
		"task_status":    rows[0].TaskStatus,
		"tasks":          rows,
	})
}

// ListPending "待我审批"列表
// GET /api/v1/requests/pending
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	viewer := GetIdentity(c)
	items, err := h.svc.ListPendingFor(c.Request.Context(), viewer)
	if err != nil {
		InternalError(c, "获取待审批列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items, "total": len(items)})
}

// ListHistory "我的已办"列表
// GET /api/v1/requests/history
func (h *ApprovalHandler) ListHistory(c *gin.Context) {
	viewer := GetIdentity(c)
	items, err := h.svc.ListHistoryFor(c.Request.Context(), viewer)
	if err != nil {
		InternalError(c, "获取已办列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items, "total": len(items)})
}

// decisionReq 审批判定请求体
type decisionReq struct {
	Comments string `json:"comments"`
}

// Approve 审批通过
// POST /api/v1/requests/:txid/approve
func (h *ApprovalHandler) Approve(c *gin.Context) {
	var req decisionReq
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	row, err := h.svc.Approve(c.Request.Context(), c.Param("txid"), GetIdentity(c), req.Comments)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, row)
}

// Reject 审批驳回（意见必填）
// POST /api/v1/requests/:txid/reject
func (h *ApprovalHandler) Reject(c *gin.Context) {
	var req decisionReq
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	row, err := h.svc.Reject(c.Request.Context(), c.Param("txid"), GetIdentity(c), req.Comments)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, row)
}
