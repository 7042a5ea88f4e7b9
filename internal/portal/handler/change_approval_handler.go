package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/service"
)

// ChangeApprovalHandler 主数据变更审批处理器
type ChangeApprovalHandler struct {
	svc *service.ChangeApprovalService
}

// NewChangeApprovalHandler 创建变更审批处理器
func NewChangeApprovalHandler(svc *service.ChangeApprovalService) *ChangeApprovalHandler {
	return &ChangeApprovalHandler{svc: svc}
}

// Submit 登记变更审批
// POST /api/v1/change-approvals
func (h *ChangeApprovalHandler) Submit(c *gin.Context) {
	var req service.SubmitChangeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ca, err := h.svc.Submit(c.Request.Context(), req, GetIdentity(c).Email)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, ca)
}

// List 台账列表，可按 module/status 筛选，状态缺省 PENDING
// GET /api/v1/change-approvals
func (h *ChangeApprovalHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Query("module"), c.Query("status"))
	if err != nil {
		InternalError(c, "获取变更审批列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": items, "total": len(items)})
}

// Get 台账条目详情
// GET /api/v1/change-approvals/:id
func (h *ChangeApprovalHandler) Get(c *gin.Context) {
	ca, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ca)
}

// decideReq 判定请求体
type decideReq struct {
	Comments string `json:"comments"`
}

// Approve 通过变更并落库
// POST /api/v1/change-approvals/:id/approve
func (h *ChangeApprovalHandler) Approve(c *gin.Context) {
	var req decideReq
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ca, err := h.svc.Decide(c.Request.Context(), c.Param("id"), service.VerdictApprove, GetIdentity(c), req.Comments)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ca)
}

// Reject 驳回变更（意见必填），目标表不动
// POST /api/v1/change-approvals/:id/reject
func (h *ChangeApprovalHandler) Reject(c *gin.Context) {
	var req decideReq
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	ca, err := h.svc.Decide(c.Request.Context(), c.Param("id"), service.VerdictReject, GetIdentity(c), req.Comments)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, ca)
}
