package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/service"
)

// WorkflowHandler 工作流配置处理器
type WorkflowHandler struct {
	svc *service.WorkflowService
}

// NewWorkflowHandler 创建工作流处理器
func NewWorkflowHandler(svc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// List 工作流列表
// GET /api/v1/workflows
func (h *WorkflowHandler) List(c *gin.Context) {
	workflows, err := h.svc.List(c.Request.Context())
	if err != nil {
		InternalError(c, "获取工作流列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": workflows, "total": len(workflows)})
}

// Get 工作流详情
// GET /api/v1/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	workflow, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, workflow)
}

// Create 创建工作流
// POST /api/v1/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req service.CreateWorkflowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	workflow, err := h.svc.Create(c.Request.Context(), req, GetIdentity(c).ID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, workflow)
}

// Update 更新工作流
// PUT /api/v1/workflows/:id
func (h *WorkflowHandler) Update(c *gin.Context) {
	var req service.UpdateWorkflowReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	workflow, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, workflow)
}

// Delete 删除工作流
// DELETE /api/v1/workflows/:id
func (h *WorkflowHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, nil)
}

// MyPlants 当前用户作为审批人的工厂集合
// GET /api/v1/workflows/my-plants
func (h *WorkflowHandler) MyPlants(c *gin.Context) {
	set, err := h.svc.ApproverPlantIDs(c.Request.Context(), GetIdentity(c).ID)
	if err != nil {
		InternalError(c, "解析审批工厂失败: "+err.Error())
		return
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	Success(c, gin.H{"plant_ids": ids})
}
