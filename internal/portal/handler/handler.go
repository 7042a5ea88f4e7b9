package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/repository"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Approval       *ApprovalHandler
	Workflow       *WorkflowHandler
	ChangeApproval *ChangeApprovalHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Approval:       NewApprovalHandler(svc.Approval),
		Workflow:       NewWorkflowHandler(svc.Workflow),
		ChangeApproval: NewChangeApprovalHandler(svc.ChangeApproval),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

// Error 错误响应，code 前三位即HTTP状态码
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError 按业务错误分派响应
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrAlreadyDecided):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrApplyFailed):
		Error(c, 50200, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetIdentity 从上下文取显式调用者身份（由JWT中间件写入）
func GetIdentity(c *gin.Context) service.Identity {
	return service.Identity{
		ID:       c.GetString("user_id"),
		Username: c.GetString("username"),
		Name:     c.GetString("user_name"),
		Email:    c.GetString("user_email"),
	}
}
