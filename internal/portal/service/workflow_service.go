package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/entity"
	"github.com/unichemlab/idamsLite-sub000/internal/portal/repository"
)

// WorkflowService 工作流注册表：维护工厂级审批链配置，
// 并把两种历史审批人编码归一化后对外提供解析能力。
type WorkflowService struct {
	repo     *repository.WorkflowRepository
	userRepo *repository.UserRepository
	rdb      *redis.Client
	cacheTTL time.Duration
}

// NewWorkflowService 创建工作流服务
func NewWorkflowService(repo *repository.WorkflowRepository, userRepo *repository.UserRepository, rdb *redis.Client, cacheTTL time.Duration) *WorkflowService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &WorkflowService{repo: repo, userRepo: userRepo, rdb: rdb, cacheTTL: cacheTTL}
}

// ResolveApprovers 解析工厂的有序审批人ID集合列表。
// 工厂无工作流时返回 repository.ErrNotFound，此时该厂的申请仅能通过直接指派可见。
func (s *WorkflowService) ResolveApprovers(ctx context.Context, plantID int) ([]entity.ApproverSet, error) {
	workflow, err := s.repo.FindByPlant(ctx, plantID)
	if err != nil {
		return nil, err
	}
	return workflow.ApproverLevels(), nil
}

// ResolveApproverEmails 解析工厂一、二级审批人代表邮箱（提交时盖戳到申请上）。
// 按级别独立解析：嵌套编码自带邮箱则直接使用，该级别无邮箱时回查用户表，
// 不允许后续级别的邮箱上移补位。
func (s *WorkflowService) ResolveApproverEmails(ctx context.Context, plantID int) (level1, level2 string, err error) {
	workflow, err := s.repo.FindByPlant(ctx, plantID)
	if err != nil {
		return "", "", err
	}

	emails := workflow.ApproverEmails()
	levels := workflow.ApproverLevels()
	resolve := func(i int) string {
		if i < len(emails) && len(emails[i]) > 0 {
			return emails[i][0]
		}
		if i < len(levels) {
			return s.firstMemberEmail(ctx, levels[i])
		}
		return ""
	}
	return resolve(0), resolve(1), nil
}

func (s *WorkflowService) firstMemberEmail(ctx context.Context, set entity.ApproverSet) string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil || len(users) == 0 {
		return ""
	}
	return users[0].Email
}

// ApproverPlantIDs 用户作为任一级别审批人的工厂ID集合。
// 结果在redis短暂缓存；缓存未命中或redis异常时回退全量扫描，
// 缓存过期只影响看板刷新，不参与审批授权判定。
func (s *WorkflowService) ApproverPlantIDs(ctx context.Context, userID string) (map[int]bool, error) {
	cacheKey := "workflow:plants:" + userID

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var ids []int
			if json.Unmarshal([]byte(cached), &ids) == nil {
				return plantSet(ids), nil
			}
		}
	}

	workflows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("扫描工作流失败: %w", err)
	}

	set := map[int]bool{}
	for i := range workflows {
		if workflows[i].HasApprover(userID) {
			set[workflows[i].PlantID] = true
		}
	}

	if s.rdb != nil {
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		if payload, err := json.Marshal(ids); err == nil {
			s.rdb.Set(ctx, cacheKey, payload, s.cacheTTL)
		}
	}

	return set, nil
}

func plantSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// CreateWorkflowReq 创建工作流参数
type CreateWorkflowReq struct {
	PlantID   int             `json:"plant_id" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Approvers json.RawMessage `json:"approvers"`

	Approver1IDs string `json:"approver_1_ids"`
	Approver2IDs string `json:"approver_2_ids"`
	Approver3IDs string `json:"approver_3_ids"`
	Approver4IDs string `json:"approver_4_ids"`
	Approver5IDs string `json:"approver_5_ids"`
}

// Create 创建工作流
func (s *WorkflowService) Create(ctx context.Context, req CreateWorkflowReq, createdBy string) (*entity.Workflow, error) {
	workflow := &entity.Workflow{
		ID:           uuid.New().String(),
		PlantID:      req.PlantID,
		Name:         strings.TrimSpace(req.Name),
		Status:       entity.WorkflowStatusActive,
		Approvers:    req.Approvers,
		Approver1IDs: req.Approver1IDs,
		Approver2IDs: req.Approver2IDs,
		Approver3IDs: req.Approver3IDs,
		Approver4IDs: req.Approver4IDs,
		Approver5IDs: req.Approver5IDs,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if workflow.Name == "" {
		return nil, fmt.Errorf("%w: 工作流名称不能为空", ErrValidation)
	}
	if len(workflow.ApproverLevels()) == 0 {
		return nil, fmt.Errorf("%w: 至少配置一级审批人", ErrValidation)
	}
	if err := s.repo.Create(ctx, workflow); err != nil {
		return nil, fmt.Errorf("创建工作流失败: %w", err)
	}
	return workflow, nil
}

// List 工作流列表
func (s *WorkflowService) List(ctx context.Context) ([]entity.Workflow, error) {
	return s.repo.List(ctx)
}

// Get 工作流详情
func (s *WorkflowService) Get(ctx context.Context, id string) (*entity.Workflow, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateWorkflowReq 更新工作流参数
type UpdateWorkflowReq struct {
	Name      *string         `json:"name"`
	Status    *string         `json:"status"`
	Approvers json.RawMessage `json:"approvers"`

	Approver1IDs *string `json:"approver_1_ids"`
	Approver2IDs *string `json:"approver_2_ids"`
	Approver3IDs *string `json:"approver_3_ids"`
	Approver4IDs *string `json:"approver_4_ids"`
	Approver5IDs *string `json:"approver_5_ids"`
}

// Update 更新工作流
func (s *WorkflowService) Update(ctx context.Context, id string, req UpdateWorkflowReq) (*entity.Workflow, error) {
	workflow, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		workflow.Name = strings.TrimSpace(*req.Name)
	}
	if req.Status != nil {
		if *req.Status != entity.WorkflowStatusActive && *req.Status != entity.WorkflowStatusInactive {
			return nil, fmt.Errorf("%w: 非法工作流状态 %q", ErrValidation, *req.Status)
		}
		workflow.Status = *req.Status
	}
	if len(req.Approvers) > 0 {
		workflow.Approvers = req.Approvers
	}
	if req.Approver1IDs != nil {
		workflow.Approver1IDs = *req.Approver1IDs
	}
	if req.Approver2IDs != nil {
		workflow.Approver2IDs = *req.Approver2IDs
	}
	if req.Approver3IDs != nil {
		workflow.Approver3IDs = *req.Approver3IDs
	}
	if req.Approver4IDs != nil {
		workflow.Approver4IDs = *req.Approver4IDs
	}
	if req.Approver5IDs != nil {
		workflow.Approver5IDs = *req.Approver5IDs
	}
	workflow.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, workflow); err != nil {
		return nil, fmt.Errorf("更新工作流失败: %w", err)
	}
	return workflow, nil
}

// Delete 删除工作流
func (s *WorkflowService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
