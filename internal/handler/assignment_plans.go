package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/solver"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/utils"
)

func (h *Handler) CreateAssignmentPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                string    `json:"name" validate:"required"`
		Description         string    `json:"description"`
		SubmissionStartTime time.Time `json:"submissionStartTime" validate:"required"`
		SubmissionEndTime   time.Time `json:"submissionEndTime" validate:"required"`
		TaskSetID           int64     `json:"taskSetID" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	plan := &domain.AssignmentPlan{
		Name:                req.Name,
		Description:         req.Description,
		SubmissionStartTime: req.SubmissionStartTime,
		SubmissionEndTime:   req.SubmissionEndTime,
		TaskSetID:           req.TaskSetID,
	}

	// 检查 plan 的时间是否合法
	if err := utils.ValidateAssignmentPlanTime(plan); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 插入数据到数据库中
	if err := h.repository.CreateAssignmentPlan(plan); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "assignment_plans_name_key":
				h.errorResponse(w, r, "分配计划名称已存在")
			case "assignment_plans_task_set_id_fkey":
				h.errorResponse(w, r, "分配计划所用的任务集不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建分配计划成功", plan)
}

func (h *Handler) GetAssignmentPlanByID(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	h.successResponse(w, r, "获取分配计划成功", plan)
}

func (h *Handler) DeleteAssignmentPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	if err := h.repository.DeleteAssignmentPlan(plan.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除分配计划成功", nil)
}

func (h *Handler) UpdateAssignmentPlan(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	var req struct {
		Name                *string    `json:"name"`
		Description         *string    `json:"description"`
		SubmissionStartTime *time.Time `json:"submissionStartTime"`
		SubmissionEndTime   *time.Time `json:"submissionEndTime"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 将输入的参数解析到 plan 中
	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.SubmissionStartTime != nil {
		plan.SubmissionStartTime = *req.SubmissionStartTime
	}
	if req.SubmissionEndTime != nil {
		plan.SubmissionEndTime = *req.SubmissionEndTime
	}

	// 检查 plan 的时间是否合法
	if err := utils.ValidateAssignmentPlanTime(plan); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 更新分配计划
	if err := h.repository.UpdateAssignmentPlan(plan); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "assignment_plans_name_key":
				h.errorResponse(w, r, "分配计划名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新分配计划成功", plan)
}

func (h *Handler) GetAllAssignmentPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.repository.GetAllAssignmentPlans()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有分配计划成功", plans)
}

func (h *Handler) SubmitYourPreference(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	var req []struct {
		TaskID int64   `json:"taskID" validate:"required"`
		Cost   float64 `json:"cost" validate:"min=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.validate.Var(req, "required,dive"); err != nil {
		h.badRequest(w, r, err)
		return
	}

	submission := &domain.PreferenceSubmission{
		AssignmentPlanID: plan.ID,
		UserID:           myInfo.ID,
		Items:            make([]domain.PreferenceSubmissionItem, len(req)),
	}

	for i, item := range req {
		submission.Items[i] = domain.PreferenceSubmissionItem{
			TaskID: item.TaskID,
			Cost:   item.Cost,
		}
	}

	// 还需要检查任务集和提交的格式是否对的上
	ts, err := h.repository.GetTaskSet(plan.TaskSetID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := utils.ValidateSubmissionWithTaskSet(submission, ts); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.InsertPreferenceSubmission(submission); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "成功提交任务偏好", submission)
}

func (h *Handler) GetYourPreferenceSubmission(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	submission, err := h.repository.GetPreferenceSubmissionByUserIDAndPlanID(myInfo.ID, plan.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "你还没有提交过任务偏好", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取任务偏好提交成功", submission)
}

func (h *Handler) GetAssignmentPlanSubmissions(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	submissions, err := h.repository.GetAllSubmissionsByPlanID(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取该分配计划所有的提交记录成功", submissions)
}

func (h *Handler) SubmitAssignmentResult(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	var req []struct {
		UserID int64   `json:"userID" validate:"required"`
		TaskID int64   `json:"taskID" validate:"required"`
		Cost   float64 `json:"cost" validate:"min=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Var(req, "required,dive"); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result := &domain.AssignmentResult{
		AssignmentPlanID: plan.ID,
		Items:            make([]domain.AssignmentResultItem, len(req)),
	}

	for i, item := range req {
		result.Items[i] = domain.AssignmentResultItem{
			UserID: item.UserID,
			TaskID: item.TaskID,
			Cost:   item.Cost,
		}
	}

	// 必须检查提交的结果是否和任务集对的上
	ts, err := h.repository.GetTaskSet(plan.TaskSetID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := utils.ValidateResultWithTaskSet(result, ts); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 还要检查提交的结果是否和助理提交的偏好对的上
	submissions, err := h.repository.GetAllSubmissionsByPlanID(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := utils.ValidateResultWithSubmissions(result, submissions); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 手动提交的结果已经通过了任务组上限的检查，
	// 适应度直接按没有超限的情况计算
	for _, item := range result.Items {
		result.TotalCost += item.Cost
	}
	result.Distance = result.TotalCost/float64(len(result.Items)) + 1

	if err := h.repository.InsertAssignmentResult(result); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 结果变化后旧的缓存不能再用了
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
	defer cancel()

	if err := h.redisClient.Del(ctx, fmt.Sprintf("assignment_result_%d", plan.ID)).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交分配结果成功", result)
}

func (h *Handler) GetAssignmentResult(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
	defer cancel()

	// 先查缓存
	cacheKey := fmt.Sprintf("assignment_result_%d", plan.ID)
	cached, err := h.redisClient.Get(ctx, cacheKey).Result()
	if err == nil {
		result := &domain.AssignmentResult{}
		if err := json.Unmarshal([]byte(cached), result); err == nil {
			h.successResponse(w, r, "获取分配结果成功", result)
			return
		}
	}

	result, err := h.repository.GetAssignmentResultByPlanID(plan.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.successResponse(w, r, "该分配计划还没有分配结果", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 将结果写入缓存
	data, err := json.Marshal(result)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.redisClient.Set(ctx, cacheKey, data, time.Duration(h.config.Genetic.ResultExpiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取分配结果成功", result)
}

func (h *Handler) GenerateAssignmentResult(w http.ResponseWriter, r *http.Request) {
	plan := r.Context().Value(AssignmentPlanCtx).(*domain.AssignmentPlan)

	// 获取参数，没有给出的参数使用配置中的默认值
	var req struct {
		PopulationSize     *int     `json:"populationSize" validate:"omitempty,min=1"`
		MaxGenerations     *int     `json:"maxGenerations" validate:"omitempty,min=1"`
		MutationChance     *float64 `json:"mutationChance" validate:"omitempty,min=0,max=1"`
		ReturnedCandidates *int     `json:"returnedCandidates" validate:"omitempty,min=1"`
		DistanceThreshold  *float64 `json:"distanceThreshold" validate:"omitempty,min=0"`
		Seed               *int64   `json:"seed"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	options := &solver.Options{
		PopulationSize:     h.config.Genetic.PopulationSize,
		MaxGenerations:     h.config.Genetic.MaxGenerations,
		MutationChance:     h.config.Genetic.MutationChance,
		ReturnedCandidates: h.config.Genetic.ReturnedCandidates,
		DistanceThreshold:  h.config.Genetic.DistanceThreshold,
		Seed:               req.Seed,
	}

	if req.PopulationSize != nil {
		options.PopulationSize = *req.PopulationSize
	}
	if req.MaxGenerations != nil {
		options.MaxGenerations = *req.MaxGenerations
	}
	if req.MutationChance != nil {
		options.MutationChance = *req.MutationChance
	}
	if req.ReturnedCandidates != nil {
		options.ReturnedCandidates = *req.ReturnedCandidates
	}
	if req.DistanceThreshold != nil {
		options.DistanceThreshold = *req.DistanceThreshold
	}

	// 获取分配计划所用的任务集
	ts, err := h.repository.GetTaskSet(plan.TaskSetID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 获取分配计划的提交记录
	submissions, err := h.repository.GetAllSubmissionsByPlanID(plan.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if len(submissions) == 0 {
		h.errorResponse(w, r, "还没有任何助理提交过任务偏好")
		return
	}

	// 获取所有用户，用于补全邮箱和姓名
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	usersByID := make(map[int64]*domain.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	// 把提交记录转换成求解器的输入
	// 每个助理的回答都按任务集中任务的顺序排列
	agents := make([]solver.AgentData, 0, len(submissions))
	for _, submission := range submissions {
		user, exists := usersByID[submission.UserID]
		if !exists {
			h.internalServerError(w, r, fmt.Errorf("提交记录引用了不存在的用户 %d", submission.UserID))
			return
		}

		costByTaskID := make(map[int64]float64, len(submission.Items))
		for _, item := range submission.Items {
			costByTaskID[item.TaskID] = item.Cost
		}

		answers := make([]solver.Answer, len(ts.Tasks))
		for i, task := range ts.Tasks {
			cost, answered := costByTaskID[task.ID]
			if !answered {
				h.errorResponse(w, r, fmt.Sprintf("助理 %s 没有回答任务 %s 的偏好", user.FullName, task.Name))
				return
			}
			answers[i] = solver.Answer{
				TaskID:   strconv.FormatInt(task.ID, 10),
				TaskName: task.Name,
				Cost:     cost,
			}
		}

		agents = append(agents, solver.AgentData{
			AgentID: strconv.FormatInt(user.ID, 10),
			Email:   user.Email,
			Answers: answers,
		})
	}

	groups := make([]solver.GroupOption, len(ts.Groups))
	for i, group := range ts.Groups {
		tasks := make([]string, len(group.TaskIDs))
		for j, taskID := range group.TaskIDs {
			tasks[j] = strconv.FormatInt(taskID, 10)
		}
		groups[i] = solver.GroupOption{
			MaxAssignments: int(group.MaxAssignments),
			Tasks:          tasks,
		}
	}

	// 自动分配
	candidates, err := solver.SolveAgents(agents, groups, options)
	if err != nil {
		switch {
		case errors.Is(err, solver.ErrInvalidInput):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if len(candidates) == 0 {
		h.errorResponse(w, r, "求解器没有产生任何候选解")
		return
	}

	// 将最优的候选解持久化
	best := candidates[0]
	result := &domain.AssignmentResult{
		AssignmentPlanID: plan.ID,
		TotalCost:        best.TotalCost,
		Distance:         best.Distance,
		Items:            make([]domain.AssignmentResultItem, len(best.Assignment)),
	}

	for i, assignment := range best.Assignment {
		userID, err := strconv.ParseInt(assignment.Agent, 10, 64)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		taskID, err := strconv.ParseInt(assignment.Task.TaskID, 10, 64)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		result.Items[i] = domain.AssignmentResultItem{
			UserID: userID,
			TaskID: taskID,
			Cost:   assignment.Cost,
		}
	}

	if err := h.repository.InsertAssignmentResult(result); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 将最优的候选解写入缓存
	data, err := json.Marshal(result)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Minute)
	defer cancel()

	if err := h.redisClient.Set(ctx, fmt.Sprintf("assignment_result_%d", plan.ID), data, time.Duration(h.config.Genetic.ResultExpiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 通知每个被分配到任务的助理
	taskNameByID := make(map[int64]string, len(ts.Tasks))
	for _, task := range ts.Tasks {
		taskNameByID[task.ID] = task.Name
	}

	publishCtx, publishCancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer publishCancel()

	for _, item := range result.Items {
		user := usersByID[item.UserID]

		mailMessage := domain.MailMessage{
			Type: "assignment_result",
			To:   user.Email,
			Data: domain.AssignmentResultMailData{
				FullName: user.FullName,
				PlanName: plan.Name,
				TaskName: taskNameByID[item.TaskID],
				Cost:     item.Cost,
			},
		}

		mailData, err := json.Marshal(mailMessage)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		if err := h.mailChannel.PublishWithContext(
			publishCtx,
			"",
			"email_queue",
			true,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        mailData,
			},
		); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	h.successResponse(w, r, "自动分配成功", candidates)
}
