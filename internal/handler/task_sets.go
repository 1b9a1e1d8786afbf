package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/utils"
)

func (h *Handler) GetAllTaskSets(w http.ResponseWriter, r *http.Request) {
	tss, err := h.repository.GetAllTaskSets()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有任务集成功", tss)
}

func (h *Handler) CreateTaskSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Description string `json:"description"`
		Tasks       []struct {
			Name string `json:"name" validate:"required"`
		} `json:"tasks" validate:"required,dive"`
		Groups []struct {
			Name           string  `json:"name" validate:"required"`
			MaxAssignments int32   `json:"maxAssignments" validate:"required,gte=1"`
			TaskIndexes    []int32 `json:"taskIndexes" validate:"required,dive,gte=0"`
		} `json:"groups"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	ts := &domain.TaskSet{
		Name:        req.Name,
		Description: req.Description,
		Tasks:       make([]domain.Task, 0, len(req.Tasks)),
		Groups:      make([]domain.TaskGroup, 0, len(req.Groups)),
	}

	for _, task := range req.Tasks {
		ts.Tasks = append(ts.Tasks, domain.Task{Name: task.Name})
	}

	// 此时任务还没有数据库 ID，任务组只能通过请求中的下标来引用任务，
	// 先用下标占位，插入数据库后再换成真正的 ID
	for _, group := range req.Groups {
		taskIndexes := make([]int64, 0, len(group.TaskIndexes))
		for _, idx := range group.TaskIndexes {
			taskIndexes = append(taskIndexes, int64(idx))
		}
		ts.Groups = append(ts.Groups, domain.TaskGroup{
			Name:           group.Name,
			MaxAssignments: group.MaxAssignments,
			TaskIDs:        taskIndexes,
		})
	}

	if err := utils.ValidateTaskSet(ts); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateTaskSet(ts); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "task_sets_name_key":
				h.errorResponse(w, r, "任务集名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建任务集成功", ts)
}

func (h *Handler) GetTaskSet(w http.ResponseWriter, r *http.Request) {
	ts := r.Context().Value(TaskSetCtx).(*domain.TaskSet)

	h.successResponse(w, r, "获取任务集成功", ts)
}

func (h *Handler) UpdateTaskSet(w http.ResponseWriter, r *http.Request) {
	ts := r.Context().Value(TaskSetCtx).(*domain.TaskSet)

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Name != nil {
		ts.Name = *req.Name
	}
	if req.Description != nil {
		ts.Description = *req.Description
	}

	if err := h.repository.UpdateTaskSet(ts); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "task_sets_name_key":
				h.errorResponse(w, r, "任务集名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新任务集成功", ts)
}

func (h *Handler) DeleteTaskSet(w http.ResponseWriter, r *http.Request) {
	ts := r.Context().Value(TaskSetCtx).(*domain.TaskSet)

	if err := h.repository.DeleteTaskSet(ts.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "assignment_plans_task_set_id_fkey":
				h.errorResponse(w, r, "该任务集已被应用于分配计划，无法删除")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除任务集成功", nil)
}
