package handler

import (
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/solver"
)

// SolveRawMatrix 直接求解一个裸的成本矩阵，不经过任何计划和任务集
// 主要提供给前端做方案对比和调参用
func (h *Handler) SolveRawMatrix(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Matrix   [][]float64 `json:"matrix" validate:"required"`
		RowNames []string    `json:"rowNames" validate:"required"`
		ColNames []string    `json:"colNames" validate:"required"`
		Groups   []struct {
			MaxAssignments int      `json:"maxAssignments" validate:"required,min=1"`
			Tasks          []string `json:"tasks" validate:"required"`
		} `json:"groups"`
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

	input := &solver.MatrixInput{
		Matrix:   req.Matrix,
		RowNames: req.RowNames,
		ColNames: req.ColNames,
	}

	groups := make([]solver.GroupOption, len(req.Groups))
	for i, group := range req.Groups {
		groups[i] = solver.GroupOption{
			MaxAssignments: group.MaxAssignments,
			Tasks:          group.Tasks,
		}
	}

	results, err := solver.SolveMatrix(input, groups, options)
	if err != nil {
		switch {
		case errors.Is(err, solver.ErrInvalidInput):
			h.badRequest(w, r, err)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "求解成功", results)
}
