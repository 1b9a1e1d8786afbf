package solver

import (
	"fmt"
	"sort"
)

type Solver struct {
	options *Options
	matrix  [][]float64 // 成本矩阵，求解开始后不再修改
	rows    int         // 助理数量
	cols    int         // 任务数量
	groups  []Group
	rng     *RNG

	maxAssignments int // 每个候选解中分配边的数量
}

func New(options *Options, matrix [][]float64, groups []Group) (*Solver, error) {
	if options == nil {
		return nil, fmt.Errorf("%w: 缺少参数", ErrInvalidInput)
	}
	if options.MaxGenerations <= 0 || options.PopulationSize <= 0 || options.ReturnedCandidates <= 0 {
		return nil, fmt.Errorf("%w: 迭代次数、种群大小和返回数量都必须为正数", ErrInvalidInput)
	}
	if options.MutationChance < 0 || options.MutationChance > 1 {
		return nil, fmt.Errorf("%w: 变异概率必须在 [0, 1] 中", ErrInvalidInput)
	}
	if options.DistanceThreshold < 0 {
		return nil, fmt.Errorf("%w: 适应度阈值不能为负数", ErrInvalidInput)
	}

	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, fmt.Errorf("%w: 成本矩阵不能为空", ErrInvalidInput)
	}

	rows := len(matrix)
	cols := len(matrix[0])
	for i, row := range matrix {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: 成本矩阵第 %d 行的长度和第一行不一致", ErrInvalidInput, i)
		}
		for j, cost := range row {
			if cost < 0 {
				return nil, fmt.Errorf("%w: 成本矩阵第 %d 行第 %d 列为负数", ErrInvalidInput, i, j)
			}
		}
	}

	for _, group := range groups {
		if group.MaxAssignments < 0 {
			return nil, fmt.Errorf("%w: 任务组 %s 的分配上限不能为负数", ErrInvalidInput, group.Name)
		}
		for _, col := range group.Columns {
			if col < 0 || col >= cols {
				return nil, fmt.Errorf("%w: 任务组 %s 覆盖了不存在的列 %d", ErrInvalidInput, group.Name, col)
			}
		}
	}

	s := &Solver{
		options: options,
		matrix:  matrix,
		rows:    rows,
		cols:    cols,
		groups:  groups,
		rng:     NewRNG(options.Seed),
	}

	s.maxAssignments = min(rows, s.maxColumnAssignments())
	if s.maxAssignments <= 0 {
		return nil, fmt.Errorf("%w: 在给定的任务组约束下不存在可分配的任务", ErrInvalidInput)
	}

	return s, nil
}

// maxColumnAssignments 计算在任务组约束下最多可以分配的列数
// 即不属于任何任务组的列数加上各个任务组的分配上限
// 注意这里假设了任务组之间互不重叠
func (s *Solver) maxColumnAssignments() int {
	covered := 0
	caps := 0
	for _, group := range s.groups {
		covered += len(group.Columns)
		caps += group.MaxAssignments
	}
	return s.cols - covered + caps
}

// Solve 执行完整的一次求解，返回按适应度升序排列的前 ReturnedCandidates 个候选解
func (s *Solver) Solve() (result []Candidate, err error) {
	// 迭代过程中出现的任何 panic 都在这里兜底
	// 此时种群的正确性没有任何保证，因此不返回部分结果
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrAlgorithm, r)
		}
	}()

	pop := s.generatePopulation(s.options.PopulationSize)

	for gen := 0; gen < s.options.MaxGenerations; gen++ {
		s.evaluate(pop)
		sortByDistance(pop)

		pop = s.mutate(pop)

		parents := s.selectParents(pop)
		next := s.crossover(parents)
		if len(next) >= len(pop) {
			// 只有在交叉没有让种群缩水时才接受新一代
			pop = next
		}

		s.evaluate(pop)
		sortByDistance(pop)

		if pop[0].Distance < s.options.DistanceThreshold {
			break
		}
	}

	n := min(s.options.ReturnedCandidates, len(pop))
	return pop[:n], nil
}

func (s *Solver) evaluate(pop []Candidate) {
	for i := range pop {
		s.distance(&pop[i])
	}
}

func sortByDistance(pop []Candidate) {
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].Distance < pop[j].Distance
	})
}
