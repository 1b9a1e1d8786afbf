package solver

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidInput(t *testing.T) {
	seed := int64(1)
	validOptions := &Options{
		MaxGenerations:     10,
		MutationChance:     0.3,
		ReturnedCandidates: 1,
		PopulationSize:     10,
		Seed:               &seed,
	}

	tests := []struct {
		name    string
		options *Options
		matrix  [][]float64
		groups  []Group
	}{
		{
			name:   "缺少参数",
			matrix: [][]float64{{1}},
		},
		{
			name:    "空矩阵",
			options: validOptions,
			matrix:  [][]float64{},
		},
		{
			name:    "行长度不一致",
			options: validOptions,
			matrix:  [][]float64{{1, 2}, {1}},
		},
		{
			name:    "负数成本",
			options: validOptions,
			matrix:  [][]float64{{1, -2}, {1, 2}},
		},
		{
			name:    "任务组引用越界的列",
			options: validOptions,
			matrix:  [][]float64{{1, 2}, {1, 2}},
			groups:  []Group{{Name: "g", Columns: []int{5}, MaxAssignments: 1}},
		},
		{
			name:    "约束下没有可分配的任务",
			options: validOptions,
			matrix:  [][]float64{{1, 2}, {1, 2}},
			groups:  []Group{{Name: "g", Columns: []int{0, 1}, MaxAssignments: 0}},
		},
		{
			name: "变异概率越界",
			options: &Options{
				MaxGenerations:     10,
				MutationChance:     1.5,
				ReturnedCandidates: 1,
				PopulationSize:     10,
			},
			matrix: [][]float64{{1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.options, tt.matrix, tt.groups)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestMaxAssignmentsComputation(t *testing.T) {
	seed := int64(1)
	options := &Options{
		MaxGenerations:     1,
		MutationChance:     0,
		ReturnedCandidates: 1,
		PopulationSize:     2,
		Seed:               &seed,
	}

	matrix := [][]float64{
		{1, 2, 3, 4},
		{1, 2, 3, 4},
		{1, 2, 3, 4},
		{1, 2, 3, 4},
	}

	// 没有任务组时可以分配 min(行数, 列数) 个任务
	s, err := New(options, matrix, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, s.maxAssignments)

	// 两个组各覆盖两列且各限制一个分配，最多只能分配 4 - 4 + 2 = 2 个任务
	s, err = New(options, matrix, []Group{
		{Name: "a", Columns: []int{0, 1}, MaxAssignments: 1},
		{Name: "b", Columns: []int{2, 3}, MaxAssignments: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.maxAssignments)
}

func TestSolveConvergesOnSmallMatrix(t *testing.T) {
	seed := int64(42)
	s, err := New(&Options{
		MaxGenerations:     20,
		MutationChance:     0.3,
		ReturnedCandidates: 1,
		PopulationSize:     10,
		DistanceThreshold:  1.01,
		Seed:               &seed,
	}, [][]float64{
		{1, 2, 3},
		{2, 1, 3},
		{3, 3, 1},
	}, nil)
	require.NoError(t, err)

	result, err := s.Solve()
	require.NoError(t, err)
	require.Len(t, result, 1)

	best := result[0]

	// 最优解是对角线分配，总成本 3，适应度 (3/3 + 1)^1 = 2
	assert.Equal(t, 3.0, best.TotalCost)
	assert.Equal(t, 2.0, best.Distance)

	assignment := append([]Assignment{}, best.Assignment...)
	sort.Slice(assignment, func(i, j int) bool { return assignment[i].Row < assignment[j].Row })
	assert.Equal(t, []Assignment{
		{Row: 0, Col: 0, Cost: 1},
		{Row: 1, Col: 1, Cost: 1},
		{Row: 2, Col: 2, Cost: 1},
	}, assignment)
}

func TestSolveRespectsGroupCaps(t *testing.T) {
	seed := int64(7)
	groups := []Group{
		{Name: "a", Columns: []int{0, 1}, MaxAssignments: 1},
		{Name: "b", Columns: []int{2, 3}, MaxAssignments: 1},
	}

	s, err := New(&Options{
		MaxGenerations:     50,
		MutationChance:     0.3,
		ReturnedCandidates: 2,
		PopulationSize:     20,
		DistanceThreshold:  0,
		Seed:               &seed,
	}, [][]float64{
		{1, 1, 5, 5},
		{1, 1, 5, 5},
		{5, 5, 1, 1},
		{5, 5, 1, 1},
	}, groups)
	require.NoError(t, err)

	result, err := s.Solve()
	require.NoError(t, err)
	require.NotEmpty(t, result)

	for _, candidate := range result {
		for _, group := range groups {
			count := 0
			for _, a := range candidate.Assignment {
				for _, col := range group.Columns {
					if a.Col == col {
						count++
					}
				}
			}
			assert.LessOrEqual(t, count, group.MaxAssignments,
				"返回的候选解不允许超出任务组 %s 的分配上限", group.Name)
		}
	}
}

func TestSolveReproducibleWithSeed(t *testing.T) {
	run := func() []Candidate {
		seed := int64(12345)
		s, err := New(&Options{
			MaxGenerations:     15,
			MutationChance:     0.5,
			ReturnedCandidates: 5,
			PopulationSize:     12,
			DistanceThreshold:  0,
			Seed:               &seed,
		}, [][]float64{
			{4, 2, 3, 1},
			{2, 4, 1, 3},
			{3, 1, 4, 2},
		}, []Group{
			{Name: "g", Columns: []int{0, 1}, MaxAssignments: 1},
		})
		require.NoError(t, err)

		result, err := s.Solve()
		require.NoError(t, err)
		return result
	}

	// 相同的种子和输入必须产生完全一致的结果
	assert.Equal(t, run(), run())
}

func TestSolveReturnsSortedCandidates(t *testing.T) {
	seed := int64(3)
	s, err := New(&Options{
		MaxGenerations:     10,
		MutationChance:     0.3,
		ReturnedCandidates: 8,
		PopulationSize:     8,
		DistanceThreshold:  0,
		Seed:               &seed,
	}, [][]float64{
		{1, 2, 3},
		{2, 1, 3},
		{3, 3, 1},
	}, nil)
	require.NoError(t, err)

	result, err := s.Solve()
	require.NoError(t, err)
	require.NotEmpty(t, result)

	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i-1].Distance, result[i].Distance)
	}
}

func TestSolveRecoversFromInternalPanic(t *testing.T) {
	seed := int64(1)
	s, err := New(&Options{
		MaxGenerations:     10,
		MutationChance:     1,
		ReturnedCandidates: 1,
		PopulationSize:     4,
		DistanceThreshold:  0,
		Seed:               &seed,
	}, [][]float64{
		{1, 2},
		{2, 1},
	}, nil)
	require.NoError(t, err)

	// 人为把求解器破坏成一个迭代时必然 panic 的状态，
	// 迭代中的 panic 必须以 ErrAlgorithm 的形式返回，且不返回任何部分结果
	s.rows = 0

	result, err := s.Solve()
	assert.True(t, errors.Is(err, ErrAlgorithm))
	assert.Nil(t, result)
}

func TestSolveStopsEarlyBelowThreshold(t *testing.T) {
	seed := int64(5)
	s, err := New(&Options{
		// 迭代次数大到不可能真的跑完，只有提前终止才能让测试结束
		MaxGenerations:     1 << 30,
		MutationChance:     0.3,
		ReturnedCandidates: 1,
		PopulationSize:     6,
		DistanceThreshold:  1.5,
		Seed:               &seed,
	}, [][]float64{
		{0, 0},
		{0, 0},
	}, nil)
	require.NoError(t, err)

	result, err := s.Solve()
	require.NoError(t, err)
	require.Len(t, result, 1)

	// 全零矩阵中任何候选解的适应度都是 (0 + 1)^1 = 1，低于阈值
	assert.Equal(t, 1.0, result[0].Distance)
}
