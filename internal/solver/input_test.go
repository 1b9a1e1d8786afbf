package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(seed int64) *Options {
	return &Options{
		MaxGenerations:     20,
		MutationChance:     0.3,
		ReturnedCandidates: 1,
		PopulationSize:     10,
		DistanceThreshold:  0,
		Seed:               &seed,
	}
}

func TestSolveAgents(t *testing.T) {
	agents := []AgentData{
		{
			AgentID: "张伟",
			Email:   "zhangwei@example.com",
			Answers: []Answer{
				{TaskID: "1", TaskName: "前台值班", Cost: 1},
				{TaskID: "2", TaskName: "设备巡检", Cost: 4},
				{TaskID: "3", TaskName: "报修处理", Cost: 5},
			},
		},
		{
			AgentID: "李娜",
			Email:   "lina@example.com",
			Answers: []Answer{
				{TaskID: "1", TaskName: "前台值班", Cost: 4},
				{TaskID: "2", TaskName: "设备巡检", Cost: 1},
				{TaskID: "3", TaskName: "报修处理", Cost: 5},
			},
		},
		{
			AgentID: "王强",
			Email:   "wangqiang@example.com",
			Answers: []Answer{
				{TaskID: "1", TaskName: "前台值班", Cost: 5},
				{TaskID: "2", TaskName: "设备巡检", Cost: 4},
				{TaskID: "3", TaskName: "报修处理", Cost: 1},
			},
		},
	}

	results, err := SolveAgents(agents, nil, testOptions(42))
	require.NoError(t, err)
	require.Len(t, results, 1)

	best := results[0]
	assert.Equal(t, 3.0, best.TotalCost)
	require.Len(t, best.Assignment, 3)

	assigned := make(map[string]string)
	for _, a := range best.Assignment {
		assigned[a.Agent] = a.Task.TaskID
		assert.Equal(t, 1.0, a.Cost)
		assert.NotEmpty(t, a.Task.TaskName)
	}
	assert.Equal(t, map[string]string{"张伟": "1", "李娜": "2", "王强": "3"}, assigned)
}

func TestSolveAgentsRejectsInconsistentAnswers(t *testing.T) {
	agents := []AgentData{
		{AgentID: "a", Answers: []Answer{{TaskID: "1", Cost: 1}, {TaskID: "2", Cost: 2}}},
		{AgentID: "b", Answers: []Answer{{TaskID: "1", Cost: 1}}},
	}

	_, err := SolveAgents(agents, nil, testOptions(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	agents[1].Answers = []Answer{{TaskID: "2", Cost: 2}, {TaskID: "1", Cost: 1}}
	_, err = SolveAgents(agents, nil, testOptions(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = SolveAgents(nil, nil, testOptions(1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSolveAgentsRejectsUnknownGroupTask(t *testing.T) {
	agents := []AgentData{
		{AgentID: "a", Answers: []Answer{{TaskID: "1", Cost: 1}, {TaskID: "2", Cost: 2}}},
	}
	groups := []GroupOption{{MaxAssignments: 1, Tasks: []string{"不存在"}}}

	_, err := SolveAgents(agents, groups, testOptions(1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSolveMatrix(t *testing.T) {
	input := &MatrixInput{
		Matrix: [][]float64{
			{1, 2, 3},
			{2, 1, 3},
			{3, 3, 1},
		},
		RowNames: []string{"r0", "r1", "r2"},
		ColNames: []string{"c0", "c1", "c2"},
	}

	options := testOptions(42)
	options.ReturnedCandidates = 2

	results, err := SolveMatrix(input, nil, options)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 2)

	best := results[0]
	assert.Equal(t, 3.0, best.TotalCost)
	assert.Equal(t, 2.0, best.Distance)

	// 解矩阵的形状和输入一致，被选中的格子为 1
	require.Len(t, best.Solution, 3)
	ones := 0
	for i, row := range best.Solution {
		require.Len(t, row, 3)
		for j, cell := range row {
			if cell == 1 {
				ones++
				assert.Equal(t, i, j)
			}
		}
	}
	assert.Equal(t, 3, ones)

	// 所有分配边的成本都是 1，都小于 3
	assert.Equal(t, 1.0, best.AssignmentRating)

	for _, a := range best.Assignment {
		assert.NotEmpty(t, a.Agent.AgentID)
		assert.Empty(t, a.Agent.Email)
		assert.Equal(t, a.Task.TaskID, a.Task.TaskName)
	}

	// 结果按照相同的适应度去重
	seen := make(map[float64]bool)
	for _, result := range results {
		assert.False(t, seen[result.Distance])
		seen[result.Distance] = true
	}
}

func TestSolveMatrixRejectsMismatchedNames(t *testing.T) {
	_, err := SolveMatrix(&MatrixInput{
		Matrix:   [][]float64{{1, 2}, {2, 1}},
		RowNames: []string{"r0"},
		ColNames: []string{"c0", "c1"},
	}, nil, testOptions(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = SolveMatrix(&MatrixInput{
		Matrix:   [][]float64{{1, 2}, {2, 1}},
		RowNames: []string{"r0", "r1"},
		ColNames: []string{"c0"},
	}, nil, testOptions(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = SolveMatrix(nil, nil, testOptions(1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRNGBounds(t *testing.T) {
	seed := int64(9)
	rng := NewRNG(&seed)

	seenInt := make(map[int]bool)
	for i := 0; i < 200; i++ {
		v := rng.IntBetween(0, 2)
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 2)
		seenInt[v] = true
	}
	// 两端都必须可以取到
	assert.True(t, seenInt[0])
	assert.True(t, seenInt[2])

	// 实数区间是半开的，取不到右端点
	for i := 0; i < 200; i++ {
		v := rng.RealBetween(0.5, 1.5)
		assert.GreaterOrEqual(t, v, 0.5)
		assert.Less(t, v, 1.5)
	}
}

func TestRNGReproducible(t *testing.T) {
	seed := int64(2024)

	a := NewRNG(&seed)
	b := NewRNG(&seed)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.IntBetween(0, 1000), b.IntBetween(0, 1000))
		assert.Equal(t, a.RealBetween(0, 1), b.RealBetween(0, 1))
	}
}
