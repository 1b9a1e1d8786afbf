package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSolver(t *testing.T, matrix [][]float64, groups []Group) *Solver {
	t.Helper()

	seed := int64(1)
	s, err := New(&Options{
		MaxGenerations:     10,
		MutationChance:     0.3,
		ReturnedCandidates: 1,
		PopulationSize:     10,
		DistanceThreshold:  0,
		Seed:               &seed,
	}, matrix, groups)
	require.NoError(t, err)

	return s
}

func TestDistanceZeroCostZeroSurplus(t *testing.T) {
	s := newTestSolver(t, [][]float64{{0, 0}, {0, 0}}, nil)

	c := Candidate{
		Assignment: []Assignment{{Row: 0, Col: 0, Cost: 0}, {Row: 1, Col: 1, Cost: 0}},
		TotalCost:  0,
	}
	s.distance(&c)

	// 零成本且零超限时适应度恰好为最小值 1
	assert.Equal(t, 1.0, c.Distance)
}

func TestDistanceIncreasesWithCost(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 2}, {2, 1}}, nil)

	cheap := Candidate{
		Assignment: []Assignment{{Row: 0, Col: 0, Cost: 1}, {Row: 1, Col: 1, Cost: 1}},
		TotalCost:  2,
	}
	expensive := Candidate{
		Assignment: []Assignment{{Row: 0, Col: 1, Cost: 2}, {Row: 1, Col: 0, Cost: 2}},
		TotalCost:  4,
	}

	s.distance(&cheap)
	s.distance(&expensive)

	assert.Less(t, cheap.Distance, expensive.Distance)
}

func TestDistanceSurplusDominates(t *testing.T) {
	// 第 0 列属于一个分配上限为 0 的任务组
	s := newTestSolver(t, [][]float64{{1, 2}, {2, 1}}, []Group{
		{Name: "g", Columns: []int{0}, MaxAssignments: 0},
	})

	violating := Candidate{
		Assignment: []Assignment{{Row: 0, Col: 0, Cost: 1}, {Row: 1, Col: 1, Cost: 1}},
		TotalCost:  2,
	}
	valid := Candidate{
		Assignment: []Assignment{{Row: 0, Col: 1, Cost: 2}, {Row: 1, Col: 1, Cost: 1}},
		TotalCost:  3,
	}

	s.distance(&violating)
	s.distance(&valid)

	// 超限的候选解即使总成本更低，适应度也必须严格更差
	assert.Greater(t, violating.Distance, valid.Distance)
	assert.Equal(t, 4.0, violating.Distance)  // (2/2+1)^2
	assert.Equal(t, 2.5, valid.Distance)      // (3/2+1)^1
}

func TestRandomAssignmentShape(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 2, 3}, {2, 1, 3}, {3, 3, 1}}, nil)

	for i := 0; i < 50; i++ {
		assignment := s.randomAssignment()
		require.Len(t, assignment, 3)
		for _, a := range assignment {
			assert.Equal(t, s.matrix[a.Row][a.Col], a.Cost)
		}
	}
}

func TestGeneratePopulation(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 2}, {2, 1}}, nil)

	pop := s.generatePopulation(7)
	require.Len(t, pop, 7)
	for _, c := range pop {
		assert.Len(t, c.Assignment, 2)
		assert.Equal(t, totalCost(c.Assignment), c.TotalCost)
	}
}

func TestMutateReplacesAndRecomputes(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 2}, {2, 1}}, nil)
	s.options.MutationChance = 1 // 必定变异

	pop := s.generatePopulation(5)
	s.evaluate(pop)

	pop = s.mutate(pop)
	for _, c := range pop {
		assert.Equal(t, totalCost(c.Assignment), c.TotalCost)

		expected := c
		s.distance(&expected)
		assert.Equal(t, expected.Distance, c.Distance, "变异后的适应度不允许过期")
	}
}

func TestSelectParentsSizeAndMembership(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 2}, {2, 1}}, nil)

	pop := s.generatePopulation(5)
	s.evaluate(pop)

	parents := s.selectParents(pop)
	require.Len(t, parents, 3) // ceil(5 / 2)

	for _, parent := range parents {
		found := false
		for _, c := range pop {
			if c.Distance == parent.Distance && c.TotalCost == parent.TotalCost {
				found = true
				break
			}
		}
		assert.True(t, found, "被选中的父本必须来自种群")
	}
}

func TestCrossoverSingleParentNoop(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 2}, {2, 1}}, nil)

	parent := Candidate{
		Assignment: []Assignment{{Row: 0, Col: 0, Cost: 1}, {Row: 1, Col: 1, Cost: 1}},
		TotalCost:  2,
	}

	result := s.crossover([]Candidate{parent})
	require.Len(t, result, 1)
	assert.Equal(t, parent, result[0])
}

func TestCrossoverOffspringValidity(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 2, 3}, {2, 1, 3}, {3, 3, 1}}, nil)

	parents := []Candidate{
		{Assignment: []Assignment{{0, 0, 1}, {1, 1, 1}, {2, 2, 1}}, TotalCost: 3},
		{Assignment: []Assignment{{0, 1, 2}, {1, 2, 3}, {2, 0, 3}}, TotalCost: 8},
		{Assignment: []Assignment{{0, 2, 3}, {1, 0, 2}, {2, 1, 3}}, TotalCost: 8},
	}

	result := s.crossover(parents)
	require.GreaterOrEqual(t, len(result), len(parents))

	// 返回值是 子代 ++ 父本，最后 len(parents) 个是原样追加的父本
	offspring := result[:len(result)-len(parents)]
	require.NotEmpty(t, offspring)

	for _, c := range offspring {
		assert.LessOrEqual(t, len(c.Assignment), 3)
		assert.Equal(t, totalCost(c.Assignment), c.TotalCost)

		rows := make(map[int]bool)
		cols := make(map[int]bool)
		for _, a := range c.Assignment {
			assert.False(t, rows[a.Row], "子代中的行不允许重复")
			assert.False(t, cols[a.Col], "子代中的列不允许重复")
			rows[a.Row] = true
			cols[a.Col] = true
		}
	}

	// 贪心重建会优先取走成本最低的边，第一个子代应该恰好是单位对角线
	first := offspring[0]
	require.Len(t, first.Assignment, 3)
	assert.Equal(t, 3.0, first.TotalCost)

	assert.Equal(t, parents, result[len(result)-len(parents):])
}

func TestCrossoverLowestCostFirstOccurrenceTieBreak(t *testing.T) {
	s := newTestSolver(t, [][]float64{{1, 1}, {1, 1}}, nil)

	parents := []Candidate{
		{Assignment: []Assignment{{0, 1, 1}, {1, 0, 1}}, TotalCost: 2},
		{Assignment: []Assignment{{0, 0, 1}, {1, 1, 1}}, TotalCost: 2},
	}

	result := s.crossover(parents)
	offspring := result[:len(result)-len(parents)]
	require.NotEmpty(t, offspring)

	// 成本全部相同，应该按池子中先出现的顺序取，即第一个父本的反对角线
	assert.Equal(t, []Assignment{{0, 1, 1}, {1, 0, 1}}, offspring[0].Assignment)
}
