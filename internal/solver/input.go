package solver

import "fmt"

// 偏好模式的输入：每个助理带着一份按相同顺序排列的任务偏好回答
type AgentData struct {
	AgentID string   `json:"agentId"`
	Email   string   `json:"email"`
	Answers []Answer `json:"answers"`
}

type Answer struct {
	TaskID   string  `json:"taskId"`
	TaskName string  `json:"taskName"`
	Cost     float64 `json:"cost"`
}

// GroupOption: 外部输入的任务组约束，用任务 ID 来引用任务
type GroupOption struct {
	MaxAssignments int      `json:"maxAssignments"`
	Tasks          []string `json:"tasks"`
}

type AgentRef struct {
	AgentID string `json:"agentId"`
	Email   string `json:"email"`
}

type TaskRef struct {
	TaskID   string `json:"taskId"`
	TaskName string `json:"taskName"`
}

type AgentAssignment struct {
	Agent string  `json:"agent"`
	Task  TaskRef `json:"task"`
	Cost  float64 `json:"cost"`
}

type AgentResult struct {
	TotalCost  float64           `json:"totalCost"`
	Distance   float64           `json:"distance"`
	Assignment []AgentAssignment `json:"assignment"`
}

// 矩阵模式的输入：裸的成本矩阵加上单独的行名和列名
type MatrixInput struct {
	Matrix   [][]float64 `json:"matrix"`
	RowNames []string    `json:"rowNames"`
	ColNames []string    `json:"colNames"`
}

type MatrixAssignment struct {
	Agent AgentRef `json:"agent"`
	Task  TaskRef  `json:"task"`
	Cost  float64  `json:"cost"`
}

type MatrixResult struct {
	Solution         [][]int            `json:"solution"`
	Assignment       []MatrixAssignment `json:"assignment"`
	AssignmentRating float64            `json:"assignmentRating"`
	TotalCost        float64            `json:"totalCost"`
	Distance         float64            `json:"distance"`
}

// SolveAgents 用助理的偏好回答构建成本矩阵并求解
// 所有助理的回答必须等长且任务顺序一致
func SolveAgents(agents []AgentData, groups []GroupOption, options *Options) ([]AgentResult, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("%w: 至少需要一个助理的偏好回答", ErrInvalidInput)
	}
	if len(agents[0].Answers) == 0 {
		return nil, fmt.Errorf("%w: 助理 %s 没有任何偏好回答", ErrInvalidInput, agents[0].AgentID)
	}

	tasks := make([]TaskRef, len(agents[0].Answers))
	for i, answer := range agents[0].Answers {
		tasks[i] = TaskRef{TaskID: answer.TaskID, TaskName: answer.TaskName}
	}

	matrix := make([][]float64, len(agents))
	for i, agent := range agents {
		if len(agent.Answers) != len(tasks) {
			return nil, fmt.Errorf("%w: 助理 %s 的回答数量和其他助理不一致", ErrInvalidInput, agent.AgentID)
		}

		matrix[i] = make([]float64, len(tasks))
		for j, answer := range agent.Answers {
			if answer.TaskID != tasks[j].TaskID {
				return nil, fmt.Errorf("%w: 助理 %s 的回答顺序和其他助理不一致", ErrInvalidInput, agent.AgentID)
			}
			matrix[i][j] = answer.Cost
		}
	}

	taskIDs := make([]string, len(tasks))
	for i, task := range tasks {
		taskIDs[i] = task.TaskID
	}

	resolvedGroups, err := resolveGroups(groups, taskIDs)
	if err != nil {
		return nil, err
	}

	s, err := New(options, matrix, resolvedGroups)
	if err != nil {
		return nil, err
	}

	candidates, err := s.Solve()
	if err != nil {
		return nil, err
	}

	results := make([]AgentResult, len(candidates))
	for i, candidate := range candidates {
		assignment := make([]AgentAssignment, len(candidate.Assignment))
		for j, a := range candidate.Assignment {
			assignment[j] = AgentAssignment{
				Agent: agents[a.Row].AgentID,
				Task:  tasks[a.Col],
				Cost:  a.Cost,
			}
		}
		results[i] = AgentResult{
			TotalCost:  candidate.TotalCost,
			Distance:   candidate.Distance,
			Assignment: assignment,
		}
	}

	return results, nil
}

// SolveMatrix 直接对裸的成本矩阵求解
// 返回的结果会先按照相同的适应度去重，再截取前 ReturnedCandidates 个
func SolveMatrix(input *MatrixInput, groups []GroupOption, options *Options) ([]MatrixResult, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: 缺少成本矩阵", ErrInvalidInput)
	}
	if len(input.RowNames) != len(input.Matrix) {
		return nil, fmt.Errorf("%w: 行名数量和矩阵行数不一致", ErrInvalidInput)
	}
	if len(input.Matrix) > 0 && len(input.ColNames) != len(input.Matrix[0]) {
		return nil, fmt.Errorf("%w: 列名数量和矩阵列数不一致", ErrInvalidInput)
	}

	resolvedGroups, err := resolveGroups(groups, input.ColNames)
	if err != nil {
		return nil, err
	}

	if options == nil {
		return nil, fmt.Errorf("%w: 缺少参数", ErrInvalidInput)
	}

	// 去重发生在截取之前，因此先让求解器把整个种群都返回出来
	innerOptions := *options
	innerOptions.ReturnedCandidates = max(options.PopulationSize, options.ReturnedCandidates)

	s, err := New(&innerOptions, input.Matrix, resolvedGroups)
	if err != nil {
		return nil, err
	}

	candidates, err := s.Solve()
	if err != nil {
		return nil, err
	}

	results := make([]MatrixResult, 0, options.ReturnedCandidates)
	seen := make(map[float64]bool)
	for _, candidate := range candidates {
		if seen[candidate.Distance] {
			continue
		}
		seen[candidate.Distance] = true

		solution := make([][]int, len(input.Matrix))
		for i := range solution {
			solution[i] = make([]int, len(input.ColNames))
		}

		assignment := make([]MatrixAssignment, len(candidate.Assignment))
		cheap := 0
		for j, a := range candidate.Assignment {
			solution[a.Row][a.Col] = 1
			assignment[j] = MatrixAssignment{
				Agent: AgentRef{AgentID: input.RowNames[a.Row]},
				Task:  TaskRef{TaskID: input.ColNames[a.Col], TaskName: input.ColNames[a.Col]},
				Cost:  a.Cost,
			}
			if a.Cost < 3 {
				cheap++
			}
		}

		results = append(results, MatrixResult{
			Solution:         solution,
			Assignment:       assignment,
			AssignmentRating: float64(cheap) / float64(len(candidate.Assignment)),
			TotalCost:        candidate.TotalCost,
			Distance:         candidate.Distance,
		})

		if len(results) == options.ReturnedCandidates {
			break
		}
	}

	return results, nil
}

// resolveGroups 把用任务 ID 表示的任务组转换成列下标表示
func resolveGroups(groups []GroupOption, taskIDs []string) ([]Group, error) {
	colIndex := make(map[string]int, len(taskIDs))
	for i, id := range taskIDs {
		colIndex[id] = i
	}

	resolved := make([]Group, 0, len(groups))
	for i, group := range groups {
		columns := make([]int, 0, len(group.Tasks))
		for _, taskID := range group.Tasks {
			col, exists := colIndex[taskID]
			if !exists {
				return nil, fmt.Errorf("%w: 任务组 %d 引用了不存在的任务 %s", ErrInvalidInput, i, taskID)
			}
			columns = append(columns, col)
		}
		resolved = append(resolved, Group{
			Name:           fmt.Sprintf("group-%d", i),
			Columns:        columns,
			MaxAssignments: group.MaxAssignments,
		})
	}

	return resolved, nil
}
