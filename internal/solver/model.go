package solver

// Assignment: 表示一条 助理(行) -> 任务(列) 的分配边
type Assignment struct {
	Row  int     `json:"row"`
	Col  int     `json:"col"`
	Cost float64 `json:"cost"`
}

// Candidate: 一个完整的候选解
type Candidate struct {
	Assignment []Assignment `json:"assignment"`
	TotalCost  float64      `json:"totalCost"`
	Distance   float64      `json:"distance"` // 适应度，越小越好
}

// Group: 一组带有分配数量上限的任务列
type Group struct {
	Name           string
	Columns        []int // 这个组覆盖的列下标
	MaxAssignments int   // 这个组内最多允许的分配数量
}

// 遗传算法参数
type Options struct {
	MaxGenerations     int     // 最大迭代次数
	MutationChance     float64 // 变异概率
	ReturnedCandidates int     // 返回的候选解数量
	PopulationSize     int     // 种群大小
	DistanceThreshold  float64 // 提前终止的适应度阈值
	Seed               *int64  // 随机数种子，为 nil 时不保证可复现
}
