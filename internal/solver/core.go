package solver

import (
	"log/slog"
	"math"
	"slices"
)

/**
 * 计算候选解的适应度（distance，越小越好）
 * distance = (ratio + 1) ^ (surplus + 1)
 * 其中:
 * 		1. ratio 为平均每条分配边的成本，即 totalCost / len(assignment)
 * 		2. surplus 为各个任务组超出分配上限的数量之和
 * 任何超限都会让适应度指数级上升，使违反约束的候选解在种群中被淘汰
 * 零成本且零超限的候选解的适应度恰好为 1，这是可能的最小值
 */
func (s *Solver) distance(c *Candidate) {
	surplus := 0
	for _, group := range s.groups {
		count := 0
		for _, assignment := range c.Assignment {
			if slices.Contains(group.Columns, assignment.Col) {
				count++
			}
		}
		if count > group.MaxAssignments {
			surplus += count - group.MaxAssignments
		}
	}

	possible := len(c.Assignment)
	ratio := c.TotalCost / float64(possible)
	c.Distance = math.Pow(ratio+1, float64(surplus+1))
}

// randomAssignment 生成一个随机的分配序列
// 随机选择起始的行和列，然后沿对角线方向走（行列下标同时加一并各自取模），
// 每经过一个格子就取走它的成本，直到收集到 maxAssignments 条分配边
// 注意：当行数和列数不相等时，这种取模回绕并不能保证行列互斥，
// 这里保留这个行为，交叉和去重都假设输入具有这种形状
func (s *Solver) randomAssignment() []Assignment {
	row := s.rng.IntBetween(0, s.rows-1)
	col := s.rng.IntBetween(0, s.cols-1)

	assignment := make([]Assignment, 0, s.maxAssignments)
	for len(assignment) < s.maxAssignments {
		assignment = append(assignment, Assignment{
			Row:  row,
			Col:  col,
			Cost: s.matrix[row][col],
		})
		row = (row + 1) % s.rows
		col = (col + 1) % s.cols
	}

	return assignment
}

func totalCost(assignment []Assignment) float64 {
	total := 0.0
	for _, a := range assignment {
		total += a.Cost
	}
	return total
}

// generatePopulation 生成 n 个随机候选解作为初始种群
func (s *Solver) generatePopulation(n int) []Candidate {
	pop := make([]Candidate, n)
	for i := range pop {
		assignment := s.randomAssignment()
		pop[i] = Candidate{
			Assignment: assignment,
			TotalCost:  totalCost(assignment),
		}
	}
	return pop
}

// 变异
// 每个候选解都有 MutationChance 的概率被一个全新的随机解替换
// 被替换的候选解会失去原有的全部基因
func (s *Solver) mutate(pop []Candidate) []Candidate {
	mutated := 0
	for i := range pop {
		if s.rng.RealBetween(0, 1) >= s.options.MutationChance {
			continue
		}

		pop[i].Assignment = s.randomAssignment()
		pop[i].TotalCost = totalCost(pop[i].Assignment)
		// 分配序列变了，适应度必须立刻重新计算
		s.distance(&pop[i])
		mutated++
	}

	slog.Debug("完成变异", slog.Int("count", mutated))
	return pop
}

// 使用轮盘赌来选择父本，数量为种群大小的一半（向上取整）
// 由于适应度越小越好，每个候选解的权重为适应度的倒数
func (s *Solver) selectParents(pop []Candidate) []Candidate {
	count := (len(pop) + 1) / 2

	totalDistance := 0.0
	for _, c := range pop {
		totalDistance += c.Distance
	}

	weights := make([]float64, len(pop))
	totalWeight := 0.0
	for i, c := range pop {
		weights[i] = totalDistance / (c.Distance * totalDistance)
		totalWeight += weights[i]
	}

	parents := make([]Candidate, 0, count)
	for len(parents) < count {
		// 从随机落点开始，从后往前扣减每个权重，扣成负数的位置即被选中
		draw := s.rng.RealBetween(0, totalWeight)
		index := 0
		for i := len(pop) - 1; i >= 0; i-- {
			draw -= weights[i]
			if draw < 0 {
				index = i
				break
			}
		}
		// 同一个候选解可以被重复选中
		parents = append(parents, pop[index])
	}

	return parents
}

// 交叉
// 把所有父本的分配边摊平成一个池子，然后贪心地逐个构造子代：
// 每一步都在与已选分配边不冲突（行列都不重复）的剩余边中取成本最低的一条
// （成本相同时取先出现的那条），直到子代达到要求的长度；
// 如果没有可选的边了就丢弃这个不完整的子代，继续用剩余的池子构造下一个
// 子代不足时用随机复制的子代补齐，最后父本会被原样追加到返回值中
func (s *Solver) crossover(parents []Candidate) []Candidate {
	if len(parents) <= 1 {
		return parents
	}

	assignmentLength := len(parents[0].Assignment)

	pool := make([]Assignment, 0, len(parents)*assignmentLength)
	for _, parent := range parents {
		pool = append(pool, parent.Assignment...)
	}

	offspring := make([]Candidate, 0, len(parents))
	for len(pool) > 0 {
		chosen := make([]Assignment, 0, assignmentLength)

		for len(chosen) < assignmentLength {
			best := -1
			for i, a := range pool {
				if conflicts(chosen, a) {
					continue
				}
				if best == -1 || a.Cost < pool[best].Cost {
					best = i
				}
			}

			if best == -1 {
				// 池子里已经没有不冲突的边了，放弃这个子代
				break
			}

			chosen = append(chosen, pool[best])
			pool = slices.Delete(pool, best, best+1)
		}

		if len(chosen) == assignmentLength {
			offspring = append(offspring, Candidate{
				Assignment: chosen,
				TotalCost:  totalCost(chosen),
			})
		}
	}

	if len(offspring) == 0 {
		return parents
	}

	for len(offspring) < len(parents) {
		offspring = append(offspring, offspring[s.rng.IntBetween(0, len(offspring)-1)])
	}

	return append(offspring, parents...)
}

// conflicts 检查一条分配边是否和已选的分配边在行或列上冲突
func conflicts(chosen []Assignment, a Assignment) bool {
	for _, c := range chosen {
		if c.Row == a.Row || c.Col == a.Col {
			return true
		}
	}
	return false
}
