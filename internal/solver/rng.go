package solver

import (
	"math/rand"
	"time"
)

// RNG: 求解过程中唯一的随机源
// 每一次求解都持有自己的 RNG 实例，避免多个求解之间相互干扰
type RNG struct {
	rand *rand.Rand
}

func NewRNG(seed *int64) *RNG {
	if seed == nil {
		// 没有指定种子时不要求可复现，用当前时间作为种子
		return &RNG{rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	return &RNG{rand: rand.New(rand.NewSource(*seed))}
}

// IntBetween 返回 [min, max] 中的均匀随机整数（两端都包含）
func (r *RNG) IntBetween(min int, max int) int {
	return min + r.rand.Intn(max-min+1)
}

// RealBetween 返回 [min, max) 中的均匀随机实数，取不到 max
func (r *RNG) RealBetween(min float64, max float64) float64 {
	return min + r.rand.Float64()*(max-min)
}
