package solver

import "errors"

var (
	// 输入数据在求解开始前就被判定为非法，不会执行任何迭代
	ErrInvalidInput = errors.New("输入数据非法")
	// 迭代过程中出现了预期之外的错误，不返回任何部分结果
	ErrAlgorithm = errors.New("算法执行失败")
)
