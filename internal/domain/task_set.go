package domain

import (
	"time"
)

type Task struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TaskGroup: 一组任务的分配上限约束
// 同一个任务集中的任务组之间不允许重叠
type TaskGroup struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	MaxAssignments int32   `json:"maxAssignments"`
	TaskIDs        []int64 `json:"taskIDs"`
}

type TaskSet struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Tasks       []Task      `json:"tasks"`
	Groups      []TaskGroup `json:"groups"`
	CreatedAt   time.Time   `json:"createdAt"`
	Version     int32       `json:"-"`
}
