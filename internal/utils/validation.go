package utils

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
)

// ValidateTaskSet 检查一个尚未插入数据库的任务集
// 此时任务还没有 ID，任务组通过任务在 Tasks 中的下标来引用任务
func ValidateTaskSet(ts *domain.TaskSet) error {
	if len(ts.Tasks) == 0 {
		return errors.New("任务集中至少需要一个任务")
	}

	// 检查任务名称是否有重复
	seenNames := make(map[string]bool)
	for _, task := range ts.Tasks {
		if seenNames[task.Name] {
			return fmt.Errorf("任务名称 %s 重复", task.Name)
		}
		seenNames[task.Name] = true
	}

	covered := make(map[int64]string) // 任务下标 -> 覆盖它的任务组名称
	for _, group := range ts.Groups {
		if len(group.TaskIDs) == 0 {
			return fmt.Errorf("任务组 %s 没有覆盖任何任务", group.Name)
		}
		if int(group.MaxAssignments) > len(group.TaskIDs) {
			return fmt.Errorf("任务组 %s 的分配上限超过了它覆盖的任务数量", group.Name)
		}

		for _, taskIndex := range group.TaskIDs {
			if taskIndex < 0 || taskIndex >= int64(len(ts.Tasks)) {
				return fmt.Errorf("任务组 %s 引用了不存在的任务", group.Name)
			}
			// 求解时假设了任务组互不重叠，这里必须拒绝重叠的任务组
			if other, exists := covered[taskIndex]; exists {
				return fmt.Errorf("任务组 %s 和任务组 %s 覆盖了同一个任务 %s", group.Name, other, ts.Tasks[taskIndex].Name)
			}
			covered[taskIndex] = group.Name
		}
	}

	return nil
}

func ValidateAssignmentPlanTime(plan *domain.AssignmentPlan) error {
	if plan.SubmissionStartTime.After(plan.SubmissionEndTime) {
		return fmt.Errorf("提交开始时间不能晚于提交结束时间")
	}

	return nil
}

func ValidateSubmissionWithTaskSet(submission *domain.PreferenceSubmission, ts *domain.TaskSet) error {
	if len(submission.Items) != len(ts.Tasks) {
		return errors.New("提交的偏好回答数量和任务集中的任务数量不匹配")
	}

	seen := make(map[int64]bool)
	for i, item := range submission.Items {
		exists := false
		for _, task := range ts.Tasks {
			if task.ID == item.TaskID {
				exists = true
				break
			}
		}
		if !exists {
			return fmt.Errorf("第 %d 项偏好回答引用了不存在的任务", i+1)
		}

		if seen[item.TaskID] {
			return fmt.Errorf("任务 %d 被回答了多次", item.TaskID)
		}
		seen[item.TaskID] = true

		if item.Cost < 0 {
			return fmt.Errorf("第 %d 项偏好回答的成本不能为负数", i+1)
		}
	}

	return nil
}

func ValidateResultWithTaskSet(result *domain.AssignmentResult, ts *domain.TaskSet) error {
	seenUsers := make(map[int64]bool)
	seenTasks := make(map[int64]bool)

	for i, item := range result.Items {
		exists := false
		for _, task := range ts.Tasks {
			if task.ID == item.TaskID {
				exists = true
				break
			}
		}
		if !exists {
			return fmt.Errorf("分配结果的第 %d 项引用了不存在的任务", i+1)
		}

		// 每个助理和每个任务都最多只能出现一次
		if seenUsers[item.UserID] {
			return fmt.Errorf("助理 %d 在分配结果中出现了多次", item.UserID)
		}
		if seenTasks[item.TaskID] {
			return fmt.Errorf("任务 %d 在分配结果中出现了多次", item.TaskID)
		}
		seenUsers[item.UserID] = true
		seenTasks[item.TaskID] = true
	}

	// 检查各个任务组的分配数量是否超限
	for _, group := range ts.Groups {
		count := 0
		for _, item := range result.Items {
			if slices.Contains(group.TaskIDs, item.TaskID) {
				count++
			}
		}
		if count > int(group.MaxAssignments) {
			return fmt.Errorf("任务组 %s 的分配数量 %d 超过了上限 %d", group.Name, count, group.MaxAssignments)
		}
	}

	return nil
}

func getSubmissionByUserID(submissions []*domain.PreferenceSubmission, userID int64) *domain.PreferenceSubmission {
	for _, submission := range submissions {
		if submission.UserID == userID {
			return submission
		}
	}
	return nil
}

func ValidateResultWithSubmissions(result *domain.AssignmentResult, submissions []*domain.PreferenceSubmission) error {
	for i, item := range result.Items {
		submission := getSubmissionByUserID(submissions, item.UserID)
		if submission == nil {
			return fmt.Errorf("分配结果第 %d 项中 id 为 %d 的助理没有提交过偏好回答", i+1, item.UserID)
		}

		// 分配结果中记录的成本必须和助理实际提交的偏好一致
		found := false
		for _, submissionItem := range submission.Items {
			if submissionItem.TaskID == item.TaskID {
				if submissionItem.Cost != item.Cost {
					return fmt.Errorf("分配结果第 %d 项的成本和助理 %d 提交的偏好不一致", i+1, item.UserID)
				}
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("id 为 %d 的助理没有回答过任务 %d 的偏好", item.UserID, item.TaskID)
		}
	}

	return nil
}
