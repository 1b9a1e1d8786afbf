package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
)

func newTestTaskSet() *domain.TaskSet {
	return &domain.TaskSet{
		ID:   1,
		Name: "测试任务集",
		Tasks: []domain.Task{
			{ID: 11, Name: "前台值班"},
			{ID: 12, Name: "设备巡检"},
			{ID: 13, Name: "报修处理"},
			{ID: 14, Name: "文档整理"},
		},
		Groups: []domain.TaskGroup{
			{ID: 21, Name: "线下任务", MaxAssignments: 1, TaskIDs: []int64{11, 12}},
		},
	}
}

func TestValidateTaskSet(t *testing.T) {
	tests := []struct {
		name    string
		ts      *domain.TaskSet
		wantErr bool
	}{
		{
			name: "合法的任务集",
			ts: &domain.TaskSet{
				Tasks: []domain.Task{{Name: "a"}, {Name: "b"}, {Name: "c"}},
				Groups: []domain.TaskGroup{
					{Name: "g1", MaxAssignments: 1, TaskIDs: []int64{0, 1}},
					{Name: "g2", MaxAssignments: 1, TaskIDs: []int64{2}},
				},
			},
		},
		{
			name:    "没有任务",
			ts:      &domain.TaskSet{},
			wantErr: true,
		},
		{
			name: "任务名称重复",
			ts: &domain.TaskSet{
				Tasks: []domain.Task{{Name: "a"}, {Name: "a"}},
			},
			wantErr: true,
		},
		{
			name: "任务组没有覆盖任何任务",
			ts: &domain.TaskSet{
				Tasks:  []domain.Task{{Name: "a"}},
				Groups: []domain.TaskGroup{{Name: "g", MaxAssignments: 1}},
			},
			wantErr: true,
		},
		{
			name: "任务组上限超过覆盖的任务数量",
			ts: &domain.TaskSet{
				Tasks:  []domain.Task{{Name: "a"}, {Name: "b"}},
				Groups: []domain.TaskGroup{{Name: "g", MaxAssignments: 3, TaskIDs: []int64{0, 1}}},
			},
			wantErr: true,
		},
		{
			name: "任务组引用了不存在的任务",
			ts: &domain.TaskSet{
				Tasks:  []domain.Task{{Name: "a"}},
				Groups: []domain.TaskGroup{{Name: "g", MaxAssignments: 1, TaskIDs: []int64{5}}},
			},
			wantErr: true,
		},
		{
			name: "任务组之间存在重叠",
			ts: &domain.TaskSet{
				Tasks: []domain.Task{{Name: "a"}, {Name: "b"}},
				Groups: []domain.TaskGroup{
					{Name: "g1", MaxAssignments: 1, TaskIDs: []int64{0, 1}},
					{Name: "g2", MaxAssignments: 1, TaskIDs: []int64{1}},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaskSet(tt.ts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAssignmentPlanTime(t *testing.T) {
	now := time.Now()

	plan := &domain.AssignmentPlan{
		SubmissionStartTime: now,
		SubmissionEndTime:   now.Add(time.Hour),
	}
	assert.NoError(t, ValidateAssignmentPlanTime(plan))

	plan.SubmissionEndTime = now.Add(-time.Hour)
	assert.Error(t, ValidateAssignmentPlanTime(plan))
}

func TestValidateSubmissionWithTaskSet(t *testing.T) {
	ts := newTestTaskSet()

	validSubmission := func() *domain.PreferenceSubmission {
		return &domain.PreferenceSubmission{
			UserID: 1,
			Items: []domain.PreferenceSubmissionItem{
				{TaskID: 11, Cost: 1},
				{TaskID: 12, Cost: 2},
				{TaskID: 13, Cost: 3},
				{TaskID: 14, Cost: 4},
			},
		}
	}

	require.NoError(t, ValidateSubmissionWithTaskSet(validSubmission(), ts))

	// 回答数量不匹配
	submission := validSubmission()
	submission.Items = submission.Items[:2]
	assert.Error(t, ValidateSubmissionWithTaskSet(submission, ts))

	// 引用了不存在的任务
	submission = validSubmission()
	submission.Items[0].TaskID = 99
	assert.Error(t, ValidateSubmissionWithTaskSet(submission, ts))

	// 同一个任务被回答了多次
	submission = validSubmission()
	submission.Items[1].TaskID = 11
	assert.Error(t, ValidateSubmissionWithTaskSet(submission, ts))

	// 成本为负数
	submission = validSubmission()
	submission.Items[0].Cost = -1
	assert.Error(t, ValidateSubmissionWithTaskSet(submission, ts))
}

func TestValidateResultWithTaskSet(t *testing.T) {
	ts := newTestTaskSet()

	validResult := func() *domain.AssignmentResult {
		return &domain.AssignmentResult{
			Items: []domain.AssignmentResultItem{
				{UserID: 1, TaskID: 11, Cost: 1},
				{UserID: 2, TaskID: 13, Cost: 2},
			},
		}
	}

	require.NoError(t, ValidateResultWithTaskSet(validResult(), ts))

	// 引用了不存在的任务
	result := validResult()
	result.Items[0].TaskID = 99
	assert.Error(t, ValidateResultWithTaskSet(result, ts))

	// 同一个助理被分配了多次
	result = validResult()
	result.Items[1].UserID = 1
	assert.Error(t, ValidateResultWithTaskSet(result, ts))

	// 同一个任务被分配了多次
	result = validResult()
	result.Items[1].TaskID = 11
	assert.Error(t, ValidateResultWithTaskSet(result, ts))

	// 任务组的分配数量超过上限
	result = validResult()
	result.Items[1].TaskID = 12 // 11 和 12 同属上限为 1 的任务组
	assert.Error(t, ValidateResultWithTaskSet(result, ts))
}

func TestValidateResultWithSubmissions(t *testing.T) {
	submissions := []*domain.PreferenceSubmission{
		{
			UserID: 1,
			Items: []domain.PreferenceSubmissionItem{
				{TaskID: 11, Cost: 1},
				{TaskID: 12, Cost: 2},
			},
		},
	}

	result := &domain.AssignmentResult{
		Items: []domain.AssignmentResultItem{
			{UserID: 1, TaskID: 12, Cost: 2},
		},
	}
	require.NoError(t, ValidateResultWithSubmissions(result, submissions))

	// 助理没有提交过偏好
	result.Items[0].UserID = 99
	assert.Error(t, ValidateResultWithSubmissions(result, submissions))

	// 成本和助理提交的偏好不一致
	result.Items[0].UserID = 1
	result.Items[0].Cost = 5
	assert.Error(t, ValidateResultWithSubmissions(result, submissions))

	// 助理没有回答过这个任务的偏好
	result.Items[0].TaskID = 13
	assert.Error(t, ValidateResultWithSubmissions(result, submissions))
}
