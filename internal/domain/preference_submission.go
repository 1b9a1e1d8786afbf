package domain

import "time"

// PreferenceSubmissionItem: 助理对某个任务的偏好回答，成本越低表示越想做
type PreferenceSubmissionItem struct {
	TaskID int64   `json:"taskID"`
	Cost   float64 `json:"cost"`
}

type PreferenceSubmission struct {
	ID               int64                      `json:"id"`
	AssignmentPlanID int64                      `json:"assignmentPlanID"`
	UserID           int64                      `json:"userID"`
	Items            []PreferenceSubmissionItem `json:"items"`
	CreatedAt        time.Time                  `json:"createdAt"`
	Version          int32                      `json:"-"`
}
