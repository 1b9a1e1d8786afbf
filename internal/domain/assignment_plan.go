package domain

import "time"

type AssignmentPlan struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	SubmissionStartTime time.Time `json:"submissionStartTime"`
	SubmissionEndTime   time.Time `json:"submissionEndTime"`
	TaskSetID           int64     `json:"taskSetID"`
	CreatedAt           time.Time `json:"createdAt"`
	Version             int32     `json:"-"`
}
