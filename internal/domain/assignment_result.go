package domain

import "time"

type AssignmentResultItem struct {
	UserID int64   `json:"userID"`
	TaskID int64   `json:"taskID"`
	Cost   float64 `json:"cost"`
}

type AssignmentResult struct {
	ID               int64                  `json:"id"`
	AssignmentPlanID int64                  `json:"assignmentPlanID"`
	TotalCost        float64                `json:"totalCost"`
	Distance         float64                `json:"distance"`
	Items            []AssignmentResultItem `json:"items"`
	CreatedAt        time.Time              `json:"createdAt"`
	Version          int32                  `json:"-"`
}
