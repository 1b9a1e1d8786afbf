package handler

type ContextKey string

var (
	RoleCtxKey                       ContextKey = "role"
	SubCtxKey                        ContextKey = "sub"
	MyInfoCtx                        ContextKey = "myInfo"
	UserInfoCtx                      ContextKey = "userInfo"
	TaskSetCtx                       ContextKey = "taskSet"
	AssignmentPlanCtx                ContextKey = "assignmentPlan"
	LatestSubmissionAvailablePlanCtx ContextKey = "latestSubmissionAvailablePlan"
)
