package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
)

func (r *Repository) InsertPreferenceSubmission(submission *domain.PreferenceSubmission) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先把原先的记录删除再插入
	query := `DELETE FROM preference_submissions WHERE user_id = $1 AND assignment_plan_id = $2`
	if _, err := tx.ExecContext(ctx, query, submission.UserID, submission.AssignmentPlanID); err != nil {
		return err
	}

	query = `
		INSERT INTO preference_submissions (user_id, assignment_plan_id)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, submission.UserID, submission.AssignmentPlanID).Scan(&submission.ID, &submission.CreatedAt, &submission.Version); err != nil {
		return err
	}

	for _, item := range submission.Items {
		query := `
			INSERT INTO preference_submission_items (preference_submission_id, task_id, cost)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, submission.ID, item.TaskID, item.Cost); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetPreferenceSubmissionByUserIDAndPlanID(userID int64, planID int64) (*domain.PreferenceSubmission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, created_at, version
		FROM preference_submissions
		WHERE user_id = $1 AND assignment_plan_id = $2
	`

	submission := &domain.PreferenceSubmission{
		UserID:           userID,
		AssignmentPlanID: planID,
	}

	if err := r.dbpool.QueryRowContext(ctx, query, userID, planID).Scan(&submission.ID, &submission.CreatedAt, &submission.Version); err != nil {
		return nil, err
	}

	query = `
		SELECT task_id, cost
		FROM preference_submission_items
		WHERE preference_submission_id = $1
		ORDER BY task_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, submission.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submission.Items = make([]domain.PreferenceSubmissionItem, 0)
	for rows.Next() {
		var item domain.PreferenceSubmissionItem
		if err := rows.Scan(&item.TaskID, &item.Cost); err != nil {
			return nil, err
		}
		submission.Items = append(submission.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return submission, nil
}

func (r *Repository) GetAllSubmissionsByPlanID(planID int64) ([]*domain.PreferenceSubmission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ps.id,
			ps.user_id,
			psi.task_id,
			psi.cost,
			ps.created_at,
			ps.version
		FROM preference_submissions ps
		LEFT JOIN preference_submission_items psi ON ps.id = psi.preference_submission_id
		WHERE ps.assignment_plan_id = $1
		ORDER BY ps.id, psi.task_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissionsMap := make(map[int64]*domain.PreferenceSubmission)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			submissionID int64
			userID       int64
			taskID       sql.NullInt64
			cost         sql.NullFloat64
			createdAt    time.Time
			version      int32
		}

		dst := []any{
			&row.submissionID,
			&row.userID,
			&row.taskID,
			&row.cost,
			&row.createdAt,
			&row.version,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := submissionsMap[row.submissionID]; !exists {
			submissionsMap[row.submissionID] = &domain.PreferenceSubmission{
				ID:               row.submissionID,
				AssignmentPlanID: planID,
				UserID:           row.userID,
				Items:            make([]domain.PreferenceSubmissionItem, 0),
				CreatedAt:        row.createdAt,
				Version:          row.version,
			}
			order = append(order, row.submissionID)
		}

		if !row.taskID.Valid {
			// 表示这条提交记录没有回答任何任务，虽然业务上不可能出现这种情况
			// 但为了提高代码的健壮性，这边还是需要处理
			continue
		}

		submissionsMap[row.submissionID].Items = append(submissionsMap[row.submissionID].Items, domain.PreferenceSubmissionItem{
			TaskID: row.taskID.Int64,
			Cost:   row.cost.Float64,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	submissions := make([]*domain.PreferenceSubmission, 0, len(submissionsMap))
	for _, id := range order {
		submissions = append(submissions, submissionsMap[id])
	}

	return submissions, nil
}
