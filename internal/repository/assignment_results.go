package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
)

func (r *Repository) InsertAssignmentResult(result *domain.AssignmentResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的分配结果删除
	query := `DELETE FROM assignment_results WHERE assignment_plan_id = $1`
	if _, err := tx.ExecContext(ctx, query, result.AssignmentPlanID); err != nil {
		return err
	}

	query = `
		INSERT INTO assignment_results (assignment_plan_id, total_cost, distance)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	if err := tx.QueryRowContext(ctx, query, result.AssignmentPlanID, result.TotalCost, result.Distance).Scan(&result.ID, &result.CreatedAt, &result.Version); err != nil {
		return err
	}

	for _, item := range result.Items {
		query := `
			INSERT INTO assignment_result_items (assignment_result_id, user_id, task_id, cost)
			VALUES ($1, $2, $3, $4)
		`

		if _, err := tx.ExecContext(ctx, query, result.ID, item.UserID, item.TaskID, item.Cost); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAssignmentResultByPlanID(planID int64) (*domain.AssignmentResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ar.id,
			ar.total_cost,
			ar.distance,
			ari.user_id,
			ari.task_id,
			ari.cost,
			ar.created_at,
			ar.version
		FROM assignment_results ar
		LEFT JOIN assignment_result_items ari ON ar.id = ari.assignment_result_id
		WHERE ar.assignment_plan_id = $1
		ORDER BY ari.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &domain.AssignmentResult{
		AssignmentPlanID: planID,
		Items:            make([]domain.AssignmentResultItem, 0),
	}

	for rows.Next() {
		var row struct {
			resultID  int64
			totalCost float64
			distance  float64
			userID    sql.NullInt64
			taskID    sql.NullInt64
			cost      sql.NullFloat64
			createdAt time.Time
			version   int32
		}

		dst := []any{
			&row.resultID,
			&row.totalCost,
			&row.distance,
			&row.userID,
			&row.taskID,
			&row.cost,
			&row.createdAt,
			&row.version,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		result.ID = row.resultID
		result.TotalCost = row.totalCost
		result.Distance = row.distance
		result.CreatedAt = row.createdAt
		result.Version = row.version

		if !row.userID.Valid || !row.taskID.Valid {
			// 说明这个分配结果不存在任何分配项，这在业务上是不可能的，
			// 但是为了代码的健壮性，这里还是需要处理
			continue
		}

		result.Items = append(result.Items, domain.AssignmentResultItem{
			UserID: row.userID.Int64,
			TaskID: row.taskID.Int64,
			Cost:   row.cost.Float64,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 还需要处理没有结果的情况
	if result.ID == 0 {
		return nil, sql.ErrNoRows
	}

	return result, nil
}
