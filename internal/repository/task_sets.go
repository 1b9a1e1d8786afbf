package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
)

func (r *Repository) GetAllTaskSets() ([]*domain.TaskSet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ts.id,
			ts.name,
			ts.description,
			ts.created_at,
			ts.version,
			t.id,
			t.name
		FROM task_sets ts
		LEFT JOIN tasks t ON ts.id = t.task_set_id
		ORDER BY ts.id, t.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	taskSetsMap := make(map[int64]*domain.TaskSet)
	order := make([]int64, 0)

	for rows.Next() {
		var row struct {
			ID          int64
			Name        string
			Description string
			CreatedAt   time.Time
			Version     int32

			TaskID   sql.NullInt64
			TaskName sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Description,
			&row.CreatedAt,
			&row.Version,
			&row.TaskID,
			&row.TaskName,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := taskSetsMap[row.ID]; !exists {
			// 说明此时是第一次查到这个任务集，需要在 map 中初始化它
			taskSetsMap[row.ID] = &domain.TaskSet{
				ID:          row.ID,
				Name:        row.Name,
				Description: row.Description,
				Tasks:       make([]domain.Task, 0),
				Groups:      make([]domain.TaskGroup, 0),
				CreatedAt:   row.CreatedAt,
				Version:     row.Version,
			}
			order = append(order, row.ID)
		}

		// 如果 taskID 为空，则表示这个任务集中不存在任何任务
		if !row.TaskID.Valid {
			continue
		}

		taskSetsMap[row.ID].Tasks = append(taskSetsMap[row.ID].Tasks, domain.Task{
			ID:   row.TaskID.Int64,
			Name: row.TaskName.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 单独查询所有的任务组
	if err := r.fillTaskGroups(ctx, taskSetsMap); err != nil {
		return nil, err
	}

	taskSets := make([]*domain.TaskSet, 0, len(taskSetsMap))
	for _, id := range order {
		taskSets = append(taskSets, taskSetsMap[id])
	}

	return taskSets, nil
}

// fillTaskGroups 查询 map 中所有任务集的任务组并填充进去
func (r *Repository) fillTaskGroups(ctx context.Context, taskSetsMap map[int64]*domain.TaskSet) error {
	query := `
		SELECT
			tg.task_set_id,
			tg.id,
			tg.name,
			tg.max_assignments,
			tgt.task_id
		FROM task_groups tg
		LEFT JOIN task_group_tasks tgt ON tg.id = tgt.task_group_id
		ORDER BY tg.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	groupsMap := make(map[int64]*domain.TaskGroup)
	groupTaskSet := make(map[int64]int64) // groupID -> taskSetID

	for rows.Next() {
		var row struct {
			TaskSetID      int64
			GroupID        int64
			Name           string
			MaxAssignments int32
			TaskID         sql.NullInt64
		}

		if err := rows.Scan(&row.TaskSetID, &row.GroupID, &row.Name, &row.MaxAssignments, &row.TaskID); err != nil {
			return err
		}

		if _, exists := taskSetsMap[row.TaskSetID]; !exists {
			continue
		}

		if _, exists := groupsMap[row.GroupID]; !exists {
			groupsMap[row.GroupID] = &domain.TaskGroup{
				ID:             row.GroupID,
				Name:           row.Name,
				MaxAssignments: row.MaxAssignments,
				TaskIDs:        make([]int64, 0),
			}
			groupTaskSet[row.GroupID] = row.TaskSetID
		}

		if !row.TaskID.Valid {
			continue
		}

		groupsMap[row.GroupID].TaskIDs = append(groupsMap[row.GroupID].TaskIDs, row.TaskID.Int64)
	}

	if err := rows.Err(); err != nil {
		return err
	}

	for groupID, group := range groupsMap {
		ts := taskSetsMap[groupTaskSet[groupID]]
		ts.Groups = append(ts.Groups, *group)
	}

	return nil
}

func (r *Repository) CreateTaskSet(ts *domain.TaskSet) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO task_sets (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, ts.Name, ts.Description).Scan(&ts.ID, &ts.CreatedAt, &ts.Version); err != nil {
		return err
	}

	// 任务组通过任务在 Tasks 中的下标来引用任务
	// 因为此时任务还没有插入数据库，没有 ID 可以用
	taskIDByIndex := make([]int64, len(ts.Tasks))

	for i := range ts.Tasks {
		query = `
			INSERT INTO tasks (task_set_id, name)
			VALUES ($1, $2)
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query, ts.ID, ts.Tasks[i].Name).Scan(&ts.Tasks[i].ID); err != nil {
			return err
		}
		taskIDByIndex[i] = ts.Tasks[i].ID
	}

	for i := range ts.Groups {
		query = `
			INSERT INTO task_groups (task_set_id, name, max_assignments)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		params := []any{ts.ID, ts.Groups[i].Name, ts.Groups[i].MaxAssignments}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&ts.Groups[i].ID); err != nil {
			return err
		}

		for j, taskIndex := range ts.Groups[i].TaskIDs {
			taskID := taskIDByIndex[taskIndex]

			query = `
				INSERT INTO task_group_tasks (task_group_id, task_id)
				VALUES ($1, $2)
			`
			if _, err := tx.ExecContext(ctx, query, ts.Groups[i].ID, taskID); err != nil {
				return err
			}

			// 将下标替换为真正的任务 ID，保证返回给调用方的数据是一致的
			ts.Groups[i].TaskIDs[j] = taskID
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetTaskSet(id int64) (*domain.TaskSet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			ts.name,
			ts.description,
			ts.created_at,
			ts.version,
			t.id,
			t.name
		FROM task_sets ts
		LEFT JOIN tasks t ON ts.id = t.task_set_id
		WHERE ts.id = $1
		ORDER BY t.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ts := &domain.TaskSet{
		ID:     id,
		Tasks:  make([]domain.Task, 0),
		Groups: make([]domain.TaskGroup, 0),
	}
	found := false

	for rows.Next() {
		var row struct {
			Name        string
			Description string
			CreatedAt   time.Time
			Version     int32

			TaskID   sql.NullInt64
			TaskName sql.NullString
		}

		dst := []any{
			&row.Name,
			&row.Description,
			&row.CreatedAt,
			&row.Version,
			&row.TaskID,
			&row.TaskName,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if !found {
			// 说明此时是第一次查到这个任务集，需要初始化它
			ts.Name = row.Name
			ts.Description = row.Description
			ts.CreatedAt = row.CreatedAt
			ts.Version = row.Version
			found = true
		}

		if !row.TaskID.Valid {
			// 说明这个任务集中不存在任何任务
			continue
		}

		ts.Tasks = append(ts.Tasks, domain.Task{
			ID:   row.TaskID.Int64,
			Name: row.TaskName.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !found {
		return nil, sql.ErrNoRows
	}

	taskSetsMap := map[int64]*domain.TaskSet{id: ts}
	if err := r.fillTaskGroups(ctx, taskSetsMap); err != nil {
		return nil, err
	}

	return ts, nil
}

func (r *Repository) UpdateTaskSet(ts *domain.TaskSet) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE task_sets
		SET
			name = $1,
			description = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING version
	`

	params := []any{ts.Name, ts.Description, ts.ID, ts.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&ts.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteTaskSet(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM task_sets WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
