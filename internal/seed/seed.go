package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/repository"
)

// 问卷 CSV 中的信息列，其余的列都会被当成任务列，
// 单元格中的值是助理对该任务给出的成本（1 到 5）
var infoHeaders = map[string]bool{
	"NetID": true,
	"姓名":    true,
	"邮箱":    true,
	"角色":    true,
}

func SeedRealData(r *repository.Repository) {
	file, err := os.Open("./internal/seed/data/processed.csv")
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		slog.Error("读取表头失败", "error", err)
		return
	}

	taskHeaderArray := []string{}
	for _, header := range headers {
		if !infoHeaders[header] {
			taskHeaderArray = append(taskHeaderArray, header)
		}
	}

	if len(taskHeaderArray) == 0 {
		slog.Error("没有找到任务列")
		return
	}

	// 读取数据
	var records []map[string]string
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("读取文件失败", "error", err)
			return
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = value
		}
		records = append(records, record)
	}

	// 插入任务集，问卷中的每个任务列都是一个任务
	ts := &domain.TaskSet{
		Name:        "2025春新学期任务集",
		Description: "根据新学期问卷整理出的待分配任务",
		Tasks:       make([]domain.Task, 0, len(taskHeaderArray)),
	}

	for _, taskHeader := range taskHeaderArray {
		ts.Tasks = append(ts.Tasks, domain.Task{Name: taskHeader})
	}

	if err := r.CreateTaskSet(ts); err != nil {
		slog.Error("插入任务集失败", "error", err)
		return
	}

	// 插入分配计划
	plan := &domain.AssignmentPlan{
		Name:        "2025春季学期任务分配",
		Description: "本次分配覆盖 2025 年春季学期的常规任务",
		// 这些时间不是准确的时间，只是为了测试
		SubmissionStartTime: time.Now().Add(-time.Hour * 24),
		SubmissionEndTime:   time.Now().Add(time.Hour * 6),
		TaskSetID:           ts.ID,
	}

	if err := r.CreateAssignmentPlan(plan); err != nil {
		slog.Error("插入分配计划失败", "error", err)
		return
	}

	// 插入助理及其偏好提交记录到数据库中
	for _, record := range records {
		// 先尝试获取助理
		netID := record["NetID"]
		if netID == "" {
			slog.Error("没有找到NetID", "record", record)
			continue
		}

		user, err := r.GetUserByUsername(netID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				// 表示该助理不在数据库中，需要新建并插入
				user = &domain.User{
					Username:     netID,
					PasswordHash: "$2a$10$aUTaWl3vmXuQFocBkb9Qx.YJPAzNoaAcj2VC5tI45l1Roh24meCgO", // ecnc@test8403
					FullName:     record["姓名"],
					Email:        record["邮箱"],
					Role:         domain.Role(record["角色"]),
				}

				if err := r.CreateUser(user); err != nil {
					slog.Error("插入助理失败", "error", err)
					continue
				}
			default:
				slog.Error("获取助理失败", "error", err)
				continue
			}
		}

		// 插入偏好提交记录
		submission := &domain.PreferenceSubmission{
			AssignmentPlanID: plan.ID,
			UserID:           user.ID,
			Items:            make([]domain.PreferenceSubmissionItem, 0, len(ts.Tasks)),
		}

		skip := false
		for _, task := range ts.Tasks {
			cost, err := strconv.ParseFloat(record[task.Name], 64)
			if err != nil {
				slog.Error("转换成本失败", "task", task.Name, "value", record[task.Name])
				skip = true
				break
			}

			submission.Items = append(submission.Items, domain.PreferenceSubmissionItem{
				TaskID: task.ID,
				Cost:   cost,
			})
		}
		if skip {
			continue
		}

		if err := r.InsertPreferenceSubmission(submission); err != nil {
			slog.Error("插入偏好提交记录失败", "error", err)
			continue
		}
	}

	slog.Info("插入数据完成")
}
