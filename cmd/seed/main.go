package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/seed"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var assignmentPlanID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机任务集, 3: 插入随机分配计划, 4: 插入偏好提交记录, 5: 插入真实数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&assignmentPlanID, "assignment-plan-id", 0, "随机插入偏好提交记录的分配计划 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的任务集数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				ts := utils.GenerateRandomTaskSet()
				if err := repo.CreateTaskSet(ts); err != nil {
					slog.Error("无法插入任务集", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入任务集成功", slog.Int("count", n-cnt))
		}
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的分配计划数量")
		} else {
			// 先获取所有任务集
			tss, err := repo.GetAllTaskSets()
			if err != nil {
				slog.Error("无法获取所有任务集", slog.String("error", err.Error()))
				return
			}
			if len(tss) == 0 {
				slog.Error("数据库中没有任何任务集，请先插入任务集")
				return
			}

			cnt := n
			for i := 0; i < n; i++ {
				// 随机选一个任务集
				ts := tss[rand.Intn(len(tss))]

				plan := utils.GenerateRandomAssignmentPlan(ts.ID)
				if err := repo.CreateAssignmentPlan(plan); err != nil {
					slog.Error("无法插入分配计划", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入分配计划成功", slog.Int("count", n-cnt))
		}
	case 4:
		if assignmentPlanID <= 0 {
			slog.Error("请输入合法的分配计划 ID")
			return
		}

		// 获取对应的分配计划
		plan, err := repo.GetAssignmentPlanByID(assignmentPlanID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				slog.Error("指定的分配计划不存在", slog.Int64("assignment_plan_id", assignmentPlanID))
			default:
				slog.Error("无法获取分配计划", slog.String("error", err.Error()))
			}
			return
		}

		// 获取对应的任务集
		ts, err := repo.GetTaskSet(plan.TaskSetID)
		if err != nil {
			slog.Error("无法获取任务集", slog.String("error", err.Error()))
			return
		}

		// 获取所有的助理信息
		assistants, err := repo.GetAllUsers()
		if err != nil {
			slog.Error("无法获取所有的在职助理", slog.String("error", err.Error()))
			return
		}

		// 为每一个助理都生成一份偏好提交记录并插入
		cnt := 0
		for _, assistant := range assistants {
			submission := utils.GenerateRandomSubmission(ts, assistant, plan.ID)
			if err := repo.InsertPreferenceSubmission(submission); err != nil {
				slog.Error("无法插入偏好提交记录", slog.String("error", err.Error()))
				continue
			}

			cnt++
		}

		slog.Info("插入偏好提交记录成功", slog.Int("count", cnt))
	case 5:
		seed.SeedRealData(repo)
	default:
		slog.Error("指定的操作非法")
	}
}
