package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/config"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/task-assigner/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 所有助理应该都有权限获取其他人的个人信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/task-sets", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Post("/", h.CreateTaskSet)
			r.Get("/", h.GetAllTaskSets)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.taskSet)
				r.Get("/", h.GetTaskSet)
				r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Patch("/", h.UpdateTaskSet)
				r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Delete("/", h.DeleteTaskSet)
			})
		})

		r.Route("/assignment-plans", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Post("/", h.CreateAssignmentPlan)
			r.Get("/", h.GetAllAssignmentPlans)
			r.Route("/{option}", func(r chi.Router) {
				r.Use(h.assignmentPlan)
				r.Get("/", h.GetAssignmentPlanByID)
				r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Patch("/", h.UpdateAssignmentPlan)
				r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Delete("/", h.DeleteAssignmentPlan)
				r.Route("/your-preference", func(r chi.Router) {
					r.Use(h.myInfo)
					r.Use(h.preventLeavedAssistant)
					r.Use(h.preventSubmit2unavailableAssignmentPlan)
					r.Post("/", h.SubmitYourPreference)
					r.Get("/", h.GetYourPreferenceSubmission)
				})
				r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Get("/preferences", h.GetAssignmentPlanSubmissions) // 只有黑心能够获取所有的提交情况，防止泄露信息
				r.Route("/assignment-result", func(r chi.Router) {
					r.Use(h.RequiredRole([]domain.Role{domain.RoleBlackCore}))
					r.Post("/", h.SubmitAssignmentResult)
					r.Get("/", h.GetAssignmentResult)
					r.Post("/generate", h.GenerateAssignmentResult)
				})
			})
		})

		// 直接对裸的成本矩阵求解，不依赖任何计划和任务集
		r.With(h.RequiredRole([]domain.Role{domain.RoleBlackCore})).Post("/solve", h.SolveRawMatrix)
	})
}
