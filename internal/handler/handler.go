package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/config"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/repository"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/utils"
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
	validate, trans, err := newValidator()
	if err != nil {
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

func newValidator() (*validator.Validate, ut.Translator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, nil, err
	}
	if err := utils.RegisterArrangerValidations(validate, trans); err != nil {
		return nil, nil, err
	}

	return validate, trans, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(middleware.RequestID)
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
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
				r.Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/preference-tables", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Use(h.preventInactiveUser)
			r.Post("/", h.CreatePreferenceTable)
			r.Post("/import", h.ImportPreferenceTable)
			r.Get("/", h.GetAllPreferenceTables)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.preferenceTable)
				r.Get("/", h.GetPreferenceTable)
				r.Patch("/", h.UpdatePreferenceTable)
				r.Delete("/", h.DeletePreferenceTable)
				r.Route("/arrangements", func(r chi.Router) {
					r.Get("/", h.GetArrangements)
					r.Post("/", h.SubmitArrangement)
					r.Post("/generate", h.GenerateArrangement)
					r.Post("/evaluate", h.EvaluateArrangement)
					r.Get("/best", h.GetBestArrangement)
					r.Get("/latest", h.GetLatestArrangement)
					r.Route("/{arrangementID}", func(r chi.Router) {
						r.Use(h.arrangement)
						r.Get("/", h.GetArrangement)
						r.Delete("/", h.DeleteArrangement)
					})
				})
			})
		})
	})
}
