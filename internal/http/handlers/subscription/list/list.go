// Package list реализует HTTP-обработчик списка подписок и пользователей.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/finexapp/finex-backend/internal/http/response"
	"github.com/finexapp/finex-backend/internal/lib/sl"
	"github.com/finexapp/finex-backend/internal/models"
)

// Handler управляет HTTP-запросами на список подписок.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики подписок
	users   UserLister   // Список пользователей для административного обзора
}

// Service описывает интерфейс бизнес-логики списка подписок.
type Service interface {
	List(ctx context.Context) ([]*models.Subscription, error)
}

// UserLister возвращает всех пользователей.
type UserLister interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// New создает новый Handler с переданными логгером и сервисами.
func New(log *slog.Logger, service Service, users UserLister) *Handler {
	return &Handler{log: log, service: service, users: users}
}

// userView скрывает хэш пароля из административного списка.
type userView struct {
	Email               string `json:"email"`
	Username            string `json:"username"`
	Role                string `json:"role"`
	SubscriptionStatus  string `json:"subscription_status"`
	SubscriptionPlan    string `json:"subscription_plan,omitempty"`
	SubscriptionEndDate any    `json:"subscription_end_date,omitempty"`
}

// ServeHTTP godoc
// @Summary Список подписок
// @Description Возвращает все подписки и пользователей для административного обзора.
// @Tags Subscriptions
// @Produce  json
// @Success 200 {object} response.Response "Подписки и пользователи"
// @Failure 403 {object} response.ErrorResponse "Требуется роль администратора"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /subscriptions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	subs, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list subscriptions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list subscriptions"))
		return
	}

	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list users"))
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		view := userView{
			Email:              u.Email,
			Username:           u.Username,
			Role:               u.Role,
			SubscriptionStatus: u.SubscriptionStatus,
			SubscriptionPlan:   u.SubscriptionPlan,
		}
		if u.SubscriptionEndDate != nil {
			view.SubscriptionEndDate = *u.SubscriptionEndDate
		}
		views = append(views, view)
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscriptions": subs,
		"users":         views,
	}))
}
