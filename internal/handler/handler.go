// Package handler содержит HTTP-обработчики API дашборда заказов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/purchasefast/blingboard/internal/middleware"
	"github.com/purchasefast/blingboard/internal/model"
	"github.com/purchasefast/blingboard/internal/service"
	"github.com/purchasefast/blingboard/internal/validation"
)

// historyDefaultDays — глубина истории дневных количеств по умолчанию.
const historyDefaultDays = 15

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Dashboard(ctx context.Context, accountID int64, r model.DateRange) (*service.Dashboard, error)
	DayQuantities(ctx context.Context, accountID int64, r model.DateRange) ([]model.DayBucket, error)
	DailyRevenue(ctx context.Context, accountID int64, r model.DateRange) ([]model.DayBucket, error)
	CountFlexShipments(ctx context.Context, accountID int64, orderIDs []int64) (int, error)
}

// Handler реализует HTTP-обработчики API дашборда.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type orderItemResponse struct {
	ID        int64   `json:"id"`
	Status    string  `json:"status"`
	OrderDate *string `json:"order_date,omitempty"`
	Value     string  `json:"value"`
	StoreID   int64   `json:"store_id"`
	StoreName string  `json:"store_name,omitempty"`
}

type statusGroupResponse struct {
	Status string              `json:"status"`
	Count  int                 `json:"count"`
	Items  []orderItemResponse `json:"items"`
}

type estimationResponse struct {
	Month  string `json:"month"`
	Amount string `json:"amount"`
}

type dashboardResponse struct {
	Groups     []statusGroupResponse `json:"groups"`
	Done       []statusGroupResponse `json:"done"`
	InProgress []statusGroupResponse `json:"in_progress"`
	Printed    []statusGroupResponse `json:"printed"`
	Pending    []statusGroupResponse `json:"pending"`
	Collected  []statusGroupResponse `json:"collected"`
	Canceled   []statusGroupResponse `json:"canceled"`

	TokenExpiresAt    *string             `json:"token_expires_at,omitempty"`
	MonthlyEstimation *estimationResponse `json:"monthly_estimation,omitempty"`
}

func toGroupsResponse(groups []model.StatusGroup) []statusGroupResponse {
	resp := make([]statusGroupResponse, 0, len(groups))
	for _, g := range groups {
		items := make([]orderItemResponse, 0, len(g.Items))
		for _, item := range g.Items {
			ir := orderItemResponse{
				ID:      item.ID,
				Status:  string(item.Status),
				Value:   item.Value.StringFixed(2),
				StoreID: item.StoreID,
			}
			if item.OrderDate != nil {
				v := item.OrderDate.Format(time.RFC3339)
				ir.OrderDate = &v
			}
			if name, ok := model.StoreName(item.StoreID); ok {
				ir.StoreName = name
			}
			items = append(items, ir)
		}
		resp = append(resp, statusGroupResponse{
			Status: string(g.Status),
			Count:  len(g.Items),
			Items:  items,
		})
	}
	return resp
}

func (h *Handler) parseRange(r *http.Request, defaultStart, defaultEnd time.Time) (model.DateRange, error) {
	return validation.ParseDateRange(
		r.URL.Query().Get("initial_date"),
		r.URL.Query().Get("final_date"),
		defaultStart, defaultEnd,
	)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Dashboard возвращает сводку заказов аккаунта за диапазон дат (по умолчанию сегодня).
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	dr, err := h.parseRange(r, now, now)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	d, err := h.service.Dashboard(r.Context(), accountID, dr)
	if err != nil {
		if errors.Is(err, model.ErrInvalidDateRange) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("dashboard error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := dashboardResponse{
		Groups:     toGroupsResponse(d.Groups),
		Done:       toGroupsResponse(d.Done),
		InProgress: toGroupsResponse(d.InProgress),
		Printed:    toGroupsResponse(d.Printed),
		Pending:    toGroupsResponse(d.Pending),
		Collected:  toGroupsResponse(d.Collected),
		Canceled:   toGroupsResponse(d.Canceled),
	}
	if d.TokenExpiresAt != nil {
		v := d.TokenExpiresAt.Format(time.RFC3339)
		resp.TokenExpiresAt = &v
	}
	if d.MonthlyEstimation != nil {
		resp.MonthlyEstimation = &estimationResponse{
			Month:  d.MonthlyEstimation.Month.Format("2006-01"),
			Amount: d.MonthlyEstimation.Amount.StringFixed(2),
		}
	}

	h.writeJSON(w, resp)
}

type dayQuantityResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DayQuantities возвращает количество оплаченных позиций по дням
// (по умолчанию за последние 15 дней).
func (h *Handler) DayQuantities(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	dr, err := h.parseRange(r, now.AddDate(0, 0, -historyDefaultDays), now)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	buckets, err := h.service.DayQuantities(r.Context(), accountID, dr)
	if err != nil {
		if errors.Is(err, model.ErrInvalidDateRange) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("day quantities error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]dayQuantityResponse, 0, len(buckets))
	for _, b := range buckets {
		resp = append(resp, dayQuantityResponse{
			Date:  b.Date.Format("2006-01-02"),
			Count: b.Count,
		})
	}

	h.writeJSON(w, resp)
}

type dayRevenueResponse struct {
	Date         string `json:"date"`
	TotalRevenue string `json:"total_revenue"`
}

// DailyRevenue возвращает выручку по оплаченным позициям по дням (по умолчанию за сегодня).
func (h *Handler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	now := time.Now().UTC()
	dr, err := h.parseRange(r, now, now)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	buckets, err := h.service.DailyRevenue(r.Context(), accountID, dr)
	if err != nil {
		if errors.Is(err, model.ErrInvalidDateRange) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("daily revenue error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]dayRevenueResponse, 0, len(buckets))
	for _, b := range buckets {
		resp = append(resp, dayRevenueResponse{
			Date:         b.Date.Format("2006-01-02"),
			TotalRevenue: b.Revenue.StringFixed(2),
		})
	}

	h.writeJSON(w, resp)
}

type flexCountResponse struct {
	Count int `json:"count"`
}

// FlexCount считает заказы со службой доставки Mercado Envios Flex.
// Идентификаторы заказов передаются параметром ids через запятую.
func (h *Handler) FlexCount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var orderIDs []int64
	if raw := strings.TrimSpace(r.URL.Query().Get("ids")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			orderIDs = append(orderIDs, id)
		}
	}

	count, err := h.service.CountFlexShipments(r.Context(), accountID, orderIDs)
	if err != nil {
		h.logger.Error("flex count error", zap.Error(err), zap.Int64("accountID", accountID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, flexCountResponse{Count: count})
}
