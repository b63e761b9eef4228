// Package service реализует бизнес-логику дашборда заказов Bling.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/purchasefast/blingboard/internal/bling"
	"github.com/purchasefast/blingboard/internal/model"
	"github.com/purchasefast/blingboard/internal/report"
	"github.com/purchasefast/blingboard/internal/repository"
)

// flexShippingService — название службы доставки Mercado Envios Flex в ответах Bling.
const flexShippingService = "Mercado Envios Flex"

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	GetCredential(ctx context.Context, accountID int64) (*model.Credential, error)
	ListOrderItems(ctx context.Context, accountID int64, filter repository.OrderItemFilter) ([]model.OrderItem, error)
	CurrentRevenueEstimation(ctx context.Context, accountID int64, month time.Time) (*model.RevenueEstimation, error)
}

// TokenGuard описывает контракт контроля свежести токенов.
type TokenGuard interface {
	EnsureFresh(ctx context.Context, accountID int64) error
}

// OrderFinder описывает контракт поиска заказа в API Bling.
type OrderFinder interface {
	FindOrder(ctx context.Context, accessToken string, orderID int64) (*bling.Order, error)
}

// Dashboard содержит данные главной страницы дашборда.
type Dashboard struct {
	Groups     []model.StatusGroup
	Done       []model.StatusGroup
	InProgress []model.StatusGroup
	Printed    []model.StatusGroup
	Pending    []model.StatusGroup
	Collected  []model.StatusGroup
	Canceled   []model.StatusGroup

	TokenExpiresAt    *time.Time
	MonthlyEstimation *model.RevenueEstimation
}

// Service содержит бизнес-логику дашборда.
type Service struct {
	repo   Repository
	guard  TokenGuard
	finder OrderFinder
	logger *zap.Logger
}

// NewService создаёт новый сервис с указанными зависимостями.
func NewService(repo Repository, guard TokenGuard, finder OrderFinder, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		guard:  guard,
		finder: finder,
		logger: logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ensureFreshToken обновляет токен аккаунта перед обращением к Bling.
// Сбой обмена не прерывает запрос: отчёт строится на прежнем токене,
// ошибка лишь фиксируется в логе.
func (s *Service) ensureFreshToken(ctx context.Context, accountID int64) {
	if s.guard == nil {
		return
	}
	if err := s.guard.EnsureFresh(ctx, accountID); err != nil {
		s.logger.Error("token refresh failed",
			zap.Error(err), zap.Int64("accountID", accountID))
	}
}

// Dashboard собирает данные главной страницы дашборда за указанный диапазон дат.
func (s *Service) Dashboard(ctx context.Context, accountID int64, r model.DateRange) (*Dashboard, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	s.ensureFreshToken(ctx, accountID)

	d := &Dashboard{}

	items, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses:  model.StatusesWithoutCanceled(),
		DateField: model.DateFieldOrder,
		Range:     &r,
	})
	if err != nil {
		return nil, err
	}
	d.Groups = report.GroupByStatus(items)

	done, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses:  model.DoneStatuses(),
		DateField: model.DateFieldStatusChange,
		Range:     &r,
	})
	if err != nil {
		return nil, err
	}
	d.Done = report.GroupByStatus(done)

	inProgress, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses: []model.OrderStatus{model.OrderStatusInProgress},
	})
	if err != nil {
		return nil, err
	}
	d.InProgress = report.GroupByStatus(inProgress)

	printed, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses: []model.OrderStatus{model.OrderStatusPrinted},
	})
	if err != nil {
		return nil, err
	}
	d.Printed = report.GroupByStatus(printed)

	pending, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses: []model.OrderStatus{model.OrderStatusPending},
	})
	if err != nil {
		return nil, err
	}
	d.Pending = report.GroupByStatus(pending)

	collected, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses:  []model.OrderStatus{model.OrderStatusCollected},
		DateField: model.DateFieldCollectedChange,
		Range:     &r,
	})
	if err != nil {
		return nil, err
	}
	d.Collected = report.GroupByStatus(collected)

	canceled, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses:  []model.OrderStatus{model.OrderStatusCanceled},
		DateField: model.DateFieldOrder,
		Range:     &r,
	})
	if err != nil {
		return nil, err
	}
	d.Canceled = report.GroupByStatus(canceled)

	cred, err := s.repo.GetCredential(ctx, accountID)
	switch {
	case err == nil:
		d.TokenExpiresAt = cred.ExpiresAt
	case errors.Is(err, model.ErrNoCredential):
		// Аккаунт ещё не подключён к Bling: дашборд работает по локальным данным.
	default:
		return nil, err
	}

	est, err := s.repo.CurrentRevenueEstimation(ctx, accountID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	d.MonthlyEstimation = est

	return d, nil
}

// DayQuantities возвращает количество оплаченных позиций по дням диапазона.
func (s *Service) DayQuantities(ctx context.Context, accountID int64, r model.DateRange) ([]model.DayBucket, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	items, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses:  []model.OrderStatus{model.OrderStatusPaid},
		DateField: model.DateFieldOrder,
		Range:     &r,
	})
	if err != nil {
		return nil, err
	}

	return report.DailyQuantities(items, r, model.DateFieldOrder)
}

// DailyRevenue возвращает выручку по оплаченным позициям по дням диапазона.
func (s *Service) DailyRevenue(ctx context.Context, accountID int64, r model.DateRange) ([]model.DayBucket, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	items, err := s.repo.ListOrderItems(ctx, accountID, repository.OrderItemFilter{
		Statuses:  []model.OrderStatus{model.OrderStatusPaid},
		DateField: model.DateFieldOrder,
		Range:     &r,
	})
	if err != nil {
		return nil, err
	}

	return report.DailyRevenue(items, r)
}

// CountFlexShipments считает заказы, отгружаемые через Mercado Envios Flex.
// Ошибка по отдельному заказу не прерывает подсчёт: заказ пропускается с записью в лог.
func (s *Service) CountFlexShipments(ctx context.Context, accountID int64, orderIDs []int64) (int, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}

	s.ensureFreshToken(ctx, accountID)

	cred, err := s.repo.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNoCredential) {
			return 0, nil
		}
		return 0, err
	}

	counter := 0
	for _, id := range orderIDs {
		order, err := s.finder.FindOrder(ctx, cred.AccessToken, id)
		if err != nil {
			s.logger.Error("find order failed",
				zap.Error(err), zap.Int64("accountID", accountID), zap.Int64("orderID", id))
			continue
		}
		if order.ShippingService() == flexShippingService {
			counter++
		}
	}

	return counter, nil
}
