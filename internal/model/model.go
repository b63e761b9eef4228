// Package model содержит доменные сущности дашборда заказов Bling.
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Credential хранит OAuth-токены подключения аккаунта к API Bling.
// На один аккаунт приходится не более одной записи.
type Credential struct {
	AccountID    int64
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    *time.Time
}

// OrderStatus описывает статус позиции заказа в жизненном цикле Bling.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusPrinted    OrderStatus = "PRINTED"
	OrderStatusVerified   OrderStatus = "VERIFIED"
	OrderStatusChecked    OrderStatus = "CHECKED"
	OrderStatusCollected  OrderStatus = "COLLECTED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// AllStatuses возвращает полный замкнутый набор статусов в фиксированном порядке.
func AllStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusInProgress,
		OrderStatusPrinted,
		OrderStatusVerified,
		OrderStatusChecked,
		OrderStatusCollected,
		OrderStatusCanceled,
	}
}

// StatusesWithoutCanceled возвращает производный набор статусов без CANCELED.
func StatusesWithoutCanceled() []OrderStatus {
	all := AllStatuses()
	res := make([]OrderStatus, 0, len(all)-1)
	for _, s := range all {
		if s != OrderStatusCanceled {
			res = append(res, s)
		}
	}
	return res
}

// DoneStatuses возвращает статусы заказов, считающихся выполненными.
func DoneStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusVerified, OrderStatusChecked, OrderStatusCollected}
}

// OrderItem описывает позицию заказа, загруженную из Bling.
// Поля дат могут отсутствовать: такие позиции не попадают в дневные серии.
type OrderItem struct {
	ID                  int64
	AccountID           int64
	Status              OrderStatus
	OrderDate           *time.Time
	StatusChangeDate    *time.Time
	CollectedChangeDate *time.Time
	Value               decimal.Decimal
	StoreID             int64
}

// ErrNoCredential возвращается, если у аккаунта нет учётных данных Bling.
var ErrNoCredential = errors.New("credential not found")

// DateField указывает, какое из полей даты позиции заказа использовать
// при фильтрации и дневной разбивке.
type DateField string

const (
	// DateFieldOrder — дата оформления заказа.
	DateFieldOrder DateField = "order_date"
	// DateFieldStatusChange — дата последней смены статуса.
	DateFieldStatusChange DateField = "status_change_date"
	// DateFieldCollectedChange — дата перехода в статус COLLECTED.
	DateFieldCollectedChange DateField = "collected_change_date"
)

// Of возвращает значение выбранного поля даты у позиции заказа.
func (f DateField) Of(item OrderItem) *time.Time {
	switch f {
	case DateFieldStatusChange:
		return item.StatusChangeDate
	case DateFieldCollectedChange:
		return item.CollectedChangeDate
	default:
		return item.OrderDate
	}
}

// ErrInvalidDateRange возвращается, если начало диапазона позже конца.
var ErrInvalidDateRange = errors.New("invalid date range: start after end")

// DateRange описывает включительный диапазон дат отчёта.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate проверяет корректность диапазона.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// Days возвращает полночи всех календарных дней диапазона в UTC, включая границы.
func (r DateRange) Days() []time.Time {
	start := DayOf(r.Start)
	end := DayOf(r.End)

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains сообщает, попадает ли момент t в диапазон с учётом дневной точности границ.
func (r DateRange) Contains(t time.Time) bool {
	day := DayOf(t)
	return !day.Before(DayOf(r.Start)) && !day.After(DayOf(r.End))
}

// DayOf обрезает момент времени до полуночи календарного дня в UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayBucket содержит агрегат за один календарный день.
type DayBucket struct {
	Date    time.Time
	Count   int
	Revenue decimal.Decimal
}

// StatusGroup содержит позиции заказов одного статуса.
type StatusGroup struct {
	Status OrderStatus
	Items  []OrderItem
}

// RevenueEstimation содержит оценку месячной выручки аккаунта.
type RevenueEstimation struct {
	AccountID int64
	Month     time.Time
	Amount    decimal.Decimal
}

// storeNames сопоставляет идентификаторы магазинов Bling с их названиями.
var storeNames = map[int64]string{
	204219105: "Shein",
	203737982: "Shopee",
	203467890: "Simplo 7",
	204061683: "Mercado Livre",
}

// StoreName возвращает название магазина по его идентификатору в Bling.
func StoreName(storeID int64) (string, bool) {
	name, ok := storeNames[storeID]
	return name, ok
}
