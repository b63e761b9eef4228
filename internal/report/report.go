// Package report реализует агрегацию позиций заказов для отчётов дашборда.
// Все функции пакета чистые: без побочных эффектов и ввода-вывода.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/purchasefast/blingboard/internal/model"
)

// GroupByStatus разбивает позиции заказов по статусам.
// В результате присутствуют все статусы, включая пустые, чтобы отчёт мог
// показать ноль вместо пропуска. Каждая позиция попадает ровно в одну группу,
// порядок внутри группы совпадает с порядком входа.
func GroupByStatus(items []model.OrderItem) []model.StatusGroup {
	statuses := model.AllStatuses()

	index := make(map[model.OrderStatus]int, len(statuses))
	groups := make([]model.StatusGroup, len(statuses))
	for i, s := range statuses {
		index[s] = i
		groups[i] = model.StatusGroup{Status: s, Items: []model.OrderItem{}}
	}

	for _, item := range items {
		i, ok := index[item.Status]
		if !ok {
			continue
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	return groups
}

// DailyQuantities считает количество позиций на каждый календарный день
// диапазона по выбранному полю даты. Дни без позиций присутствуют с нулём,
// позиции без даты в серию не попадают. Границы диапазона включительны.
func DailyQuantities(items []model.OrderItem, r model.DateRange, field model.DateField) ([]model.DayBucket, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	days := r.Days()
	index := make(map[int64]int, len(days))
	buckets := make([]model.DayBucket, len(days))
	for i, d := range days {
		index[d.Unix()] = i
		buckets[i] = model.DayBucket{Date: d, Revenue: decimal.Zero}
	}

	for _, item := range items {
		t := field.Of(item)
		if t == nil {
			continue
		}
		if i, ok := index[model.DayOf(*t).Unix()]; ok {
			buckets[i].Count++
		}
	}

	return buckets, nil
}

// DailyRevenue суммирует стоимость оплаченных позиций по календарным дням
// диапазона. Суммирование ведётся в точной десятичной арифметике, в серию
// попадают только позиции со статусом PAID и заполненной датой заказа.
func DailyRevenue(items []model.OrderItem, r model.DateRange) ([]model.DayBucket, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	days := r.Days()
	index := make(map[int64]int, len(days))
	buckets := make([]model.DayBucket, len(days))
	for i, d := range days {
		index[d.Unix()] = i
		buckets[i] = model.DayBucket{Date: d, Revenue: decimal.Zero}
	}

	for _, item := range items {
		if item.Status != model.OrderStatusPaid {
			continue
		}
		t := model.DateFieldOrder.Of(item)
		if t == nil {
			continue
		}
		if i, ok := index[model.DayOf(*t).Unix()]; ok {
			buckets[i].Count++
			buckets[i].Revenue = buckets[i].Revenue.Add(item.Value)
		}
	}

	return buckets, nil
}
