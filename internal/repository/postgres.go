// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/purchasefast/blingboard/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		// Если ошибка контекста — выходим сразу
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetCredential возвращает учётные данные Bling указанного аккаунта.
func (r *PostgresRepository) GetCredential(ctx context.Context, accountID int64) (*model.Credential, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT account_id, access_token, refresh_token, token_type, scope, expires_at
		 FROM bling_credentials
		 WHERE account_id = $1`,
		accountID,
	)

	var c model.Credential
	err := row.Scan(&c.AccountID, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Scope, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNoCredential
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}

	return &c, nil
}

// UpdateCredential атомарно перезаписывает токены аккаунта одним UPDATE.
// Частичное обновление записи невозможно: либо записываются все поля, либо ни одно.
func (r *PostgresRepository) UpdateCredential(ctx context.Context, cred *model.Credential) error {
	return r.withRetry(ctx, func() error {
		cmdTag, err := r.pool.Exec(ctx,
			`UPDATE bling_credentials
			 SET access_token = $2,
			     refresh_token = $3,
			     token_type = $4,
			     scope = $5,
			     expires_at = $6,
			     updated_at = now()
			 WHERE account_id = $1`,
			cred.AccountID, cred.AccessToken, cred.RefreshToken, cred.TokenType, cred.Scope, cred.ExpiresAt,
		)
		if err != nil {
			return fmt.Errorf("update credential: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return model.ErrNoCredential
		}
		return nil
	})
}

// OrderItemFilter описывает условия выборки позиций заказов.
// Диапазон дат применяется к полю DateField; nil-диапазон означает выборку без
// ограничения по датам.
type OrderItemFilter struct {
	Statuses  []model.OrderStatus
	DateField model.DateField
	Range     *model.DateRange
}

func dateColumn(f model.DateField) string {
	switch f {
	case model.DateFieldStatusChange:
		return "status_change_date"
	case model.DateFieldCollectedChange:
		return "collected_change_date"
	default:
		return "order_date"
	}
}

// ListOrderItems возвращает позиции заказов аккаунта по указанному фильтру.
func (r *PostgresRepository) ListOrderItems(ctx context.Context, accountID int64, filter OrderItemFilter) ([]model.OrderItem, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	query := `SELECT id, account_id, status, order_date, status_change_date, collected_change_date, value::text, store_id
		 FROM bling_order_items
		 WHERE account_id = $1 AND status = ANY($2)`
	args := []any{accountID, statuses}

	if filter.Range != nil {
		col := dateColumn(filter.DateField)
		// Верхняя граница включительна с дневной точностью.
		upper := model.DayOf(filter.Range.End).AddDate(0, 0, 1)
		query += fmt.Sprintf(" AND %s >= $3 AND %s < $4", col, col)
		args = append(args, model.DayOf(filter.Range.Start), upper)
	}

	query += " ORDER BY id"

	var items []model.OrderItem
	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("select order items: %w", err)
		}
		defer rows.Close()

		items = items[:0]
		for rows.Next() {
			var (
				item     model.OrderItem
				status   string
				valueRaw string
			)
			if err := rows.Scan(&item.ID, &item.AccountID, &status,
				&item.OrderDate, &item.StatusChangeDate, &item.CollectedChangeDate,
				&valueRaw, &item.StoreID); err != nil {
				return fmt.Errorf("scan order item: %w", err)
			}

			value, err := decimal.NewFromString(valueRaw)
			if err != nil {
				return fmt.Errorf("parse value: %w", err)
			}

			item.Status = model.OrderStatus(status)
			item.Value = value
			items = append(items, item)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// CurrentRevenueEstimation возвращает оценку выручки аккаунта за месяц даты month.
// Отсутствие оценки не является ошибкой: возвращается nil.
func (r *PostgresRepository) CurrentRevenueEstimation(ctx context.Context, accountID int64, month time.Time) (*model.RevenueEstimation, error) {
	monthStart := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)

	row := r.pool.QueryRow(ctx,
		`SELECT account_id, month, amount::text
		 FROM revenue_estimations
		 WHERE account_id = $1 AND month = $2`,
		accountID, monthStart,
	)

	var (
		est       model.RevenueEstimation
		amountRaw string
	)
	err := row.Scan(&est.AccountID, &est.Month, &amountRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get revenue estimation: %w", err)
	}

	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	est.Amount = amount

	return &est, nil
}
