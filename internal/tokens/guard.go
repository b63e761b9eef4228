// Package tokens реализует контроль срока действия OAuth-токенов Bling.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/purchasefast/blingboard/internal/bling"
	"github.com/purchasefast/blingboard/internal/model"
)

// CredentialStore описывает контракт хранилища учётных данных.
type CredentialStore interface {
	GetCredential(ctx context.Context, accountID int64) (*model.Credential, error)
	UpdateCredential(ctx context.Context, cred *model.Credential) error
}

// TokenExchanger описывает контракт обмена refresh-токена.
type TokenExchanger interface {
	RefreshToken(ctx context.Context, refreshToken string) (*bling.TokenResponse, error)
}

// Guard следит за свежестью учётных данных аккаунта перед обращениями к Bling.
type Guard struct {
	store     CredentialStore
	exchanger TokenExchanger

	// forceRefresh обновляет токен даже при неистёкшем сроке действия.
	forceRefresh bool

	// group сериализует обновления по аккаунту: параллельные запросы одного
	// аккаунта выполняют один обмен вместо гонки за refresh-токен.
	group singleflight.Group

	now func() time.Time
}

// NewGuard создаёт Guard над указанным хранилищем и клиентом обмена токенов.
func NewGuard(store CredentialStore, exchanger TokenExchanger, forceRefresh bool) *Guard {
	return &Guard{
		store:        store,
		exchanger:    exchanger,
		forceRefresh: forceRefresh,
		now:          time.Now,
	}
}

// EnsureFresh гарантирует пригодность токена аккаунта перед запросом к Bling.
// Отсутствие учётных данных не является ошибкой: обновлять нечего. Ошибки
// обмена возвращаются вызывающему, который сам решает, продолжать ли работу
// со старым токеном.
func (g *Guard) EnsureFresh(ctx context.Context, accountID int64) error {
	cred, err := g.store.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNoCredential) {
			return nil
		}
		return fmt.Errorf("load credential: %w", err)
	}

	if g.usable(cred) {
		return nil
	}

	key := strconv.FormatInt(accountID, 10)
	_, err, _ = g.group.Do(key, func() (interface{}, error) {
		return nil, g.refresh(ctx, accountID)
	})
	return err
}

func (g *Guard) usable(cred *model.Credential) bool {
	if g.forceRefresh {
		return false
	}
	return cred.ExpiresAt != nil && cred.ExpiresAt.After(g.now())
}

func (g *Guard) refresh(ctx context.Context, accountID int64) error {
	// Перечитываем запись внутри singleflight: параллельный запрос мог уже
	// успешно обновить токен.
	cred, err := g.store.GetCredential(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNoCredential) {
			return nil
		}
		return fmt.Errorf("load credential: %w", err)
	}
	if g.usable(cred) {
		return nil
	}

	resp, err := g.exchanger.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		return fmt.Errorf("refresh token exchange: %w", err)
	}

	expiresAt := g.now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	updated := &model.Credential{
		AccountID:    accountID,
		AccessToken:  resp.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    resp.TokenType,
		Scope:        resp.Scope,
		ExpiresAt:    &expiresAt,
	}
	if resp.RefreshToken != "" {
		updated.RefreshToken = resp.RefreshToken
	}

	if err := g.store.UpdateCredential(ctx, updated); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}

	return nil
}
