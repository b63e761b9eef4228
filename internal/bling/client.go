// Package bling предоставляет клиент для API ERP-системы Bling.
package bling

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrRefreshRejected возвращается, когда Bling отклонил обмен refresh-токена.
var ErrRefreshRejected = errors.New("bling rejected token refresh")

// Client инкапсулирует HTTP-взаимодействие с API Bling.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string

	// tokenClient выполняет обмен токена без ретраев: повторный POST может
	// израсходовать одноразовый refresh-токен.
	tokenClient *http.Client
	// findClient выполняет идемпотентные GET-запросы с ретраями.
	findClient *http.Client
}

// TokenResponse описывает успешный ответ эндпоинта обмена токенов.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// OrderVolume описывает один волюм отгрузки заказа.
type OrderVolume struct {
	Servico string `json:"servico"`
}

// OrderTransport описывает блок данных о доставке заказа.
type OrderTransport struct {
	Volumes []OrderVolume `json:"volumes"`
}

// OrderData содержит полезную нагрузку ответа по заказу.
type OrderData struct {
	Transporte OrderTransport `json:"transporte"`
}

// Order описывает ответ Bling по одному заказу.
type Order struct {
	Data OrderData `json:"data"`
}

// ShippingService возвращает название службы доставки первого волюма заказа.
func (o *Order) ShippingService() string {
	if o == nil || len(o.Data.Transporte.Volumes) == 0 {
		return ""
	}
	return o.Data.Transporte.Volumes[0].Servico
}

// NewClient создаёт клиент API Bling с учётными данными приложения.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 3
	retry.Logger = nil

	findClient := retry.StandardClient()
	findClient.Timeout = 10 * time.Second

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		findClient: findClient,
	}
}

func (c *Client) resolveBase() string {
	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return base
}

// RefreshToken обменивает refresh-токен на новую пару токенов.
// Отказ провайдера возвращается как ErrRefreshRejected, сетевые сбои — как
// обёрнутые транспортные ошибки.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("bling client not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := c.resolveBase() + "/oauth/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "1.0")
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := c.tokenClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrRefreshRejected, resp.StatusCode)
	}

	var result TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %s", ErrRefreshRejected, err)
	}

	if result.AccessToken == "" || result.ExpiresIn <= 0 {
		return nil, fmt.Errorf("%w: incomplete token response", ErrRefreshRejected)
	}

	return &result, nil
}

// FindOrder запрашивает заказ по идентификатору от имени аккаунта.
func (c *Client) FindOrder(ctx context.Context, accessToken string, orderID int64) (*Order, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("bling client not configured")
	}

	endpoint := c.resolveBase() + "/pedidos/vendas/" + strconv.FormatInt(orderID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.findClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result Order
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
