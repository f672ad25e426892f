package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/logger"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/models"
)

var (
	// ErrAccountNotFound - сервис счетов вернул 404 на чтение баланса или счёта
	ErrAccountNotFound = errors.New("account not found")
	// ErrServiceUnavailable - сервис счетов недоступен на транспортном уровне
	ErrServiceUnavailable = errors.New("account service is unavailable")
	// ErrAccountService covers every other non-success response.
	ErrAccountService = errors.New("account service request failed")
)

// AccountGateway is the client abstraction over the remote account service.
// It is a pure translation layer: protocol and error-code mapping only, no
// business rules and no caching of balances across calls.
type AccountGateway interface {
	AccountExists(ctx context.Context, accountID uuid.UUID) (bool, error)
	GetAccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	UpdateAccountBalance(ctx context.Context, accountID uuid.UUID, newBalance decimal.Decimal) error
	GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
}

type httpAccountGateway struct {
	baseURL string
	client  *http.Client
	log     logger.Logger
}

func NewHTTPAccountGateway(baseURL string, timeout time.Duration, log logger.Logger) AccountGateway {
	return &httpAccountGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type existsResponse struct {
	Exists bool `json:"exists"`
}

type balanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

type balanceUpdateRequest struct {
	Balance decimal.Decimal `json:"balance"`
}

func (g *httpAccountGateway) AccountExists(ctx context.Context, accountID uuid.UUID) (bool, error) {
	resp, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/accounts/%s/exists", accountID), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body existsResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return false, fmt.Errorf("%w: failed to check account existence: %v", ErrAccountService, err)
		}
		return body.Exists, nil
	default:
		return false, fmt.Errorf("%w: failed to check account existence: status %d", ErrAccountService, resp.StatusCode)
	}
}

func (g *httpAccountGateway) GetAccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	resp, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/accounts/%s/balance", accountID), nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var body balanceResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return decimal.Zero, fmt.Errorf("%w: failed to read account balance: %v", ErrAccountService, err)
		}
		return body.Balance, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: failed to read account balance: status %d", ErrAccountService, resp.StatusCode)
	}
}

func (g *httpAccountGateway) UpdateAccountBalance(ctx context.Context, accountID uuid.UUID, newBalance decimal.Decimal) error {
	payload, err := json.Marshal(balanceUpdateRequest{Balance: newBalance})
	if err != nil {
		return fmt.Errorf("marshal balance update: %w", err)
	}

	resp, err := g.do(ctx, http.MethodPut, fmt.Sprintf("/accounts/%s/balance", accountID), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("%w: failed to update account balance: status %d", ErrAccountService, resp.StatusCode)
	}
}

func (g *httpAccountGateway) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	resp, err := g.do(ctx, http.MethodGet, fmt.Sprintf("/accounts/%s", accountID), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var account models.Account
		if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
			return nil, fmt.Errorf("%w: failed to read account: %v", ErrAccountService, err)
		}
		return &account, nil
	default:
		return nil, fmt.Errorf("%w: failed to read account: status %d", ErrAccountService, resp.StatusCode)
	}
}

func (g *httpAccountGateway) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build account service request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("Account service unreachable",
			logger.StringField("method", method),
			logger.StringField("path", path),
			logger.ErrorField("error", err),
		)
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	return resp, nil
}
