package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/gateway"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/models"
)

func newGateway(t *testing.T, handler http.Handler) (gateway.AccountGateway, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return gateway.NewHTTPAccountGateway(server.URL, 2*time.Second, zap.NewNop()), server
}

func TestAccountExists(t *testing.T) {
	accountID := uuid.New()
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, fmt.Sprintf("/accounts/%s/exists", accountID), r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"exists": true})
	}))

	exists, err := gw.AccountExists(context.Background(), accountID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAccountExistsNotFoundMapsToFalse(t *testing.T) {
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	exists, err := gw.AccountExists(context.Background(), uuid.New())
	require.NoError(t, err, "404 on the existence check is an answer, not an error")
	assert.False(t, exists)
}

func TestAccountExistsServerError(t *testing.T) {
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := gw.AccountExists(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrAccountService))
	assert.Contains(t, err.Error(), "failed to check account existence: status 500")
}

func TestAccountExistsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	gw := gateway.NewHTTPAccountGateway(server.URL, time.Second, zap.NewNop())

	_, err := gw.AccountExists(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrServiceUnavailable))
}

func TestGetAccountBalance(t *testing.T) {
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"balance": 150.50, "currency": "USD"}`)
	}))

	balance, err := gw.GetAccountBalance(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("150.50")))
}

func TestGetAccountBalanceNotFound(t *testing.T) {
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := gw.GetAccountBalance(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrAccountNotFound))
}

func TestUpdateAccountBalance(t *testing.T) {
	accountID := uuid.New()
	var gotBody map[string]decimal.Decimal
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, fmt.Sprintf("/accounts/%s/balance", accountID), r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))

	err := gw.UpdateAccountBalance(context.Background(), accountID, decimal.RequireFromString("700.00"))
	require.NoError(t, err)
	assert.True(t, gotBody["balance"].Equal(decimal.RequireFromString("700.00")))
}

func TestUpdateAccountBalanceFailure(t *testing.T) {
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := gw.UpdateAccountBalance(context.Background(), uuid.New(), decimal.NewFromInt(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, gateway.ErrAccountService))
}

func TestGetAccount(t *testing.T) {
	accountID := uuid.New()
	gw, _ := newGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/accounts/%s", accountID), r.URL.Path)
		json.NewEncoder(w).Encode(models.Account{
			AccountID: accountID,
			Balance:   decimal.RequireFromString("42.00"),
			Currency:  "EUR",
			Status:    models.AccountActive,
		})
	}))

	account, err := gw.GetAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, accountID, account.AccountID)
	assert.Equal(t, "EUR", account.Currency)
	assert.Equal(t, models.AccountActive, account.Status)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("42.00")))
}
