package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/gateway"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/handler"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/models"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/usecase"
)

type fakeUsecase struct {
	depositFn  func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error)
	withdrawFn func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error)
	transferFn func(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error)
	getFn      func(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	listFn     func(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error)
}

func (f *fakeUsecase) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
	return f.depositFn(ctx, accountID, amount, currency, description)
}

func (f *fakeUsecase) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
	return f.withdrawFn(ctx, accountID, amount, currency, description)
}

func (f *fakeUsecase) Transfer(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
	return f.transferFn(ctx, fromAccountID, toAccountID, amount, currency, description)
}

func (f *fakeUsecase) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	return f.getFn(ctx, id)
}

func (f *fakeUsecase) ListByAccount(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error) {
	return f.listFn(ctx, accountID, page)
}

func newRouter(uc usecase.TransactionUsecase) *mux.Router {
	router := mux.NewRouter()
	handler.NewTransactionHandler(uc, zap.NewNop()).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

type errorEnvelope struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	Status    int    `json:"status"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

func TestDepositCreated(t *testing.T) {
	accountID := uuid.New()
	uc := &fakeUsecase{
		depositFn: func(ctx context.Context, gotAccount uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
			assert.Equal(t, accountID, gotAccount)
			assert.True(t, amount.Equal(decimal.RequireFromString("1000.00")))
			assert.Equal(t, "USD", currency)
			return &models.Transaction{
				ID:          uuid.New(),
				ToAccountID: &gotAccount,
				Amount:      amount,
				Currency:    currency,
				Type:        models.TransactionDeposit,
				Status:      models.StatusCompleted,
			}, nil
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodPost, "/api/v1/transactions/deposit", map[string]interface{}{
		"accountId": accountID,
		"amount":    1000.00,
		"currency":  "USD",
	})

	require.Equal(t, http.StatusCreated, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "DEPOSIT", body["type"])
	assert.Equal(t, "COMPLETED", body["status"])
	assert.Equal(t, accountID.String(), body["toAccountId"])
	assert.NotContains(t, body, "fromAccountId")
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	uc := &fakeUsecase{
		depositFn: func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
			t.Fatal("usecase must not be called for invalid payloads")
			return nil, nil
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodPost, "/api/v1/transactions/deposit", map[string]interface{}{
		"accountId": uuid.New(),
		"amount":    -5,
		"currency":  "USD",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, "amount must be positive", envelope.Message)
	assert.Equal(t, "Bad Request", envelope.Error)
	assert.Equal(t, http.StatusBadRequest, envelope.Status)
	assert.Equal(t, "/api/v1/transactions/deposit", envelope.Path)
	assert.NotEmpty(t, envelope.Timestamp)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	uc := &fakeUsecase{
		withdrawFn: func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
			return nil, fmt.Errorf("%w for withdrawal", usecase.ErrInsufficientFunds)
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodPost, "/api/v1/transactions/withdraw", map[string]interface{}{
		"accountId": uuid.New(),
		"amount":    500,
		"currency":  "USD",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, "insufficient funds for withdrawal", envelope.Message)
}

func TestTransferSameAccount(t *testing.T) {
	uc := &fakeUsecase{
		transferFn: func(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
			return nil, usecase.ErrSameAccountTransfer
		},
	}

	accountID := uuid.New()
	recorder := doJSON(t, newRouter(uc), http.MethodPost, "/api/v1/transactions/transfer", map[string]interface{}{
		"fromAccountId": accountID,
		"toAccountId":   accountID,
		"amount":        10,
		"currency":      "USD",
	})

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, "cannot transfer to the same account", envelope.Message)
}

func TestTransferAccountNotFound(t *testing.T) {
	uc := &fakeUsecase{
		transferFn: func(ctx context.Context, fromAccountID, toAccountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
			return nil, fmt.Errorf("from %w: %s", usecase.ErrAccountNotFound, fromAccountID)
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodPost, "/api/v1/transactions/transfer", map[string]interface{}{
		"fromAccountId": uuid.New(),
		"toAccountId":   uuid.New(),
		"amount":        10,
		"currency":      "USD",
	})

	require.Equal(t, http.StatusNotFound, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Contains(t, envelope.Message, "from account not found")
}

func TestDepositAccountServiceUnavailable(t *testing.T) {
	uc := &fakeUsecase{
		depositFn: func(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, currency, description string) (*models.Transaction, error) {
			return nil, fmt.Errorf("%w: connection refused", gateway.ErrServiceUnavailable)
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodPost, "/api/v1/transactions/deposit", map[string]interface{}{
		"accountId": uuid.New(),
		"amount":    10,
		"currency":  "USD",
	})

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, "Account Service is unavailable", envelope.Message)
}

func TestGetByIDNotFound(t *testing.T) {
	uc := &fakeUsecase{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
			return nil, fmt.Errorf("%w: %s", usecase.ErrTransactionNotFound, id)
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodGet, "/api/v1/transactions/"+uuid.NewString(), nil)

	require.Equal(t, http.StatusNotFound, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Contains(t, envelope.Message, "transaction not found")
}

func TestGetByIDInvalidUUID(t *testing.T) {
	uc := &fakeUsecase{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
			t.Fatal("usecase must not be called for a malformed id")
			return nil, nil
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodGet, "/api/v1/transactions/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetHistoryParsesPagination(t *testing.T) {
	accountID := uuid.New()
	var gotPage models.PageRequest
	uc := &fakeUsecase{
		listFn: func(ctx context.Context, gotAccount uuid.UUID, page models.PageRequest) (*models.TransactionPage, error) {
			assert.Equal(t, accountID, gotAccount)
			gotPage = page
			return models.NewTransactionPage(nil, 0, page), nil
		},
	}

	path := fmt.Sprintf("/api/v1/transactions/account/%s?page=2&size=5&sortBy=amount&sortDirection=ASC", accountID)
	recorder := doJSON(t, newRouter(uc), http.MethodGet, path, nil)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 2, gotPage.Page)
	assert.Equal(t, 5, gotPage.Size)
	assert.Equal(t, "amount", gotPage.SortBy)
	assert.Equal(t, models.SortAsc, gotPage.SortDirection)
}

func TestGetHistoryDefaults(t *testing.T) {
	uc := &fakeUsecase{
		listFn: func(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error) {
			assert.Equal(t, 0, page.Page)
			assert.Equal(t, models.DefaultPageSize, page.Size)
			assert.Equal(t, models.DefaultSortField, page.SortBy)
			assert.Equal(t, models.SortDesc, page.SortDirection)
			return models.NewTransactionPage(nil, 0, page), nil
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodGet, "/api/v1/transactions/account/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Contains(t, body, "content")
	assert.Contains(t, body, "totalElements")
	assert.Contains(t, body, "totalPages")
	assert.Contains(t, body, "first")
	assert.Contains(t, body, "last")
	assert.Contains(t, body, "numberOfElements")
}

func TestGetHistoryInvalidPageValue(t *testing.T) {
	uc := &fakeUsecase{
		listFn: func(ctx context.Context, accountID uuid.UUID, page models.PageRequest) (*models.TransactionPage, error) {
			t.Fatal("usecase must not be called for unparsable pagination")
			return nil, nil
		},
	}

	recorder := doJSON(t, newRouter(uc), http.MethodGet, "/api/v1/transactions/account/"+uuid.NewString()+"?page=abc", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
