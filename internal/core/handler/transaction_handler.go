package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/gateway"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/logger"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/models"
	"github.com/HilaMasturov/banking-system-home-assignment-sub000/internal/core/usecase"
)

type TransactionHandler struct {
	usecase usecase.TransactionUsecase
	log     logger.Logger
}

func NewTransactionHandler(usecase usecase.TransactionUsecase, log logger.Logger) *TransactionHandler {
	return &TransactionHandler{usecase: usecase, log: log}
}

var currencyRegexp = regexp.MustCompile(`^[A-Z]{3}$`)

type depositRequest struct {
	AccountID   uuid.UUID       `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type transferRequest struct {
	FromAccountID uuid.UUID       `json:"fromAccountId"`
	ToAccountID   uuid.UUID       `json:"toAccountId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
}

// errorResponse - единый конверт ошибок API
type errorResponse struct {
	Message   string `json:"message"`
	Error     string `json:"error"`
	Status    int    `json:"status"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/transactions/deposit", h.Deposit).Methods("POST")
	router.HandleFunc("/api/v1/transactions/withdraw", h.Withdraw).Methods("POST")
	router.HandleFunc("/api/v1/transactions/transfer", h.Transfer).Methods("POST")
	router.HandleFunc("/api/v1/transactions/account/{accountId}", h.GetHistory).Methods("GET")
	router.HandleFunc("/api/v1/transactions/{transactionId}", h.GetByID).Methods("GET")
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validateAmountAndCurrency(req.Amount, req.Currency); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountID == uuid.Nil {
		h.respondWithError(w, r, http.StatusBadRequest, "accountId is required")
		return
	}

	transaction, err := h.usecase.Deposit(r.Context(), req.AccountID, req.Amount, req.Currency, req.Description)
	if err != nil {
		h.handleOperationError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validateAmountAndCurrency(req.Amount, req.Currency); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.AccountID == uuid.Nil {
		h.respondWithError(w, r, http.StatusBadRequest, "accountId is required")
		return
	}

	transaction, err := h.usecase.Withdraw(r.Context(), req.AccountID, req.Amount, req.Currency, req.Description)
	if err != nil {
		h.handleOperationError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := h.decodeRequest(w, r, &req); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validateAmountAndCurrency(req.Amount, req.Currency); err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.FromAccountID == uuid.Nil || req.ToAccountID == uuid.Nil {
		h.respondWithError(w, r, http.StatusBadRequest, "fromAccountId and toAccountId are required")
		return
	}

	transaction, err := h.usecase.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, req.Amount, req.Currency, req.Description)
	if err != nil {
		h.handleOperationError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, transaction)
}

func (h *TransactionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["transactionId"])
	if err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, "invalid transaction id")
		return
	}

	transaction, err := h.usecase.GetByID(r.Context(), id)
	if err != nil {
		h.handleOperationError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(mux.Vars(r)["accountId"])
	if err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, "invalid account id")
		return
	}

	page, err := h.parsePageRequest(r)
	if err != nil {
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.usecase.ListByAccount(r.Context(), accountID, page)
	if err != nil {
		h.handleOperationError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, result)
}

func (h *TransactionHandler) decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Warn("Failed to decode request body", logger.ErrorField("error", err))
		return fmt.Errorf("invalid request payload")
	}
	return nil
}

func (h *TransactionHandler) validateAmountAndCurrency(amount decimal.Decimal, currency string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if !currencyRegexp.MatchString(strings.ToUpper(currency)) {
		return fmt.Errorf("invalid currency code: %s", currency)
	}
	return nil
}

// parsePageRequest reads page/size/sortBy/sortDirection query params.
// Unparsable numbers are rejected; out-of-range values are coerced to
// defaults by PageRequest.Normalize.
func (h *TransactionHandler) parsePageRequest(r *http.Request) (models.PageRequest, error) {
	page := models.PageRequest{
		SortBy:        r.URL.Query().Get("sortBy"),
		SortDirection: strings.ToLower(r.URL.Query().Get("sortDirection")),
	}

	if value := r.URL.Query().Get("page"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return models.PageRequest{}, fmt.Errorf("invalid page value: %s", value)
		}
		page.Page = parsed
	}

	if value := r.URL.Query().Get("size"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return models.PageRequest{}, fmt.Errorf("invalid size value: %s", value)
		}
		page.Size = parsed
	}

	return page.Normalize(), nil
}

func (h *TransactionHandler) handleOperationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidAmount),
		errors.Is(err, usecase.ErrSameAccountTransfer),
		errors.Is(err, usecase.ErrInsufficientFunds):
		h.log.Warn("Transaction rejected", logger.ErrorField("error", err))
		h.respondWithError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrAccountNotFound), errors.Is(err, gateway.ErrAccountNotFound):
		h.log.Warn("Account not found", logger.ErrorField("error", err))
		h.respondWithError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, usecase.ErrTransactionNotFound):
		h.respondWithError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, gateway.ErrServiceUnavailable):
		h.log.Error("Account service unreachable", logger.ErrorField("error", err))
		h.respondWithError(w, r, http.StatusServiceUnavailable, "Account Service is unavailable")
	case errors.Is(err, gateway.ErrAccountService):
		h.log.Error("Account service call failed", logger.ErrorField("error", err))
		h.respondWithError(w, r, http.StatusServiceUnavailable, "Account Service request failed")
	default:
		h.log.Error("Failed to process transaction", logger.ErrorField("error", err))
		h.respondWithError(w, r, http.StatusInternalServerError, "Failed to process transaction")
	}
}

func (h *TransactionHandler) respondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	h.respondWithJSON(w, code, errorResponse{
		Message:   message,
		Error:     http.StatusText(code),
		Status:    code,
		Path:      r.URL.Path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *TransactionHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Internal Server Error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
