package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvy/luvy-api/internal/middleware"
	"github.com/luvy/luvy-api/internal/pkg/jwt"
)

func asUser(r *http.Request, userID uuid.UUID) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), userID, jwt.RoleUser))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestHandler_BalanceRequiresUser(t *testing.T) {
	h := NewHandler(nil)

	rr := httptest.NewRecorder()
	h.Balance(rr, httptest.NewRequest(http.MethodGet, "/balance", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_Balance(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	userID := uuid.New()

	f.mock.ExpectQuery("FROM wallets WHERE user_id = \\$1").
		WithArgs(userID).
		WillReturnRows(walletRow(userID, "200", "40", "160", "200", "0"))

	rr := httptest.NewRecorder()
	h.Balance(rr, asUser(httptest.NewRequest(http.MethodGet, "/balance", nil), userID))

	require.Equal(t, http.StatusOK, rr.Code)
	var body BalanceResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &body))
	assert.True(t, d("200").Equal(body.Total))
	assert.True(t, d("40").Equal(body.Spendable))
	assert.True(t, d("160").Equal(body.Locked))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestHandler_SpendValidation(t *testing.T) {
	h := NewHandler(nil)
	userID := uuid.New()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero amount", `{"amount":"0"}`, "amount"},
		{"three decimals", `{"amount":"1.005"}`, "amount"},
		{"unknown reference", `{"amount":"1","reference_type":"coupon"}`, "reference_type"},
		{"receipt reference", `{"amount":"1","reference_type":"receipt","reference_id":"` + uuid.NewString() + `"}`, "reference_type"},
		{"achievement reference", `{"amount":"1","reference_type":"achievement","reference_id":"` + uuid.NewString() + `"}`, "reference_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := asUser(httptest.NewRequest(http.MethodPost, "/spend", strings.NewReader(tt.body)), userID)
			h.Spend(rr, req)

			require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			env := decodeEnvelope(t, rr)
			require.NotNil(t, env.Error)
			assert.Contains(t, env.Error.Details, tt.field)
		})
	}
}

func TestHandler_SpendRejectsUnknownFields(t *testing.T) {
	h := NewHandler(nil)

	rr := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodPost, "/spend", strings.NewReader(`{"amount":"1","user_id":"x"}`)), uuid.New())
	h.Spend(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_SpendInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	userID := uuid.New()

	f.mock.ExpectBegin()
	f.mock.ExpectQuery("FROM wallets WHERE user_id = \\$1 FOR UPDATE").
		WillReturnRows(walletRow(userID, "200", "40", "160", "200", "0"))
	f.mock.ExpectRollback()

	rr := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodPost, "/spend", strings.NewReader(`{"amount":"50.00","description":"coffee"}`)), userID)
	h.Spend(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	env := decodeEnvelope(t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INSUFFICIENT_BALANCE", env.Error.Code)
}

func TestHandler_AdjustInvalidUserID(t *testing.T) {
	h := NewHandler(nil)

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/not-a-uuid/adjust", strings.NewReader(`{}`)), "userId", "not-a-uuid")
	h.Adjust(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_AdjustRejectsEarnType(t *testing.T) {
	h := NewHandler(nil)
	userID := uuid.New()

	rr := httptest.NewRecorder()
	body := `{"type":"earn","amount":"10","description":"manual"}`
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "userId", userID.String())
	h.Adjust(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	env := decodeEnvelope(t, rr)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "type")
}

func TestHandler_TransactionsReportsEffectivePage(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)
	userID := uuid.New()

	f.mock.ExpectQuery("FROM transactions").
		WithArgs(userID, defaultHistoryLimit, 0).
		WillReturnRows(sqlmock.NewRows(txCols))

	rr := httptest.NewRecorder()
	h.Transactions(rr, asUser(httptest.NewRequest(http.MethodGet, "/transactions?offset=-4", nil), userID))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Meta struct {
			Count  int `json:"count"`
			Limit  int `json:"limit"`
			Offset int `json:"offset"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, defaultHistoryLimit, body.Meta.Limit)
	assert.Equal(t, 0, body.Meta.Offset)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
