package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-service/internal/adapter/metrics"
	"github.com/rl1809/inventory-service/internal/adapter/storage"
	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/core/service"
	"github.com/rl1809/inventory-service/internal/port"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	store  *storage.MemoryAdapter
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryAdapter()
	reg := prometheus.NewRegistry()
	creator := service.NewCreator(
		service.NewSequenceAllocator(store),
		service.DefaultRetryPolicy(),
		metrics.NewCreatorMetrics(reg),
		zap.NewNop(),
	)
	h := NewHTTPHandler(
		service.NewItemService(store, creator, ""),
		service.NewReportService(store),
	)
	return &testServer{store: store, router: NewRouter(h, zap.NewNop(), reg)}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func validItem(name string) map[string]any {
	return map[string]any{
		"name":         name,
		"displayName":  "Display " + name,
		"tag":          "tools",
		"costPrice":    "10.50",
		"sellingPrice": "15.00",
		"volumeWeight": "1kg",
		"supplier":     "Acme",
		"quantity":     3,
		"status":       "active",
	}
}

func TestCreateItem_AssignsSequentialIDs(t *testing.T) {
	s := newTestServer(t)

	for i := 1; i <= 3; i++ {
		w, body := s.do(t, http.MethodPost, "/inventory", validItem(fmt.Sprintf("item-%d", i)))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "New Item Added Successfully", body["message"])

		data := body["data"].(map[string]any)
		assert.Equal(t, fmt.Sprintf("ID%03d", i), data["id"])
		assert.Equal(t, "10.5", data["costPrice"])
	}
}

func TestCreateItem_ZeroQuantityAccepted(t *testing.T) {
	s := newTestServer(t)

	item := validItem("empty-shelf")
	item["quantity"] = 0
	w, _ := s.do(t, http.MethodPost, "/inventory", item)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateItem_Validation(t *testing.T) {
	s := newTestServer(t)

	item := validItem("x")
	delete(item, "name")
	delete(item, "costPrice")
	item["quantity"] = -1

	w, body := s.do(t, http.MethodPost, "/inventory", item)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeValidation, body["code"])

	messages := map[string]string{}
	for _, e := range body["errors"].([]any) {
		fe := e.(map[string]any)
		messages[fe["field"].(string)] = fe["message"].(string)
	}
	assert.Equal(t, "Enter Name", messages["name"])
	assert.Equal(t, "Enter Cost Price", messages["costPrice"])
	assert.Equal(t, "Invalid Quantity", messages["quantity"])

	// nothing was allocated for a rejected request
	w, body = s.do(t, http.MethodPost, "/inventory", validItem("ok"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ID001", body["data"].(map[string]any)["id"])
}

func TestCreateItem_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/inventory", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, ErrCodeBadRequest, body["code"])
}

func TestCreateItem_RetryExhausted(t *testing.T) {
	s := newTestServer(t)
	s.store.FailNextInserts(service.DefaultMaxAttempts, port.ErrDuplicateKey)

	w, body := s.do(t, http.MethodPost, "/inventory", validItem("x"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrCodeIDExhausted, body["code"])
	assert.Equal(t, "Failed to generate unique ID after multiple attempts.", body["message"])

	// the five burned values are skipped
	w, body = s.do(t, http.MethodPost, "/inventory", validItem("y"))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ID006", body["data"].(map[string]any)["id"])
}

func TestCreateItem_StoreUnavailable(t *testing.T) {
	s := newTestServer(t)
	s.store.FailNextInserts(1, fmt.Errorf("insert: %w", port.ErrStoreUnavailable))

	w, body := s.do(t, http.MethodPost, "/inventory", validItem("x"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrCodeStoreUnavailable, body["code"])
}

func TestCreateItem_UnexpectedError(t *testing.T) {
	s := newTestServer(t)
	s.store.FailNextInserts(1, fmt.Errorf("constraint violated"))

	w, body := s.do(t, http.MethodPost, "/inventory", validItem("x"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrCodeInternal, body["code"])
}

func TestCreateItem_ContextErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"canceled", context.Canceled, StatusClientClosedRequest, ErrCodeCanceled},
		{"deadline", fmt.Errorf("insert: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ErrCodeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.store.FailNextInserts(1, tt.err)

			w, body := s.do(t, http.MethodPost, "/inventory", validItem("x"))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestItemLifecycle(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/inventory", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No items found", body["message"])

	s.do(t, http.MethodPost, "/inventory", validItem("hammer"))
	s.do(t, http.MethodPost, "/inventory", validItem("saw"))

	w, body = s.do(t, http.MethodGet, "/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["data"], 2)

	w, body = s.do(t, http.MethodGet, "/inventory/ID002", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "saw", body["data"].(map[string]any)["name"])

	update := validItem("saw-v2")
	update["quantity"] = 9
	w, body = s.do(t, http.MethodPut, "/inventory/ID002", update)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item Updated Successfully", body["message"])
	assert.Equal(t, float64(9), body["data"].(map[string]any)["quantity"])

	w, body = s.do(t, http.MethodDelete, "/inventory/ID001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item Deleted Successfully", body["message"])
	assert.Equal(t, "hammer", body["data"].(map[string]any)["name"])

	w, body = s.do(t, http.MethodGet, "/inventory/ID001", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Item with ID ID001 not found", body["message"])
}

func TestItemNotFound(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPut, "/inventory/ID404", validItem("x"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Item with ID ID404 not found", body["message"])

	w, _ = s.do(t, http.MethodDelete, "/inventory/ID404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReports(t *testing.T) {
	s := newTestServer(t)

	march := func(d int) time.Time { return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC) }
	s.store.AddSale(domain.Sale{ID: "s1", CustomerName: "Ann", ItemNames: []string{"hammer", "nails"}, TotalAmount: decimal.RequireFromString("100.25"), CreatedAt: march(2)})
	s.store.AddSale(domain.Sale{ID: "s2", TotalAmount: decimal.RequireFromString("50"), CreatedAt: march(31)})
	s.store.AddSale(domain.Sale{ID: "s3", TotalAmount: decimal.RequireFromString("999"), CreatedAt: march(31).AddDate(0, 1, 0)})
	s.store.AddExpense(domain.Expense{ID: "e1", Name: "rent", Price: decimal.RequireFromString("80"), Date: march(1)})

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report/sales?month=3&year=2024", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var sales []SaleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sales))
	require.Len(t, sales, 2)
	assert.Equal(t, "Ann", sales[0].CustomerName)
	assert.Equal(t, []string{"hammer", "nails"}, sales[0].ItemNames)
	assert.Equal(t, "N/A", sales[1].CustomerName)
	assert.Contains(t, w.Body.String(), `"itemNames":[]`)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report/expenses?month=3&year=2024", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var expenses []ExpenseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &expenses))
	require.Len(t, expenses, 1)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/report/profit?month=3&year=2024", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var profit ProfitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profit))
	assert.True(t, profit.TotalSales.Equal(decimal.RequireFromString("150.25")), profit.TotalSales.String())
	assert.True(t, profit.TotalExpenses.Equal(decimal.RequireFromString("80")))
	assert.True(t, profit.TotalProfit.Equal(decimal.RequireFromString("70.25")))
}

func TestReports_BadPeriod(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/report/profit?month=13&year=2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/report/sales?year=2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	s.do(t, http.MethodPost, "/inventory", validItem("x"))

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `inventory_id_creator_created_total{sequence="inventoryId"} 1`)
}
