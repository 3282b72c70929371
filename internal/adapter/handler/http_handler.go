package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/rl1809/inventory-service/internal/core/service"
	"github.com/rl1809/inventory-service/internal/port"
)

// StatusClientClosedRequest is reported when the caller went away before the
// request finished. net/http has no constant for it.
const StatusClientClosedRequest = 499

// Error codes let clients tell an exhausted id allocation apart from an
// unreachable store; both are reported as 503.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeIDExhausted      = "ID_ALLOCATION_EXHAUSTED"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeCanceled         = "REQUEST_CANCELED"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

type HTTPHandler struct {
	items   *service.ItemService
	reports *service.ReportService
}

type APIResponse struct {
	Success bool         `json:"success"`
	Code    string       `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type SaleResponse struct {
	CustomerName string          `json:"customerName"`
	ItemNames    []string        `json:"itemNames"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type ExpenseResponse struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Date  time.Time       `json:"date"`
}

type ProfitResponse struct {
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
}

func NewHTTPHandler(items *service.ItemService, reports *service.ReportService) *HTTPHandler {
	return &HTTPHandler{items: items, reports: reports}
}

func (h *HTTPHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	inventory := r.Group("/inventory")
	inventory.POST("", h.CreateItem)
	inventory.GET("", h.ListItems)
	inventory.GET("/:id", h.GetItem)
	inventory.PUT("/:id", h.UpdateItem)
	inventory.DELETE("/:id", h.DeleteItem)

	report := r.Group("/report")
	report.GET("/sales", h.TotalSales)
	report.GET("/expenses", h.TotalExpenses)
	report.GET("/profit", h.TotalProfit)
}

func (h *HTTPHandler) CreateItem(c *gin.Context) {
	var req ItemRequest
	if !bindItem(c, &req) {
		return
	}

	item, err := h.items.CreateItem(c.Request.Context(), req.Fields())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "New Item Added Successfully",
		Data:    newItemResponse(*item),
	})
}

func (h *HTTPHandler) ListItems(c *gin.Context) {
	items, err := h.items.ListItems(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	if len(items) == 0 {
		c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Code:    ErrCodeNotFound,
			Message: "No items found",
		})
		return
	}

	data := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		data = append(data, newItemResponse(item))
	}
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func (h *HTTPHandler) GetItem(c *gin.Context) {
	id := c.Param("id")

	item, err := h.items.GetItem(c.Request.Context(), id)
	if err != nil {
		h.handleItemError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{Success: true, Data: newItemResponse(*item)})
}

func (h *HTTPHandler) UpdateItem(c *gin.Context) {
	id := c.Param("id")

	var req ItemRequest
	if !bindItem(c, &req) {
		return
	}

	item, err := h.items.UpdateItem(c.Request.Context(), id, req.Fields())
	if err != nil {
		h.handleItemError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Item Updated Successfully",
		Data:    newItemResponse(*item),
	})
}

func (h *HTTPHandler) DeleteItem(c *gin.Context) {
	id := c.Param("id")

	item, err := h.items.DeleteItem(c.Request.Context(), id)
	if err != nil {
		h.handleItemError(c, id, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: "Item Deleted Successfully",
		Data:    newItemResponse(*item),
	})
}

func (h *HTTPHandler) TotalSales(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}

	sales, err := h.reports.Sales(c.Request.Context(), month, year)
	if err != nil {
		h.handleError(c, err)
		return
	}

	data := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		names := s.ItemNames
		if names == nil {
			names = []string{}
		}
		data = append(data, SaleResponse{
			CustomerName: s.CustomerName,
			ItemNames:    names,
			TotalAmount:  s.TotalAmount,
			CreatedAt:    s.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, data)
}

func (h *HTTPHandler) TotalExpenses(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}

	expenses, err := h.reports.Expenses(c.Request.Context(), month, year)
	if err != nil {
		h.handleError(c, err)
		return
	}

	data := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		data = append(data, ExpenseResponse{Name: e.Name, Price: e.Price, Date: e.Date})
	}
	c.JSON(http.StatusOK, data)
}

func (h *HTTPHandler) TotalProfit(c *gin.Context) {
	month, year, ok := monthYear(c)
	if !ok {
		return
	}

	report, err := h.reports.Profit(c.Request.Context(), month, year)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProfitResponse{
		TotalProfit:   report.Profit,
		TotalSales:    report.TotalSales,
		TotalExpenses: report.TotalExpenses,
	})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bindItem(c *gin.Context, req *ItemRequest) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	if details := fieldErrors(err); details != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Code:    ErrCodeValidation,
			Message: "Request validation failed",
			Errors:  details,
		})
		return false
	}

	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Code:    ErrCodeBadRequest,
		Message: "invalid request body",
	})
	return false
}

func monthYear(c *gin.Context) (int, int, bool) {
	month, errM := strconv.Atoi(c.Query("month"))
	year, errY := strconv.Atoi(c.Query("year"))
	if errM != nil || errY != nil {
		c.JSON(http.StatusBadRequest, APIResponse{
			Success: false,
			Code:    ErrCodeBadRequest,
			Message: "month and year query parameters are required",
		})
		return 0, 0, false
	}
	return month, year, true
}

func (h *HTTPHandler) handleItemError(c *gin.Context, id string, err error) {
	if errors.Is(err, port.ErrNotFound) {
		c.JSON(http.StatusNotFound, APIResponse{
			Success: false,
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("Item with ID %s not found", id),
		})
		return
	}
	h.handleError(c, err)
}

func (h *HTTPHandler) handleError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	resp := APIResponse{Success: false, Code: ErrCodeInternal, Message: "Server Error"}

	switch {
	case errors.Is(err, service.ErrIDAllocationExhausted):
		status = http.StatusServiceUnavailable
		resp.Code = ErrCodeIDExhausted
		resp.Message = "Failed to generate unique ID after multiple attempts."
	case errors.Is(err, port.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		resp.Code = ErrCodeStoreUnavailable
		resp.Message = "Store unavailable"
	case errors.Is(err, service.ErrInvalidPeriod):
		status = http.StatusBadRequest
		resp.Code = ErrCodeBadRequest
		resp.Message = err.Error()
	case errors.Is(err, port.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = ErrCodeNotFound
		resp.Message = "Not found"
	case errors.Is(err, context.Canceled):
		status = StatusClientClosedRequest
		resp.Code = ErrCodeCanceled
		resp.Message = "Request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		resp.Code = ErrCodeTimeout
		resp.Message = "Request timed out"
	}

	c.JSON(status, resp)
}
