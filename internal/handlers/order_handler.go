package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/summer-camp-school/camp-service/internal/payment"
	"github.com/summer-camp-school/camp-service/internal/services"
	"github.com/summer-camp-school/camp-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type OrderHandler struct {
	BaseHandler
	orderService  services.OrderService
	reportService services.ReportService
}

func NewOrderHandler(orderService services.OrderService, reportService services.ReportService, logger utils.Logger) *OrderHandler {
	return &OrderHandler{
		BaseHandler:   NewBaseHandler(logger),
		orderService:  orderService,
		reportService: reportService,
	}
}

// Initiate opens a checkout for the course in the path
// @Router /order/{id} [post]
func (h *OrderHandler) Initiate(c *gin.Context) {
	courseID := c.Param("id")
	h.LogRequest(c, "Initiating order", "course_id", courseID)

	var req services.InitiateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.Initiate(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentSuccess is called by the gateway once the buyer has paid
// @Router /payment/success/{tranId} [post]
func (h *OrderHandler) PaymentSuccess(c *gin.Context) {
	redirect, err := h.orderService.HandleSuccess(c.Request.Context(), c.Param("tranId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, redirect)
}

// PaymentFailed is called by the gateway when payment fails or is cancelled
// @Router /payment/failed/{tranId} [post]
func (h *OrderHandler) PaymentFailed(c *gin.Context) {
	redirect, err := h.orderService.HandleFailure(c.Request.Context(), c.Param("tranId"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, redirect)
}

// PaymentNotification is the gateway's server-to-server IPN. It is sent for
// every outcome, so the posted status decides the transition.
// @Router /payment/ipn [post]
func (h *OrderHandler) PaymentNotification(c *gin.Context) {
	var n payment.Notification
	if err := c.ShouldBindWith(&n, binding.Form); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid notification payload", err.Error())
		return
	}

	if err := h.orderService.HandleNotification(c.Request.Context(), n); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "tranId": n.TranID, "paid": n.Paid()})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ExportOrders streams every order as an xlsx workbook
// @Router /orders/export [get]
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reportService.ExportOrders(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
