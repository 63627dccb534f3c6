package handlers

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"capebiz_backend/internal/dto"
	"capebiz_backend/internal/logger"
	"capebiz_backend/internal/services"
	"capebiz_backend/pkg/apperrors"
)

type PaymentHandler struct {
	*BaseHandler
	paymentService *services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, paymentService: paymentService}
}

// Subscribe handles POST /api/v1/payments/subscribe/:businessId/:planCode.
// Returns the signed gateway payload the client submits to the process URL.
func (h *PaymentHandler) Subscribe(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	businessID, ok := h.ParamUint(c, "businessId")
	if !ok {
		return
	}

	resp, err := h.paymentService.InitiateSubscription(c.Request.Context(), userID, businessID, c.Param("planCode"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Boost handles POST /api/v1/payments/boost/:businessId.
func (h *PaymentHandler) Boost(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	businessID, ok := h.ParamUint(c, "businessId")
	if !ok {
		return
	}

	resp, err := h.paymentService.InitiateBoost(c.Request.Context(), userID, businessID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Success handles GET /api/v1/payments/success/:paymentId, the gateway's
// browser return. Signed query parameters; a bad signature leaves the
// payment pending.
func (h *PaymentHandler) Success(c *gin.Context) {
	paymentID, ok := h.ParamUint(c, "paymentId")
	if !ok {
		return
	}

	payment, err := h.paymentService.HandleSuccess(c.Request.Context(), paymentID,
		flatten(c.Request.URL.Query()), c.Request.URL.RawQuery)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeSideEffectFailed {
			// Payment committed; reconciliation pending. The user still
			// sees success.
			h.OK(c, dto.ToPaymentResponse(payment))
			return
		}
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, dto.ToPaymentResponse(payment))
}

// Cancel handles GET /api/v1/payments/cancel/:paymentId. User-initiated,
// no signature.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	paymentID, ok := h.ParamUint(c, "paymentId")
	if !ok {
		return
	}

	payment, err := h.paymentService.HandleCancel(c.Request.Context(), paymentID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, dto.ToPaymentResponse(payment))
}

// Notify handles POST /api/v1/payments/notify/:paymentId, the asynchronous
// server-to-server notification. The gateway retries on any non-2xx, so the
// response code is the protocol: 200 acknowledges (including duplicate
// deliveries and committed payments awaiting reconciliation), 4xx rejects.
func (h *PaymentHandler) Notify(c *gin.Context) {
	paymentID, ok := h.ParamUint(c, "paymentId")
	if !ok {
		return
	}

	// The body is read raw first: the audit record keeps the payload exactly
	// as the gateway sent it, not a re-encoding of the parsed form.
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	err = h.paymentService.HandleNotify(c.Request.Context(), paymentID, flatten(form), string(body))
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeSideEffectFailed {
			// The completion is committed; retrying the notify cannot fix
			// the side effect. Acknowledge so the gateway stops.
			logger.CtxError(c.Request.Context(), "notify acknowledged with pending reconciliation",
				"payment_id", paymentID, "error", err)
			c.String(http.StatusOK, "OK")
			return
		}
		apperrors.HandleError(c, err)
		return
	}
	c.String(http.StatusOK, "OK")
}

// Status handles GET /api/v1/payments/:paymentId/status.
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}
	paymentID, ok := h.ParamUint(c, "paymentId")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), userID, paymentID, h.IsAdmin(c))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, dto.ToPaymentResponse(payment))
}

// History handles GET /api/v1/payments/history.
func (h *PaymentHandler) History(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	var query dto.PaymentHistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.HandleValidationError(c, err)
		return
	}

	payments, err := h.paymentService.History(c.Request.Context(), userID, query.Page, query.PageSize)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	responses := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, dto.ToPaymentResponse(&payments[i]))
	}
	h.OK(c, responses)
}

// Refund handles POST /api/v1/admin/payments/:paymentId/refund.
func (h *PaymentHandler) Refund(c *gin.Context) {
	paymentID, ok := h.ParamUint(c, "paymentId")
	if !ok {
		return
	}

	payment, err := h.paymentService.Refund(c.Request.Context(), paymentID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	h.OK(c, dto.ToPaymentResponse(payment))
}

// flatten keeps the first value per key; the gateway never sends repeats.
func flatten(values url.Values) map[string]string {
	params := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
