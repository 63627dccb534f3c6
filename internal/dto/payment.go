package dto

import "capebiz_backend/internal/models"

// InitiatePaymentResponse carries everything the client needs to redirect the
// user to the gateway: the endpoint and the signed form fields.
type InitiatePaymentResponse struct {
	PaymentID  uint              `json:"payment_id"`
	ProcessURL string            `json:"process_url"`
	Payload    map[string]string `json:"payload"`
}

type PaymentResponse struct {
	ID                   uint    `json:"id"`
	BusinessID           uint    `json:"business_id"`
	Amount               float64 `json:"amount"`
	Currency             string  `json:"currency"`
	PaymentType          string  `json:"payment_type"`
	Status               string  `json:"status"`
	MerchantReference    string  `json:"merchant_reference"`
	GatewayTransactionID string  `json:"gateway_transaction_id,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

func ToPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                   p.ID,
		BusinessID:           p.BusinessID,
		Amount:               p.Amount,
		Currency:             p.Currency,
		PaymentType:          string(p.PaymentType),
		Status:               string(p.Status),
		MerchantReference:    p.MerchantReference,
		GatewayTransactionID: p.GatewayTransactionID,
		CreatedAt:            p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

type PaymentHistoryQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}
