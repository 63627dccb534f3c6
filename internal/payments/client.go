package payments

import (
	"fmt"
)

const (
	sandboxProcessURL = "https://sandbox.payfast.co.za/eng/process"
	liveProcessURL    = "https://www.payfast.co.za/eng/process"
)

// Config holds the merchant credentials. It is filled from the application
// config at startup and passed in explicitly; there is no package-level state.
type Config struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	Sandbox     bool
}

// Client builds signed payment payloads and verifies inbound callbacks for
// one merchant account. It performs no network I/O; submitting the payload
// to the gateway is the caller's concern.
type Client struct {
	merchantID  string
	merchantKey string
	passphrase  string
	processURL  string
}

func NewClient(cfg Config) *Client {
	processURL := liveProcessURL
	if cfg.Sandbox {
		processURL = sandboxProcessURL
	}
	return &Client{
		merchantID:  cfg.MerchantID,
		merchantKey: cfg.MerchantKey,
		passphrase:  cfg.Passphrase,
		processURL:  processURL,
	}
}

// ProcessURL is the gateway endpoint the signed payload should be posted to.
func (c *Client) ProcessURL() string {
	return c.processURL
}

// PaymentRequest describes one outbound payment initiation.
type PaymentRequest struct {
	Amount       float64
	ItemName     string
	ReturnURL    string
	CancelURL    string
	NotifyURL    string
	EmailAddress string // optional
	CustomStr1   string // optional, carried back verbatim in callbacks
	CustomStr2   string // optional
}

// BuildPaymentRequest assembles the signed field set for the gateway.
// Optional fields are omitted when absent; empty values never enter the
// signed set. The returned map includes the signature field and is ready
// for redirect/submission.
func (c *Client) BuildPaymentRequest(req PaymentRequest) map[string]string {
	data := map[string]string{
		"merchant_id":  c.merchantID,
		"merchant_key": c.merchantKey,
		"return_url":   req.ReturnURL,
		"cancel_url":   req.CancelURL,
		"notify_url":   req.NotifyURL,
		"amount":       fmt.Sprintf("%.2f", req.Amount),
		"item_name":    req.ItemName,
	}

	if req.EmailAddress != "" {
		data["email_address"] = req.EmailAddress
	}
	if req.CustomStr1 != "" {
		data["custom_str1"] = req.CustomStr1
	}
	if req.CustomStr2 != "" {
		data["custom_str2"] = req.CustomStr2
	}

	data["signature"] = Sign(data, c.passphrase)
	return data
}

// VerifyCallback checks the signature of an inbound success/notify payload.
func (c *Client) VerifyCallback(params map[string]string) bool {
	return Verify(params, c.passphrase)
}
