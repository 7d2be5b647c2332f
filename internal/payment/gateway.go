package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/summer-camp-school/camp-service/internal/config"
)

const (
	SandboxURL = "https://sandbox.sslcommerz.com/gwprocess/v4/api.php"
	LiveURL    = "https://securepay.sslcommerz.com/gwprocess/v4/api.php"
)

// ErrGatewayRejected means the gateway answered but refused the session
var ErrGatewayRejected = errors.New("payment gateway rejected session")

// ErrGatewayUnavailable means the gateway could not be reached or answered
// with something unusable
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// SessionRequest describes one checkout attempt
type SessionRequest struct {
	TranID      string
	Amount      float64
	Currency    string
	ProductName string
	ProductID   string

	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerAddress  string
	CustomerPostcode string
	CustomerCountry  string

	SuccessURL string
	FailURL    string
	CancelURL  string
	// IPNURL receives the gateway's server-to-server status notification
	// for every outcome, paid or not.
	IPNURL string
}

// Session is the gateway's answer; RedirectURL is where the buyer goes
type Session struct {
	RedirectURL string
	SessionKey  string
}

// Notification is the IPN form the gateway posts once a session settles
type Notification struct {
	TranID string `form:"tran_id" json:"tran_id"`
	Status string `form:"status" json:"status"`
	ValID  string `form:"val_id" json:"val_id"`
	Amount string `form:"amount" json:"amount"`
}

// Paid reports whether the notification confirms a completed payment.
// FAILED, CANCELLED, EXPIRED and UNATTEMPTED are all unpaid.
func (n Notification) Paid() bool {
	switch strings.ToUpper(strings.TrimSpace(n.Status)) {
	case "VALID", "VALIDATED":
		return true
	}
	return false
}

// Gateway creates hosted checkout sessions
type Gateway interface {
	InitSession(ctx context.Context, req *SessionRequest) (*Session, error)
}

// SSLCommerz is a Gateway over the SSLCommerz v4 session API
type SSLCommerz struct {
	storeID       string
	storePassword string
	endpoint      string
	httpClient    *http.Client
}

func NewSSLCommerz(cfg config.PaymentConfig) *SSLCommerz {
	endpoint := SandboxURL
	if cfg.IsLive {
		endpoint = LiveURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SSLCommerz{
		storeID:       cfg.StoreID,
		storePassword: cfg.StorePassword,
		endpoint:      endpoint,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// WithEndpoint points the client at another base URL, used by tests
func (g *SSLCommerz) WithEndpoint(endpoint string) *SSLCommerz {
	g.endpoint = endpoint
	return g
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

func (g *SSLCommerz) InitSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	form := url.Values{}
	form.Set("store_id", g.storeID)
	form.Set("store_passwd", g.storePassword)
	form.Set("total_amount", strconv.FormatFloat(req.Amount, 'f', 2, 64))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TranID)
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	if req.IPNURL != "" {
		form.Set("ipn_url", req.IPNURL)
	}
	form.Set("shipping_method", "NO")
	form.Set("num_of_item", "1")
	form.Set("product_name", req.ProductName)
	form.Set("product_category", "course")
	form.Set("product_profile", "non-physical-goods")
	form.Set("value_a", req.ProductID)
	form.Set("cus_name", req.CustomerName)
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_add1", req.CustomerAddress)
	form.Set("cus_city", "Dhaka")
	form.Set("cus_postcode", req.CustomerPostcode)
	form.Set("cus_country", defaultString(req.CustomerCountry, "Bangladesh"))
	form.Set("cus_phone", req.CustomerPhone)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var parsed sessionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrGatewayUnavailable, err)
	}

	if !strings.EqualFold(parsed.Status, "SUCCESS") || parsed.GatewayPageURL == "" {
		reason := parsed.FailedReason
		if reason == "" {
			reason = "no redirect url"
		}
		return nil, fmt.Errorf("%w: %s", ErrGatewayRejected, reason)
	}

	return &Session{RedirectURL: parsed.GatewayPageURL, SessionKey: parsed.SessionKey}, nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
