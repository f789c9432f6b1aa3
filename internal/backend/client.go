package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/config"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
	"github.com/posfin/pos-engine/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("backend base url is required")
	errLoggerRequired  = errors.New("backend logger is required")
)

// Client is the REST client for the POS backend. Its responses are ground
// truth only at the instant they are read; the engine never caches them
// across mutations.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient validates the configuration and builds the backend client.
func NewClient(cfg config.BackendConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.APIToken),
		http:    &http.Client{Timeout: timeout},
		logger:  logg,
	}, nil
}

// CurrentStock returns the available quantity for a product right now.
// Every quantity-affecting cart mutation re-reads through here; the value is
// advisory by the time it is used.
func (c *Client) CurrentStock(ctx context.Context, productID uuid.UUID) (int, error) {
	var out stockResponse
	path := fmt.Sprintf("/products/%s/stock", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Quantity, nil
}

// ListProducts returns the catalog, optionally filtered.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := url.Values{}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}
	if filter.SupplierID != uuid.Nil {
		query.Set("supplier_id", filter.SupplierID.String())
	}
	if filter.ActiveOnly {
		query.Set("status", "active")
	}
	path := "/products"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out []Product
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchDraft returns the backend-held draft lines for a workspace.
func (c *Client) FetchDraft(ctx context.Context, workspaceID uuid.UUID) ([]DraftLine, error) {
	var out []DraftLine
	path := fmt.Sprintf("/workspaces/%s/draft", workspaceID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveDraftOrder persists the cart as the workspace draft with replace-all
// semantics: the previous draft is deleted first, so backend-side lines not
// present in the cart do not survive a save.
func (c *Client) SaveDraftOrder(ctx context.Context, workspaceID uuid.UUID, lines []DraftLine) error {
	if err := c.ClearDraft(ctx, workspaceID); err != nil {
		return err
	}
	path := fmt.Sprintf("/workspaces/%s/draft", workspaceID)
	return c.do(ctx, http.MethodPost, path, draftRequest{Lines: lines}, nil)
}

// ClearDraft deletes the workspace draft.
func (c *Client) ClearDraft(ctx context.Context, workspaceID uuid.UUID) error {
	path := fmt.Sprintf("/workspaces/%s/draft", workspaceID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// RequestSettlement marks the workspace as awaiting its check.
func (c *Client) RequestSettlement(ctx context.Context, workspaceID uuid.UUID, requested bool) error {
	path := fmt.Sprintf("/workspaces/%s/settlement", workspaceID)
	return c.do(ctx, http.MethodPatch, path, settlementRequest{Requested: requested}, nil)
}

// FinalizeSale closes out the workspace sale with the chosen payment.
func (c *Client) FinalizeSale(ctx context.Context, workspaceID, paymentMethodID uuid.UUID, amount decimal.Decimal) (uuid.UUID, error) {
	var out finalizeResponse
	path := fmt.Sprintf("/workspaces/%s/finalize", workspaceID)
	err := c.do(ctx, http.MethodPost, path, finalizeRequest{PaymentMethodID: paymentMethodID, Amount: amount}, &out)
	if err != nil {
		return uuid.Nil, err
	}
	return out.SaleID, nil
}

// ConfirmPurchaseOrder submits one purchase order covering all lines.
// The backend applies it atomically; on failure nothing is persisted.
func (c *Client) ConfirmPurchaseOrder(ctx context.Context, supplierID, paymentMethodID uuid.UUID, lines []PurchaseLine) (uuid.UUID, error) {
	var out confirmResponse
	payload := confirmPurchaseRequest{
		SupplierID:      supplierID,
		PaymentMethodID: paymentMethodID,
		Lines:           lines,
	}
	if err := c.do(ctx, http.MethodPost, "/purchase-orders", payload, &out); err != nil {
		return uuid.Nil, err
	}
	return out.OrderID, nil
}

// RecordPayment registers a payment against a confirmed purchase order.
func (c *Client) RecordPayment(ctx context.Context, supplierID, orderID uuid.UUID, amount decimal.Decimal, paymentMethodID uuid.UUID) error {
	path := fmt.Sprintf("/suppliers/%s/payments", supplierID)
	payload := recordPaymentRequest{
		OrderID:         orderID,
		Amount:          amount,
		PaymentMethodID: paymentMethodID,
	}
	return c.do(ctx, http.MethodPost, path, payload, nil)
}

// LastPurchasePrice returns the most recent unit cost paid for a product, or
// nil when there is no purchase history yet.
func (c *Client) LastPurchasePrice(ctx context.Context, productID uuid.UUID) (*decimal.Decimal, error) {
	var out lastCostResponse
	path := fmt.Sprintf("/products/%s/last-cost", productID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out.Cost, nil
}

// SalesHistory returns sale rows on or after the given date.
func (c *Client) SalesHistory(ctx context.Context, since time.Time) ([]SaleRecord, error) {
	path := "/sales/history?since=" + url.QueryEscape(since.Format("2006-01-02"))
	var out []SaleRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SupplierDebts returns the outstanding-balance summary per supplier.
func (c *Client) SupplierDebts(ctx context.Context) ([]SupplierDebt, error) {
	var out []SupplierDebt
	if err := c.do(ctx, http.MethodGet, "/suppliers/debts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentMethods lists the settlement methods the backend accepts.
func (c *Client) PaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	var out []PaymentMethod
	if err := c.do(ctx, http.MethodGet, "/payment-methods", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping verifies the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backend unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode backend response")
	}
	return nil
}

// errorFromResponse surfaces the backend's own message verbatim so the user
// sees what the backend rejected, not a paraphrase.
func (c *Client) errorFromResponse(resp *http.Response) error {
	message := ""
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(raw) > 0 && json.Unmarshal(raw, &envelope) == nil {
		if envelope.Error.Message != "" {
			message = envelope.Error.Message
		} else if envelope.Message != "" {
			message = envelope.Message
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	code := pkgerrors.CodeDependency
	if resp.StatusCode == http.StatusNotFound {
		code = pkgerrors.CodeNotFound
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"status": resp.StatusCode})
}
