package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/pkg/config"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
	"github.com/posfin/pos-engine/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("forecast base url is required")
	errLoggerRequired  = errors.New("forecast logger is required")
)

// PredictProduct is one product the prediction is asked for.
type PredictProduct struct {
	ProductID    uuid.UUID `json:"product_id"`
	CurrentStock int       `json:"current_stock"`
}

// PredictRequest carries the sales history and product set to the
// forecasting service.
type PredictRequest struct {
	History  []backend.SaleRecord `json:"history"`
	Products []PredictProduct     `json:"products"`
}

// Prediction is one product's forecast. Score is the raw priority score in
// [0, 1]; banding into levels happens on this side.
type Prediction struct {
	ProductID         uuid.UUID `json:"product_id"`
	SuggestedQuantity float64   `json:"suggested_quantity"`
	Score             float64   `json:"score"`
	Confidence        float64   `json:"confidence"`
}

// Predictor is the consumer-side view of the forecasting service.
type Predictor interface {
	Predict(ctx context.Context, req PredictRequest) ([]Prediction, error)
	Health(ctx context.Context) error
}

// Client talks to the external forecasting service. Every failure surfaces
// as a forecast-unavailable error; the engine treats the service as
// advisory and never fails a core flow over it.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient validates the configuration and builds the forecast client.
func NewClient(cfg config.ForecastConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errBaseURLRequired
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logg,
	}, nil
}

// Predict asks the forecasting service for reorder predictions.
func (c *Client) Predict(ctx context.Context, req PredictRequest) ([]Prediction, error) {
	var predictions []Prediction
	if err := c.post(ctx, "/predict", req, &predictions); err != nil {
		return nil, err
	}
	return predictions, nil
}

// Health pings the forecasting service.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeForecastUnavailable, err, "building forecast health request")
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeForecastUnavailable, err, "forecasting service is unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeForecastUnavailable, fmt.Sprintf("forecasting service is unhealthy (status %d)", resp.StatusCode))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeForecastUnavailable, err, "encoding forecast request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeForecastUnavailable, err, "building forecast request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeForecastUnavailable, err, "forecasting service is unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeForecastUnavailable, fmt.Sprintf("forecasting service returned status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeForecastUnavailable, err, "decoding forecast response")
	}
	return nil
}
