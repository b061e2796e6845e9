package remote

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/robalyx/hivesync/internal/setup/config"
	"go.uber.org/zap"
)

// ReputationClient looks up account reputation scores.
type ReputationClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewReputationClient creates a reputation client from configuration.
func NewReputationClient(cfg *config.Reputation, logger *zap.Logger) *ReputationClient {
	return &ReputationClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Millisecond},
		logger:   logger.Named("reputation_client"),
	}
}

// Lookup returns the raw reputation score for an account.
// The response is a bare number; a numeric string is tolerated.
func (c *ReputationClient) Lookup(ctx context.Context, account string) (float64, error) {
	requestURL := c.endpoint + "/" + url.PathEscape(account)

	body, err := get(ctx, c.client, requestURL)
	if err != nil {
		return 0, err
	}

	score, err := DecodeScore(body)
	if err != nil {
		return 0, err
	}

	c.logger.Debug("Fetched reputation",
		zap.String("account", account),
		zap.Float64("score", score))

	return score, nil
}

// DecodeScore decodes a bare number or a numeric string.
// The score must be finite and fit in an int64 once rounded.
func DecodeScore(body []byte) (float64, error) {
	var value any
	if err := sonic.Unmarshal(body, &value); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	var score float64
	switch v := value.(type) {
	case float64:
		score = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: non-numeric score %q", ErrMalformedPayload, v)
		}
		score = parsed
	default:
		return 0, fmt.Errorf("%w: unexpected score type %T", ErrMalformedPayload, value)
	}

	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("%w: non-finite score %v", ErrMalformedPayload, score)
	}

	if rounded := math.Round(score); rounded < math.MinInt64 || rounded >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: score %v out of range", ErrMalformedPayload, score)
	}

	return score, nil
}
