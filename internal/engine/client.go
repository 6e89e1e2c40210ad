package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"telegram-content-assistant/internal/config"
	"telegram-content-assistant/internal/domain"
	"telegram-content-assistant/internal/domain/ports/adapter"
	"telegram-content-assistant/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ adapter.EngineClient = (*Client)(nil)

// Client talks to the external workflow engine: it dispatches a job to the
// kind-specific webhook and waits for the correlated callback to land in the
// registry. Dispatch only confirms the engine accepted the job; the real
// answer arrives later through the callback receiver, or never.
type Client struct {
	reg  *Registry
	cfg  config.EngineConfig
	http *http.Client
	log  *zerolog.Logger
}

func NewClient(reg *Registry, cfg config.EngineConfig, logger *zerolog.Logger) *Client {
	clLog := logger.With().Str("component", "EngineClient").Logger()
	return &Client{
		reg:  reg,
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.AcceptTimeout},
		log:  &clLog,
	}
}

// DefaultPostGoal is used when a flow produces no explicit goal.
const DefaultPostGoal = "make the reader feel something and leave a reaction"

func (c *Client) DetectNiche(ctx context.Context, description string) (string, error) {
	payload := map[string]any{
		"action":      "detect_niche",
		"description": description,
	}
	res, err := c.roundTrip(ctx, c.cfg.NicheURL, payload, KindNiche)
	if err != nil {
		return "", err
	}
	niche := strings.TrimSpace(res.Payload["niche"])
	if niche == "" {
		return "", domain.ErrExternalRejected
	}
	return niche, nil
}

func (c *Client) AdaptTopic(ctx context.Context, topic, niche string) (string, error) {
	payload := map[string]any{
		"action": "adapt_topic",
		"topic":  topic,
		"niche":  niche,
	}
	res, err := c.roundTrip(ctx, c.cfg.TopicURL, payload, KindTopic)
	if err != nil {
		return "", err
	}
	adapted := strings.TrimSpace(res.Payload["adapted_topic"])
	if adapted == "" {
		return "", domain.ErrExternalRejected
	}
	return adapted, nil
}

func (c *Client) GeneratePost(ctx context.Context, req adapter.GeneratePostRequest) (string, error) {
	goal := req.PostGoal
	if goal == "" {
		goal = DefaultPostGoal
	}
	payload := map[string]any{
		"action":      "generate_post",
		"niche":       req.Niche,
		"topic":       req.Topic,
		"question":    req.Question,
		"user_answer": req.UserAnswer,
		"post_goal":   goal,
	}
	res, err := c.roundTrip(ctx, c.cfg.PostURL, payload, KindPost)
	if err != nil {
		return "", err
	}
	post := strings.TrimSpace(res.Payload["generated_post"])
	if post == "" {
		return "", domain.ErrExternalRejected
	}
	return post, nil
}

func (c *Client) roundTrip(ctx context.Context, url string, payload map[string]any, kind Kind) (*Result, error) {
	id, err := c.dispatch(ctx, url, payload, kind)
	if err != nil {
		if id != "" {
			c.reg.Drop(id)
		}
		return nil, err
	}
	c.log.Debug().Str("request_id", id).Str("kind", string(kind)).Msg("waiting for callback")
	return c.reg.Wait(ctx, id, c.cfg.WaitTimeout)
}

// dispatch registers a pending request, augments the payload with the
// correlation id and callback address, and posts the job to the engine. A
// non-200 acceptance or transport failure marks the entry failed immediately.
func (c *Client) dispatch(ctx context.Context, url string, payload map[string]any, kind Kind) (string, error) {
	id := c.reg.Register(kind)
	payload["request_id"] = id
	payload["callback_url"] = strings.TrimSuffix(c.cfg.CallbackBaseURL, "/") + "/webhook/callback/" + string(kind)

	body, err := json.Marshal(payload)
	if err != nil {
		c.reg.Drop(id)
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.reg.Drop(id)
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Info().Str("request_id", id).Str("kind", string(kind)).Str("url", url).Msg("dispatching job to engine")
	resp, err := c.http.Do(req)
	if err != nil {
		c.reg.Fail(id)
		metrics.IncDispatch(string(kind), "error")
		return id, fmt.Errorf("%w: %v", domain.ErrDispatchFailed, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.reg.Fail(id)
		metrics.IncDispatch(string(kind), "rejected")
		c.log.Error().Str("request_id", id).Int("status", resp.StatusCode).Msg("engine rejected job")
		return id, fmt.Errorf("%w: accept status %d", domain.ErrDispatchFailed, resp.StatusCode)
	}

	metrics.IncDispatch(string(kind), "accepted")
	return id, nil
}

// StartSweeper runs the periodic registry sweep until ctx is canceled.
func StartSweeper(ctx context.Context, reg *Registry, interval, maxAge time.Duration, logger *zerolog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := reg.Sweep(maxAge); n > 0 {
					logger.Info().Int("count", n).Msg("swept stale pending requests")
				}
			}
		}
	}()
}
