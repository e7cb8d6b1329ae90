// Package webhook delivers alerts to outgoing webhooks.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"golang.org/x/sync/errgroup"

	"github.com/agentroi/runrate/pkg/domain/alert"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second

	// SignatureHeader carries the HMAC-SHA256 of the body when the endpoint has a secret.
	SignatureHeader = "X-Runrate-Signature"
)

// Notifier sends alert batches to every matching webhook endpoint.
type Notifier struct {
	endpoints  []alert.WebhookEndpoint
	client     *http.Client
	deadLetter *DeadLetterStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewNotifier creates a notifier with the given endpoints and dead letter store.
func NewNotifier(endpoints []alert.WebhookEndpoint, deadLetter *DeadLetterStore, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		endpoints: endpoints,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		deadLetter: deadLetter,
		logger:     logger,
		now:        time.Now,
	}
}

// Payload is the JSON body sent to webhook endpoints.
type Payload struct {
	EventType string        `json:"event_type"`
	Timestamp time.Time     `json:"timestamp"`
	Alerts    []alert.Alert `json:"alerts"`
}

// Notify posts the alerts each enabled endpoint accepts, one request per
// endpoint, in parallel. Deliveries that exhaust their retries are written to
// the dead letter store and reported in the returned error.
func (n *Notifier) Notify(ctx context.Context, alerts []alert.Alert) error {
	var (
		g        errgroup.Group
		failures = make([]error, len(n.endpoints))
	)
	for i, ep := range n.endpoints {
		if !ep.Enabled {
			continue
		}
		batch := filter(ep, alerts)
		if len(batch) == 0 {
			continue
		}
		body, err := json.Marshal(Payload{EventType: "alerts", Timestamp: n.now().UTC(), Alerts: batch})
		if err != nil {
			return fmt.Errorf("marshal alert payload: %w", err)
		}

		i, ep := i, ep
		g.Go(func() error {
			failures[i] = n.deliver(ctx, ep, batch, body)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(failures...)
}

func filter(ep alert.WebhookEndpoint, alerts []alert.Alert) []alert.Alert {
	var out []alert.Alert
	for _, a := range alerts {
		if ep.Accepts(a) {
			out = append(out, a)
		}
	}
	return out
}

func (n *Notifier) deliver(ctx context.Context, ep alert.WebhookEndpoint, batch []alert.Alert, body []byte) error {
	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := ep.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	r := retry.New[struct{}](retry.Config{
		MaxAttempts:   maxRetries,
		InitialDelay:  retryDelay,
		BackoffPolicy: retry.BackoffExponential,
	})
	_, err := r.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, n.send(ctx, ep, body)
	})
	if err == nil {
		n.logger.Debug("delivered alerts", "webhook", ep.Name, "count", len(batch))
		return nil
	}

	n.logger.Warn("webhook delivery failed", "webhook", ep.Name, "attempts", maxRetries, "error", err)
	if n.deadLetter != nil {
		keys := make([]string, 0, len(batch))
		for _, a := range batch {
			keys = append(keys, a.Key)
		}
		dl := alert.DeadLetter{
			Timestamp:   n.now().UTC(),
			WebhookName: ep.Name,
			URL:         ep.URL,
			AlertKey:    strings.Join(keys, ","),
			Payload:     string(body),
			Error:       err.Error(),
			Attempts:    maxRetries,
		}
		if dlErr := n.deadLetter.Append(dl); dlErr != nil {
			n.logger.Error("failed to write dead letter", "webhook", ep.Name, "error", dlErr)
		}
	}
	return fmt.Errorf("webhook %s: %w", ep.Name, err)
}

func (n *Notifier) send(ctx context.Context, ep alert.WebhookEndpoint, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Runrate-Webhook/1.0")

	if ep.Secret != "" {
		req.Header.Set(SignatureHeader, sign(body, ep.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// sign computes HMAC-SHA256 of the payload using the secret.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
