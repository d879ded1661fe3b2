package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcc-consulting/outreach-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertFollowupBacklog AlertType = "followup_backlog"
	AlertLowReplyRate    AlertType = "low_reply_rate"
	AlertDraftBacklog    AlertType = "draft_backlog"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Follow-ups waiting longer than the configured nudge window.
	if a.cfg.FollowupBacklogMax > 0 && snap.FollowupBacklog > a.cfg.FollowupBacklogMax {
		alerts = append(alerts, Alert{
			Type:     AlertFollowupBacklog,
			Severity: "high",
			Message: fmt.Sprintf(
				"%d contacts are overdue for a follow-up (threshold %d)",
				snap.FollowupBacklog, a.cfg.FollowupBacklogMax,
			),
			Details: map[string]any{
				"backlog":   snap.FollowupBacklog,
				"threshold": a.cfg.FollowupBacklogMax,
			},
			Timestamp: now,
		})
	}

	// Reply rate only means anything once a real sample exists.
	if a.cfg.MinReplyRate > 0 && snap.TotalSent >= 20 && snap.ReplyRate < a.cfg.MinReplyRate {
		alerts = append(alerts, Alert{
			Type:     AlertLowReplyRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Reply rate %.1f%% is below %.1f%% across %d sends",
				snap.ReplyRate*100, a.cfg.MinReplyRate*100, snap.TotalSent,
			),
			Details: map[string]any{
				"reply_rate": snap.ReplyRate,
				"threshold":  a.cfg.MinReplyRate,
				"total_sent": snap.TotalSent,
			},
			Timestamp: now,
		})
	}

	// Drafts piling up means send runs are not keeping pace.
	if a.cfg.DraftBacklogMax > 0 && snap.DraftBacklog > a.cfg.DraftBacklogMax {
		alerts = append(alerts, Alert{
			Type:     AlertDraftBacklog,
			Severity: "medium",
			Message: fmt.Sprintf(
				"%d unsent drafts in the outbound dir (threshold %d)",
				snap.DraftBacklog, a.cfg.DraftBacklogMax,
			),
			Details: map[string]any{
				"backlog":   snap.DraftBacklog,
				"threshold": a.cfg.DraftBacklogMax,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
