package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sentTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outreach_sent_total",
		Help: "Total outreach emails recorded in the send ledger.",
	})
	sentToday = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "outreach_sent_today",
		Help: "Emails sent today, labeled by sending identity.",
	}, []string{"identity"})
	replyRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outreach_reply_rate",
		Help: "Fraction of sent emails that received a reply.",
	})
	followupBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outreach_followup_backlog",
		Help: "Contacts past the follow-up wait with no reply and no nudge.",
	})
	draftBacklog = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "outreach_draft_backlog",
		Help: "Draft files waiting in the outbound directory.",
	})
)

// RecordSnapshot exports a snapshot to the Prometheus registry.
func RecordSnapshot(snap *MetricsSnapshot) {
	sentTotal.Set(float64(snap.TotalSent))
	replyRate.Set(snap.ReplyRate)
	followupBacklog.Set(float64(snap.FollowupBacklog))
	draftBacklog.Set(float64(snap.DraftBacklog))

	sentToday.Reset()
	for ident, n := range snap.SentByIdentity {
		sentToday.WithLabelValues(ident).Set(float64(n))
	}
}
