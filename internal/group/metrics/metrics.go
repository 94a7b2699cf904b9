package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for group sharing operations. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	GroupsCreated       prometheus.Counter
	InvitationsIssued   prometheus.Counter
	InvitationsAccepted prometheus.Counter
	RedemptionFailures  *prometheus.CounterVec
	PermissionDenials   *prometheus.CounterVec
	NotifierFailures    prometheus.Counter
	ActivitiesCreated   prometheus.Counter
	CommentsAdded       prometheus.Counter
	ReactionsUpserted   prometheus.Counter
	OperationDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GroupsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyshare_groups_created_total",
			Help: "Total number of family groups created",
		}),
		InvitationsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyshare_invitations_issued_total",
			Help: "Total number of invitations issued",
		}),
		InvitationsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyshare_invitations_accepted_total",
			Help: "Total number of invitations redeemed",
		}),
		RedemptionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyshare_invitation_redemption_failures_total",
			Help: "Invitation redemptions rejected, by error code",
		}, []string{"reason"}),
		PermissionDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "familyshare_permission_denials_total",
			Help: "Operations rejected for a missing capability",
		}, []string{"capability"}),
		NotifierFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyshare_invitation_notifier_failures_total",
			Help: "Invitation emails that failed to send",
		}),
		ActivitiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyshare_activities_created_total",
			Help: "Total number of feed activities posted",
		}),
		CommentsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyshare_comments_added_total",
			Help: "Total number of comments added to activities",
		}),
		ReactionsUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "familyshare_reactions_upserted_total",
			Help: "Total number of reactions added or changed",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "familyshare_group_operation_duration_seconds",
			Help:    "Latency of group service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncGroupsCreated() {
	if m != nil {
		m.GroupsCreated.Inc()
	}
}

func (m *Metrics) IncInvitationsIssued() {
	if m != nil {
		m.InvitationsIssued.Inc()
	}
}

func (m *Metrics) IncInvitationsAccepted() {
	if m != nil {
		m.InvitationsAccepted.Inc()
	}
}

func (m *Metrics) IncRedemptionFailure(reason string) {
	if m != nil {
		m.RedemptionFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncPermissionDenied(capability string) {
	if m != nil {
		m.PermissionDenials.WithLabelValues(capability).Inc()
	}
}

func (m *Metrics) IncNotifierFailures() {
	if m != nil {
		m.NotifierFailures.Inc()
	}
}

func (m *Metrics) IncActivitiesCreated() {
	if m != nil {
		m.ActivitiesCreated.Inc()
	}
}

func (m *Metrics) IncCommentsAdded() {
	if m != nil {
		m.CommentsAdded.Inc()
	}
}

func (m *Metrics) IncReactionsUpserted() {
	if m != nil {
		m.ReactionsUpserted.Inc()
	}
}

func (m *Metrics) ObserveOperation(operation string, seconds float64) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation).Observe(seconds)
	}
}
