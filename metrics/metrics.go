// Package metrics exposes ledger activity as Prometheus collectors fed by
// the platform event stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/coopfund/libcoop-go/platform"
	"github.com/coopfund/libcoop-go/units"
)

// Metrics holds Prometheus collectors for ledger events. It implements
// platform.EventSink.
type Metrics struct {
	Events               *prometheus.CounterVec
	TokensMinted         prometheus.Counter
	TokensBurned         prometheus.Counter
	Invested             prometheus.Counter
	Refunded             *prometheus.CounterVec
	Withdrawn            *prometheus.CounterVec
	RevenuePaid          *prometheus.CounterVec
	ActivePayouts        prometheus.Gauge
	ProjectsCreated      prometheus.Counter
	OrganizationsCreated prometheus.Counter
}

var _ platform.EventSink = (*Metrics)(nil)

// New registers ledger collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coop_ledger_events_total",
			Help: "Total number of committed ledger events, labeled by kind",
		}, []string{"kind"}),
		TokensMinted: f.NewCounter(prometheus.CounterOpts{
			Name: "coop_ledger_tokens_minted_eur_total",
			Help: "EUR minted by the issuer, payout revenue excluded",
		}),
		TokensBurned: f.NewCounter(prometheus.CounterOpts{
			Name: "coop_ledger_tokens_burned_eur_total",
			Help: "EUR burned by the issuer",
		}),
		Invested: f.NewCounter(prometheus.CounterOpts{
			Name: "coop_ledger_invested_eur_total",
			Help: "EUR invested into projects",
		}),
		Refunded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coop_ledger_refunded_eur_total",
			Help: "EUR returned to investors, labeled by path (cancel, expiry)",
		}, []string{"path"}),
		Withdrawn: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coop_ledger_withdrawn_eur_total",
			Help: "EUR withdrawn by admins, labeled by source (project, organization)",
		}, []string{"source"}),
		RevenuePaid: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coop_ledger_revenue_paid_eur_total",
			Help: "EUR of revenue paid to investors, labeled by type (share, dust)",
		}, []string{"type"}),
		ActivePayouts: f.NewGauge(prometheus.GaugeOpts{
			Name: "coop_ledger_active_payout_rounds",
			Help: "Payout rounds started and not yet completed",
		}),
		ProjectsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "coop_ledger_projects_created_total",
			Help: "Total number of projects created",
		}),
		OrganizationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "coop_ledger_organizations_created_total",
			Help: "Total number of organizations created",
		}),
	}
}

// HandleEvent records e.
func (m *Metrics) HandleEvent(e platform.Event) {
	m.Events.WithLabelValues(string(e.Kind)).Inc()
	amount := units.Float64(e.Amount)

	switch e.Kind {
	case platform.EventTokensMinted:
		m.TokensMinted.Add(amount)
	case platform.EventTokensBurned:
		m.TokensBurned.Add(amount)
	case platform.EventInvestmentMade:
		m.Invested.Add(amount)
	case platform.EventInvestmentCancelled:
		m.Refunded.WithLabelValues("cancel").Add(amount)
	case platform.EventInvestmentWithdrawn:
		m.Refunded.WithLabelValues("expiry").Add(amount)
	case platform.EventFundsWithdrawn:
		m.Withdrawn.WithLabelValues("project").Add(amount)
	case platform.EventOrganizationFundsWithdrawn:
		m.Withdrawn.WithLabelValues("organization").Add(amount)
	case platform.EventRevenueSharePaid:
		m.RevenuePaid.WithLabelValues("share").Add(amount)
	case platform.EventRevenueDustAssigned:
		m.RevenuePaid.WithLabelValues("dust").Add(amount)
	case platform.EventRevenuePayoutStarted:
		m.ActivePayouts.Inc()
	case platform.EventRevenuePayoutCompleted:
		m.ActivePayouts.Dec()
	case platform.EventProjectAdded:
		m.ProjectsCreated.Inc()
	case platform.EventOrganizationAdded:
		m.OrganizationsCreated.Inc()
	}
}
