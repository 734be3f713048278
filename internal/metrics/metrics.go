package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics x402 调用和解析相关的计数器
//
// 所有方法对 nil 接收者安全，不需要指标时直接传 nil。
type Metrics struct {
	probes       *prometheus.CounterVec
	paidRequests *prometheus.CounterVec
	quotedAtomic *prometheus.CounterVec
	items        *prometheus.CounterVec
}

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeKept   = "kept"
	OutcomeDrop   = "dropped"
)

// New 创建并注册指标
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reddit_radar",
			Name:      "price_probes_total",
			Help:      "Unpaid price probe calls by outcome.",
		}, []string{"outcome"}),
		paidRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reddit_radar",
			Name:      "paid_requests_total",
			Help:      "Paid replay calls by outcome.",
		}, []string{"outcome"}),
		quotedAtomic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reddit_radar",
			Name:      "quoted_atomic_total",
			Help:      "Sum of quoted prices in USDC atomic units.",
		}, []string{"endpoint"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reddit_radar",
			Name:      "discovery_items_total",
			Help:      "Candidate items seen by the response validator.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.probes, m.paidRequests, m.quotedAtomic, m.items)
	}
	return m
}

func (m *Metrics) ObserveProbe(err error) {
	if m == nil {
		return
	}
	m.probes.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveQuote(endpoint string, amountAtomic uint64) {
	if m == nil {
		return
	}
	m.quotedAtomic.WithLabelValues(endpoint).Add(float64(amountAtomic))
}

func (m *Metrics) ObservePaidRequest(err error) {
	if m == nil {
		return
	}
	m.paidRequests.WithLabelValues(outcome(err)).Inc()
}

// ObserveItems 记录保留和丢弃的候选数量
func (m *Metrics) ObserveItems(kept, dropped int) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(OutcomeKept).Add(float64(kept))
	m.items.WithLabelValues(OutcomeDrop).Add(float64(dropped))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}
