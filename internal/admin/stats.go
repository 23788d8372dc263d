package admin

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/laranjadociebr/Site-Barbearia/internal/agenda"
	"github.com/laranjadociebr/Site-Barbearia/internal/observability/metrics"
)

// Stats summarizes stored bookings and the process's booking counters.
type Stats struct {
	Appointments int                `json:"agendamentos"`
	ByMonth      map[string]int     `json:"por_mes"`
	Submissions  map[string]float64 `json:"submissoes"`
	StoreOps     map[string]float64 `json:"operacoes_store"`
	LiveSessions float64            `json:"sessoes_ao_vivo"`
	LivePushes   map[string]float64 `json:"envios_ao_vivo"`
}

func buildStats(list []agenda.Appointment, rules agenda.Rules, gatherer prometheus.Gatherer) Stats {
	stats := Stats{
		Appointments: len(list),
		ByMonth:      map[string]int{},
		Submissions:  map[string]float64{},
		StoreOps:     map[string]float64{},
		LivePushes:   map[string]float64{},
	}
	for _, m := range rules.AllowedMonths() {
		stats.ByMonth[MonthLabel(rules.Year, m)] = 0
	}
	for _, a := range list {
		t, ok := agenda.ParseDate(a.Date)
		if !ok {
			continue
		}
		label := MonthLabel(t.Year(), t.Month())
		if _, tracked := stats.ByMonth[label]; tracked {
			stats.ByMonth[label]++
		}
	}

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mfs, err := gatherer.Gather()
	if err != nil {
		return stats
	}
	for _, mf := range mfs {
		if mf == nil {
			continue
		}
		switch mf.GetName() {
		case metrics.SubmissionsMetric:
			sumByLabel(mf, stats.Submissions, "outcome")
		case metrics.StoreOpsMetric:
			for _, m := range mf.GetMetric() {
				key := labelValue(m, "op") + ":" + labelValue(m, "status")
				stats.StoreOps[key] += m.GetCounter().GetValue()
			}
		case metrics.LivePushesMetric:
			sumByLabel(mf, stats.LivePushes, "status")
		case metrics.LiveSessionsGauge:
			for _, m := range mf.GetMetric() {
				stats.LiveSessions += m.GetGauge().GetValue()
			}
		}
	}
	return stats
}

func sumByLabel(mf *dto.MetricFamily, out map[string]float64, label string) {
	for _, m := range mf.GetMetric() {
		if m == nil {
			continue
		}
		out[labelValue(m, label)] += m.GetCounter().GetValue()
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp != nil && lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}
