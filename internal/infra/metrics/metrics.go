package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OfferSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offerbot",
		Name:      "offer_submissions_total",
		Help:      "Offer acceptance attempts by result.",
	}, []string{"result"})

	OfferDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offerbot",
		Name:      "offer_pdf_downloads_total",
		Help:      "Offer PDF downloads by result.",
	}, []string{"result"})

	AnalyticsEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "offerbot",
		Name:      "analytics_events_total",
		Help:      "Analytics events by class and name.",
	}, []string{"class", "name"})

	ModalOpens = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "offerbot",
		Name:      "offer_modal_opens_total",
		Help:      "Times the offer dialog was shown.",
	})
)

// Result метка результата для счётчиков
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
