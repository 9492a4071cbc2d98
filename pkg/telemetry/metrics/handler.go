package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the collector's registry. A nil or disabled collector
// answers 404, so the admin listener can mount it unconditionally.
func (c *Collector) Handler() http.Handler {
	if !c.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
