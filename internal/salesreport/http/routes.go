// Package salesreporthttp exposes the sales report engine over HTTP.
package salesreporthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers report endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Route("/reports/sales", func(r chi.Router) {
		r.Get("/", h.handleListRuns)
		r.Get("/data", h.handleData)
		r.Post("/cache/invalidate", h.handleInvalidate)
		r.Get("/{id}", h.handleGetRun)
		r.Get("/{id}/download", h.handleDownload)
		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Post("/", h.handleCreateRun)
			gr.Post("/render", h.handleRender)
			gr.Post("/preview", h.handlePreview)
		})
	})
	r.With(limiter).Post("/receipts/render", h.handleReceipt)
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
