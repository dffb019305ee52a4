package metrics

import (
	"net/http"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicHandler wraps h so that every request runs in a New Relic web
// transaction, with the application injected into the request context for
// custom metrics and events in downstream code. A nil app returns h as is.
func NewRelicHandler(app *newrelic.Application, h http.Handler) http.Handler {
	if app == nil {
		return h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txn := app.StartTransaction(r.Method + " " + r.URL.Path)
		defer txn.End()

		txn.SetWebRequestHTTP(r)

		// Websocket upgrades hijack the connection, so the response is left
		// untracked.
		if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			w = txn.SetWebResponse(w)
		}

		ctx := NewContext(r.Context(), app)
		ctx = newrelic.NewContext(ctx, txn)

		h.ServeHTTP(w, r.WithContext(ctx))
	})
}
