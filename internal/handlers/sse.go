package handlers

import (
	"context"
	stderrors "errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"profit-engine/internal/models"
	"profit-engine/internal/observability"
	"profit-engine/internal/pricing"
	"profit-engine/internal/services"
	"profit-engine/internal/ui/format"
	"profit-engine/internal/ui/templates"
	"profit-engine/internal/validation"
)

const emptyBreakdown = `<div id="breakdown-content"></div>`

var breakdownTemplate = template.Must(template.New("breakdown").Parse(`
<div id="breakdown-content">
<table class="modern-table">
<thead><tr><th>Metric</th><th>Value</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.Metric}}</td>
<td><strong>{{.Value}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	history  *services.History
	logger   *slog.Logger
	currency string
}

func NewSSEHandlers(history *services.History, logger *slog.Logger, currency string) *SSEHandlers {
	if currency == "" {
		currency = format.DefaultCurrency
	}
	return &SSEHandlers{
		history:  history,
		logger:   logger,
		currency: currency,
	}
}

func renderBreakdown(rows []models.BreakdownRow) (string, error) {
	var buf strings.Builder
	err := breakdownTemplate.Execute(&buf, rows)
	return buf.String(), err
}

func renderComponent(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

// HandleSimulate re-runs the simulation for the current page signals and
// patches #result and #breakdown-content.
func (h *SSEHandlers) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var signals templates.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read signals", "error", err, "request_id", observability.GetRequestID(r.Context()))
		observability.RecordSimulation(observability.OutcomeInvalid)
		h.patchAlert(w, r, "Could not read the order parameters")
		return
	}

	ctx, span := observability.StartSpan(r.Context(), "simulate")
	defer func() {
		span.Finish()
		span.Log(ctx, h.logger)
	}()
	span.SetTag("sub_category", signals.SubCategory)
	span.SetTag("region", signals.Region)

	order := newOrder(signals.SubCategory, signals.Region, signals.Discount, signals.ShipType)
	if err := validation.Struct(order); err != nil {
		span.SetError(err)
		observability.RecordSimulation(observability.OutcomeInvalid)
		h.patchAlert(w, r, "Invalid order: discount must be between 0% and 50% and every field must be selected")
		return
	}

	eval, err := h.history.Simulate(order)
	if err != nil {
		span.SetError(err)
		recordFailure(err)
		if stderrors.Is(err, pricing.ErrNoHistoricalData) {
			h.patch(w, r, templates.NoHistory(), emptyBreakdown)
			return
		}
		h.logger.Error("simulate order", "error", err, "request_id", observability.GetRequestID(ctx))
		h.patchAlert(w, r, "The order could not be priced")
		return
	}

	observability.RecordSimulation(string(eval.Decision.Status))
	span.SetTag("decision", string(eval.Decision.Status))

	breakdown, err := renderBreakdown(eval.Breakdown)
	if err != nil {
		h.logger.Error("render breakdown table", "error", err)
		return
	}

	h.patch(w, r, templates.Result(eval, h.currency), breakdown)
}

func (h *SSEHandlers) patchAlert(w http.ResponseWriter, r *http.Request, message string) {
	h.patch(w, r, templates.Alert(message), emptyBreakdown)
}

func (h *SSEHandlers) patch(w http.ResponseWriter, r *http.Request, result templ.Component, breakdown string) {
	html, err := renderComponent(r.Context(), result)
	if err != nil {
		h.logger.Error("render result", "error", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(html)
	sse.PatchElements(breakdown)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
