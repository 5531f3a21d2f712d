package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"profit-engine/internal/errors"
	"profit-engine/internal/models"
	"profit-engine/internal/observability"
	"profit-engine/internal/pricing"
	"profit-engine/internal/services"
	"profit-engine/internal/validation"
)

const (
	cacheMaxAge      = "public, max-age=300"
	noHistoryMessage = "No historical data for this SKU & Region"
)

type APIHandlers struct {
	history *services.History
	logger  *slog.Logger
}

func NewAPIHandlers(history *services.History, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		history: history,
		logger:  logger,
	}
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {

	data := h.history.Options()

	headers := map[string]string{
		"Cache-Control": cacheMaxAge,
	}

	errors.WriteSuccessWithHeaders(w, data, headers)
}

func (h *APIHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	query := r.URL.Query()

	subCategory := strings.TrimSpace(query.Get("sub_category"))
	region := strings.TrimSpace(query.Get("region"))
	if subCategory == "" || region == "" {
		err := errors.BadRequest("sub_category and region query parameters are required")
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	summary, err := h.history.Summary(subCategory, region)
	if err != nil {
		errors.WriteError(w, h.logger, simulationError(err), requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, summary, map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	order, err := orderFromQuery(r)
	if err != nil {
		observability.RecordSimulation(observability.OutcomeInvalid)
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	eval, err := h.history.Simulate(order)
	if err != nil {
		recordFailure(err)
		errors.WriteError(w, h.logger, simulationError(err), requestID)
		return
	}

	observability.RecordSimulation(string(eval.Decision.Status))
	h.logger.Debug("order simulated",
		"trace_id", traceID(r),
		"sub_category", order.SubCategory,
		"region", order.Region,
		"discount", order.Discount,
		"ship_type", order.ShipType,
		"decision", eval.Decision.Status,
		"request_id", requestID,
	)

	errors.WriteSuccess(w, eval)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.history.Stats()

	errors.WriteSuccess(w, stats)
}

// orderFromQuery reads sub_category, region, discount (whole percent) and
// ship_type. All four are required.
func orderFromQuery(r *http.Request) (models.OrderSimulation, error) {
	query := r.URL.Query()

	rawDiscount := strings.TrimSpace(query.Get("discount"))
	if rawDiscount == "" {
		return models.OrderSimulation{}, errors.Validation("Invalid order simulation").
			WithFields(map[string]string{"Discount": "Discount is required"})
	}
	percent, err := strconv.Atoi(rawDiscount)
	if err != nil {
		return models.OrderSimulation{}, errors.Validation("Invalid order simulation").
			WithFields(map[string]string{"Discount": "Discount must be a whole percentage"})
	}

	order := newOrder(
		query.Get("sub_category"),
		query.Get("region"),
		percent,
		query.Get("ship_type"),
	)
	if err := validation.Struct(order); err != nil {
		return models.OrderSimulation{}, err
	}
	return order, nil
}

func newOrder(subCategory, region string, discountPercent int, shipType string) models.OrderSimulation {
	return models.OrderSimulation{
		SubCategory: strings.TrimSpace(subCategory),
		Region:      strings.TrimSpace(region),
		Discount:    float64(discountPercent) / 100,
		ShipType:    strings.TrimSpace(shipType),
	}
}

// simulationError maps engine errors onto API errors.
func simulationError(err error) error {
	switch {
	case stderrors.Is(err, pricing.ErrNoHistoricalData):
		return errors.NoHistoricalData(noHistoryMessage)
	case stderrors.Is(err, pricing.ErrNonPositivePrice):
		return errors.InternalWrap(err, "Historical data for this SKU & Region yield a non-positive price")
	default:
		return err
	}
}

func traceID(r *http.Request) string {
	if span := observability.GetSpan(r.Context()); span != nil {
		return span.TraceID
	}
	return ""
}

func recordFailure(err error) {
	if stderrors.Is(err, pricing.ErrNoHistoricalData) {
		observability.RecordSimulation(observability.OutcomeNoHistory)
		return
	}
	observability.RecordSimulation(observability.OutcomeInvalid)
}
