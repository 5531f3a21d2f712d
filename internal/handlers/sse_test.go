package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"profit-engine/internal/models"
	"profit-engine/internal/ui/templates"
)

func simulateRequest(t *testing.T, signals templates.Signals) *http.Request {
	t.Helper()
	payload, err := json.Marshal(signals)
	if err != nil {
		t.Fatalf("marshal signals: %v", err)
	}
	return httptest.NewRequest(http.MethodGet, "/sse/simulate?datastar="+url.QueryEscape(string(payload)), nil)
}

func TestNewSSEHandlers(t *testing.T) {
	history := createTestHistory()
	logger := testLogger()

	handlers := NewSSEHandlers(history, logger, "")

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}

	if handlers.history != history {
		t.Error("NewSSEHandlers() should set history field")
	}

	if handlers.currency != "₹" {
		t.Errorf("expected default currency '₹', got %q", handlers.currency)
	}
}

func TestRenderBreakdown(t *testing.T) {
	rows := []models.BreakdownRow{
		{Metric: "Category", Value: "Office Supplies"},
		{Metric: "Margin", Value: "2.2%"},
		{Metric: "Note", Value: "<b>bold</b>"},
	}

	html, err := renderBreakdown(rows)
	if err != nil {
		t.Fatalf("renderBreakdown() failed: %v", err)
	}

	expectedContent := []string{
		`<div id="breakdown-content">`,
		"<table class=\"modern-table\">",
		"<th>Metric</th>",
		"<th>Value</th>",
		"Office Supplies",
		"2.2%",
		"&lt;b&gt;bold&lt;/b&gt;",
	}

	for _, content := range expectedContent {
		if !strings.Contains(html, content) {
			t.Errorf("expected HTML to contain %q", content)
		}
	}

	rowCount := strings.Count(html, "<tr>") - 1
	if rowCount != len(rows) {
		t.Errorf("expected %d rows, got %d", len(rows), rowCount)
	}
}

func TestSSEHandlers_HandleSimulate(t *testing.T) {
	handlers := NewSSEHandlers(createTestHistory(), testLogger(), "₹")

	req := simulateRequest(t, templates.Signals{SubCategory: "Binders", Region: "East", Discount: 10, ShipType: "Standard"})
	w := httptest.NewRecorder()

	handlers.HandleSimulate(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}

	body := w.Body.String()
	expected := []string{
		"datastar-patch-elements",
		`id="result"`,
		"₹100.00",
		"₹90.00",
		"ORDER REJECTED",
		"Below required margin of 12% for Office Supplies in East.",
		`id="breakdown-content"`,
		"Required Margin",
	}
	for _, s := range expected {
		if !strings.Contains(body, s) {
			t.Errorf("response should contain %q", s)
		}
	}
}

func TestSSEHandlers_HandleSimulate_Approved(t *testing.T) {
	handlers := NewSSEHandlers(createTestHistory(), testLogger(), "$")

	req := simulateRequest(t, templates.Signals{SubCategory: "Phones", Region: "East", Discount: 0, ShipType: "Standard"})
	w := httptest.NewRecorder()

	handlers.HandleSimulate(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "ORDER APPROVED") {
		t.Error("response should contain the approval banner")
	}
	if !strings.Contains(body, "$1,000.00") {
		t.Error("response should use the configured currency symbol")
	}
}

func TestSSEHandlers_HandleSimulate_NoHistory(t *testing.T) {
	handlers := NewSSEHandlers(createTestHistory(), testLogger(), "")

	req := simulateRequest(t, templates.Signals{SubCategory: "Tables", Region: "East", Discount: 10, ShipType: "Standard"})
	w := httptest.NewRecorder()

	handlers.HandleSimulate(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "No historical data for this SKU &amp; Region") {
		t.Error("response should contain the no-history alert")
	}
	for _, s := range []string{"ORDER APPROVED", "ORDER REJECTED", "Base Price", "<table"} {
		if strings.Contains(body, s) {
			t.Errorf("response should not contain %q without history", s)
		}
	}
	if !strings.Contains(body, `<div id="breakdown-content"></div>`) {
		t.Error("breakdown should be cleared")
	}
}

func TestSSEHandlers_HandleSimulate_InvalidSignals(t *testing.T) {
	handlers := NewSSEHandlers(createTestHistory(), testLogger(), "")

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"discount above range", simulateRequest(t, templates.Signals{SubCategory: "Binders", Region: "East", Discount: 75, ShipType: "Standard"})},
		{"missing ship type", simulateRequest(t, templates.Signals{SubCategory: "Binders", Region: "East", Discount: 10})},
		{"no signals", httptest.NewRequest(http.MethodGet, "/sse/simulate", nil)},
		{"malformed signals", httptest.NewRequest(http.MethodGet, "/sse/simulate?datastar="+url.QueryEscape("{not json"), nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handlers.HandleSimulate(w, tt.req)

			body := w.Body.String()
			if !strings.Contains(body, "alert-error") {
				t.Errorf("response should contain an error alert, got %q", body)
			}
			if strings.Contains(body, "ORDER APPROVED") || strings.Contains(body, "ORDER REJECTED") {
				t.Error("no decision should be rendered for invalid input")
			}
		})
	}
}

func TestSSEHandlers_HeaderConsistency(t *testing.T) {
	handlers := NewSSEHandlers(createTestHistory(), testLogger(), "")

	sseEndpoints := []struct {
		name    string
		handler http.HandlerFunc
		req     *http.Request
	}{
		{"simulate", handlers.HandleSimulate, simulateRequest(t, templates.Signals{SubCategory: "Binders", Region: "East", Discount: 10, ShipType: "First"})},
		{"no history", handlers.HandleSimulate, simulateRequest(t, templates.Signals{SubCategory: "Tables", Region: "East", Discount: 10, ShipType: "First"})},
	}

	for _, endpoint := range sseEndpoints {
		t.Run(endpoint.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			endpoint.handler(w, endpoint.req)

			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
				t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
			}

			body := w.Body.String()
			if !strings.Contains(body, "event:") || !strings.Contains(body, "data:") {
				t.Error("response should contain SSE event format")
			}
		})
	}
}
