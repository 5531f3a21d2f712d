package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"profit-engine/internal/models"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}

func TestDashboard(t *testing.T) {
	opts := models.Options{
		SubCategories: []string{"Binders", "Phones"},
		Regions:       []string{"East", "West"},
		ShipTypes:     []string{"First", "Standard"},
	}
	html := render(t, Dashboard(DashboardView{Options: opts, Initial: InitialSignals(opts)}))

	expected := []string{
		"SuperMart – Real-Time Profit Decision Engine",
		"Simulate an Order",
		"How the system decided",
		`<option value="Phones">Phones</option>`,
		`<option value="Binders" selected>Binders</option>`,
		`min="0" max="50" step="1"`,
		`data-bind="shipType"`,
		`id="result"`,
		`id="breakdown-content"`,
		"/sse/simulate",
	}
	for _, s := range expected {
		if !strings.Contains(html, s) {
			t.Errorf("dashboard should contain %q", s)
		}
	}
}

func TestDashboard_EscapesOptions(t *testing.T) {
	opts := models.Options{SubCategories: []string{`<script>alert(1)</script>`}}
	html := render(t, Dashboard(DashboardView{Options: opts}))

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("option values must be escaped")
	}
}

func TestInitialSignals(t *testing.T) {
	s := InitialSignals(models.Options{
		SubCategories: []string{"Accessories"},
		Regions:       []string{"Central"},
		ShipTypes:     []string{"First"},
	})

	want := Signals{SubCategory: "Accessories", Region: "Central", Discount: 10, ShipType: "First"}
	if s != want {
		t.Errorf("InitialSignals() = %+v, want %+v", s, want)
	}

	if empty := InitialSignals(models.Options{}); empty.SubCategory != "" || empty.Discount != 10 {
		t.Errorf("unexpected signals for empty options: %+v", empty)
	}
}

func TestResult(t *testing.T) {
	eval := models.Evaluation{
		Economics: models.Economics{BasePrice: 1234.5, FinalPrice: 1111.05, Profit: -3.2, Margin: -0.00288},
		Decision:  models.Decision{Status: models.Rejected, Reason: "Loss-making order."},
	}
	html := render(t, Result(eval, "₹"))

	for _, s := range []string{"Base Price", "₹1,234.50", "Profit / Unit", "ORDER REJECTED", "Loss-making order."} {
		if !strings.Contains(html, s) {
			t.Errorf("result should contain %q", s)
		}
	}

	eval.Decision = models.Decision{Status: models.Approved, Reason: "Meets all margin and profitability rules."}
	if html := render(t, Result(eval, "₹")); !strings.Contains(html, "ORDER APPROVED") {
		t.Error("approved result should show the approval banner")
	}
}

func TestNoHistory(t *testing.T) {
	html := render(t, NoHistory())

	if !strings.Contains(html, "No historical data for this SKU &amp; Region") {
		t.Errorf("unexpected alert: %s", html)
	}
	if strings.Contains(html, "metric") {
		t.Error("no metrics should be rendered without history")
	}
}

func TestDashboard_SignalsAttribute(t *testing.T) {
	opts := models.Options{
		SubCategories: []string{"Binders"},
		Regions:       []string{"East"},
		ShipTypes:     []string{"Standard"},
	}
	html := render(t, Dashboard(DashboardView{Options: opts, Initial: InitialSignals(opts)}))

	want := `data-signals="{&#34;subCategory&#34;:&#34;Binders&#34;,&#34;region&#34;:&#34;East&#34;,&#34;discount&#34;:10,&#34;shipType&#34;:&#34;Standard&#34;}"`
	if !strings.Contains(html, want) {
		t.Errorf("dashboard should carry the initial signals as an escaped attribute, got %s", html)
	}
	if !strings.Contains(html, `<span data-text="$discount + '%'">10%</span>`) {
		t.Error("discount label should show the initial discount")
	}
}

func TestAlert_EscapesMessage(t *testing.T) {
	html := render(t, Alert(`Discount <b>must</b> be 0-50`))

	want := `<div id="result"><div class="alert alert-error">Discount &lt;b&gt;must&lt;/b&gt; be 0-50</div></div>`
	if html != want {
		t.Errorf("Alert() = %q, want %q", html, want)
	}
}
