package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/lookup"
	"fintrack/internal/services"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

type fakeExtras struct{ d lookup.Decorations }

func (f fakeExtras) Decorations(context.Context) lookup.Decorations { return f.d }

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("database is locked") }

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func newTestServer(t *testing.T, mutate func(*Deps)) *Server {
	t.Helper()
	kv := memory.New()
	now := func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) }
	tracker := services.NewTrackerService(store.NewRecords(kv), nil, quietLogger()).WithClock(now)
	d := Deps{
		Tracker: tracker,
		Decorations: fakeExtras{d: lookup.Decorations{
			Rates: map[string]float64{"USD": 1, "EUR": 0.92, "GBP": 0.79},
			Tip:   "Spend less than you earn.",
		}},
		Ready:              kv,
		Logger:             quietLogger(),
		RateLimitPerMinute: 100,
	}
	if mutate != nil {
		mutate(&d)
	}
	srv := NewServer(":0", d)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"Money Tracker",
		`value="2025-03-15"`,
		"Food &amp; Drinks",
		"Clear All Data?",
		"No, Keep My Data",
		"Yes, Clear Everything",
		`id="expenseChart"`,
		`id="monthlyChart"`,
		"0.0% of $0.00 goal reached",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id header not set")
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	if rr := do(t, srv, http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown path status=%d", rr.Code)
	}
}

type markedChart struct {
	spec      string
	destroyed bool
}

func (c *markedChart) Spec() string { return c.spec }

func (c *markedChart) Destroy() error {
	c.destroyed = true
	return nil
}

// markingDrawer hands out charts whose spec names the canvas and draw count.
type markingDrawer struct {
	n     int
	drawn []*markedChart
}

func (d *markingDrawer) Draw(canvas string, _ dashboard.ChartSpec) (dashboard.Chart, error) {
	d.n++
	c := &markedChart{spec: fmt.Sprintf(`{"canvas":"%s","draw":%d}`, canvas, d.n)}
	d.drawn = append(d.drawn, c)
	return c, nil
}

func TestDashboardEmbedsSessionCharts(t *testing.T) {
	drawer := &markingDrawer{}
	srv := newTestServer(t, func(d *Deps) {
		d.Tracker = d.Tracker.WithDrawer(drawer)
	})

	body := do(t, srv, http.MethodGet, "/", nil).Body.String()
	for _, want := range []string{
		`data-spec="{&#34;canvas&#34;:&#34;expenseChart&#34;,&#34;draw&#34;:1}"`,
		`data-spec="{&#34;canvas&#34;:&#34;monthlyChart&#34;,&#34;draw&#34;:2}"`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("index missing %s", want)
		}
	}

	rr := do(t, srv, http.MethodPost, "/budget", url.Values{"amount": {"100"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `&#34;draw&#34;:3}`) {
		t.Fatalf("partial should embed the redrawn chart: %s", rr.Body.String())
	}
	if !drawer.drawn[0].destroyed || !drawer.drawn[1].destroyed {
		t.Fatal("previous charts should be destroyed on redraw")
	}
	if drawer.drawn[2].destroyed || drawer.drawn[3].destroyed {
		t.Fatal("current charts should still be live")
	}
}

func TestReadyReportsStorageFailure(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) { d.Ready = downPinger{} })

	rr := do(t, srv, http.MethodGet, "/readyz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "not_ready" || !strings.Contains(resp.Checks["storage"].(string), "database is locked") {
		t.Errorf("unexpected readiness: %+v", resp)
	}
}

func TestAddTransactionValidationAndSuccess(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"abc"}, "category": {"Fun"}, "date": {"2025-03-10"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid amount status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Please enter a valid amount.") {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"5"}, "category": {"Salary"}, "date": {"2025-03-10"},
	})
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "Please choose a category.") {
		t.Fatalf("wrong category status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, srv, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"12.50"}, "category": {"Food & Drinks"},
		"date": {"2025-03-10"}, "description": {"Pizza"}, "recurring": {"on"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{`id="dashboard"`, "Food &amp; Drinks", "Pizza", "-$12.50", "3/10/2025", "🔄"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard partial missing %q", want)
		}
	}
	trigger := rr.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"transaction:recorded"`) || !strings.Contains(trigger, `"form:reset"`) {
		t.Errorf("HX-Trigger = %s", trigger)
	}
}

func TestAddTransactionAcceptsJSON(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/transactions",
		strings.NewReader(`{"type":"income","amount":1500,"category":"Salary","date":"2025-03-01","recurring":true}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "+$1,500.00") {
		t.Errorf("income not rendered: %s", rr.Body.String())
	}
}

func TestBudgetAlertNotification(t *testing.T) {
	srv := newTestServer(t, nil)

	do(t, srv, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"91"}, "category": {"Fun"}, "date": {"2025-03-10"},
	})
	rr := do(t, srv, http.MethodPost, "/budget", url.Values{"amount": {"100"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("budget status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), core.BudgetAlertMessage) {
		t.Error("budget alert missing from dashboard")
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"type":"warning"`) {
		t.Errorf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	rr = do(t, srv, http.MethodPost, "/budget", url.Values{"amount": {"-5"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative budget status=%d", rr.Code)
	}
}

func TestSavingsGoalAndTheme(t *testing.T) {
	srv := newTestServer(t, nil)

	do(t, srv, http.MethodPost, "/transactions", url.Values{
		"type": {"income"}, "amount": {"200"}, "category": {"Gift"}, "date": {"2025-03-02"},
	})
	rr := do(t, srv, http.MethodPost, "/savings", url.Values{"amount": {"100"}, "description": {"New bike"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("savings status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "200.0% of $100.00 goal reached") || !strings.Contains(body, "New bike") {
		t.Errorf("savings panel wrong: %s", body)
	}
	if !strings.Contains(body, "width: 100.0%") {
		t.Error("progress bar should be capped at 100%")
	}

	rr = do(t, srv, http.MethodPost, "/theme", url.Values{"theme": {"dark"}})
	if rr.Code != http.StatusOK {
		t.Fatalf("theme status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `data-theme="dark"`) {
		t.Error("dashboard not rendered dark")
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"theme:changed"`) {
		t.Errorf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	rr = do(t, srv, http.MethodGet, "/", nil)
	if !strings.Contains(rr.Body.String(), `<html lang="en" data-theme="dark">`) {
		t.Error("theme should persist across page loads")
	}

	rr = do(t, srv, http.MethodPost, "/theme", url.Values{"theme": {"solarized"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown theme status=%d", rr.Code)
	}
}

func TestClearData(t *testing.T) {
	srv := newTestServer(t, nil)

	do(t, srv, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"3"}, "category": {"Transport"}, "date": {"2025-03-10"},
	})
	rr := do(t, srv, http.MethodPost, "/data/clear", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("clear status=%d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), services.ClearedMessage) {
		t.Errorf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}
	if strings.Contains(rr.Body.String(), "Transport") {
		t.Error("cleared dashboard still lists transactions")
	}

	if rr := do(t, srv, http.MethodGet, "/data/clear", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /data/clear status=%d", rr.Code)
	}
}

func TestCategoriesPartial(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/ui/categories?type=income", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	for _, c := range core.CategoriesFor(core.Income) {
		if !strings.Contains(rr.Body.String(), `<option value="`+c+`">`) {
			t.Errorf("missing option %q", c)
		}
	}
	if strings.Contains(rr.Body.String(), "Transport") {
		t.Error("expense category offered for income")
	}

	if rr := do(t, srv, http.MethodGet, "/ui/categories?type=transfer", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("unknown type status=%d", rr.Code)
	}
}

func TestExtrasAndRates(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/ui/extras", nil)
	body := rr.Body.String()
	if !strings.Contains(body, "EUR") || !strings.Contains(body, "0.92") || !strings.Contains(body, "Spend less than you earn.") {
		t.Errorf("extras partial: %s", body)
	}

	rr = do(t, srv, http.MethodGet, "/api/rates", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("rates status=%d", rr.Code)
	}
	var resp struct {
		Base  string             `json:"base"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Base != "USD" || resp.Rates["GBP"] != 0.79 {
		t.Errorf("rates = %+v", resp)
	}

	down := newTestServer(t, func(d *Deps) {
		d.Decorations = fakeExtras{d: lookup.Decorations{Tip: lookup.FallbackTip}}
	})
	if rr := do(t, down, http.MethodGet, "/api/rates", nil); rr.Code != http.StatusBadGateway {
		t.Errorf("rates unavailable status=%d", rr.Code)
	}
	rr = do(t, down, http.MethodGet, "/ui/extras", nil)
	if !strings.Contains(rr.Body.String(), "Exchange rates are not available right now.") ||
		!strings.Contains(rr.Body.String(), lookup.FallbackTip) {
		t.Errorf("fallback extras: %s", rr.Body.String())
	}
}

func TestExportEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	rr := do(t, srv, http.MethodGet, "/export/transactions.csv", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("csv status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="expense_tracker_transactions_2025-03-15.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rr.Body.String() != "No transactions found" {
		t.Errorf("empty csv = %q", rr.Body.String())
	}

	do(t, srv, http.MethodPost, "/transactions", url.Values{
		"type": {"expense"}, "amount": {"4"}, "category": {"Fun"}, "date": {"2025-03-10"}, "description": {`He said "hi"`},
	})

	rr = do(t, srv, http.MethodGet, "/export/transactions.csv", nil)
	if !strings.Contains(rr.Body.String(), `"He said "hi""`) {
		t.Errorf("csv body = %q", rr.Body.String())
	}

	rr = do(t, srv, http.MethodGet, "/export/backup.json", nil)
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="expense_tracker_backup_2025-03-15.json"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	var backup map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &backup); err != nil {
		t.Fatalf("backup is not JSON: %v", err)
	}
	for _, k := range []string{"transactions", "budget", "savingsGoal"} {
		if _, ok := backup[k]; !ok {
			t.Errorf("backup missing %q", k)
		}
	}
}

func TestPostRateLimit(t *testing.T) {
	srv := newTestServer(t, func(d *Deps) { d.RateLimitPerMinute = 1 })

	if rr := do(t, srv, http.MethodPost, "/theme", url.Values{"theme": {"dark"}}); rr.Code != http.StatusOK {
		t.Fatalf("first status=%d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/theme", url.Values{"theme": {"light"}})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
	if rr := do(t, srv, http.MethodGet, "/", nil); rr.Code != http.StatusOK {
		t.Errorf("GET should not be limited, status=%d", rr.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		rr := do(t, srv, http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status=%d", path, rr.Code)
		}
		if rr.Header().Get("Cache-Control") == "" {
			t.Errorf("%s missing Cache-Control", path)
		}
	}
}
