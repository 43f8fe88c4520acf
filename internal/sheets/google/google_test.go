package google

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheet serves the subset of the Sheets values API the client uses.
type fakeSheet struct {
	mu      sync.Mutex
	rows    [][]any
	cleared []string
}

var rowRange = regexp.MustCompile(`!A(\d+):G\d+$`)

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, path)
		if len(f.rows) > 1 {
			f.rows = f.rows[:1]
		}
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
	case r.Method == http.MethodPut:
		m := rowRange.FindStringSubmatch(path)
		if m == nil {
			http.Error(w, "bad range "+path, http.StatusBadRequest)
			return
		}
		row, _ := strconv.Atoi(m[1])
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil || len(vr.Values) != 1 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		for len(f.rows) < row {
			f.rows = append(f.rows, nil)
		}
		f.rows[row-1] = vr.Values[0]
		_, _ = io.WriteString(w, `{"updatedRows":1}`)
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return New(svc, "sheet-id", "", logger)
}

func sampleTx(id int64) core.Transaction {
	return core.Transaction{ID: id, Type: core.Expense, Amount: core.Money{Cents: 1999}, Category: "Shopping", Date: core.NewDate(2025, 5, 2), Description: "shoes"}
}

func TestAppendTransactionWritesHeaderThenRows(t *testing.T) {
	fake := &fakeSheet{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	ref, err := c.AppendTransaction(ctx, sampleTx(1))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Transactions!A2:G2" {
		t.Fatalf("unexpected ref %q", ref)
	}
	ref, err = c.AppendTransaction(ctx, sampleTx(2))
	if err != nil || ref != "Transactions!A3:G3" {
		t.Fatalf("unexpected second append: ref=%q err=%v", ref, err)
	}

	if len(fake.rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(fake.rows))
	}
	if fake.rows[0][0] != "Date" || fake.rows[0][6] != "ID" {
		t.Fatalf("unexpected header: %v", fake.rows[0])
	}
	if fake.rows[1][3] != "19.99" || fake.rows[1][6] != "1" {
		t.Fatalf("unexpected row: %v", fake.rows[1])
	}
}

func TestAppendTransactionSkipsDuplicates(t *testing.T) {
	fake := &fakeSheet{}
	c := newTestClient(t, fake)
	ctx := context.Background()

	first, _ := c.AppendTransaction(ctx, sampleTx(7))
	again, err := c.AppendTransaction(ctx, sampleTx(7))
	if err != nil {
		t.Fatalf("append duplicate: %v", err)
	}
	if again != first {
		t.Fatalf("duplicate should return existing row %q, got %q", first, again)
	}
	if len(fake.rows) != 2 {
		t.Fatalf("duplicate must not add a row, rows=%d", len(fake.rows))
	}
}

func TestClearTransactionsKeepsHeader(t *testing.T) {
	fake := &fakeSheet{}
	c := newTestClient(t, fake)
	ctx := context.Background()
	_, _ = c.AppendTransaction(ctx, sampleTx(1))

	if err := c.ClearTransactions(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(fake.cleared) != 1 || !strings.Contains(fake.cleared[0], "Transactions!A2:G") {
		t.Fatalf("unexpected clear calls: %v", fake.cleared)
	}
	if len(fake.rows) != 1 {
		t.Fatalf("header should survive, rows=%v", fake.rows)
	}
}

func TestNilServiceFails(t *testing.T) {
	c := &Client{sheetName: DefaultSheetName}
	if _, err := c.AppendTransaction(context.Background(), sampleTx(1)); err == nil {
		t.Fatal("expected error with nil service")
	}
	if err := c.ClearTransactions(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestNewFromCredentialsMissingID(t *testing.T) {
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	_, err := NewFromCredentials(context.Background(), " ", "", logger)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceAccountCredentialsMissing(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := serviceAccountCredentials(); err == nil {
		t.Fatal("expected missing credentials error")
	}
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
	b, err := serviceAccountCredentials()
	if err != nil || !strings.Contains(string(b), "service_account") {
		t.Fatalf("unexpected credentials: %s err=%v", b, err)
	}
}

func TestFindID(t *testing.T) {
	values := [][]any{
		{"Date", "Type", "Category", "Amount", "Description", "Recurring", "ID"},
		{"2025-01-01", "expense", "Fun", "1", "", "No", "5"},
		{"2025-01-02", "expense", "Fun", "1"},
		{"2025-01-03", "income", "Gift", "1", "", "No", float64(9)},
	}
	if row, ok := findID(values, 5); !ok || row != 2 {
		t.Fatalf("expected row 2, got %d %v", row, ok)
	}
	if row, ok := findID(values, 9); !ok || row != 4 {
		t.Fatalf("expected row 4, got %d %v", row, ok)
	}
	if _, ok := findID(values, 404); ok {
		t.Fatal("unexpected match")
	}
}
