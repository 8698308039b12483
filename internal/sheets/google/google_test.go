package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"defter/internal/core"
	ports "defter/internal/sheets"

	goption "google.golang.org/api/option"
)

// fakeSheet serves the handful of Values endpoints the client uses on a
// single in-memory sheet.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]string
}

var rowRangeRE = regexp.MustCompile(`!A(\d+):G\d+`)

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	_, rng, ok := strings.Cut(path, "/values/")
	if !ok {
		http.Error(w, "unexpected path "+path, http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodGet:
		values := make([][]string, 0, len(f.rows))
		for _, row := range f.rows {
			if len(row) == 0 {
				values = append(values, []string{})
				continue
			}
			values = append(values, []string{row[0]})
		}
		writeJSON(w, map[string]any{"range": rng, "values": values})
	case strings.HasSuffix(rng, ":append"):
		var body struct{ Values [][]string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, body.Values...)
		writeJSON(w, map[string]any{})
	case strings.HasSuffix(rng, ":clear"):
		n := f.rowIndex(rng)
		if n >= 0 {
			f.rows[n] = []string{}
		}
		writeJSON(w, map[string]any{})
	case r.Method == http.MethodPut:
		var body struct{ Values [][]string }
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if n := f.rowIndex(rng); n >= 0 && len(body.Values) == 1 {
			f.rows[n] = body.Values[0]
		}
		writeJSON(w, map[string]any{})
	default:
		http.Error(w, "unexpected request "+r.Method+" "+path, http.StatusNotFound)
	}
}

func (f *fakeSheet) rowIndex(rng string) int {
	m := rowRangeRE.FindStringSubmatch(rng)
	if m == nil {
		return -1
	}
	n, _ := strconv.Atoi(m[1])
	if n < 1 || n > len(f.rows) {
		return -1
	}
	return n - 1
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeSheet) {
	t.Helper()
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", SheetName: "Balances"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, fake
}

func balance(id int64, name string, credit, debit int64) ports.BalanceRow {
	b := core.Money{Cents: credit - debit}
	return ports.BalanceRow{
		EntityID:  id,
		Name:      name,
		Credit:    core.Money{Cents: credit},
		Debit:     core.Money{Cents: debit},
		Balance:   b,
		Status:    core.FormatStatus(name, b, core.LocaleEN).Category,
		UpdatedAt: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC),
	}
}

func TestClient_UpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	c, fake := newTestClient(t)

	if err := c.UpsertBalance(ctx, balance(1, "Ali", 10000, 3000)); err != nil {
		t.Fatalf("UpsertBalance: %v", err)
	}
	if err := c.UpsertBalance(ctx, balance(2, "Veli", 0, 12345)); err != nil {
		t.Fatalf("UpsertBalance: %v", err)
	}
	if len(fake.rows) != 3 || fake.rows[0][0] != "entity_id" {
		t.Fatalf("expected header plus two rows, got %v", fake.rows)
	}
	want := []string{"2", "Veli", "0.00", "123.45", "-123.45", "debit_owed_by_owner", "2026-10-19T08:30:00Z"}
	if strings.Join(fake.rows[2], "|") != strings.Join(want, "|") {
		t.Errorf("row 3 = %v, want %v", fake.rows[2], want)
	}

	if err := c.UpsertBalance(ctx, balance(1, "Ali", 10000, 10000)); err != nil {
		t.Fatalf("UpsertBalance update: %v", err)
	}
	if len(fake.rows) != 3 {
		t.Fatalf("update should not append, rows = %v", fake.rows)
	}
	if fake.rows[1][4] != "0.00" || fake.rows[1][5] != "settled" {
		t.Errorf("row 2 not updated: %v", fake.rows[1])
	}

	if err := c.RemoveBalance(ctx, 1); err != nil {
		t.Fatalf("RemoveBalance: %v", err)
	}
	if len(fake.rows[1]) != 0 {
		t.Errorf("row 2 should be cleared, got %v", fake.rows[1])
	}
	if err := c.RemoveBalance(ctx, 99); err != nil {
		t.Errorf("removing a missing row should succeed, got %v", err)
	}
}

func TestNew_RequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error for missing spreadsheet id")
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x"}); err == nil {
		t.Error("expected error for missing credentials")
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/sa.json"}); err == nil {
		t.Error("expected error for unreadable credentials file")
	}
}

func TestFindEntityRow(t *testing.T) {
	values := [][]interface{}{
		{"entity_id"},
		{"4"},
		{},
		{" 12 "},
	}
	tests := []struct {
		id   int64
		want int
	}{
		{4, 2},
		{12, 4},
		{1, 0},
	}
	for _, tt := range tests {
		if got := findEntityRow(values, tt.id); got != tt.want {
			t.Errorf("findEntityRow(%d) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
