package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dailyboard/internal/auth"
	"dailyboard/internal/report"
	"dailyboard/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	return newTestServerWithOptions(t, Options{})
}

func newTestServerWithOptions(t *testing.T, opts Options) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := storage.NewRepository(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cache, err := report.NewSnapshotCache(filepath.Join(dir, "reports"))
	if err != nil {
		t.Fatalf("NewSnapshotCache() error = %v", err)
	}
	composer := report.NewComposer(repo, cache)

	tokens := auth.NewJWTManager("test-secret-key-0123456789", time.Hour)
	token, err := tokens.Generate("user-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	srv := NewServer(":0", repo, composer, tokens, opts)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, token
}

func doJSON(t *testing.T, ts *httptest.Server, token, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestMissingTokenIsRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/api/expenses", "/api/reports/daily", "/api/settings"} {
		resp := doJSON(t, ts, "", http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token status = %d, want 401", path, resp.StatusCode)
		}
	}

	resp := doJSON(t, ts, "garbage-token", http.MethodGet, "/api/expenses", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("invalid token status = %d, want 401", resp.StatusCode)
	}
}

func TestCustomReportRequiresBounds(t *testing.T) {
	ts, token := newTestServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "missing both", path: "/api/reports/custom", want: http.StatusBadRequest},
		{name: "missing end", path: "/api/reports/custom?start=2025-03-01", want: http.StatusBadRequest},
		{name: "bad start", path: "/api/reports/custom?start=yesterday&end=2025-03-31", want: http.StatusBadRequest},
		{name: "complete", path: "/api/reports/custom?start=2025-03-01&end=2025-03-31", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, ts, token, http.MethodGet, tt.path, nil)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestExpenseValidation(t *testing.T) {
	ts, token := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{
			name: "valid",
			body: map[string]any{"date": "2025-03-10", "item_name": "Rice", "total_price": 4.5},
			want: http.StatusCreated,
		},
		{
			name: "zero price allowed",
			body: map[string]any{"date": "2025-03-10", "item_name": "Gift", "total_price": 0},
			want: http.StatusCreated,
		},
		{
			name: "negative price",
			body: map[string]any{"date": "2025-03-10", "item_name": "Rice", "total_price": -1},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "empty item name",
			body: map[string]any{"date": "2025-03-10", "item_name": "  ", "total_price": 4.5},
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "bad date",
			body: map[string]any{"date": "10/03/2025", "item_name": "Rice", "total_price": 4.5},
			want: http.StatusUnprocessableEntity,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, ts, token, http.MethodPost, "/api/expenses", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestReportFlowWithExportCSV(t *testing.T) {
	ts, token := newTestServer(t)
	today := time.Now().Format("2006-01-02")

	resp := doJSON(t, ts, token, http.MethodPost, "/api/funds", map[string]any{
		"date": today, "amount": 500, "source_note": "deposit",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create fund status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodPost, "/api/expenses", map[string]any{
		"date": today, "item_name": "Groceries run", "total_price": 120,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d, want 201", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodGet, "/api/reports/daily", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("daily report status = %d, want 200", resp.StatusCode)
	}
	rep := decodeBody[map[string]any](t, resp)
	if got := rep["total_funds"].(float64); got != 500 {
		t.Errorf("total_funds = %v, want 500", got)
	}
	if got := rep["total_expenses"].(float64); got != 120 {
		t.Errorf("total_expenses = %v, want 120", got)
	}
	if got := rep["balance"].(float64); got != 380 {
		t.Errorf("balance = %v, want 380", got)
	}

	resp = doJSON(t, ts, token, http.MethodGet, "/api/reports/export", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if lines[0] != "date,description,category,amount,type" {
		t.Errorf("csv header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[1], ",500,fund") {
		t.Errorf("fund row = %q, want amount 500 typed fund", lines[1])
	}
	if !strings.Contains(lines[2], ",120,expense") {
		t.Errorf("expense row = %q, want amount 120 typed expense", lines[2])
	}
}

func TestEditModeGatesUpdates(t *testing.T) {
	ts, token := newTestServer(t)

	resp := doJSON(t, ts, token, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2025-03-10", "item_name": "Rice", "total_price": 4.5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d", resp.StatusCode)
	}
	created := decodeBody[map[string]any](t, resp)
	id := int64(created["id"].(float64))

	update := map[string]any{"date": "2025-03-10", "item_name": "Brown rice", "total_price": 5}

	resp = doJSON(t, ts, token, http.MethodPut, fmt.Sprintf("/api/expenses/%d", id), update)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("update with edit mode off status = %d, want 403", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodPut, "/api/settings/edit-mode", map[string]any{"edit_mode": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("enable edit mode status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodPut, fmt.Sprintf("/api/expenses/%d", id), update)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update with edit mode on status = %d, want 200", resp.StatusCode)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	ts, token := newTestServer(t)

	resp := doJSON(t, ts, token, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2025-03-10", "item_name": "Rice", "total_price": 4.5,
	})
	created := decodeBody[map[string]any](t, resp)
	id := int64(created["id"].(float64))

	resp = doJSON(t, ts, token, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", id), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("delete without confirm status = %d, want 400", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodDelete, fmt.Sprintf("/api/expenses/%d?confirm=true", id), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("confirmed delete status = %d, want 204", resp.StatusCode)
	}
}

func TestExpenseBatchEndpoints(t *testing.T) {
	ts, token := newTestServer(t)

	resp := doJSON(t, ts, token, http.MethodPost, "/api/expenses/batch", map[string]any{
		"expenses": []map[string]any{
			{"date": "2025-05-01", "item_name": "Eggs", "total_price": 3},
			{"date": "2025-05-01", "item_name": "Butter", "total_price": 5.5},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create batch status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody[map[string]any](t, resp)
	batchID := created["batch_id"].(string)
	if batchID == "" {
		t.Fatal("batch_id missing in response")
	}

	resp = doJSON(t, ts, token, http.MethodGet, "/api/expenses/batch/"+batchID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get batch status = %d, want 200", resp.StatusCode)
	}
	rows := decodeBody[[]map[string]any](t, resp)
	if len(rows) != 2 {
		t.Fatalf("batch has %d rows, want 2", len(rows))
	}

	resp = doJSON(t, ts, token, http.MethodDelete, "/api/expenses/batch/"+batchID+"?confirm=true", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete batch status = %d, want 200", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodGet, "/api/expenses/batch/"+batchID, nil)
	rows = decodeBody[[]map[string]any](t, resp)
	if len(rows) != 0 {
		t.Errorf("batch still has %d rows after delete, want 0", len(rows))
	}
}

func TestBudgetUtilizationLevels(t *testing.T) {
	ts, token := newTestServer(t)

	resp := doJSON(t, ts, token, http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category status = %d", resp.StatusCode)
	}
	cat := decodeBody[map[string]any](t, resp)
	catID := int64(cat["id"].(float64))

	resp = doJSON(t, ts, token, http.MethodPut, "/api/budgets", map[string]any{
		"category_id": catID, "monthly_limit": 100,
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("upsert budget status = %d, want 204", resp.StatusCode)
	}

	today := time.Now().Format("2006-01-02")
	resp = doJSON(t, ts, token, http.MethodPost, "/api/expenses", map[string]any{
		"date": today, "item_name": "Big shop", "category_id": catID, "total_price": 85,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodGet, "/api/budgets", nil)
	budgets := decodeBody[[]map[string]any](t, resp)
	if len(budgets) != 1 {
		t.Fatalf("got %d budgets, want 1", len(budgets))
	}
	if got := budgets[0]["level"].(string); got != "near" {
		t.Errorf("level = %q, want near at 85%%", got)
	}
	if got := budgets[0]["spent"].(float64); got != 85 {
		t.Errorf("spent = %v, want 85", got)
	}
}

func TestLookupFanOut(t *testing.T) {
	ts, token := newTestServer(t)

	doJSON(t, ts, token, http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	doJSON(t, ts, token, http.MethodPost, "/api/units", map[string]any{"name": "kg"})
	doJSON(t, ts, token, http.MethodPost, "/api/tags", map[string]any{"name": "organic"})

	resp := doJSON(t, ts, token, http.MethodGet, "/api/lookups", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lookups status = %d, want 200", resp.StatusCode)
	}
	lookups := decodeBody[map[string][]map[string]any](t, resp)
	for _, key := range []string{"categories", "units", "tags"} {
		if len(lookups[key]) != 1 {
			t.Errorf("%s has %d entries, want 1", key, len(lookups[key]))
		}
	}
}

func TestBackupContainsAllSections(t *testing.T) {
	ts, token := newTestServer(t)

	doJSON(t, ts, token, http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	doJSON(t, ts, token, http.MethodPost, "/api/units", map[string]any{"name": "kg"})
	doJSON(t, ts, token, http.MethodPost, "/api/favorites", map[string]any{"item_name": "Milk", "quantity": 1})
	doJSON(t, ts, token, http.MethodPost, "/api/funds", map[string]any{"date": "2025-03-01", "amount": 200})
	doJSON(t, ts, token, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2024-01-15", "item_name": "Old groceries", "total_price": 12,
	})

	resp := doJSON(t, ts, token, http.MethodGet, "/api/backup", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("backup status = %d, want 200", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=backup_") {
		t.Errorf("Content-Disposition = %q, want backup attachment", cd)
	}

	backup := decodeBody[map[string]any](t, resp)
	for key, want := range map[string]int{
		"expenses":   1,
		"funds":      1,
		"categories": 1,
		"units":      1,
		"favorites":  1,
	} {
		rows, ok := backup[key].([]any)
		if !ok || len(rows) != want {
			t.Errorf("%s has %d entries, want %d", key, len(rows), want)
		}
	}
	settings, ok := backup["settings"].(map[string]any)
	if !ok {
		t.Fatal("settings section missing")
	}
	if _, ok := settings["edit_mode"]; !ok {
		t.Error("settings.edit_mode missing")
	}

	// expenses outside any report window still make it into the backup
	expenses := backup["expenses"].([]any)
	row := expenses[0].(map[string]any)
	if row["date"] != "2024-01-15" {
		t.Errorf("expense date = %v, want 2024-01-15", row["date"])
	}
}

type fakeReceiptStore struct {
	deleted []string
}

func (f *fakeReceiptStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	return "file-1", nil
}

func (f *fakeReceiptStore) ShareURL(ctx context.Context, fileID string, ttl time.Duration) (string, error) {
	return "https://drive.google.com/uc?id=" + fileID, nil
}

func (f *fakeReceiptStore) Delete(ctx context.Context, fileID string) error {
	f.deleted = append(f.deleted, fileID)
	return nil
}

func TestDeleteExpenseRemovesReceiptImage(t *testing.T) {
	store := &fakeReceiptStore{}
	ts, token := newTestServerWithOptions(t, Options{Receipts: store})

	resp := doJSON(t, ts, token, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2025-03-10", "item_name": "Rice", "total_price": 4.5,
		"receipt_url": "https://drive.google.com/uc?id=abc123&export=download",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expense status = %d", resp.StatusCode)
	}
	created := decodeBody[map[string]any](t, resp)
	id := int64(created["id"].(float64))

	resp = doJSON(t, ts, token, http.MethodDelete, fmt.Sprintf("/api/expenses/%d?confirm=true", id), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	if len(store.deleted) != 1 || store.deleted[0] != "abc123" {
		t.Errorf("deleted files = %v, want [abc123]", store.deleted)
	}
}

func TestConfirmGuardCoversAllDeletes(t *testing.T) {
	ts, token := newTestServer(t)

	resp := doJSON(t, ts, token, http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	cat := decodeBody[map[string]any](t, resp)
	catID := int64(cat["id"].(float64))

	resp = doJSON(t, ts, token, http.MethodPost, "/api/units", map[string]any{"name": "kg"})
	unit := decodeBody[map[string]any](t, resp)
	unitID := int64(unit["id"].(float64))

	resp = doJSON(t, ts, token, http.MethodPost, "/api/tags", map[string]any{"name": "organic"})
	tag := decodeBody[map[string]any](t, resp)
	tagID := int64(tag["id"].(float64))

	resp = doJSON(t, ts, token, http.MethodPost, "/api/favorites", map[string]any{"item_name": "Milk", "quantity": 1})
	fav := decodeBody[map[string]any](t, resp)
	favID := int64(fav["id"].(float64))

	doJSON(t, ts, token, http.MethodPut, "/api/budgets", map[string]any{"category_id": catID, "monthly_limit": 100})
	resp = doJSON(t, ts, token, http.MethodGet, "/api/budgets", nil)
	budgets := decodeBody[[]map[string]any](t, resp)
	budgetID := int64(budgets[0]["id"].(float64))

	paths := []string{
		fmt.Sprintf("/api/budgets/%d", budgetID),
		fmt.Sprintf("/api/favorites/%d", favID),
		fmt.Sprintf("/api/tags/%d", tagID),
		fmt.Sprintf("/api/units/%d", unitID),
		fmt.Sprintf("/api/categories/%d", catID),
	}
	for _, path := range paths {
		resp := doJSON(t, ts, token, http.MethodDelete, path, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("DELETE %s without confirm status = %d, want 400", path, resp.StatusCode)
		}
	}
	for _, path := range paths {
		resp := doJSON(t, ts, token, http.MethodDelete, path+"?confirm=true", nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("DELETE %s with confirm status = %d, want 204", path, resp.StatusCode)
		}
	}
}

func TestFamilyEndpoints(t *testing.T) {
	ts, token := newTestServer(t)

	resp := doJSON(t, ts, token, http.MethodPost, "/api/families", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create family status = %d, want 201", resp.StatusCode)
	}
	fam := decodeBody[map[string]any](t, resp)
	if code := fam["invite_code"].(string); len(code) != 8 {
		t.Errorf("invite_code = %q, want 8 characters", code)
	}

	resp = doJSON(t, ts, token, http.MethodPost, "/api/families", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second create family status = %d, want 409", resp.StatusCode)
	}

	resp = doJSON(t, ts, token, http.MethodPost, "/api/families/join", map[string]any{"invite_code": "AAAA9999"})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("join with unknown code status = %d, want 404", resp.StatusCode)
	}
}
