package ocr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantItems int
		wantTotal float64
		wantShop  string
		wantEmpty bool
	}{
		{
			name:      "plain json",
			raw:       `{"items":[{"name":"Milk","quantity":1,"price":1.5}],"total":1.5,"date":"2025-03-01","shop":"Corner Store"}`,
			wantItems: 1,
			wantTotal: 1.5,
			wantShop:  "Corner Store",
		},
		{
			name:      "fenced json block",
			raw:       "Here is the receipt:\n```json\n{\"items\":[{\"name\":\"Bread\",\"quantity\":2,\"price\":0.8}],\"total\":1.6,\"date\":\"2025-03-02\",\"shop\":\"Bakery\"}\n```\nLet me know if you need more.",
			wantItems: 1,
			wantTotal: 1.6,
			wantShop:  "Bakery",
		},
		{
			name:      "fence without json hint",
			raw:       "```\n{\"items\":[],\"total\":3,\"date\":\"\",\"shop\":\"Kiosk\"}\n```",
			wantTotal: 3,
			wantShop:  "Kiosk",
		},
		{
			name:      "unparseable fence body falls back to raw parse",
			raw:       `{"items":[],"total":7,"date":"","shop":"` + "```Deli```" + `"}`,
			wantTotal: 7,
			wantShop:  "```Deli```",
		},
		{
			name:      "garbage falls back to empty result",
			raw:       "sorry, I could not read that image",
			wantEmpty: true,
		},
		{
			name:      "unterminated fence falls back",
			raw:       "```json\n{\"total\": 5",
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)

			if got.RawText != tt.raw {
				t.Errorf("RawText = %q, want original input", got.RawText)
			}
			if got.Items == nil {
				t.Fatal("Items is nil, want non-nil slice")
			}
			if tt.wantEmpty {
				if len(got.Items) != 0 || got.Total != 0 || got.Shop != "" || got.Date != "" {
					t.Errorf("Normalize() = %+v, want empty result", got)
				}
				return
			}
			if len(got.Items) != tt.wantItems {
				t.Errorf("len(Items) = %d, want %d", len(got.Items), tt.wantItems)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %v, want %v", got.Total, tt.wantTotal)
			}
			if got.Shop != tt.wantShop {
				t.Errorf("Shop = %q, want %q", got.Shop, tt.wantShop)
			}
		})
	}
}

func TestExtractStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "payment required", status: http.StatusPaymentRequired, wantErr: ErrPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "test-key", "test-model", time.Second)
			_, err := client.Extract(context.Background(), "data:image/png;base64,AAAA")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Extract() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExtractParsesChatResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer test-key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"items\":[{\"name\":\"Eggs\",\"quantity\":12,\"price\":3.2}],\"total\":3.2,\"date\":\"2025-04-01\",\"shop\":\"Market\"}"}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-model", time.Second)
	res, err := client.Extract(context.Background(), "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Name != "Eggs" {
		t.Errorf("Items = %+v, want one Eggs line", res.Items)
	}
	if res.Shop != "Market" || res.Total != 3.2 {
		t.Errorf("Result = %+v, want Market total 3.2", res)
	}
}
