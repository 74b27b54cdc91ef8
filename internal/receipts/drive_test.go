package receipts

import "testing"

func TestFileIDFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{
			name:   "uc download link",
			url:    "https://drive.google.com/uc?id=1AbC-dEf&export=download",
			wantID: "1AbC-dEf",
			wantOK: true,
		},
		{
			name:   "file view link",
			url:    "https://drive.google.com/file/d/1AbC-dEf/view",
			wantID: "1AbC-dEf",
			wantOK: true,
		},
		{
			name:   "usercontent host",
			url:    "https://drive.usercontent.google.com/uc?id=xyz",
			wantID: "xyz",
			wantOK: true,
		},
		{
			name: "foreign host",
			url:  "https://example.com/uc?id=abc",
		},
		{
			name: "no id",
			url:  "https://drive.google.com/drive/folders/abc",
		},
		{
			name: "not a url",
			url:  "://broken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := FileIDFromURL(tt.url)
			if ok != tt.wantOK || id != tt.wantID {
				t.Fatalf("FileIDFromURL(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}
