package handlers

import "testing"

func TestEtagMatches(t *testing.T) {
	etag := etagFor([]byte(`[{"id":1}]`))

	tests := []struct {
		header string
		want   bool
	}{
		{header: "", want: false},
		{header: "*", want: true},
		{header: etag, want: true},
		{header: "W/" + etag, want: true},
		{header: `"other", ` + etag, want: true},
		{header: `"other"`, want: false},
	}

	for _, tt := range tests {
		if got := etagMatches(tt.header, etag); got != tt.want {
			t.Fatalf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}

	if etagFor([]byte(`[]`)) == etag {
		t.Fatalf("different bodies should not share an etag")
	}
}
