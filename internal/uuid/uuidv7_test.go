package uuid

import (
	"testing"

	googleuuid "github.com/google/uuid"
)

func TestNew(t *testing.T) {
	id := New()

	parsed, err := googleuuid.Parse(id)
	if err != nil {
		t.Fatalf("expected a valid UUID, got %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("expected version 7, got %d", parsed.Version())
	}
	if New() == id {
		t.Error("expected distinct IDs")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "canonical", input: "0190b6c1-2a3b-7c4d-8e5f-000000000001", want: "0190b6c1-2a3b-7c4d-8e5f-000000000001"},
		{name: "uppercase", input: "0190B6C1-2A3B-7C4D-8E5F-000000000001", want: "0190b6c1-2a3b-7c4d-8e5f-000000000001"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-request-id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
