package domain

import "testing"

func TestListNotificationsRequestNormalize(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"zero limit gets default", 0, 0, 20, 0},
		{"negative limit gets default", -5, 0, 20, 0},
		{"in-range limit kept", 50, 10, 50, 10},
		{"limit at cap kept", 100, 0, 100, 0},
		{"oversized limit clamped to cap", 500, 0, 100, 0},
		{"negative offset floored", 20, -3, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ListNotificationsRequest{Limit: tt.limit, Offset: tt.offset}
			req.Normalize()
			if req.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", req.Limit, tt.wantLimit)
			}
			if req.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", req.Offset, tt.wantOffset)
			}
		})
	}
}
