package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodKeyFor(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{
			name: "mid month",
			t:    time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			want: "2026-03",
		},
		{
			name: "single digit month padded",
			t:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "2026-01",
		},
		{
			name: "converted to UTC before keying",
			t:    time.Date(2026, 4, 1, 0, 30, 0, 0, time.FixedZone("CEST", 2*60*60)),
			want: "2026-03",
		},
		{
			name: "december",
			t:    time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
			want: "2026-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodKeyFor(tt.t))
		})
	}
}
