package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		name                  string
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{name: "defaults", limit: 0, offset: 0, wantLimit: DefaultPageLimit, wantOffset: 0},
		{name: "negative limit", limit: -5, offset: 3, wantLimit: DefaultPageLimit, wantOffset: 3},
		{name: "capped", limit: 5000, offset: -3, wantLimit: MaxPageLimit, wantOffset: 0},
		{name: "in range", limit: 20, offset: 40, wantLimit: 20, wantOffset: 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := ClampPage(tt.limit, tt.offset)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}
