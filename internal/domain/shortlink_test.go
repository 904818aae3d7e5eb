package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleLink() ShortLink {
	return ShortLink{
		Slug:       "bella-pizza-sept-2025",
		Status:     StatusActive,
		MerchantID: "mer_123",
		CampaignID: "cmp_456",
		UpdatedAt:  "2025-09-01T10:00:00Z",
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name      string
		status    Status
		updatedAt string
		want      bool
	}{
		{name: "active and recent", status: StatusActive, updatedAt: "2025-09-01T10:00:00Z", want: true},
		{name: "active but updated years ago", status: StatusActive, updatedAt: "2019-01-01T00:00:00Z", want: true},
		{name: "active with empty updatedAt", status: StatusActive, updatedAt: "", want: true},
		{name: "inactive", status: StatusInactive, updatedAt: "2025-09-01T10:00:00Z", want: false},
		{name: "expired", status: StatusExpired, updatedAt: "2025-09-01T10:00:00Z", want: false},
		{name: "unknown status", status: Status("paused"), updatedAt: "2025-09-01T10:00:00Z", want: false},
		{name: "wrong case", status: Status("ACTIVE"), updatedAt: "2025-09-01T10:00:00Z", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := sampleLink()
			link.Status = tt.status
			link.UpdatedAt = tt.updatedAt

			assert.Equal(t, tt.want, IsActive(link))
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusInactive.Valid())
	assert.True(t, StatusExpired.Valid())
	assert.False(t, Status("paused").Valid())
	assert.False(t, Status("").Valid())
}

func TestLookup(t *testing.T) {
	found := Found(sampleLink())
	assert.True(t, found.Found)
	assert.False(t, found.Faulted())
	assert.Equal(t, sampleLink(), found.ShortLink)

	miss := Absent(nil)
	assert.False(t, miss.Found)
	assert.False(t, miss.Faulted())

	fault := Absent(errors.New("connection refused"))
	assert.False(t, fault.Found)
	assert.True(t, fault.Faulted())
	assert.Equal(t, ShortLink{}, fault.ShortLink)
}
