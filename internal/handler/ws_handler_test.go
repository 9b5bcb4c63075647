package handler

import (
	"testing"

	"github.com/google/uuid"

	ws "github.com/prepdeck/prepdeck-backend/internal/websocket"
)

func TestMonitorEventVisibility(t *testing.T) {
	me := uuid.New()
	someoneElse := uuid.New()

	tests := []struct {
		name    string
		eventID string
		want    bool
	}{
		{"own attempt", me.String(), true},
		{"another candidate's attempt", someoneElse.String(), false},
		{"empty user id", "", false},
		{"garbage user id", "not-a-uuid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := ws.GradedEvent{UserID: tt.eventID}
			if got := visibleTo(event, me); got != tt.want {
				t.Errorf("visibleTo(%q) = %v, want %v", tt.eventID, got, tt.want)
			}
		})
	}
}
