package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPhase(t *testing.T) {
	end := int64(1_700_086_400)

	cases := []struct {
		name  string
		round *RoundState
		now   int64
		want  Phase
	}{
		{"no round", nil, end, PhaseWaiting},
		{"comfortably active", &RoundState{Active: true, TimerEnd: end}, end - 3600, PhaseActive},
		{"just above threshold", &RoundState{Active: true, TimerEnd: end}, end - 301, PhaseActive},
		{"at threshold", &RoundState{Active: true, TimerEnd: end}, end - 300, PhaseEnding},
		{"one second left", &RoundState{Active: true, TimerEnd: end}, end - 1, PhaseEnding},
		{"exactly at timer end", &RoundState{Active: true, TimerEnd: end}, end, PhaseEnded},
		{"past timer end, flag not flipped", &RoundState{Active: true, TimerEnd: end}, end + 50, PhaseEnded},
		{"inactive, winner unclaimed", &RoundState{Active: false, TimerEnd: end}, end + 100, PhaseEnded},
		{"inactive, winner claimed", &RoundState{Active: false, WinnerClaimed: true, TimerEnd: end}, end + 100, PhaseClaiming},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyPhase(tc.round, time.Unix(tc.now, 0), DefaultEndingThreshold)
			assert.Equal(t, tc.want, got)
		})
	}
}
