package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name string
		job  ImportJob
		want float64
	}{
		{"no total yet", ImportJob{Status: JobStatusPending}, 0},
		{"halfway", ImportJob{Status: JobStatusProcessing, ProcessedRows: 50, TotalRows: 100}, 50},
		{"completed without totals", ImportJob{Status: JobStatusCompleted}, 100},
		{"completed overrides counters", ImportJob{Status: JobStatusCompleted, ProcessedRows: 1, TotalRows: 3}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.job.ProgressPercent())
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusProcessing.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}
