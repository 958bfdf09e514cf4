package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
)

func TestGenerateTaskReport_CoreFontFallback(t *testing.T) {
	g := NewDocumentGenerator("does/not/exist.ttf")
	require.False(t, g.utf8)

	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := g.GenerateTaskReport(&buf, TaskReportData{
		Owner: "Jane Doe",
		Tasks: []models.Task{
			{Title: "Ship release", Status: models.StatusInProgress, Priority: models.PriorityHigh, DueDate: &due},
			{Title: strings.Repeat("very long title ", 20), Status: models.StatusPending, Priority: models.PriorityLow, AssigneeName: "Café Owner"},
		},
		Stats:     &models.TaskStats{Total: 2, InProgress: 1, Pending: 1},
		CreatedAt: due,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestGenerateTaskReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewDocumentGenerator("").GenerateTaskReport(&buf, TaskReportData{CreatedAt: time.Now()}))
	assert.NotZero(t, buf.Len())
}
