package export

import (
	"io"
	"strings"
	"time"

	"tasktracker/internal/models"
)

const (
	CSVContentType = "text/csv"
	CSVFilename    = "tasks.csv"

	csvDateLayout = "2006-01-02"
)

var csvHeader = []string{
	"Title", "Description", "Status", "Priority", "Due Date", "Assignee", "Created At", "Completed At",
}

var quoteEscaper = strings.NewReplacer(`"`, `""`)

// WriteCSV writes tasks with every field, header included, double quoted.
// Rows are separated by a bare "\n" and the last row has no trailing newline.
func WriteCSV(w io.Writer, tasks []models.Task) error {
	var b strings.Builder
	writeRow(&b, csvHeader)
	for i := range tasks {
		b.WriteByte('\n')
		writeRow(&b, csvRow(&tasks[i]))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func csvRow(t *models.Task) []string {
	return []string{
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		csvDate(t.DueDate),
		t.AssigneeName,
		csvDate(&t.CreatedAt),
		csvDate(t.CompletedAt),
	}
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(quoteEscaper.Replace(f))
		b.WriteByte('"')
	}
}

func csvDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(csvDateLayout)
}
