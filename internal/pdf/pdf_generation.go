package pdf

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"tasktracker/internal/models"
)

const (
	ContentType = "application/pdf"
	Filename    = "tasks.pdf"

	coreFont = "Helvetica"
)

// Generator: интерфейс, удобно мокать в тестах
type Generator interface {
	GenerateTaskReport(w io.Writer, data TaskReportData) error
}

// DocumentGenerator renders reports with a UTF-8 TTF font when one is
// available and falls back to the core Helvetica font otherwise.
type DocumentGenerator struct {
	FontPath string // путь до TTF, например "assets/fonts/DejaVuSans.ttf"
	fontName string
	utf8     bool
}

type TaskReportData struct {
	Owner     string
	Tasks     []models.Task
	Stats     *models.TaskStats
	CreatedAt time.Time
}

var reportColumns = []struct {
	title string
	width float64
}{
	{"Title", 62},
	{"Status", 24},
	{"Priority", 20},
	{"Due", 22},
	{"Assignee", 42},
}

func NewDocumentGenerator(fontPath string) *DocumentGenerator {
	g := &DocumentGenerator{FontPath: fontPath, fontName: coreFont}
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err == nil {
			g.fontName, g.utf8 = "DejaVu", true
		} else {
			log.Printf("[pdf] font %q unavailable, using %s: %v", fontPath, coreFont, err)
		}
	}
	return g
}

func (g *DocumentGenerator) GenerateTaskReport(w io.Writer, data TaskReportData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task report", false)
	pdf.SetAuthor("Task Tracker", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.addUTF8Font(pdf)
	tr := g.translator(pdf)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "TASK REPORT", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, tr(data.Owner+"  ·  "+data.CreatedAt.Format("02.01.2006 15:04")), "", 1, "C", false, 0, "")
	g.hr(pdf)

	// ===== Сводка
	if st := data.Stats; st != nil {
		g.sectionTitle(pdf, "Summary")
		g.kvLine(pdf, "Total", fmt.Sprintf("%d", st.Total))
		g.kvLine(pdf, "Completed", fmt.Sprintf("%d (%d%%)", st.Completed, st.CompletionRate))
		g.kvLine(pdf, "In progress", fmt.Sprintf("%d", st.InProgress))
		g.kvLine(pdf, "Pending", fmt.Sprintf("%d", st.Pending))
		g.kvLine(pdf, "Overdue", fmt.Sprintf("%d", st.Overdue))
		g.kvLine(pdf, "High priority", fmt.Sprintf("%d", st.HighPriority))
		pdf.Ln(2)
		g.hr(pdf)
	}

	// ===== Таблица задач
	g.sectionTitle(pdf, "Tasks")
	g.tableHeader(pdf)
	pdf.SetFont(g.fontName, "", 9)
	for i := range data.Tasks {
		t := &data.Tasks[i]
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.Format("02.01.2006")
		}
		cells := []string{fit(pdf, tr, t.Title, reportColumns[0].width), string(t.Status), string(t.Priority), due,
			fit(pdf, tr, t.AssigneeName, reportColumns[4].width)}
		for j, c := range cells {
			pdf.CellFormat(reportColumns[j].width, 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(data.Tasks) == 0 {
		pdf.CellFormat(0, 6, "No tasks", "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

// === helpers ===
func (g *DocumentGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *DocumentGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *DocumentGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *DocumentGenerator) tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont(g.fontName, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range reportColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *DocumentGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if !g.utf8 {
		return
	}
	// AddUTF8Font принимает путь до TTF
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}

// translator maps UTF-8 text to cp1252 for the core font.
func (g *DocumentGenerator) translator(pdf *gofpdf.Fpdf) func(string) string {
	if g.utf8 {
		return func(s string) string { return s }
	}
	return pdf.UnicodeTranslatorFromDescriptor("")
}

// fit translates s and trims it with an ellipsis so it stays inside a cell of width w.
func fit(pdf *gofpdf.Fpdf, tr func(string) string, s string, w float64) string {
	const pad = 2
	if out := tr(s); pdf.GetStringWidth(out) <= w-pad {
		return out
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+"...")) > w-pad {
		r = r[:len(r)-1]
	}
	return tr(string(r) + "...")
}
