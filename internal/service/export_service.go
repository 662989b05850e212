package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-enrollment-api/internal/models"
	"github.com/noah-isme/course-enrollment-api/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders tabular datasets into downloadable files.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to pkg/export.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Render encodes dataset in format and names the file after baseName and the current time.
func (s *ExportService) Render(format export.Format, dataset export.Dataset, title, baseName string) (*ExportFile, error) {
	var (
		payload []byte
		err     error
	)
	switch format {
	case export.FormatCSV:
		payload, err = s.csv.Render(dataset)
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_%s.%s", sanitizeFilename(baseName), s.now().UTC().Format("20060102_150405"), format)
	s.logger.Debug("export rendered", zap.String("file", filename), zap.Int("rows", len(dataset.Rows)))
	return &ExportFile{Filename: filename, ContentType: format.ContentType(), Data: payload}, nil
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "export"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func studentRosterDataset(students []models.User) export.Dataset {
	headers := []string{"Name", "Email", "ERP No", "Age", "City", "Contact", "Father Name"}
	rows := make([]map[string]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, map[string]string{
			"Name":        st.Name,
			"Email":       st.Email,
			"ERP No":      st.ErpNo,
			"Age":         strconv.Itoa(st.Age),
			"City":        st.City,
			"Contact":     st.ContactNumber,
			"Father Name": st.FatherName,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func gradeReportDataset(grades []models.GradeDetail) export.Dataset {
	headers := []string{"Course", "Assignment", "Marks", "Total", "Grade", "Submitted", "Feedback"}
	rows := make([]map[string]string, 0, len(grades))
	for _, g := range grades {
		rows = append(rows, map[string]string{
			"Course":     g.CourseTitle,
			"Assignment": g.Assignment,
			"Marks":      strconv.FormatFloat(g.Marks, 'f', -1, 64),
			"Total":      strconv.FormatFloat(g.TotalMarks, 'f', -1, 64),
			"Grade":      g.Letter,
			"Submitted":  g.SubmissionDate.UTC().Format(models.DateLayout),
			"Feedback":   g.Feedback,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
