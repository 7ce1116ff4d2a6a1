package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// BuildPDF renders the completed-task report as an A4 PDF document.
func (s *Service) BuildPDF(gerenteID uint) ([]byte, error) {
	drivers, err := s.drivers(gerenteID)
	if err != nil {
		return nil, err
	}
	var sections []driverSection
	if len(drivers) > 0 {
		sections, err = s.sections(gerenteID)
		if err != nil {
			return nil, err
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so Portuguese accents render.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	title := fmt.Sprintf("Relatório de Tarefas Concluídas (%s)", s.now().Format("02/01/2006"))
	pdf.CellFormat(0, 14, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	switch {
	case len(drivers) == 0:
		writeSubtitle(pdf, tr, msgNoDrivers)
	case len(sections) == 0:
		writeSubtitle(pdf, tr, msgNoCompletedTasks)
	default:
		for _, sec := range sections {
			writeSubtitle(pdf, tr, "Motorista: "+sec.Name)

			pdf.SetFont("Helvetica", "B", 11)
			pdf.SetFillColor(0, 51, 102)
			pdf.SetTextColor(255, 255, 255)
			pdf.CellFormat(130, 8, tr("Tarefa"), "1", 0, "C", true, 0, "")
			pdf.CellFormat(40, 8, "Status", "1", 1, "C", true, 0, "")

			pdf.SetFont("Helvetica", "", 10)
			pdf.SetFillColor(245, 245, 245)
			pdf.SetTextColor(0, 0, 0)
			for _, item := range sec.Items {
				pdf.CellFormat(130, 8, tr(item.Task), "1", 0, "L", true, 0, "")
				pdf.CellFormat(40, 8, tr(item.Status), "1", 1, "C", true, 0, "")
			}
			pdf.Ln(8)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSubtitle(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 102, 204)
	pdf.CellFormat(0, 10, tr(text), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}
