package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const bookingsSheet = "Bookings"

// Exporter renders booking reports as xlsx workbooks, either streamed to a
// writer or saved under the configured exports directory.
type Exporter struct {
	path   string
	logger *zerolog.Logger
}

func NewExporter(path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

var bookingHeaders = []string{
	"Reference", "Status", "Room", "Guest", "Email",
	"Check-in", "Check-out", "Nights", "Total", "Tax", "Discount", "Final",
}

func (e *Exporter) workbook(bookings []*models.Booking, from, to time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(bookingsSheet, "A1", fmt.Sprintf("Bookings %s to %s",
		from.Format("2006-01-02"), to.Format("2006-01-02")))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(bookingsSheet, "A1", "A1", titleStyle)
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(bookingsSheet, "A1", lastCol+"1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(bookingsSheet, cell, header)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.BookingReference,
			string(b.Status),
			b.RoomID,
			b.GuestFirstName + " " + b.GuestLastName,
			b.GuestEmail,
			b.CheckInDate.Format("2006-01-02"),
			b.CheckOutDate.Format("2006-01-02"),
			b.Nights,
			b.TotalAmount,
			b.TaxAmount,
			b.DiscountAmount,
			b.FinalAmount,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(bookingsSheet, cell, value)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 20)
	_ = f.SetColWidth(bookingsSheet, "B", "B", 12)
	_ = f.SetColWidth(bookingsSheet, "D", "E", 25)
	_ = f.SetColWidth(bookingsSheet, "F", "G", 12)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// WriteBookingsReport streams the workbook, for download endpoints.
func (e *Exporter) WriteBookingsReport(w io.Writer, bookings []*models.Booking, from, to time.Time) error {
	f, err := e.workbook(bookings, from, to)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %v", err)
	}
	return nil
}

// SaveBookingsReport writes the workbook under the exports directory and
// returns its path.
func (e *Exporter) SaveBookingsReport(bookings []*models.Booking, from, to time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := e.workbook(bookings, from, to)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}
