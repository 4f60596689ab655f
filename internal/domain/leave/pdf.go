package leave

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// ApprovalPDF renders the approved application as a form the applicant
// can print. Only fully approved applications have a printable form.
func ApprovalPDF(app Application) ([]byte, error) {
	if app.Status != StatusApproved {
		return nil, ErrInvalidTransition
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Approved Leave Application")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	line := func(format string, args ...any) {
		pdf.Cell(0, 8, fmt.Sprintf(format, args...))
		pdf.Ln(7)
	}
	line("Reference: %s", app.Reference)
	line("Applicant: %s", app.ApplicantName)
	line("Leave type: %s", app.LeaveTypeName)
	line("Period: %s to %s (%d days)", app.StartDate.Format(dateKey), app.EndDate.Format(dateKey), app.Days)
	line("Contact while on leave: %s", app.ContactInfo)
	if app.PaymentPref == PayAddress {
		line("Salary paid to: %s", app.PaymentAddress)
	}
	if app.DelegateName != "" {
		line("Duties handled by: %s", app.DelegateName)
	}
	if app.CountryExit != "" {
		line("Travel outside the country: %s", app.CountryExit)
	}
	pdf.Ln(3)
	if app.HODDecidedAt != nil {
		line("Endorsed by head of department on %s", app.HODDecidedAt.Format(dateKey))
		if app.HODComments != "" {
			line("HOD comments: %s", app.HODComments)
		}
	}
	if app.PSDecidedAt != nil {
		line("Approved by principal secretary on %s", app.PSDecidedAt.Format(dateKey))
		if app.PSComments != "" {
			line("Comments: %s", app.PSComments)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
