package admin

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/mystik-app/backend/internal/models"
)

const exportDateLayout = "02/01/2006 15:04"

var registrationHeader = []string{
	"ID", "Nome", "Sobrenome", "Email", "País", "Telefone",
	"Especialidade", "Experiência", "Status", "Data", "Mensagem",
}

// WriteRegistrationsCSV renders list in its current order with every value quoted.
func WriteRegistrationsCSV(w io.Writer, list []models.GuideRegistration, loc *time.Location) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, registrationHeader)
	for _, r := range list {
		writeRow(bw, []string{
			r.ID,
			r.FirstName,
			r.LastName,
			r.Email,
			r.Country,
			r.Phone,
			r.Specialty.Label(),
			r.Experience.Label(),
			r.Status.Label(),
			r.RegisteredAt.In(loc).Format(exportDateLayout),
			r.Message,
		})
	}
	return bw.Flush()
}

// WriteWaitlistCSV renders the waitlist as Email, Data.
func WriteWaitlistCSV(w io.Writer, list []models.WaitlistEntry, loc *time.Location) error {
	bw := bufio.NewWriter(w)
	writeRow(bw, []string{"Email", "Data"})
	for _, e := range list {
		writeRow(bw, []string{e.Email, e.CreatedAt.In(loc).Format(exportDateLayout)})
	}
	return bw.Flush()
}

// writeRow always quotes, which encoding/csv only does when a field needs it.
func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
