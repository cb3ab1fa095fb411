package templates

import (
	"fmt"
	"html"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/barangayportal/barangay-portal-api/models"
)

const printStyles = `
    body { font-family: Georgia, 'Times New Roman', serif; margin: 0; padding: 40px; color: #111827; }
    .letterhead { text-align: center; border-bottom: 3px double #111827; padding-bottom: 16px; margin-bottom: 24px; }
    .letterhead h1 { margin: 0; font-size: 20px; text-transform: uppercase; letter-spacing: 2px; }
    .letterhead p { margin: 4px 0 0; font-size: 13px; }
    h2 { font-size: 16px; text-transform: uppercase; border-bottom: 1px solid #9ca3af; padding-bottom: 4px; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 16px; }
    td, th { text-align: left; padding: 6px 8px; vertical-align: top; font-size: 14px; }
    th { width: 180px; color: #374151; font-weight: normal; font-style: italic; }
    .history td { border-bottom: 1px solid #e5e7eb; }
    .sign-block { margin-top: 64px; display: flex; justify-content: space-between; }
    .sign-line { border-top: 1px solid #111827; width: 240px; text-align: center; padding-top: 4px; font-size: 13px; }
    @media print { body { padding: 16px; } }
`

func formatDate(dt primitive.DateTime) string {
	return dt.Time().Local().Format("January 2, 2006 3:04 PM")
}

func letterhead() string {
	return `<div class="letterhead">
  <h1>Barangay Portal</h1>
  <p>Office of the Punong Barangay</p>
  <p>Republic of the Philippines</p>
</div>`
}

// RenderCaseFullReport renders the printable full report for one case: the
// filing details, both parties, the evidence list and the complete status
// history.
func RenderCaseFullReport(caseDoc models.Case) string {
	d := caseDoc.Details

	var evidences strings.Builder
	for i, e := range d.Evidences {
		evidences.WriteString(fmt.Sprintf("<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			i+1, html.EscapeString(e.Filename), html.EscapeString(e.Kind), formatDate(e.UploadedAt)))
	}

	var history strings.Builder
	for _, h := range d.StatusHistory {
		history.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			formatDate(h.At), html.EscapeString(h.Status), html.EscapeString(h.By), html.EscapeString(h.Note)))
	}

	var hearings strings.Builder
	for _, h := range d.Hearings {
		hearings.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td></tr>",
			formatDate(h.DateTime), html.EscapeString(h.Venue), html.EscapeString(h.Notes)))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Case Report %s</title>
  <style type="text/css">%s</style>
</head>
<body>
  %s
  <h2>Case Report — %s</h2>
  <table>
    <tr><th>Case No.</th><td>%s</td></tr>
    <tr><th>Status</th><td>%s</td></tr>
    <tr><th>Type of Case</th><td>%s</td></tr>
    <tr><th>Priority</th><td>%s</td></tr>
    <tr><th>Date of Incident</th><td>%s</td></tr>
    <tr><th>Place of Incident</th><td>%s</td></tr>
    <tr><th>Reported By</th><td>%s</td></tr>
    <tr><th>Description</th><td>%s</td></tr>
  </table>
  <h2>Complainant</h2>
  <table>
    <tr><th>Name</th><td>%s</td></tr>
    <tr><th>Address</th><td>%s</td></tr>
    <tr><th>Contact</th><td>%s</td></tr>
  </table>
  <h2>Respondent</h2>
  <table>
    <tr><th>Name</th><td>%s</td></tr>
    <tr><th>Address</th><td>%s</td></tr>
    <tr><th>Contact</th><td>%s</td></tr>
  </table>
  <h2>Evidence Submitted</h2>
  <table class="history">
    <tr><td><em>#</em></td><td><em>Filename</em></td><td><em>Kind</em></td><td><em>Uploaded</em></td></tr>
    %s
  </table>
  <h2>Hearings</h2>
  <table class="history">
    <tr><td><em>Schedule</em></td><td><em>Venue</em></td><td><em>Notes</em></td></tr>
    %s
  </table>
  <h2>Status History</h2>
  <table class="history">
    <tr><td><em>Date</em></td><td><em>Status</em></td><td><em>By</em></td><td><em>Note</em></td></tr>
    %s
  </table>
  <div class="sign-block">
    <div class="sign-line">Barangay Secretary</div>
    <div class="sign-line">Punong Barangay</div>
  </div>
</body>
</html>`,
		html.EscapeString(d.CaseID), printStyles, letterhead(),
		html.EscapeString(d.CaseID),
		html.EscapeString(d.CaseID),
		html.EscapeString(d.Status),
		html.EscapeString(d.TypeOfCase),
		html.EscapeString(d.Priority),
		formatDate(d.DateOfIncident),
		html.EscapeString(d.PlaceOfIncident),
		html.EscapeString(d.ReportedBy),
		html.EscapeString(d.Description),
		html.EscapeString(d.Complainant.Name),
		html.EscapeString(d.Complainant.Address),
		html.EscapeString(d.Complainant.Contact),
		html.EscapeString(d.Respondent.Name),
		html.EscapeString(d.Respondent.Address),
		html.EscapeString(d.Respondent.Contact),
		evidences.String(),
		hearings.String(),
		history.String(),
	)
}

// RenderPatawagForm renders the printable summons for the latest patawag
// entry. The form addresses the respondent and cites the complainant.
func RenderPatawagForm(caseDoc models.Case, form models.PatawagForm) string {
	d := caseDoc.Details

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Patawag %s</title>
  <style type="text/css">%s</style>
</head>
<body>
  %s
  <h2>Patawag (Summons) — Case %s</h2>
  <p>Kay: <strong>%s</strong><br>%s</p>
  <p>Ikaw ay inaatasang humarap sa tanggapan ng barangay upang sagutin ang
  reklamong isinampa ni <strong>%s</strong> kaugnay ng kasong
  <strong>%s</strong> (%s).</p>
  <table>
    <tr><th>Petsa at Oras</th><td>%s</td></tr>
    <tr><th>Lugar</th><td>%s</td></tr>
    <tr><th>Tala</th><td>%s</td></tr>
  </table>
  <p>Ang hindi pagharap nang walang makatwirang dahilan ay maaaring maging
  batayan ng pagpapatuloy ng usapin nang wala ang iyong panig.</p>
  <div class="sign-block">
    <div class="sign-line">Lupon Tagapamayapa</div>
    <div class="sign-line">Punong Barangay</div>
  </div>
</body>
</html>`,
		html.EscapeString(d.CaseID), printStyles, letterhead(),
		html.EscapeString(d.CaseID),
		html.EscapeString(d.Respondent.Name),
		html.EscapeString(d.Respondent.Address),
		html.EscapeString(d.Complainant.Name),
		html.EscapeString(d.CaseID),
		html.EscapeString(d.TypeOfCase),
		formatDate(form.ScheduleDate),
		html.EscapeString(form.Venue),
		html.EscapeString(form.Notes),
	)
}

// RenderCancellationLetter renders the printable notice that a case has been
// cancelled, including the recorded reason.
func RenderCancellationLetter(caseDoc models.Case) string {
	d := caseDoc.Details

	cancelDate := time.Now()
	if d.CancelDate != nil {
		cancelDate = d.CancelDate.Time()
	}
	reason := d.CancellationReason
	if reason == "" {
		reason = "No reason recorded."
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Cancellation Notice %s</title>
  <style type="text/css">%s</style>
</head>
<body>
  %s
  <h2>Notice of Case Cancellation — %s</h2>
  <p>%s</p>
  <p>This is to formally notify all concerned parties that the case
  <strong>%s</strong> (%s), filed by <strong>%s</strong>, has been
  <strong>cancelled</strong> by the barangay office.</p>
  <table>
    <tr><th>Date of Cancellation</th><td>%s</td></tr>
    <tr><th>Reason</th><td>%s</td></tr>
  </table>
  <p>This notice is issued for the records of both parties and forms part of
  the official case file.</p>
  <div class="sign-block">
    <div class="sign-line">Barangay Secretary</div>
    <div class="sign-line">Punong Barangay</div>
  </div>
</body>
</html>`,
		html.EscapeString(d.CaseID), printStyles, letterhead(),
		html.EscapeString(d.CaseID),
		cancelDate.Local().Format("January 2, 2006"),
		html.EscapeString(d.CaseID),
		html.EscapeString(d.TypeOfCase),
		html.EscapeString(d.Complainant.Name),
		cancelDate.Local().Format("January 2, 2006"),
		html.EscapeString(reason),
	)
}
