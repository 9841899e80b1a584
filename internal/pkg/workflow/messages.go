package workflow

import (
	"fmt"
	"html"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/internal/pkg/notify"
)

// buildMessage renders the reporter facing text for kind. The report passed
// in is already redacted, so only location fields are quoted back.
func buildMessage(kind notify.Kind, report *models.Report, reporter *models.User) notify.Message {
	msg := notify.Message{
		Kind:      kind,
		ReportID:  report.ID,
		Recipient: notify.Recipient{UserID: report.ReporterID},
	}
	if report.ResolutionPhotoURL != nil {
		msg.PhotoURL = *report.ResolutionPhotoURL
	}
	if reporter != nil {
		msg.Recipient.Name = reporter.FullName()
		msg.Recipient.Email = reporter.Email
		msg.Recipient.Phone = reporter.ContactNumber
	}

	greeting := "Hello"
	if msg.Recipient.Name != "" {
		greeting = "Hello " + msg.Recipient.Name
	}

	switch kind {
	case notify.KindResolutionPending:
		msg.Subject = "EcoCheck: please confirm your report was resolved"
		msg.Body = fmt.Sprintf("%s, your EcoCheck report at %s was marked as resolved. Open the app to confirm or reject the resolution.",
			greeting, report.DisplayLocation)
	case notify.KindReportResolved:
		msg.Subject = "EcoCheck: your report is resolved"
		msg.Body = fmt.Sprintf("%s, your EcoCheck report at %s is now resolved. Thank you for helping keep the community clean.",
			greeting, report.DisplayLocation)
	}

	msg.HTMLBody = "<div style=\"font-family: Arial, sans-serif;\"><p>" + html.EscapeString(msg.Body) + "</p>"
	if msg.PhotoURL != "" {
		msg.HTMLBody += "<p><img src=\"" + html.EscapeString(msg.PhotoURL) + "\" alt=\"Resolution photo\" style=\"max-width: 100%;\"></p>"
	}
	msg.HTMLBody += "<p style=\"color: #666; font-size: 12px;\">This is an automated message from EcoCheck.</p></div>"
	return msg
}
