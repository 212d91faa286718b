package email

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const appName = "Thera"

// layout wraps body paragraphs (already escaped) in the shared HTML shell.
func layout(greeting string, paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
`)
	fmt.Fprintf(&b, "    <h2 style=\"color: #0f766e;\">%s</h2>\n", greeting)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, "    <p>%s</p>\n", p)
	}
	fmt.Fprintf(&b, "    <p style=\"color: #666; font-size: 12px;\">The %s Team</p>\n</body>\n</html>", appName)
	return b.String()
}

func firstNameOr(name, fallback string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return fallback
}

// BuildPasswordResetEmail carries a one-time reset code.
func BuildPasswordResetEmail(to, fullName, code string, expiryMinutes int) Message {
	name := firstNameOr(fullName, "there")
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Your %s password reset code", appName),
		TextBody: fmt.Sprintf("Hi %s,\n\nYour password reset code is: %s\n\nIt expires in %d minutes. If you did not ask for a reset, ignore this email.\n\nThe %s Team",
			name, code, expiryMinutes, appName),
		HTMLBody: layout("Hi "+html.EscapeString(name)+",",
			"Your password reset code is:",
			`<strong style="font-size: 24px; letter-spacing: 4px;">`+html.EscapeString(code)+`</strong>`,
			fmt.Sprintf("It expires in %d minutes. If you did not ask for a reset, ignore this email.", expiryMinutes),
		),
	}
}

// BookingRequestData describes a new pending appointment for the therapist.
type BookingRequestData struct {
	TherapistEmail string
	TherapistName  string
	ClientName     string
	Start          time.Time
	End            time.Time
	DashboardURL   string
}

func BuildBookingRequestEmail(d BookingRequestData) Message {
	when := formatRange(d.Start, d.End)
	name := firstNameOr(d.TherapistName, "there")
	return Message{
		To:      []string{d.TherapistEmail},
		Subject: "New session request from " + d.ClientName,
		TextBody: fmt.Sprintf("Hi %s,\n\n%s requested a session on %s.\n\nConfirm or decline it from your dashboard: %s\n\nThe %s Team",
			name, d.ClientName, when, d.DashboardURL, appName),
		HTMLBody: layout("Hi "+html.EscapeString(name)+",",
			html.EscapeString(d.ClientName)+" requested a session on <strong>"+html.EscapeString(when)+"</strong>.",
			`<a href="`+html.EscapeString(d.DashboardURL)+`">Open your dashboard</a> to confirm or decline it.`,
		),
	}
}

// AppointmentStatusData tells the client their session changed state.
type AppointmentStatusData struct {
	ClientEmail   string
	ClientName    string
	TherapistName string
	Status        string
	Start         time.Time
	End           time.Time
}

func BuildAppointmentStatusEmail(d AppointmentStatusData) Message {
	when := formatRange(d.Start, d.End)
	name := firstNameOr(d.ClientName, "there")
	return Message{
		To:      []string{d.ClientEmail},
		Subject: fmt.Sprintf("Your session on %s was %s", d.Start.Format("Jan 2"), d.Status),
		TextBody: fmt.Sprintf("Hi %s,\n\nYour session with %s on %s is now %s.\n\nThe %s Team",
			name, d.TherapistName, when, d.Status, appName),
		HTMLBody: layout("Hi "+html.EscapeString(name)+",",
			fmt.Sprintf("Your session with %s on <strong>%s</strong> is now <strong>%s</strong>.",
				html.EscapeString(d.TherapistName), html.EscapeString(when), html.EscapeString(d.Status)),
		),
	}
}

// ContactSubmissionData is a public contact form entry forwarded to support.
type ContactSubmissionData struct {
	SupportInbox string
	FirstName    string
	LastName     string
	Email        string
	Body         string
}

func BuildContactSubmissionEmail(d ContactSubmissionData) Message {
	from := strings.TrimSpace(d.FirstName + " " + d.LastName)
	return Message{
		To:       []string{d.SupportInbox},
		Subject:  "Contact form: " + from,
		Headers:  map[string]string{"Reply-To": d.Email},
		TextBody: fmt.Sprintf("From: %s <%s>\n\n%s", from, d.Email, d.Body),
		HTMLBody: layout("New contact message",
			"From: "+html.EscapeString(from)+" &lt;"+html.EscapeString(d.Email)+"&gt;",
			strings.ReplaceAll(html.EscapeString(d.Body), "\n", "<br>"),
		),
	}
}

// BuildWelcomeEmail greets a freshly registered account.
func BuildWelcomeEmail(to, fullName, dashboardURL string) Message {
	name := firstNameOr(fullName, "there")
	return Message{
		To:       []string{to},
		Subject:  "Welcome to " + appName,
		TextBody: fmt.Sprintf("Hi %s,\n\nYour account is ready: %s\n\nThe %s Team", name, dashboardURL, appName),
		HTMLBody: layout("Hi "+html.EscapeString(name)+",",
			`Your account is ready. <a href="`+html.EscapeString(dashboardURL)+`">Go to your dashboard</a>.`),
	}
}

func formatRange(start, end time.Time) string {
	return fmt.Sprintf("%s, %s-%s (%s)",
		start.Format("Mon Jan 2 2006"), start.Format("15:04"), end.Format("15:04"), start.Location())
}
