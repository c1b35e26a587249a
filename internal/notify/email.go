package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wneessen/go-mail"

	"github.com/scanherald/scanherald/internal/model"
	"github.com/scanherald/scanherald/internal/summary"
)

// Notifier construction errors.
//
// Design decision: The configuration layer already validates these
// fields, but the notifier checks its own inputs again so it stays
// usable on its own and fails with a clear sentinel instead of a mid-send
// surprise.
var (
	// ErrNoServer is returned when no mail server host is configured.
	ErrNoServer = errors.New("no smtp server: the notifier needs a mail server host")

	// ErrNoSender is returned when no sender address is configured.
	ErrNoSender = errors.New("no sender: the notifier needs a from address")

	// ErrNoRecipients is returned when nobody would receive the mail.
	ErrNoRecipients = errors.New("no recipients: the notifier needs at least one address")
)

// SMTPSettings carries everything needed to reach the mail server.
type SMTPSettings struct {
	// Host is the mail server hostname.
	Host string

	// Port is the mail server port, typically 587 for STARTTLS.
	Port int

	// Username and Password authenticate against the server. Leaving
	// both empty skips authentication entirely, for relays that trust
	// the network instead.
	Username string
	Password string

	// From is the sender address.
	From string

	// Recipients receive the run notification.
	Recipients []string

	// UseTLS requires an encrypted connection. When false the client
	// still upgrades opportunistically if the server offers STARTTLS.
	UseTLS bool
}

// EmailNotifier sends one mail per reconciliation run: subject from the
// digest, HTML body with a per-scan table, plain-text alternative, and
// the downloaded report artifacts attached.
type EmailNotifier struct {
	settings SMTPSettings
	logger   *slog.Logger
}

// NewEmailNotifier creates an EmailNotifier with the given settings.
func NewEmailNotifier(settings SMTPSettings, logger *slog.Logger) (*EmailNotifier, error) {
	if settings.Host == "" {
		return nil, ErrNoServer
	}
	if settings.From == "" {
		return nil, ErrNoSender
	}
	if len(settings.Recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &EmailNotifier{
		settings: settings,
		logger:   logger,
	}, nil
}

// mailTemplate renders the HTML body. Target descriptions and dates
// arrive verbatim from the remote service, so html/template's contextual
// escaping is load-bearing here, not cosmetic.
var mailTemplate = template.Must(template.New("mail").Parse(`<html>
<body>
  <h2>Acunetix Scan Report</h2>
  <p>{{.Count}} scan(s) were processed. The detailed reports are attached.</p>
  <table border="1" cellpadding="6" cellspacing="0">
    <tr>
      <th>Target</th>
      <th>Vulnerabilities</th>
      <th>Scan Date</th>
    </tr>
{{- range .Rows}}
    <tr>
      <td>{{.Target}}</td>
      <td>{{.Vulnerabilities}}</td>
      <td>{{.ScanDate}}</td>
    </tr>
{{- end}}
  </table>
</body>
</html>
`))

// mailBody is the data handed to the HTML template.
type mailBody struct {
	Count int
	Rows  []mailRow
}

// mailRow is one processed scan in the HTML table.
type mailRow struct {
	Target          string
	Vulnerabilities string
	ScanDate        string
}

// Notify composes and sends the run mail. An error means nothing was
// delivered; the caller leaves the affected scans uncommitted so the
// next run retries them.
func (n *EmailNotifier) Notify(ctx context.Context, digest *model.RunDigest) error {
	msg, err := n.buildMessage(digest)
	if err != nil {
		return fmt.Errorf("failed to compose notification: %w", err)
	}

	client, err := n.newClient()
	if err != nil {
		return fmt.Errorf("failed to configure mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Info("notification sent",
		"subject", digest.Subject(),
		"recipients", len(n.settings.Recipients),
		"scans", len(digest.Results),
	)
	return nil
}

// buildMessage assembles the MIME message for a digest.
func (n *EmailNotifier) buildMessage(digest *model.RunDigest) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.settings.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(n.settings.Recipients...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(digest.Subject())

	// The digest arrives before its Notified flag is set, but a mail
	// that reaches the recipient was by definition sent. Render a copy
	// that says so.
	view := *digest
	view.Notified = true

	// Plain text first, HTML last: mail clients display the last
	// alternative part they support.
	var plain bytes.Buffer
	if _, err := summary.NewMarkdownWriter(&plain).Write(&view); err != nil {
		return nil, fmt.Errorf("failed to render plain body: %w", err)
	}
	msg.SetBodyString(mail.TypeTextPlain, plain.String())

	html, err := n.renderHTML(&view)
	if err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	n.attachReports(msg, digest)
	return msg, nil
}

// renderHTML renders the HTML body for a digest.
func (n *EmailNotifier) renderHTML(digest *model.RunDigest) (string, error) {
	body := mailBody{
		Count: len(digest.Results),
		Rows:  make([]mailRow, 0, len(digest.Results)),
	}
	for _, result := range digest.Results {
		startDate := result.StartDate
		if startDate == "" {
			startDate = "N/A"
		}
		body.Rows = append(body.Rows, mailRow{
			Target:          result.Description,
			Vulnerabilities: summary.FormatSeverityCounts(result.SeverityCounts),
			ScanDate:        startDate,
		})
	}

	var buf bytes.Buffer
	if err := mailTemplate.Execute(&buf, body); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// attachReports attaches every downloaded artifact that still exists.
// A missing file is logged and skipped: the mail with the remaining
// reports is worth more than no mail at all.
func (n *EmailNotifier) attachReports(msg *mail.Msg, digest *model.RunDigest) {
	for _, path := range digest.ReportPaths() {
		if _, err := os.Stat(path); err != nil {
			n.logger.Warn("report attachment missing, sending without it", "path", path, "error", err)
			continue
		}
		msg.AttachFile(path, mail.WithFileName(filepath.Base(path)))
	}
}

// newClient builds the SMTP client for the configured server.
func (n *EmailNotifier) newClient() (*mail.Client, error) {
	policy := mail.TLSOpportunistic
	if n.settings.UseTLS {
		policy = mail.TLSMandatory
	}

	opts := []mail.Option{
		mail.WithPort(n.settings.Port),
		mail.WithTLSPolicy(policy),
	}
	if n.settings.Username != "" || n.settings.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.settings.Username),
			mail.WithPassword(n.settings.Password),
		)
	}

	return mail.NewClient(n.settings.Host, opts...)
}
