// Package notify mails a short summary of each run to the operators.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

// Enabled reports whether there is somewhere to send mail to.
func (c SmtpConfig) Enabled() bool {
	return c.Server != "" && c.EmailAddress != "" && len(c.Recipients) > 0
}

// Summary is what a run reports about itself.
type Summary struct {
	Date     string
	Sheet    string
	Rows     int
	Failures []string
	// Err is the fatal error of the run, if any.
	Err error
}

func (s Summary) subject() string {
	if s.Err != nil {
		return fmt.Sprintf("[rankwatch] run for %s failed", s.Date)
	}
	return fmt.Sprintf("[rankwatch] %d rows written to %s", s.Rows, s.Sheet)
}

func (s Summary) body() string {
	var out strings.Builder
	fmt.Fprintf(&out, "date: %s\n", s.Date)
	fmt.Fprintf(&out, "sheet: %s\n", s.Sheet)
	fmt.Fprintf(&out, "rows: %d\n", s.Rows)
	if s.Err != nil {
		fmt.Fprintf(&out, "error: %s\n", s.Err.Error())
	}
	if len(s.Failures) > 0 {
		out.WriteString("\nfailed sources:\n")
		for _, failure := range s.Failures {
			fmt.Fprintf(&out, "- %s\n", failure)
		}
	}
	return out.String()
}

type Notifier interface {
	Notify(ctx context.Context, summary Summary) error
}

// Noop drops every summary, it is used when smtp is not configured.
type Noop struct{}

func (Noop) Notify(context.Context, Summary) error {
	return nil
}

type Smtp struct {
	config SmtpConfig
}

func NewSmtp(config SmtpConfig) Smtp {
	return Smtp{config: config}
}

func (n Smtp) compose(summary Summary) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("rankwatch <%s>", n.config.EmailAddress)
	mail.To = n.config.Recipients
	mail.Subject = summary.subject()
	mail.Text = []byte(summary.body())
	return mail
}

func (n Smtp) Notify(ctx context.Context, summary Summary) error {
	_, span := tracer.Start(ctx, "smtp:Notify")
	defer span.End()

	mail := n.compose(summary)
	addr := fmt.Sprintf("%s:%d", n.config.Server, n.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", n.config.EmailAddress, n.config.Password, n.config.Server),
	)
	// local relays often do not offer AUTH at all
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send summary")
		return err
	}
	return nil
}
