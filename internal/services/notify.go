package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Channel selects how a notification is delivered.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Dispatcher sends a message to an address over a channel. Every caller in
// this codebase treats a send as best-effort: errors are logged by the
// caller and never surfaced to the end user.
type Dispatcher interface {
	Send(channel Channel, to, body string) error
}

// NotifyService is the production Dispatcher. SMS goes through Twilio,
// email through plain SMTP. An unconfigured channel logs the message and
// reports success, which is exactly what the operator wants on a laptop
// without credentials.
type NotifyService struct {
	sms         *twilio.RestClient
	smsFrom     string
	countryCode string

	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
	fromName string
}

// NewNotifyService builds a dispatcher from environment variables. SMS is
// enabled with SEND_SMS=true plus Twilio credentials, email with
// SEND_EMAIL=true plus SMTP credentials.
func NewNotifyService() *NotifyService {
	n := &NotifyService{
		countryCode: envOr("SMS_COUNTRY_CODE", "+91"),
		smtpHost:    envOr("SMTP_HOST", "smtp.gmail.com"),
		smtpPort:    envOr("SMTP_PORT", "587"),
		fromName:    envOr("SMTP_FROM_NAME", "ParkSeva"),
	}

	if strings.EqualFold(os.Getenv("SEND_SMS"), "true") {
		sid := os.Getenv("TWILIO_ACCOUNT_SID")
		token := os.Getenv("TWILIO_AUTH_TOKEN")
		from := os.Getenv("TWILIO_FROM")
		if sid != "" && token != "" && from != "" {
			n.sms = twilio.NewRestClientWithParams(twilio.ClientParams{
				Username: sid,
				Password: token,
			})
			n.smsFrom = from
		} else {
			log.Println("⚠️  SEND_SMS=true but Twilio credentials missing - SMS will be logged only")
		}
	}

	if strings.EqualFold(os.Getenv("SEND_EMAIL"), "true") {
		n.smtpUser = os.Getenv("SMTP_USERNAME")
		n.smtpPass = os.Getenv("SMTP_PASSWORD")
		if n.smtpUser == "" || n.smtpPass == "" {
			log.Println("⚠️  SEND_EMAIL=true but SMTP credentials missing - email will be logged only")
		}
	}

	return n
}

// Send delivers one message. A missing client is not an error: the message
// is logged so a dev setup still shows OTPs and reminders on the console.
func (n *NotifyService) Send(channel Channel, to, body string) error {
	switch channel {
	case ChannelSMS:
		return n.sendSMS(to, body)
	case ChannelEmail:
		return n.sendMail(to, "New parking check-in", body)
	default:
		return fmt.Errorf("unknown channel %q", channel)
	}
}

// EmailConfigured reports whether real email delivery is available.
func (n *NotifyService) EmailConfigured() bool {
	return n.smtpUser != "" && n.smtpPass != ""
}

func (n *NotifyService) sendSMS(to, body string) error {
	if n.sms == nil {
		log.Printf("SMS (not configured) to %s: %s", to, body)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(n.smsFrom)
	params.SetTo(n.countryCode + to)
	params.SetBody(body)

	resp, err := n.sms.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	if resp.Sid != nil {
		log.Printf("✅ SMS sent to %s%s, SID: %s", n.countryCode, to, *resp.Sid)
	}
	return nil
}

func (n *NotifyService) sendMail(to, subject, body string) error {
	if !n.EmailConfigured() {
		log.Printf("[MOCK EMAIL] to:%s subject:%s\n%s", to, subject, body)
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s <%s>\r\n", n.fromName, n.smtpUser))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString(body + "\r\n")

	return n.deliver(to, sb.String())
}

// SendDailyReport emails the day's records as a CSV attachment.
func (n *NotifyService) SendDailyReport(to, date, csv string) error {
	if !n.EmailConfigured() {
		log.Printf("[MOCK EMAIL] daily report to:%s date:%s (%d bytes)", to, date, len(csv))
		return nil
	}

	boundary := "----=_DAILY_REPORT_BOUNDARY"

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s <%s>\r\n", n.fromName, n.smtpUser))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: Daily Parking Report - %s\r\n", date))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\r\n\r\n", boundary))

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	sb.WriteString("See attached CSV\r\n")

	sb.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	sb.WriteString("Content-Type: text/csv; charset=utf-8\r\n")
	sb.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"report-%s.csv\"\r\n\r\n", date))
	sb.WriteString(csv + "\r\n")

	sb.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return n.deliver(to, sb.String())
}

func (n *NotifyService) deliver(to, msg string) error {
	addr := fmt.Sprintf("%s:%s", n.smtpHost, n.smtpPort)
	auth := smtp.PlainAuth("", n.smtpUser, n.smtpPass, n.smtpHost)
	if err := smtp.SendMail(addr, auth, n.smtpUser, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
