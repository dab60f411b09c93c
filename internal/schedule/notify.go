//-------------------------------------------------------------------------
//
// salesmirror
//
// Copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

package schedule

import (
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"

	"github.com/altiplano-data/salesmirror/internal/logging"
)

// PasswordEnv names the environment variable holding the SMTP password.
// The password never appears in the config file.
const PasswordEnv = "SALESMIRROR_SMTP_PASSWORD"

// Notifier sends a plain-text summary email after each scheduled run.
type Notifier struct {
	host     string
	port     int
	from     string
	to       []string
	username string
}

// NewNotifier builds a notifier. An empty username sends without auth,
// for relays inside trusted networks.
func NewNotifier(host string, port int, from string, to []string, username string) *Notifier {
	return &Notifier{host: host, port: port, from: from, to: to, username: username}
}

// Send mails the outcome of one run. SendMail negotiates STARTTLS when
// the server offers it.
func (n *Notifier) Send(exec Execution) error {
	var auth smtp.Auth
	if n.username != "" {
		password := os.Getenv(PasswordEnv)
		if password == "" {
			return fmt.Errorf("%s is not set", PasswordEnv)
		}
		auth = smtp.PlainAuth("", n.username, password, n.host)
	}

	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))
	msg := n.message(exec)
	if err := smtp.SendMail(addr, auth, n.from, n.to, msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	logging.Info().Strs("to", n.to).Bool("success", exec.Success).Msg("Notification sent")
	return nil
}

func (n *Notifier) message(exec Execution) []byte {
	subject := "salesmirror replication succeeded"
	body := fmt.Sprintf("The replication run finished in %.2f seconds.\r\n", exec.DurationSeconds)
	if exec.ReportPath != "" {
		body += fmt.Sprintf("Report: %s\r\n", exec.ReportPath)
	}
	if !exec.Success {
		subject = "salesmirror replication FAILED"
		body = fmt.Sprintf("The replication run failed after %.2f seconds.\r\n\r\nError: %s\r\n",
			exec.DurationSeconds, exec.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(n.to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	fmt.Fprintf(&b, "\r\nStarted: %s\r\n%s", exec.Timestamp.Format("2006-01-02 15:04:05 MST"), body)
	return []byte(b.String())
}
