package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"time"
)

// SMTPSender delivers mail over implicit-TLS SMTP. The dial timeout bounds the
// whole connection attempt; a timed-out send surfaces as an ordinary error.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
	timeout  time.Duration
}

// NewSMTPSender constructs an SMTP sender. The transport is built once at
// process start and injected into the dispatcher; there is no lazy global
// transporter state.
func NewSMTPSender(host, port, username, password, from string, timeout time.Duration) *SMTPSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if from == "" {
		from = username
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		timeout:  timeout,
	}
}

// Send connects, authenticates and writes a single MIME message.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body, err := s.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("smtp build message: %w", err)
	}

	serverAddr := net.JoinHostPort(s.host, s.port)

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: s.timeout},
		Config:    &tls.Config{ServerName: s.host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.timeout))
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	if err := client.Mail(s.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}

	return nil
}

// buildMessage assembles the MIME body. With both bodies present it emits
// multipart/alternative, plain text first so clients prefer the HTML part.
func (s *SMTPSender) buildMessage(msg Message) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.Text == "" {
		buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		buf.WriteString(msg.HTML)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	textPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {`text/plain; charset="utf-8"`}})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(msg.Text)); err != nil {
		return nil, err
	}

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {`text/html; charset="utf-8"`}})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(msg.HTML)); err != nil {
		return nil, err
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
