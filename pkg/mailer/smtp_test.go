package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_MultipartAlternative(t *testing.T) {
	s := NewSMTPSender("smtp.school.com", "465", "user", "pass", "noreply@school.com", 0)

	body, err := s.buildMessage(Message{
		To:      "student@school.com",
		Subject: "New Grade Posted",
		HTML:    "<p>You got an A</p>",
		Text:    "You got an A",
	})
	require.NoError(t, err)

	raw := string(body)
	assert.Contains(t, raw, "From: noreply@school.com\r\n")
	assert.Contains(t, raw, "To: student@school.com\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, raw, `text/plain; charset="utf-8"`)
	assert.Contains(t, raw, `text/html; charset="utf-8"`)
	assert.Contains(t, raw, "You got an A")
	assert.Contains(t, raw, "<p>You got an A</p>")

	// Plain text must come first so clients prefer the HTML alternative.
	assert.Less(t, strings.Index(raw, "text/plain"), strings.Index(raw, "text/html"))
}

func TestBuildMessage_HTMLOnly(t *testing.T) {
	s := NewSMTPSender("smtp.school.com", "465", "user", "pass", "noreply@school.com", 0)

	body, err := s.buildMessage(Message{
		To:      "student@school.com",
		Subject: "s",
		HTML:    "<p>x</p>",
	})
	require.NoError(t, err)

	raw := string(body)
	assert.Contains(t, raw, "Content-Type: text/html; charset=\"utf-8\"\r\n\r\n<p>x</p>")
	assert.NotContains(t, raw, "multipart/alternative")
}
