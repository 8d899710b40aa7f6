package mailer

import "context"

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender sends an email. A failed send must not throw past the dispatcher
// boundary; callers treat errors as a non-fatal delivery failure.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
