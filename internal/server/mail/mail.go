// Package mail defines the outbound mail collaborator and its SendGrid
// implementation. Delivery internals beyond the provider API call are out
// of scope; a non-2xx response and a transport error are equally a failed
// dispatch for the caller.
package mail

import "context"

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Mailer dispatches a message to exactly one recipient. Implementations must
// return a non-nil error whenever the message may not have been accepted by
// the provider, so callers can surface an internal error instead of a false
// success.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
