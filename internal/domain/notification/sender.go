package notification

import "context"

// MessageSender is the abstract "send a text message to a phone number"
// capability. The production implementation talks to a WhatsApp provider;
// tests substitute a fake.
type MessageSender interface {
	// ValidatePhone reports whether raw can be turned into a deliverable
	// phone number.
	ValidatePhone(raw string) bool
	// FormatPhone normalizes raw into the E.164-like form the provider
	// expects.
	FormatPhone(raw string) string
	// Send delivers text to phone. It returns true when the provider
	// accepted the message; false or an error both mean "not delivered".
	Send(ctx context.Context, phone, text string) (bool, error)
}
