// internal/notify/notify.go
package notify

import (
	"log"
	"strings"
)

// Sender delivers enrollment confirmations. Delivery is best-effort: a
// failed send is logged by the caller and never fails the enrollment.
type Sender interface {
	SendEnrollmentConfirmation(recipientID uint, editionName string, subjects []string) error
}

// LogSender writes confirmations to the server log. Real delivery (email,
// SMS) is handled outside this service.
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendEnrollmentConfirmation(recipientID uint, editionName string, subjects []string) error {
	log.Printf("enrollment confirmation for user %d: edition %q, subjects [%s]",
		recipientID, editionName, strings.Join(subjects, ", "))
	return nil
}
