package events

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/thera_backend/internal/domain"
)

const prefix = "thera"

// Subscription patterns for workers. "*" matches one subject token.
const (
	PatternAppointmentCreated   = prefix + ".appointment.created.*"
	PatternAppointmentConfirmed = prefix + ".appointment.confirmed.*"
	PatternAppointmentCancelled = prefix + ".appointment.cancelled.*"
	PatternAppointmentCompleted = prefix + ".appointment.completed.*"
	PatternMessageNew           = prefix + ".message.new.*"
	SubjectContactSubmitted     = prefix + ".contact.submitted"
)

func AppointmentCreated(therapistID uuid.UUID) string {
	return prefix + ".appointment.created." + therapistID.String()
}

func AppointmentStatus(status domain.AppointmentStatus, appointmentID uuid.UUID) string {
	return prefix + ".appointment." + string(status) + "." + appointmentID.String()
}

func MessageNew(receiverID uuid.UUID) string {
	return prefix + ".message.new." + receiverID.String()
}

// Conversation is the live subject for a pair, identical for both sides.
func Conversation(a, b uuid.UUID) string {
	lo, hi := domain.ConversationPair(a, b)
	return prefix + ".conversation." + lo.String() + "." + hi.String()
}

// LastToken returns the final dot-separated token of a subject.
func LastToken(subject string) string {
	if i := strings.LastIndexByte(subject, '.'); i >= 0 {
		return subject[i+1:]
	}
	return subject
}

// Matches reports whether subject matches a pattern where "*" stands for
// exactly one token and ">" for one or more trailing tokens.
func Matches(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")
	for i, p := range pt {
		if p == ">" {
			return len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if p != "*" && p != st[i] {
			return false
		}
	}
	return len(pt) == len(st)
}
