package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type NoteType string

const (
	NoteSOAP    NoteType = "SOAP"
	NoteDAP     NoteType = "DAP"
	NoteGeneral NoteType = "General"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityShared  Visibility = "shared"
)

var (
	ErrInvalidNoteType   = errors.New("note type must be SOAP, DAP or General")
	ErrInvalidVisibility = errors.New("visibility must be private or shared")
)

func ParseNoteType(s string) (NoteType, error) {
	switch t := NoteType(s); t {
	case NoteSOAP, NoteDAP, NoteGeneral:
		return t, nil
	case "":
		return NoteGeneral, nil
	default:
		return "", ErrInvalidNoteType
	}
}

func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibilityPrivate, VisibilityShared:
		return v, nil
	case "":
		return VisibilityPrivate, nil
	default:
		return "", ErrInvalidVisibility
	}
}

type Note struct {
	ID          uuid.UUID  `json:"id"`
	TherapistID uuid.UUID  `json:"therapist_id"`
	ClientID    uuid.UUID  `json:"client_id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Type        NoteType   `json:"type"`
	Visibility  Visibility `json:"visibility"`
	CreatedAt   time.Time  `json:"created_at"`
}
