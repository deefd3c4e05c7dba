package chat

import (
	"fmt"
	"time"
)

// StatusKind labels the lifecycle states a message can be in from the
// client's point of view. Once a message is persisted server-side the
// authoritative state is delivered.
type StatusKind string

const (
	KindSending   StatusKind = "sending"
	KindDelivered StatusKind = "delivered"
	KindRead      StatusKind = "read"
	KindError     StatusKind = "error"
)

// Status is a tagged variant over the message lifecycle. The constructors
// below are the only way to build one, so a read status always carries its
// timestamp and an error status always carries its reason.
type Status struct {
	kind   StatusKind
	at     time.Time
	readBy string
	reason string
}

// Sending is the state of a message the client has submitted but the
// server has not acknowledged yet.
func Sending() Status {
	return Status{kind: KindSending}
}

// Delivered is the state of a message persisted server-side.
func Delivered(at time.Time) Status {
	return Status{kind: KindDelivered, at: at}
}

// Read is the state of a message the recipient has seen. readBy is the
// reader's display identity and may be empty when unknown.
func Read(at time.Time, readBy string) Status {
	return Status{kind: KindRead, at: at, readBy: readBy}
}

// Errored is the state of a message that failed to send.
func Errored(reason string) Status {
	return Status{kind: KindError, reason: reason}
}

// FromWire rebuilds a Status from the flat fields carried on the wire.
// Unrecognized status strings produce a zero Status so newer servers can
// introduce states without breaking older clients.
func FromWire(status string, sentAt time.Time, readAt *time.Time, readBy, errorReason string) Status {
	switch StatusKind(status) {
	case KindSending:
		return Sending()
	case KindDelivered:
		return Delivered(sentAt)
	case KindRead:
		at := sentAt
		if readAt != nil {
			at = *readAt
		}
		return Read(at, readBy)
	case KindError:
		return Errored(errorReason)
	default:
		return Status{}
	}
}

// Kind returns the status tag, empty for an unrecognized status.
func (s Status) Kind() StatusKind {
	return s.kind
}

// timeFormat is used wherever a status timestamp is shown to a person.
const timeFormat = "Jan 2, 2006 15:04"

// View is the presentation of a status: a short label, an icon name the
// front end maps to its icon set, and hover text.
type View struct {
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Tooltip string `json:"tooltip"`
}

// Project maps a status to its presentation. It is a pure function: no
// I/O, identical output for identical input. Unrecognized statuses yield
// a neutral empty view.
func (s Status) Project() View {
	switch s.kind {
	case KindSending:
		return View{Label: "Sending", Icon: "schedule", Tooltip: "Sending"}
	case KindDelivered:
		return View{
			Label:   "Delivered",
			Icon:    "done",
			Tooltip: "Delivered",
		}
	case KindRead:
		tooltip := "Read"
		if s.readBy != "" {
			tooltip = fmt.Sprintf("Read by %s at %s", s.readBy, s.at.Format(timeFormat))
		}
		return View{Label: "Read", Icon: "done_all", Tooltip: tooltip}
	case KindError:
		label := "Failed"
		if s.reason != "" {
			label = fmt.Sprintf("Failed: %s", s.reason)
		}
		return View{Label: label, Icon: "error", Tooltip: label}
	default:
		return View{}
	}
}
