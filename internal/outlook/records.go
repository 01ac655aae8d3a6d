package outlook

import (
	"fmt"
	"strings"
	"time"
)

// MessageSummary is a snapshot of a mail item.
type MessageSummary struct {
	EntryID           string    `json:"entryId"`
	Subject           string    `json:"subject"`
	SenderName        string    `json:"senderName"`
	SenderEmail       string    `json:"senderEmail"`
	ReceivedTime      time.Time `json:"receivedTime"`
	IsUnread          bool      `json:"isUnread"`
	Folder            string    `json:"folder"`
	HasAttachments    bool      `json:"hasAttachments"`
	AttachmentCount   int       `json:"attachmentCount"`
	Categories        []string  `json:"categories"`
	ConversationTopic string    `json:"conversationTopic,omitempty"`
}

// Message is a full snapshot of a mail item.
type Message struct {
	MessageSummary

	Body        string       `json:"body"`
	BodyHTML    string       `json:"bodyHtml"`
	To          []string     `json:"to"`
	Cc          []string     `json:"cc"`
	Attachments []Attachment `json:"attachments"`
}

// EventSummary is a snapshot of an appointment.
type EventSummary struct {
	EntryID     string    `json:"entryId"`
	Subject     string    `json:"subject"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location"`
	IsAllDay    bool      `json:"isAllDay"`
	IsRecurring bool      `json:"isRecurring"`
}

// Event is a full snapshot of an appointment.
type Event struct {
	EventSummary

	Body              string   `json:"body"`
	Attendees         []string `json:"attendees"`
	Organizer         string   `json:"organizer"`
	RecurrencePattern string   `json:"recurrencePattern,omitempty"`
}

// ParseCategories splits a category list on commas and semicolons.
func ParseCategories(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// optional returns v, or the zero value when reading it failed.
func optional[T any](v T, err error) T {
	if err != nil {
		var zero T
		return zero
	}
	return v
}

func mapMessageSummary(item Item, folder string) (MessageSummary, error) {
	mail, ok := item.(MailItem)
	if !ok {
		return MessageSummary{}, ErrWrongItemClass
	}
	id, err := item.EntryID()
	if err != nil {
		return MessageSummary{}, fmt.Errorf("failed to read entry id: %w", err)
	}
	subject, err := mail.Subject()
	if err != nil {
		return MessageSummary{}, fmt.Errorf("failed to read subject: %w", err)
	}
	received, err := mail.ReceivedTime()
	if err != nil {
		return MessageSummary{}, fmt.Errorf("failed to read received time: %w", err)
	}
	unread, err := mail.Unread()
	if err != nil {
		return MessageSummary{}, fmt.Errorf("failed to read unread flag: %w", err)
	}
	attachments := optional(mail.AttachmentCount())

	return MessageSummary{
		EntryID:           id,
		Subject:           subject,
		SenderName:        optional(mail.SenderName()),
		SenderEmail:       optional(mail.SenderAddress()),
		ReceivedTime:      received,
		IsUnread:          unread,
		Folder:            folder,
		HasAttachments:    attachments > 0,
		AttachmentCount:   attachments,
		Categories:        ParseCategories(optional(mail.Categories())),
		ConversationTopic: optional(mail.ConversationTopic()),
	}, nil
}

func mapMessage(item Item, folder string) (Message, error) {
	summary, err := mapMessageSummary(item, folder)
	if err != nil {
		return Message{}, err
	}
	msg := Message{MessageSummary: summary, To: []string{}, Cc: []string{}, Attachments: []Attachment{}}

	content, ok := item.(MailContent)
	if !ok {
		return msg, nil
	}
	msg.Body = optional(content.Body())
	msg.BodyHTML = optional(content.HTMLBody())

	recipients, err := content.Recipients()
	if err != nil {
		return Message{}, fmt.Errorf("failed to read recipients: %w", err)
	}
	for _, r := range recipients {
		switch r.Type {
		case RecipientTo:
			msg.To = append(msg.To, r.Address)
		case RecipientCc:
			msg.Cc = append(msg.Cc, r.Address)
		}
	}
	attachments, err := content.Attachments()
	if err != nil {
		return Message{}, fmt.Errorf("failed to read attachments: %w", err)
	}
	msg.Attachments = append(msg.Attachments, attachments...)
	return msg, nil
}

func mapEventSummary(item Item) (EventSummary, error) {
	apt, ok := item.(AppointmentItem)
	if !ok {
		return EventSummary{}, ErrWrongItemClass
	}
	id, err := item.EntryID()
	if err != nil {
		return EventSummary{}, fmt.Errorf("failed to read entry id: %w", err)
	}
	start, err := apt.Start()
	if err != nil {
		return EventSummary{}, fmt.Errorf("failed to read start: %w", err)
	}
	end, err := apt.End()
	if err != nil {
		return EventSummary{}, fmt.Errorf("failed to read end: %w", err)
	}
	subject, err := apt.Subject()
	if err != nil {
		return EventSummary{}, fmt.Errorf("failed to read subject: %w", err)
	}

	return EventSummary{
		EntryID:     id,
		Subject:     subject,
		Start:       start,
		End:         end,
		Location:    optional(apt.Location()),
		IsAllDay:    optional(apt.AllDay()),
		IsRecurring: optional(apt.Recurring()),
	}, nil
}

func mapEvent(item Item) (Event, error) {
	summary, err := mapEventSummary(item)
	if err != nil {
		return Event{}, err
	}
	ev := Event{EventSummary: summary, Attendees: []string{}}

	content, ok := item.(AppointmentContent)
	if !ok {
		return ev, nil
	}
	ev.Body = optional(content.Body())
	ev.Organizer = optional(content.Organizer())
	attendees, err := content.Attendees()
	if err != nil {
		return Event{}, fmt.Errorf("failed to read attendees: %w", err)
	}
	ev.Attendees = append(ev.Attendees, attendees...)
	if summary.IsRecurring {
		pattern, err := content.RecurrenceType()
		if err != nil {
			pattern = "Unknown"
		}
		ev.RecurrencePattern = pattern
	}
	return ev, nil
}
