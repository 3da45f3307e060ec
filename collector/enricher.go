// ABOUTME: Turns one broadcast report contact into a fixed-width output row
// ABOUTME: Looks up names, formats fields, and splices in the reply transcript
package collector

import (
	"context"
	"time"

	"github.com/harperreed/heyreport/heymarket"
)

const (
	// FixedColumns is the number of cells before the message columns.
	FixedColumns = 8

	// DefaultMaxMessages is the default transcript width K.
	DefaultMaxMessages = 20

	// UnknownBrand labels broadcasts sent from an unmapped inbox.
	UnknownBrand = "Unknown Brand"

	missingName = "N/A"
	flagSet     = "X"
)

// Row is one exported line: eight fixed cells followed by K message cells.
type Row []string

// ConversationFetcher returns a conversation transcript, oldest first.
// Implementations absorb their own errors.
type ConversationFetcher interface {
	FetchConversation(ctx context.Context, conversationID heymarket.ID) []string
}

// Enricher builds output rows from report contacts.
type Enricher struct {
	Conversations ConversationFetcher
	MaxMessages   int
	Location      *time.Location
}

// Width returns the number of cells every row has.
func (e *Enricher) Width() int {
	return FixedColumns + e.maxMessages()
}

func (e *Enricher) maxMessages() int {
	if e.MaxMessages <= 0 {
		return DefaultMaxMessages
	}
	return e.MaxMessages
}

// Enrich produces the row for contact. It never fails: a missing list entry
// yields "N/A" names and a failed transcript fetch yields empty message cells.
func (e *Enricher) Enrich(ctx context.Context, contact heymarket.ReportContact, brand string, list heymarket.List, initialSendTime string) Row {
	firstName, lastName := missingName, missingName
	if target, ok := list.Targets[contact.Target]; ok {
		if target.FirstName != "" {
			firstName = target.FirstName
		}
		if target.LastName != "" {
			lastName = target.LastName
		}
	}

	failed := ""
	if contact.Failed() {
		failed = flagSet
	}

	responded, responseTime := "", ""
	if contact.Responded() {
		responded = flagSet
		responseTime = FormatDisplayTime(contact.ResponseTime, e.Location)
	}

	row := make(Row, e.Width())
	row[0] = brand
	row[1] = firstName
	row[2] = lastName
	row[3] = FormatPhoneNumber(contact.Target.String())
	row[4] = FormatDisplayTime(initialSendTime, e.Location)
	row[5] = failed
	row[6] = responded
	row[7] = responseTime

	if responded == flagSet && !contact.ConversationID.Empty() && e.Conversations != nil {
		transcript := e.Conversations.FetchConversation(ctx, contact.ConversationID)
		// Anything beyond K messages is dropped.
		copy(row[FixedColumns:], transcript)
	}

	return row
}
