package outlook

import (
	"fmt"
	"strings"
	"time"
)

// FilterTimeLayout is the date format used inside Restrict filters.
const FilterTimeLayout = "01/02/2006 3:04 PM"

// Property references used for sorting and filtering.
const (
	PropReceivedTime      = "[ReceivedTime]"
	PropStart             = "[Start]"
	PropUnread            = "[UnRead]"
	PropConversationTopic = "[ConversationTopic]"
)

// DASL property names used by search filters.
const (
	daslSubject      = "urn:schemas:httpmail:subject"
	daslTextBody     = "urn:schemas:httpmail:textdescription"
	daslFromEmail    = "urn:schemas:httpmail:fromemail"
	daslDateReceived = "urn:schemas:httpmail:datereceived"
)

// FormatFilterTime formats t in the store's local filter date format.
func FormatFilterTime(t time.Time) string {
	return t.Format(FilterTimeLayout)
}

// EscapeFilterValue doubles single quotes so s can be embedded in a
// quoted filter literal.
func EscapeFilterValue(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// UnreadFilter matches unread items.
func UnreadFilter() string {
	return PropUnread + " = True"
}

// ConversationFilter matches items with the given conversation topic.
func ConversationFilter(topic string) string {
	return fmt.Sprintf("%s = '%s'", PropConversationTopic, EscapeFilterValue(topic))
}

// StartWindowFilter matches appointments starting within [start, end].
func StartWindowFilter(start, end time.Time) string {
	return fmt.Sprintf("%s >= '%s' AND %s <= '%s'",
		PropStart, FormatFilterTime(start), PropStart, FormatFilterTime(end))
}

// SearchCriteria selects mail for a search.
type SearchCriteria struct {
	Text   string
	From   string
	After  *time.Time
	Before *time.Time
}

// Filter returns a DASL filter for the criteria, or the empty string
// when no criterion is set.
func (c SearchCriteria) Filter() string {
	var conds []string
	if c.Text != "" {
		q := EscapeFilterValue(c.Text)
		conds = append(conds, fmt.Sprintf(`("%s" LIKE '%%%s%%' OR "%s" LIKE '%%%s%%')`, daslSubject, q, daslTextBody, q))
	}
	if c.From != "" {
		conds = append(conds, fmt.Sprintf(`"%s" LIKE '%%%s%%'`, daslFromEmail, EscapeFilterValue(c.From)))
	}
	if c.After != nil {
		conds = append(conds, fmt.Sprintf(`"%s" >= '%s'`, daslDateReceived, FormatFilterTime(*c.After)))
	}
	if c.Before != nil {
		conds = append(conds, fmt.Sprintf(`"%s" <= '%s'`, daslDateReceived, FormatFilterTime(*c.Before)))
	}
	if len(conds) == 0 {
		return ""
	}
	return "@SQL=" + strings.Join(conds, " AND ")
}
