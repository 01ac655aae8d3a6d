// Package availability decodes free/busy strings and searches them for
// meeting slots.
//
// A free/busy string holds one character per interval: '0' free,
// '1' tentative, '2' busy and '3' out of office. Decode collapses runs of
// equal status into FreeBusySlot values. Finder loads the slots of every
// attendee from a Source and Sweep walks the search window for
// non-overlapping slots inside business hours on weekdays.
package availability
