// Package fixture implements an outlook backend over a YAML mailbox file.
//
// The mailbox file describes a folder tree with mail items and
// appointments, the signed-in user and a directory of recipients whose
// free/busy data comes from iCalendar documents. Stores enforce a
// ceiling on open handles, expand recurring appointments when a
// collection includes recurrences and evaluate the Restrict filter
// language, so the outlook package behaves against a fixture the way it
// does against a live store. With writeback enabled, saved changes are
// written back to the file by Store.Flush when the session closes.
//
// A minimal mailbox:
//
//	user: me@contoso.com
//	folders:
//	  - name: Mailbox
//	    class: other
//	    folders:
//	      - name: Inbox
//	        kind: inbox
//	        items:
//	          - id: m1
//	            subject: Hello
//	            received: 2025-03-03T08:00:00Z
//	recipients:
//	  - address: bob@contoso.com
//	    calendar: bob.ics
package fixture
