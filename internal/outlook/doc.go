// Package outlook wraps an Outlook-style mail and calendar store behind a
// session that owns every external handle it touches.
//
// A Backend opens a Store. Open wraps the store in a Session, which
// registers each folder, collection, item and recipient it acquires with
// a Registry and releases them all, in reverse order, when the session is
// closed. Callers never see raw handles; they get plain records such as
// MessageSummary and Event.
//
// Folder names are resolved by FolderResolver: well-known and localized
// aliases first, then a pre-order walk of the folder tree. Item
// collections are enumerated by a Cursor, which sorts before it filters,
// honors recurring occurrences and skips items that fail to load.
//
// Sessions are not safe for concurrent use.
package outlook
