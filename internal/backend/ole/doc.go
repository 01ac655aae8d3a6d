// Package ole implements outlook.Store over the Outlook automation
// interface using COM. The backend is only functional on Windows; on
// other platforms Open returns an error.
//
// COM objects are apartment threaded. A store locks the opening
// goroutine to its OS thread until Release, so all handles of a store
// must be used and released on the goroutine that opened it.
package ole
