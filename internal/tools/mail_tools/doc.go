// Package mail_tools registers the MCP tools that read and change mail
// in the Outlook mailbox. Tools that change the mailbox are only
// registered when the server is not read-only.
package mail_tools
