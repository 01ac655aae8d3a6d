package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/outlookctl/internal/outlook"
	"github.com/teemow/outlookctl/internal/tools/batch"
)

const (
	defaultListLimit         = 20
	defaultConversationLimit = 50
)

func newMailCmds(o *rootOptions) []*cobra.Command {
	return []*cobra.Command{
		newFoldersCmd(o),
		newListCmd(o),
		newSearchCmd(o),
		newReadCmd(o),
		newConversationCmd(o),
		newMarkCmd(o, "mark-read", true),
		newMarkCmd(o, "mark-unread", false),
		newCategoriesCmd(o),
		newMoveCmd(o),
		newDeleteCmd(o),
		newOpenCmd(o),
		newIsDeletedCmd(o),
	}
}

func newFoldersCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "List mail folders with item and unread counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				return s.ListFolders(ctx)
			})
		},
	}
}

func newListCmd(o *rootOptions) *cobra.Command {
	var (
		opts outlook.ListOptions
		full bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List messages in a folder, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				if full {
					return s.ListMailFull(ctx, opts)
				}
				return s.ListMail(ctx, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Folder, "folder", "", "Folder name or alias (default: inbox)")
	cmd.Flags().BoolVar(&opts.UnreadOnly, "unread", false, "Only list unread messages")
	cmd.Flags().IntVar(&opts.Limit, "limit", defaultListLimit, "Maximum number of messages")
	cmd.Flags().BoolVar(&full, "full", false, "Include bodies, recipients and attachments")

	return cmd
}

func newSearchCmd(o *rootOptions) *cobra.Command {
	var (
		criteria      outlook.SearchCriteria
		after, before string
		folder        string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search messages by text, sender and received date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			afterTime, err := timeFlag("after", after)
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			beforeTime, err := timeFlag("before", before)
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			if !afterTime.IsZero() {
				criteria.After = &afterTime
			}
			if !beforeTime.IsZero() {
				criteria.Before = &beforeTime
			}
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				return s.SearchMail(ctx, folder, criteria, limit)
			})
		},
	}

	cmd.Flags().StringVar(&criteria.Text, "query", "", "Text to find in the subject or body")
	cmd.Flags().StringVar(&criteria.From, "from", "", "Sender address or part of it")
	cmd.Flags().StringVar(&after, "after", "", "Only messages received after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&before, "before", "", "Only messages received before this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&folder, "folder", "", "Folder name or alias (default: inbox)")
	cmd.Flags().IntVar(&limit, "limit", defaultListLimit, "Maximum number of messages")

	return cmd
}

func newReadCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "read ID",
		Short: "Read a message including body, recipients and attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				return s.ReadMail(ctx, args[0])
			})
		},
	}
}

func newConversationCmd(o *rootOptions) *cobra.Command {
	var (
		limit int
		full  bool
	)

	cmd := &cobra.Command{
		Use:   "conversation ID",
		Short: "List the messages of a conversation across inbox, sent items and drafts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				if full {
					return s.ConversationFull(ctx, args[0], limit)
				}
				return s.Conversation(ctx, args[0], limit)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultConversationLimit, "Maximum number of messages")
	cmd.Flags().BoolVar(&full, "full", false, "Include bodies, recipients and attachments")

	return cmd
}

func newMarkCmd(o *rootOptions, use string, read bool) *cobra.Command {
	state := "unread"
	if read {
		state = "read"
	}

	return &cobra.Command{
		Use:   use + " ID...",
		Short: "Mark messages as " + state,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := batch.ParseStringOrArray(args, "ID")
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			return o.runBatch(cmd, ids, func(ctx context.Context, s *outlook.Session, id string) (string, error) {
				if err := s.SetRead(ctx, id, read); err != nil {
					return "", err
				}
				return "marked " + state, nil
			})
		},
	}
}

func newCategoriesCmd(o *rootOptions) *cobra.Command {
	var set string

	cmd := &cobra.Command{
		Use:   "categories ID",
		Short: "Show or replace the categories of a message",
		Long: `Show the categories of a message, or replace them with --set.
Categories are separated by commas or semicolons. --set "" clears them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			replace := cmd.Flags().Changed("set")
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				if replace {
					cats := outlook.ParseCategories(set)
					if err := s.SetCategories(ctx, id, cats); err != nil {
						return nil, err
					}
					return categoriesResult{ID: id, Categories: cats}, nil
				}
				cats, err := s.Categories(ctx, id)
				if err != nil {
					return nil, err
				}
				return categoriesResult{ID: id, Categories: cats}, nil
			})
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "Replace the categories, e.g. \"Finance, Q1\"")

	return cmd
}

func newMoveCmd(o *rootOptions) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "move ID...",
		Short: "Move messages to another folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := batch.ParseStringOrArray(args, "ID")
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			return o.runBatch(cmd, ids, func(ctx context.Context, s *outlook.Session, id string) (string, error) {
				if err := s.MoveMail(ctx, id, folder); err != nil {
					return "", err
				}
				return fmt.Sprintf("moved to %s", folder), nil
			})
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Target folder name or alias")
	_ = cmd.MarkFlagRequired("folder")

	return cmd
}

func newDeleteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Move messages to Deleted Items, or delete them for good when they are already there",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := batch.ParseStringOrArray(args, "ID")
			if err != nil {
				return o.invalid(cmd.Name(), err)
			}
			return o.runBatch(cmd, ids, func(ctx context.Context, s *outlook.Session, id string) (string, error) {
				if err := s.DeleteMail(ctx, id); err != nil {
					return "", err
				}
				return "deleted", nil
			})
		},
	}
}

func newOpenCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open ID",
		Short: "Display a message in Outlook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				if err := s.OpenItem(ctx, args[0], outlook.ClassMail); err != nil {
					return nil, err
				}
				return actionResult{ID: args[0], Action: "opened"}, nil
			})
		},
	}
}

func newIsDeletedCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "is-deleted ID",
		Short: "Report whether a message is in Deleted Items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runSession(cmd, func(ctx context.Context, s *outlook.Session) (interface{}, error) {
				deleted, err := s.IsInDeletedItems(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return deletedResult{ID: args[0], InDeletedItems: deleted}, nil
			})
		},
	}
}
