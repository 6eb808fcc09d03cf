package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/ilistas/internal/models"
)

func listsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show all lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := a.svc.Index(a.ctx(cmd))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(all) == 0 {
				fmt.Fprintln(out, "No lists yet. Create one with: ilistas new <title>")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tITEMS")
			for _, l := range all {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", l.ID, l.Title, len(l.Items))
			}
			return tw.Flush()
		},
	}
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <list-id>",
		Short: "Show a list and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			l, err := a.svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			var origins map[string]string
			if l.IsWatched {
				if origins, err = a.svc.OriginTitles(ctx); err != nil {
					return err
				}
			}
			printList(cmd.OutOrStdout(), l, origins)
			return nil
		},
	}
}

func printList(out io.Writer, l models.List, origins map[string]string) {
	fmt.Fprintf(out, "%s\n", l.Title)
	if l.Description != "" {
		fmt.Fprintf(out, "%s\n", l.Description)
	}
	if l.ShareID != "" {
		fmt.Fprintf(out, "shared as %s\n", l.ShareID)
	}
	fmt.Fprintln(out)

	if len(l.Items) == 0 {
		fmt.Fprintln(out, "(empty)")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "ID\tNAME\tWHERE\tTYPE\tWATCHED"
	if origins != nil {
		header += "\tFROM"
	}
	fmt.Fprintln(tw, header)
	for _, it := range l.Items {
		watched := ""
		if it.Watched {
			watched = "x"
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", it.ID, it.Name, it.WatchOn, it.Type, watched)
		if origins != nil {
			line += "\t" + origins[it.OriginListID]
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
}

func newCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.svc.CreateList(a.ctx(cmd), strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created list %q (%s)\n", l.Title, l.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "list description")
	return cmd
}

func rmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <list-id>",
		Short: "Delete a list and its watched copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.DeleteList(a.ctx(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted list %s\n", args[0])
			return nil
		},
	}
}

// itemFlags binds the item form fields to flags.
func itemFlags(cmd *cobra.Command, in *models.ItemInput) {
	cmd.Flags().StringVar(&in.WatchOn, "on", "", "where to watch it")
	cmd.Flags().StringVar((*string)(&in.Type), "type", string(models.DefaultContentType), "série, filme or anime")
	cmd.Flags().StringVar(&in.Note, "note", "", "free-text note")
	cmd.Flags().BoolVar(&in.Watched, "watched", false, "mark as already watched")
}

func addCmd(a *app) *cobra.Command {
	var in models.ItemInput

	cmd := &cobra.Command{
		Use:   "add <list-id> <name>",
		Short: "Add an item to a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args[1:], " ")
			it, err := a.svc.AddItem(a.ctx(cmd), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s)\n", it.Name, it.ID)
			return nil
		},
	}
	itemFlags(cmd, &in)
	return cmd
}

func editCmd(a *app) *cobra.Command {
	var in models.ItemInput

	cmd := &cobra.Command{
		Use:   "edit <list-id> <item-id> <name>",
		Short: "Replace an item's fields",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args[2:], " ")
			it, err := a.svc.UpdateItem(a.ctx(cmd), args[0], args[1], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q\n", it.Name)
			return nil
		},
	}
	itemFlags(cmd, &in)
	return cmd
}

func delCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "del <list-id> <item-id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.DeleteItem(a.ctx(cmd), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %s\n", args[1])
			return nil
		},
	}
}

func addURLCmd(a *app) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "add-url <list-id> <url>",
		Short: "Add an item from a web page's title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.svc.AddItemFromURL(a.ctx(cmd), args[0], args[1], models.ContentType(typ))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q from %s\n", it.Name, it.WatchOn)
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "série, filme or anime")
	return cmd
}

func feedCmd(a *app) *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "feed <list-id> <feed-url>...",
		Short: "Add one item per entry of RSS/Atom feeds",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.ImportFeed(a.ctx(cmd), args[0], args[1:], models.ContentType(typ))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %d, skipped %d already in the list\n", res.Added, res.Skipped)
			for _, f := range res.Failed {
				fmt.Fprintf(out, "  failed: %s: %s\n", f.URL, f.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "série, filme or anime")
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <list-id> <item-id>",
		Short: "Toggle an item's watched flag",
		Long: "Toggle an item's watched flag. Marking an item in an ordinary list moves " +
			"it to the \"Assistidos\" list.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.svc.ToggleWatched(a.ctx(cmd), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if l.FindItem(args[1]) < 0 {
				fmt.Fprintf(out, "Moved to %s\n", models.WatchedListTitle)
				return nil
			}
			fmt.Fprintln(out, "Watched flag updated")
			return nil
		},
	}
}

func moveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <from-list-id> <item-id> <to-list-id>",
		Short: "Move an item to another list",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := a.svc.MoveItem(a.ctx(cmd), args[1], args[0], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q (now %s)\n", it.Name, it.ID)
			return nil
		},
	}
}

func shareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "share <list-id>",
		Short: "Print a share link for a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, link, err := a.svc.Share(a.ctx(cmd), args[0], a.cfg.Origin())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <share-url>",
		Short: "Import a list from a share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shareID, token, err := parseShareLink(args[0])
			if err != nil {
				return err
			}
			res, err := a.svc.Import(a.ctx(cmd), token, shareID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.AlreadyImported {
				fmt.Fprintf(out, "Already imported as %q (%s)\n", res.List.Title, res.List.ID)
				return nil
			}
			fmt.Fprintf(out, "Imported %q with %d items (%s)\n", res.List.Title, len(res.List.Items), res.List.ID)
			return nil
		},
	}
}

// parseShareLink extracts the share ID and token from
// <origin>/share/<shareId>?data=<token>.
func parseShareLink(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("invalid share link: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] != "share" || parts[len(parts)-1] == "" {
		return "", "", errors.New("invalid share link: expected .../share/<id>?data=<token>")
	}
	token := u.Query().Get("data")
	if token == "" {
		return "", "", errors.New("invalid share link: missing data parameter")
	}
	return parts[len(parts)-1], token, nil
}

func snapshotsCmd(a *app) *cobra.Command {
	var (
		limit   int
		restore int64
	)

	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List saved versions of the collection, or restore one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.ctx(cmd)
			out := cmd.OutOrStdout()

			if restore > 0 {
				c, err := a.svc.RestoreSnapshot(ctx, restore)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Restored snapshot %d (%d lists)\n", restore, len(c))
				return nil
			}

			snaps, err := a.svc.Snapshots(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSAVED\tLISTS\tITEMS")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n",
					strconv.FormatInt(s.ID, 10), s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.ListCount, s.ItemCount)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of snapshots to show")
	cmd.Flags().Int64Var(&restore, "restore", 0, "snapshot ID to restore")
	return cmd
}
