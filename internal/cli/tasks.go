package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"tasktracker/internal/models"
	"tasktracker/internal/tasks"
	"tasktracker/internal/tracker"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var description, priority, due string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to the top of the list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := parseDue(due)
			if err != nil {
				return err
			}
			in := models.NewTask{
				Title:       strings.Join(args, " "),
				Description: description,
				Priority:    models.Priority(priority),
				DueDate:     dueDate,
			}
			return withTracker(cmd.Context(), opts, cmd.ErrOrStderr(), func(tr *tracker.Tracker) error {
				task, err := tr.AddTask(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s  %s\n", task.ID, task.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(models.PriorityMedium), "Priority: low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := models.Filter(filter)
			if !f.Valid() {
				return fmt.Errorf("%w: %q", tracker.ErrInvalidFilter, filter)
			}
			return withTracker(cmd.Context(), opts, cmd.ErrOrStderr(), func(tr *tracker.Tracker) error {
				printView(cmd.OutOrStdout(), tr.ViewWith(f))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(models.FilterAll), "Filter: all, active or completed")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), opts, cmd.ErrOrStderr(), func(tr *tracker.Tracker) error {
				id, err := resolveID(tr.Store(), args[0])
				if err != nil {
					return err
				}
				task, _ := tr.Store().Get(id)
				printTask(cmd.OutOrStdout(), task, time.Now())
				return nil
			})
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var title, description, priority, due string
	var clearDue bool

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.Patch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("priority") {
				p := models.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("due") {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				patch.DueDate = d
			}
			if clearDue {
				patch.DueDate = &models.Date{}
			}

			return withTracker(cmd.Context(), opts, cmd.ErrOrStderr(), func(tr *tracker.Tracker) error {
				id, err := resolveID(tr.Store(), args[0])
				if err != nil {
					return err
				}
				task, err := tr.UpdateTask(id, patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s  %s\n", task.ID, task.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description (empty clears it)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "New priority: low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Mark a task completed, or active again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), opts, cmd.ErrOrStderr(), func(tr *tracker.Tracker) error {
				id, err := resolveID(tr.Store(), args[0])
				if err != nil {
					return err
				}
				task, err := tr.ToggleTask(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", task.Title, task.Status)
				return nil
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task permanently",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), opts, cmd.ErrOrStderr(), func(tr *tracker.Tracker) error {
				id, err := resolveID(tr.Store(), args[0])
				if err != nil {
					return err
				}
				if err := tr.DeleteTask(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				return nil
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts and completion rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), opts, cmd.ErrOrStderr(), func(tr *tracker.Tracker) error {
				st := tasks.ComputeStats(tr.Store().Tasks())
				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d  Active: %d  Completed: %d  Complete: %d%%\n",
					st.Total, st.Active, st.Completed, tasks.CompletionRate(st))
				return nil
			})
		},
	}
}

func parseDue(raw string) (*models.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", tracker.ErrInvalidDueDate, raw)
	}
	return &d, nil
}

func printView(w io.Writer, v tracker.View) {
	if len(v.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	overdue := make(map[string]bool, len(v.Overdue))
	for _, id := range v.Overdue {
		overdue[id] = true
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tDUE\tTITLE")
	for _, t := range v.Tasks {
		mark := "[ ]"
		if t.Status == models.StatusCompleted {
			mark = "[x]"
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.String()
			if overdue[t.ID] {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), mark, t.Priority, due, t.Title)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d shown, %d total, %d%% complete\n", len(v.Tasks), v.Stats.Total, v.CompletionRate)
}

func printTask(w io.Writer, t models.Task, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	}
	fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	if t.DueDate != nil {
		due := t.DueDate.String()
		if t.Overdue(now) {
			due += " (overdue)"
		}
		fmt.Fprintf(tw, "Due:\t%s\n", due)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", t.CreatedAt.Local().Format(time.DateTime))
	if t.CompletedAt != nil {
		fmt.Fprintf(tw, "Completed:\t%s\n", t.CompletedAt.Local().Format(time.DateTime))
	}
	tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
