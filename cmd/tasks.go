package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearledger/regintel/internal/model"
)

var (
	tasksAnalysisID string
	tasksLimit      int
	tasksStatus     string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and update remediation tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tasks, or all tasks for one gap analysis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		var tasks []model.Task
		if tasksAnalysisID != "" {
			tasks, err = st.ListTasksByAnalysis(ctx, tasksAnalysisID)
		} else {
			tasks, err = st.ListOpenTasks(ctx, tasksLimit)
		}
		if err != nil {
			return eris.Wrap(err, "list tasks")
		}

		if len(tasks) == 0 {
			fmt.Println("no tasks")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCONTROL\tPRIORITY\tSTATUS\tDUE\tTEAM\tTITLE")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.ControlID, t.Priority, t.Status,
				t.DueDate.Format("2006-01-02"), t.AssignedTeam, t.Title)
		}
		return w.Flush()
	},
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Advance a task's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		taskID := args[0]

		next := model.TaskStatus(tasksStatus)
		if !model.ValidTaskStatus(next) {
			return eris.Errorf("unknown status %q", tasksStatus)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		task, err := st.GetTask(ctx, taskID)
		if err != nil {
			return eris.Wrapf(err, "get task %s", taskID)
		}
		if err := model.CheckStatusTransition(task.Status, next); err != nil {
			return err
		}
		if err := st.UpdateTaskStatus(ctx, taskID, next); err != nil {
			return eris.Wrapf(err, "update task %s", taskID)
		}

		zap.L().Info("task updated",
			zap.String("task_id", taskID),
			zap.String("from", string(task.Status)),
			zap.String("to", string(next)),
		)
		return nil
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&tasksAnalysisID, "analysis", "", "gap analysis ID (lists every task for it, open or not)")
	tasksListCmd.Flags().IntVar(&tasksLimit, "limit", 50, "max open tasks to list")
	tasksUpdateCmd.Flags().StringVar(&tasksStatus, "status", "", "new status: pending, in_progress, or completed (required)")
	_ = tasksUpdateCmd.MarkFlagRequired("status")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksUpdateCmd)
	rootCmd.AddCommand(tasksCmd)
}
