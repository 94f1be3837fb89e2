package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mstoffel/outlook-cli/internal/tasks"
)

func tasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "manage to-do tasks",
		Commands: []*cli.Command{
			tasksListsCommand(),
			tasksListCommand(),
			tasksCreateCommand(),
			tasksUpdateCommand(),
			tasksCompleteCommand(),
			tasksDeleteCommand(),
		},
	}
}

func newTasksClient(ctx context.Context, cmd *cli.Command) (*tasks.Client, error) {
	cfg, err := loadAndInstrument(cmd)
	if err != nil {
		return nil, err
	}
	resolver, _, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}
	return tasks.NewClient(ctx, resolver, cmd.String("account"))
}

func taskListFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "list",
		Usage: "task list display name",
		Value: tasks.DefaultListName,
	}
}

func tasksListsCommand() *cli.Command {
	return &cli.Command{
		Name:  "lists",
		Usage: "show all task lists",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newTasksClient(ctx, cmd)
			if err != nil {
				return err
			}
			lists, err := client.ListTaskLists(ctx)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, lists)
			}
			writeTaskLists(os.Stdout, lists)
			return nil
		},
	}
}

func tasksListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list tasks",
		Flags: []cli.Flag{
			taskListFlag(),
			&cli.BoolFlag{
				Name:  "all",
				Usage: "include completed tasks",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newTasksClient(ctx, cmd)
			if err != nil {
				return err
			}
			items, err := client.ListTasks(ctx, cmd.String("list"), cmd.Bool("all"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, items)
			}
			writeTasks(os.Stdout, items)
			return nil
		},
	}
}

func tasksCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create a task",
		Flags: []cli.Flag{
			taskListFlag(),
			&cli.StringFlag{
				Name:     "title",
				Usage:    "task title",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "due",
				Usage: "due date (ISO 8601)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newTasksClient(ctx, cmd)
			if err != nil {
				return err
			}
			task, err := client.CreateTask(ctx, cmd.String("list"), cmd.String("title"), cmd.String("due"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, task)
			}
			fmt.Printf("✓ Task created (id: %s)\n", task.ID)
			return nil
		},
	}
}

func tasksUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "update a task",
		ArgsUsage: "TASK_ID",
		Flags: []cli.Flag{
			taskListFlag(),
			&cli.StringFlag{
				Name:  "title",
				Usage: "task title",
			},
			&cli.StringFlag{
				Name:  "due",
				Usage: "due date (ISO 8601)",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "task status (notStarted|inProgress|completed)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing task id")
			}

			var update tasks.TaskUpdate
			if cmd.IsSet("title") {
				update.Title = ptr(cmd.String("title"))
			}
			if cmd.IsSet("due") {
				update.Due = ptr(cmd.String("due"))
			}
			if cmd.IsSet("status") {
				update.Status = ptr(cmd.String("status"))
			}

			client, err := newTasksClient(ctx, cmd)
			if err != nil {
				return err
			}
			task, err := client.UpdateTask(ctx, cmd.String("list"), id, update)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, task)
			}
			fmt.Println("✓ Task updated")
			return nil
		},
	}
}

func tasksCompleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "complete",
		Usage:     "mark a task completed",
		ArgsUsage: "TASK_ID",
		Flags:     []cli.Flag{taskListFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing task id")
			}
			client, err := newTasksClient(ctx, cmd)
			if err != nil {
				return err
			}
			if _, err := client.CompleteTask(ctx, cmd.String("list"), id); err != nil {
				return err
			}
			fmt.Println("✓ Task completed")
			return nil
		},
	}
}

func tasksDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a task",
		ArgsUsage: "TASK_ID",
		Flags:     []cli.Flag{taskListFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing task id")
			}
			client, err := newTasksClient(ctx, cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteTask(ctx, cmd.String("list"), id); err != nil {
				return err
			}
			fmt.Println("✓ Task deleted")
			return nil
		},
	}
}
