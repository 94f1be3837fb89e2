package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/mstoffel/outlook-cli/internal/calendar"
)

func calendarCommand() *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "view and manage calendar events",
		Commands: []*cli.Command{
			calendarListCommand(),
			calendarCreateCommand(),
			calendarUpdateCommand(),
			calendarDeleteCommand(),
			calendarScheduleCommand(),
		},
	}
}

func newCalendarClient(ctx context.Context, cmd *cli.Command) (*calendar.Client, error) {
	cfg, err := loadAndInstrument(cmd)
	if err != nil {
		return nil, err
	}
	resolver, _, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}
	return calendar.NewClient(ctx, resolver, cmd.String("account"))
}

func calendarListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list upcoming events",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "today",
				Usage: "only today's events",
			},
			&cli.IntFlag{
				Name:  "days",
				Usage: "number of days to show",
				Value: 7,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newCalendarClient(ctx, cmd)
			if err != nil {
				return err
			}

			now := time.Now()
			start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			days := cmd.Int("days")
			if cmd.Bool("today") {
				days = 1
			}
			end := start.AddDate(0, 0, days)

			events, err := client.ListEvents(ctx, start, end)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, events)
			}
			writeEvents(os.Stdout, events)
			return nil
		},
	}
}

func calendarCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create an event",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "summary",
				Usage:    "event title",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "from",
				Usage:    "start time (ISO 8601, interpreted as UTC)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "end time (ISO 8601, interpreted as UTC)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "location",
				Usage: "event location",
			},
			&cli.StringSliceFlag{
				Name:  "attendees",
				Usage: "attendee email addresses",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newCalendarClient(ctx, cmd)
			if err != nil {
				return err
			}
			event, err := client.CreateEvent(ctx, calendar.EventInput{
				Summary:   cmd.String("summary"),
				Start:     cmd.String("from"),
				End:       cmd.String("to"),
				Location:  cmd.String("location"),
				Attendees: cmd.StringSlice("attendees"),
			})
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, event)
			}
			fmt.Printf("✓ Event created (id: %s)\n", event.ID)
			return nil
		},
	}
}

func calendarUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "update an event",
		ArgsUsage: "EVENT_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "summary",
				Usage: "event title",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "start time (ISO 8601, interpreted as UTC)",
			},
			&cli.StringFlag{
				Name:  "to",
				Usage: "end time (ISO 8601, interpreted as UTC)",
			},
			&cli.StringFlag{
				Name:  "location",
				Usage: "event location",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing event id")
			}

			var update calendar.EventUpdate
			if cmd.IsSet("summary") {
				update.Summary = ptr(cmd.String("summary"))
			}
			if cmd.IsSet("from") {
				update.Start = ptr(cmd.String("from"))
			}
			if cmd.IsSet("to") {
				update.End = ptr(cmd.String("to"))
			}
			if cmd.IsSet("location") {
				update.Location = ptr(cmd.String("location"))
			}

			client, err := newCalendarClient(ctx, cmd)
			if err != nil {
				return err
			}
			event, err := client.UpdateEvent(ctx, id, update)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, event)
			}
			fmt.Println("✓ Event updated")
			return nil
		},
	}
}

func calendarDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete an event",
		ArgsUsage: "EVENT_ID",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing event id")
			}
			client, err := newCalendarClient(ctx, cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteEvent(ctx, id); err != nil {
				return err
			}
			fmt.Println("✓ Event deleted")
			return nil
		},
	}
}

func calendarScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "show free/busy information for attendees",
		ArgsUsage: "EMAIL...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "from",
				Usage:    "window start (RFC 3339)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "to",
				Usage:    "window end (RFC 3339)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			attendees := cmd.Args().Slice()
			if len(attendees) == 0 {
				return fmt.Errorf("missing attendee emails")
			}

			start, err := time.Parse(time.RFC3339, cmd.String("from"))
			if err != nil {
				return fmt.Errorf("invalid --from time (want RFC 3339, e.g. 2026-01-02T09:00:00Z): %w", err)
			}
			end, err := time.Parse(time.RFC3339, cmd.String("to"))
			if err != nil {
				return fmt.Errorf("invalid --to time (want RFC 3339, e.g. 2026-01-02T17:00:00Z): %w", err)
			}

			client, err := newCalendarClient(ctx, cmd)
			if err != nil {
				return err
			}
			schedules, err := client.GetSchedule(ctx, start, end, attendees)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, schedules)
			}
			writeSchedules(os.Stdout, schedules)
			return nil
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
