package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mstoffel/outlook-cli/internal/mail"
)

func mailCommand() *cli.Command {
	return &cli.Command{
		Name:  "mail",
		Usage: "read, search, and send mail",
		Commands: []*cli.Command{
			mailListCommand(),
			mailSearchCommand(),
			mailGetCommand(),
			mailSendCommand(),
			mailDraftCommand(),
			mailDeleteCommand(),
		},
	}
}

func newMailClient(ctx context.Context, cmd *cli.Command) (*mail.Client, error) {
	cfg, err := loadAndInstrument(cmd)
	if err != nil {
		return nil, err
	}
	resolver, _, err := newResolver(cfg)
	if err != nil {
		return nil, err
	}
	return mail.NewClient(ctx, resolver, cmd.String("account"))
}

func mailListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list messages in a folder",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "folder",
				Usage: "folder name (inbox|sent|drafts|deleted or a folder id)",
				Value: "inbox",
			},
			&cli.IntFlag{
				Name:  "max",
				Usage: "maximum number of messages",
				Value: 10,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := newMailClient(ctx, cmd)
			if err != nil {
				return err
			}
			messages, err := client.ListMessages(ctx, cmd.String("folder"), cmd.Int("max"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, messages)
			}
			writeMessages(os.Stdout, messages)
			return nil
		},
	}
}

func mailSearchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search messages",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max",
				Usage: "maximum number of messages",
				Value: 10,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("missing search query")
			}
			client, err := newMailClient(ctx, cmd)
			if err != nil {
				return err
			}
			messages, err := client.Search(ctx, query, cmd.Int("max"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, messages)
			}
			writeMessages(os.Stdout, messages)
			return nil
		},
	}
}

func mailGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "show a single message including its body",
		ArgsUsage: "MESSAGE_ID",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing message id")
			}
			client, err := newMailClient(ctx, cmd)
			if err != nil {
				return err
			}
			message, err := client.GetMessage(ctx, id)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, message)
			}
			writeMessageDetail(os.Stdout, message)
			return nil
		},
	}
}

func mailBody(cmd *cli.Command) (string, error) {
	if path := cmd.String("body-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read body file: %w", err)
		}
		return string(data), nil
	}
	if body := cmd.String("body"); body != "" {
		return body, nil
	}
	return "", fmt.Errorf("missing message body: pass --body or --body-file")
}

func mailComposeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "to",
			Usage:    "recipient email address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "subject",
			Usage:    "message subject",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "body",
			Usage: "message body text",
		},
		&cli.StringFlag{
			Name:  "body-file",
			Usage: "read the message body from a file",
		},
	}
}

func mailSendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "send a message",
		Flags: mailComposeFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			body, err := mailBody(cmd)
			if err != nil {
				return err
			}
			client, err := newMailClient(ctx, cmd)
			if err != nil {
				return err
			}
			if err := client.SendMessage(ctx, cmd.String("to"), cmd.String("subject"), body); err != nil {
				return err
			}
			fmt.Println("✓ Message sent")
			return nil
		},
	}
}

func mailDraftCommand() *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "create a draft message",
		Flags: mailComposeFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			body, err := mailBody(cmd)
			if err != nil {
				return err
			}
			client, err := newMailClient(ctx, cmd)
			if err != nil {
				return err
			}
			draft, err := client.CreateDraft(ctx, cmd.String("to"), cmd.String("subject"), body)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return printJSON(os.Stdout, draft)
			}
			fmt.Printf("✓ Draft created (id: %s)\n", draft.ID)
			return nil
		},
	}
}

func mailDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a message",
		ArgsUsage: "MESSAGE_ID",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing message id")
			}
			client, err := newMailClient(ctx, cmd)
			if err != nil {
				return err
			}
			if err := client.DeleteMessage(ctx, id); err != nil {
				return err
			}
			fmt.Println("✓ Message deleted")
			return nil
		},
	}
}
