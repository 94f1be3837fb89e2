package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/mstoffel/outlook-cli/internal/auth"
	"github.com/mstoffel/outlook-cli/internal/tokenstore"
)

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "manage Microsoft account sign-in",
		Commands: []*cli.Command{
			authLoginCommand(),
			authLogoutCommand(),
			authStatusCommand(),
			authAccountsCommand(),
		},
	}
}

func authLoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in with the device code flow",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "client-id",
				Usage: "OAuth application (client) id",
			},
			&cli.StringFlag{
				Name:  "tenant",
				Usage: "identity platform tenant",
			},
		},
		Action: authLoginAction,
	}
}

func authLoginAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadAndInstrument(cmd)
	if err != nil {
		return err
	}

	clientID := cmd.String("client-id")
	if clientID == "" {
		clientID = cfg.Auth.ClientID
	}
	if clientID == "" {
		return fmt.Errorf("no client id: pass --client-id or set auth.client_id in the config file")
	}

	tenant := cmd.String("tenant")
	if tenant == "" {
		tenant = cfg.Auth.Tenant
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	opts := []auth.Option{
		auth.WithAuthority(cfg.Auth.Authority),
		auth.WithGraphBaseURL(cfg.Graph.BaseURL),
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		// No banner framing when stderr is piped
		opts = append(opts, auth.WithPrompt(func(userCode, verificationURI string) {
			fmt.Fprintf(os.Stderr, "To sign in, visit %s and enter the code %s\n", verificationURI, userCode)
		}))
	}

	email, err := auth.NewAuthenticator(store, opts...).Login(ctx, clientID, tenant)
	switch {
	case errors.Is(err, auth.ErrAuthorizationDeclined):
		return fmt.Errorf("authorization was declined; run `outlook auth login` to try again")
	case errors.Is(err, auth.ErrDeviceCodeExpired):
		return fmt.Errorf("the device code expired before you finished signing in; run `outlook auth login` to get a new one")
	case errors.Is(err, auth.ErrAuthorizationTimedOut):
		return fmt.Errorf("timed out waiting for you to finish signing in; run `outlook auth login` to try again")
	case err != nil:
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("✓ Successfully authenticated as %s\n", email)
	return nil
}

func authLogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "sign out of all accounts",
		Action: authLogoutAction,
	}
}

func authLogoutAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadAndInstrument(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	accounts, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read token store: %w", err)
	}
	if len(accounts) == 0 {
		fmt.Println("No active session")
		return nil
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear token store: %w", err)
	}

	fmt.Println("✓ Logged out successfully")
	return nil
}

// accountStatus is the JSON shape of one `auth status` row.
type accountStatus struct {
	Email     string `json:"email"`
	Tenant    string `json:"tenant"`
	ExpiresAt int64  `json:"expires_at"`
	Expired   bool   `json:"expired"`
}

func authStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show signed-in accounts and token validity",
		Action: authStatusAction,
	}
}

func authStatusAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadAndInstrument(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	accounts, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read token store: %w", err)
	}
	if len(accounts) == 0 {
		fmt.Println("Not authenticated. Run `outlook auth login` to sign in.")
		return nil
	}

	statuses := make([]accountStatus, 0, len(accounts))
	for _, email := range sortedEmails(accounts) {
		account := accounts[email]
		statuses = append(statuses, accountStatus{
			Email:     email,
			Tenant:    account.Tenant,
			ExpiresAt: account.ExpiresAt,
			Expired:   !time.Now().Before(time.Unix(account.ExpiresAt, 0)),
		})
	}

	if cmd.Bool("json") {
		return printJSON(os.Stdout, statuses)
	}
	for _, s := range statuses {
		if s.Expired {
			fmt.Printf("%s  token expired (refreshed automatically on next use)\n", s.Email)
			continue
		}
		fmt.Printf("%s  valid until %s\n", s.Email, time.Unix(s.ExpiresAt, 0).Format("2006-01-02 15:04"))
	}
	return nil
}

func authAccountsCommand() *cli.Command {
	return &cli.Command{
		Name:   "accounts",
		Usage:  "list signed-in account emails",
		Action: authAccountsAction,
	}
}

func authAccountsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadAndInstrument(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}

	accounts, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to read token store: %w", err)
	}

	emails := sortedEmails(accounts)
	if cmd.Bool("json") {
		return printJSON(os.Stdout, emails)
	}
	if len(emails) == 0 {
		fmt.Println("No accounts. Run `outlook auth login` to sign in.")
		return nil
	}
	for _, email := range emails {
		fmt.Println(email)
	}
	return nil
}

func sortedEmails(accounts tokenstore.Accounts) []string {
	emails := make([]string, 0, len(accounts))
	for email := range accounts {
		emails = append(emails, email)
	}
	slices.Sort(emails)
	return emails
}
