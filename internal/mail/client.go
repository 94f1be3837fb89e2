// Package mail is a thin client for Graph mail resources.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mstoffel/outlook-cli/internal/auth"
	"github.com/mstoffel/outlook-cli/internal/graph"
)

// folderAliases maps friendly folder names to Graph well-known folder ids.
// Unknown names are passed through unchanged so real folder ids keep working.
var folderAliases = map[string]string{
	"inbox":   "inbox",
	"sent":    "sentitems",
	"drafts":  "drafts",
	"deleted": "deleteditems",
}

const listSelect = "id,subject,from,receivedDateTime,bodyPreview,isRead"

// Client issues Graph mail requests for one account.
type Client struct {
	graph *graph.Client
}

// NewClient resolves a bearer token for the account (empty selects the
// default account) and builds a mail client around it.
func NewClient(ctx context.Context, resolver *auth.Resolver, account string, opts ...graph.ClientOption) (*Client, error) {
	token, err := resolver.AccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	return &Client{graph: graph.NewClient(token, opts...)}, nil
}

// ListMessages lists the newest messages in a folder.
func (c *Client) ListMessages(ctx context.Context, folder string, max int) ([]Message, error) {
	folderID, ok := folderAliases[folder]
	if !ok {
		folderID = folder
	}

	query := url.Values{
		"$top":     {strconv.Itoa(max)},
		"$orderby": {"receivedDateTime desc"},
		"$select":  {listSelect},
	}

	var out listResponse
	if err := c.graph.Get(ctx, "/me/mailFolders/"+folderID+"/messages", query, &out); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return out.Value, nil
}

// Search searches messages across folders.
func (c *Client) Search(ctx context.Context, searchQuery string, max int) ([]Message, error) {
	query := url.Values{
		"$top":     {strconv.Itoa(max)},
		"$orderby": {"receivedDateTime desc"},
		"$select":  {listSelect},
		"$search":  {strconv.Quote(searchQuery)},
	}

	var out listResponse
	if err := c.graph.Get(ctx, "/me/messages", query, &out); err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return out.Value, nil
}

// GetMessage retrieves a full message including its body.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	var out Message
	if err := c.graph.Get(ctx, "/me/messages/"+messageID, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &out, nil
}

// SendMessage sends an email to a single recipient.
func (c *Client) SendMessage(ctx context.Context, to, subject, body string) error {
	req := sendMailRequest{
		Message: draftMessage{
			Subject:      subject,
			Body:         ItemBody{ContentType: "Text", Content: body},
			ToRecipients: []Recipient{{EmailAddress: EmailAddress{Address: to}}},
		},
	}
	if err := c.graph.Post(ctx, "/me/sendMail", req, nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// CreateDraft creates a draft message and returns it.
func (c *Client) CreateDraft(ctx context.Context, to, subject, body string) (*Message, error) {
	req := draftMessage{
		Subject:      subject,
		Body:         ItemBody{ContentType: "Text", Content: body},
		ToRecipients: []Recipient{{EmailAddress: EmailAddress{Address: to}}},
	}
	var out Message
	if err := c.graph.Post(ctx, "/me/messages", req, &out); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}
	return &out, nil
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	if err := c.graph.Delete(ctx, "/me/messages/"+messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}
