// Package calendar is a thin client for Graph calendar resources.
package calendar

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mstoffel/outlook-cli/internal/auth"
	"github.com/mstoffel/outlook-cli/internal/graph"
)

// Client issues Graph calendar requests for one account.
type Client struct {
	graph *graph.Client
}

// NewClient resolves a bearer token for the account (empty selects the
// default account) and builds a calendar client around it.
func NewClient(ctx context.Context, resolver *auth.Resolver, account string, opts ...graph.ClientOption) (*Client, error) {
	token, err := resolver.AccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	return &Client{graph: graph.NewClient(token, opts...)}, nil
}

// ListEvents lists events overlapping the [start, end) window, ordered by
// start time.
func (c *Client) ListEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	query := url.Values{
		"startDateTime": {start.Format(time.RFC3339)},
		"endDateTime":   {end.Format(time.RFC3339)},
		"$orderby":      {"start/dateTime"},
		"$select":       {"id,subject,start,end,location,attendees,bodyPreview"},
	}

	var out listResponse
	if err := c.graph.Get(ctx, "/me/calendarView", query, &out); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out.Value, nil
}

// CreateEvent creates an event on the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*Event, error) {
	event := map[string]any{
		"subject": input.Summary,
		"start":   DateTimeTimeZone{DateTime: input.Start, TimeZone: "UTC"},
		"end":     DateTimeTimeZone{DateTime: input.End, TimeZone: "UTC"},
	}
	if input.Location != "" {
		event["location"] = Location{DisplayName: input.Location}
	}
	if len(input.Attendees) > 0 {
		attendees := make([]Attendee, 0, len(input.Attendees))
		for _, address := range input.Attendees {
			attendees = append(attendees, Attendee{
				EmailAddress: EmailAddress{Address: address},
				Type:         "required",
			})
		}
		event["attendees"] = attendees
	}

	var out Event
	if err := c.graph.Post(ctx, "/me/events", event, &out); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return &out, nil
}

// UpdateEvent patches an event; only non-nil fields are sent.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, update EventUpdate) (*Event, error) {
	patch := map[string]any{}
	if update.Summary != nil {
		patch["subject"] = *update.Summary
	}
	if update.Start != nil {
		patch["start"] = DateTimeTimeZone{DateTime: *update.Start, TimeZone: "UTC"}
	}
	if update.End != nil {
		patch["end"] = DateTimeTimeZone{DateTime: *update.End, TimeZone: "UTC"}
	}
	if update.Location != nil {
		patch["location"] = Location{DisplayName: *update.Location}
	}

	var out Event
	if err := c.graph.Patch(ctx, "/me/events/"+eventID, patch, &out); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return &out, nil
}

// DeleteEvent deletes an event.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.graph.Delete(ctx, "/me/events/"+eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// GetSchedule returns free/busy information for the given attendees over
// the [start, end) window, in 30 minute slots.
func (c *Client) GetSchedule(ctx context.Context, start, end time.Time, attendees []string) ([]ScheduleInfo, error) {
	req := scheduleRequest{
		Schedules:                attendees,
		StartTime:                DateTimeTimeZone{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		EndTime:                  DateTimeTimeZone{DateTime: end.Format(time.RFC3339), TimeZone: "UTC"},
		AvailabilityViewInterval: 30,
	}

	var out scheduleResponse
	if err := c.graph.Post(ctx, "/me/calendar/getSchedule", req, &out); err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return out.Value, nil
}
