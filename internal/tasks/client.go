// Package tasks is a thin client for Graph To Do resources.
package tasks

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mstoffel/outlook-cli/internal/auth"
	"github.com/mstoffel/outlook-cli/internal/graph"
)

// DefaultListName is the task list used when none is specified.
const DefaultListName = "Tasks"

// Client issues Graph To Do requests for one account.
type Client struct {
	graph *graph.Client
}

// NewClient resolves a bearer token for the account (empty selects the
// default account) and builds a tasks client around it.
func NewClient(ctx context.Context, resolver *auth.Resolver, account string, opts ...graph.ClientOption) (*Client, error) {
	token, err := resolver.AccessToken(ctx, account)
	if err != nil {
		return nil, err
	}
	return &Client{graph: graph.NewClient(token, opts...)}, nil
}

// ListTaskLists lists the account's task lists.
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	var out taskListResponse
	if err := c.graph.Get(ctx, "/me/todo/lists", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to list task lists: %w", err)
	}
	return out.Value, nil
}

// resolveListID finds the task list with the given display name, falling
// back to the first list when the name does not match any.
func (c *Client) resolveListID(ctx context.Context, listName string) (string, error) {
	lists, err := c.ListTaskLists(ctx)
	if err != nil {
		return "", err
	}
	for _, list := range lists {
		if list.DisplayName == listName {
			return list.ID, nil
		}
	}
	if len(lists) > 0 {
		return lists[0].ID, nil
	}
	return "", fmt.Errorf("task list %q not found", listName)
}

// ListTasks lists tasks in the named list, newest first. Completed tasks
// are excluded unless includeCompleted is set.
func (c *Client) ListTasks(ctx context.Context, listName string, includeCompleted bool) ([]Task, error) {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"$orderby": {"createdDateTime desc"},
	}
	if !includeCompleted {
		query.Set("$filter", "status ne 'completed'")
	}

	var out taskResponse
	if err := c.graph.Get(ctx, "/me/todo/lists/"+listID+"/tasks", query, &out); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out.Value, nil
}

// CreateTask creates a task in the named list. due is an optional ISO 8601
// date-time interpreted as UTC.
func (c *Client) CreateTask(ctx context.Context, listName, title, due string) (*Task, error) {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	task := map[string]any{"title": title}
	if due != "" {
		task["dueDateTime"] = DateTimeTimeZone{DateTime: due, TimeZone: "UTC"}
	}

	var out Task
	if err := c.graph.Post(ctx, "/me/todo/lists/"+listID+"/tasks", task, &out); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &out, nil
}

// UpdateTask patches a task; only non-nil fields are sent.
func (c *Client) UpdateTask(ctx context.Context, listName, taskID string, update TaskUpdate) (*Task, error) {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if update.Title != nil {
		patch["title"] = *update.Title
	}
	if update.Status != nil {
		patch["status"] = *update.Status
	}
	if update.Due != nil {
		patch["dueDateTime"] = DateTimeTimeZone{DateTime: *update.Due, TimeZone: "UTC"}
	}

	var out Task
	if err := c.graph.Patch(ctx, "/me/todo/lists/"+listID+"/tasks/"+taskID, patch, &out); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &out, nil
}

// CompleteTask marks a task as completed.
func (c *Client) CompleteTask(ctx context.Context, listName, taskID string) (*Task, error) {
	status := "completed"
	return c.UpdateTask(ctx, listName, taskID, TaskUpdate{Status: &status})
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, listName, taskID string) error {
	listID, err := c.resolveListID(ctx, listName)
	if err != nil {
		return err
	}
	if err := c.graph.Delete(ctx, "/me/todo/lists/"+listID+"/tasks/"+taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
