// Package planfix is a thin client for the upstream project-management
// REST API. It supplies plain records; all persistence and indexing
// concerns live elsewhere.
package planfix

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError carries the status code and detail of a failed upstream call.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("planfix: API error (status %d): %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("planfix: API error: status %d", e.StatusCode)
}

// Config holds connection settings for the upstream API.
type Config struct {
	BaseURL   string
	APIKey    string
	AccountID string
}

// Client talks to the upstream project-management API.
type Client struct {
	client  *resty.Client
	baseURL string
}

// NewClient creates a new upstream API client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	if cfg.AccountID != "" {
		client.SetHeader("X-Account-ID", cfg.AccountID)
	}
	client.SetTimeout(30 * time.Second)

	return &Client{
		client:  client,
		baseURL: cfg.BaseURL,
	}
}

// GetTasks fetches one page of tasks.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - offset: number of records to skip.
//   - limit: maximum number of records to return.
//
// Returns:
//   - []TaskRecord: page of tasks.
//   - int: total task count reported by the server.
//   - error: non-nil if the request fails.
func (c *Client) GetTasks(ctx context.Context, offset, limit int) ([]TaskRecord, int, error) {
	return getPage[TaskRecord](ctx, c, "/tasks", offset, limit)
}

// GetProjects fetches one page of projects.
func (c *Client) GetProjects(ctx context.Context, offset, limit int) ([]ProjectRecord, int, error) {
	return getPage[ProjectRecord](ctx, c, "/projects", offset, limit)
}

// GetEmployees fetches one page of employees.
func (c *Client) GetEmployees(ctx context.Context, offset, limit int) ([]EmployeeRecord, int, error) {
	return getPage[EmployeeRecord](ctx, c, "/employees", offset, limit)
}

// GetTaskComments fetches all comments for a task.
func (c *Client) GetTaskComments(ctx context.Context, taskID string) ([]CommentRecord, error) {
	var result page[CommentRecord]
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(fmt.Sprintf("%s/tasks/%s/comments", c.baseURL, taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments for task %s: %w", taskID, err)
	}
	if resp.StatusCode() != 200 {
		return nil, &APIError{StatusCode: resp.StatusCode(), Detail: result.Detail}
	}
	return result.Items, nil
}

// GetTaskStatuses fetches the task status definitions.
func (c *Client) GetTaskStatuses(ctx context.Context) ([]StatusRecord, error) {
	return getList[StatusRecord](ctx, c, "/task-statuses")
}

// GetProjectStatuses fetches the project status definitions.
func (c *Client) GetProjectStatuses(ctx context.Context) ([]StatusRecord, error) {
	return getList[StatusRecord](ctx, c, "/project-statuses")
}

// GetTaskCustomFields fetches the custom field definitions for tasks.
func (c *Client) GetTaskCustomFields(ctx context.Context) ([]CustomFieldRecord, error) {
	return getList[CustomFieldRecord](ctx, c, "/task-custom-fields")
}

func getPage[T any](ctx context.Context, c *Client, path string, offset, limit int) ([]T, int, error) {
	var result page[T]
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset": fmt.Sprintf("%d", offset),
			"limit":  fmt.Sprintf("%d", limit),
		}).
		SetResult(&result).
		Get(c.baseURL + path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	if resp.StatusCode() != 200 {
		return nil, 0, &APIError{StatusCode: resp.StatusCode(), Detail: result.Detail}
	}
	return result.Items, result.Total, nil
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	items, _, err := getPage[T](ctx, c, path, 0, 1000)
	return items, err
}
