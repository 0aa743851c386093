package api

import (
	"context"
	"net/url"

	"github.com/tgienger/taskr/internal/models"
)

// NewTask is the payload for creating a task
type NewTask struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Status      models.Status   `json:"status"`
	Priority    models.Priority `json:"priority"`
}

// TaskPatch is a partial task update. PK is always sent.
type TaskPatch struct {
	PK       string           `json:"pk"`
	Status   *models.Status   `json:"status,omitempty"`
	Priority *models.Priority `json:"priority,omitempty"`
}

type commentBody struct {
	Comment string `json:"comment"`
}

type keyBody struct {
	PK string `json:"pk"`
}

// Task operations

// ListTasks returns every task visible to the session, normalized
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var result []models.Task
	if err := c.get(ctx, "/tasks", &result); err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Normalize()
	}
	return result, nil
}

func (c *Client) CreateTask(ctx context.Context, task NewTask) error {
	return c.post(ctx, "/tasks", task, nil)
}

func (c *Client) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	if patch.PK == "" {
		patch.PK = models.PartitionKey(id)
	}
	return c.put(ctx, "/tasks/"+url.PathEscape(id), patch)
}

func (c *Client) DeleteTask(ctx context.Context, id, pk string) error {
	if pk == "" {
		pk = models.PartitionKey(id)
	}
	return c.delete(ctx, "/tasks/"+url.PathEscape(id), keyBody{PK: pk})
}

// Comment operations

func (c *Client) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var result []models.Comment
	if err := c.get(ctx, commentsPath(taskID), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) AddComment(ctx context.Context, taskID, text string) error {
	return c.post(ctx, commentsPath(taskID), commentBody{Comment: text}, nil)
}

func (c *Client) EditComment(ctx context.Context, taskID, commentID, text string) error {
	return c.put(ctx, commentsPath(taskID)+"/"+url.PathEscape(commentID), commentBody{Comment: text})
}

func (c *Client) DeleteComment(ctx context.Context, taskID, commentID string) error {
	return c.delete(ctx, commentsPath(taskID)+"/"+url.PathEscape(commentID), nil)
}

func commentsPath(taskID string) string {
	return "/tasks/" + url.PathEscape(taskID) + "/comments"
}

// Mention operations

func (c *Client) ListMentions(ctx context.Context) ([]models.Mention, error) {
	var result []models.Mention
	if err := c.get(ctx, "/mentions", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkMentionRead flags a mention READ. The sort key contains '#', so it is
// escaped into a single path segment.
func (c *Client) MarkMentionRead(ctx context.Context, sk string) error {
	return c.patch(ctx, "/mentions/"+url.PathEscape(sk))
}

// Audit and users

func (c *Client) ListAudit(ctx context.Context) ([]models.AuditEntry, error) {
	var result []models.AuditEntry
	if err := c.get(ctx, "/audit", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var result []models.User
	if err := c.get(ctx, "/users", &result); err != nil {
		return nil, err
	}
	return result, nil
}
