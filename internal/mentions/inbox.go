// Package mentions tracks the viewer's mentions, the unread badge derived
// from them, and @name helpers for highlighting and autocomplete.
package mentions

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/tgienger/taskr/internal/models"
)

// keyPrefix starts every mention sort key: MENTION#<iso-time>#<commentId>
const keyPrefix = "MENTION#"

// Backend is the subset of the API client used for mentions
type Backend interface {
	ListMentions(ctx context.Context) ([]models.Mention, error)
	MarkMentionRead(ctx context.Context, sk string) error
}

// Inbox holds the most recently fetched mentions
type Inbox struct {
	backend Backend

	mu       sync.RWMutex
	mentions []models.Mention
	loaded   bool
}

// NewInbox creates an empty inbox
func NewInbox(b Backend) *Inbox {
	return &Inbox{backend: b}
}

// Refresh re-fetches every mention
func (in *Inbox) Refresh(ctx context.Context) error {
	fetched, err := in.backend.ListMentions(ctx)
	if err != nil {
		return fmt.Errorf("load mentions: %w", err)
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	in.mentions = fetched
	in.loaded = true
	return nil
}

// Loaded reports whether a refresh has completed
func (in *Inbox) Loaded() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.loaded
}

// Mentions returns a copy of the fetched mentions
func (in *Inbox) Mentions() []models.Mention {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return slices.Clone(in.mentions)
}

// Find returns the mention with the given sort key
func (in *Inbox) Find(sk string) (models.Mention, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	i := slices.IndexFunc(in.mentions, func(m models.Mention) bool { return m.SK == sk })
	if i < 0 {
		return models.Mention{}, false
	}
	return in.mentions[i], true
}

// Unread counts mentions whose status is not READ
func (in *Inbox) Unread() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return Unread(in.mentions)
}

// Badge is the unread count as shown in the header, "" when hidden
func (in *Inbox) Badge() string {
	return Badge(in.Unread())
}

// MarkRead flags a mention READ and refreshes. Mentions already READ are left
// alone and no request is sent.
func (in *Inbox) MarkRead(ctx context.Context, sk string) error {
	if m, ok := in.Find(sk); ok && m.IsRead() {
		return nil
	}
	if err := in.backend.MarkMentionRead(ctx, sk); err != nil {
		return fmt.Errorf("mark mention read: %w", err)
	}

	in.mu.Lock()
	for i := range in.mentions {
		if in.mentions[i].SK == sk {
			in.mentions[i].Status = models.MentionRead
		}
	}
	in.mu.Unlock()

	return in.Refresh(ctx)
}

// Unread counts mentions whose status is not READ
func Unread(ms []models.Mention) int {
	n := 0
	for _, m := range ms {
		if !m.IsRead() {
			n++
		}
	}
	return n
}

// Badge formats an unread count; zero hides the badge
func Badge(unread int) string {
	if unread <= 0 {
		return ""
	}
	return strconv.Itoa(unread)
}

// DisplayDate is the explicit display date, else the local time encoded in
// the sort key, else "-"
func DisplayDate(m models.Mention) string {
	if m.DisplayDate != "" {
		return m.DisplayDate
	}
	if !strings.HasPrefix(m.SK, keyPrefix) {
		return "-"
	}
	parts := strings.Split(m.SK, "#")
	if len(parts) < 2 {
		return "-"
	}
	ts, err := models.ParseTimestamp(parts[1])
	if err != nil {
		return "-"
	}
	return ts.LocalString()
}

// Author returns who wrote the mention, "Someone" when unknown
func Author(m models.Mention) string {
	if m.MentionedBy == "" {
		return "Someone"
	}
	return m.MentionedBy
}

// TaskTitle returns the mentioned task's title, with a placeholder
func TaskTitle(m models.Mention) string {
	if m.TaskTitle == "" {
		return "Untitled Task"
	}
	return m.TaskTitle
}
