package mentions

import (
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tgienger/taskr/internal/models"
)

// Suggester proposes usernames while an @prefix is being typed
type Suggester struct {
	names []string
}

// NewSuggester indexes the usernames of users, skipping blanks
func NewSuggester(users []models.User) *Suggester {
	s := &Suggester{}
	for _, u := range users {
		if u.Username != "" && !slices.Contains(s.names, u.Username) {
			s.names = append(s.names, u.Username)
		}
	}
	return s
}

// Len returns the number of known usernames
func (s *Suggester) Len() int {
	return len(s.names)
}

// ActivePrefix returns the partial name after a trailing @, if the cursor
// (end of text) sits inside a mention token
func ActivePrefix(text string) (string, bool) {
	i := strings.LastIndexAny(text, " \t\n")
	token := text[i+1:]
	if !strings.HasPrefix(token, "@") {
		return "", false
	}
	prefix := token[1:]
	for _, r := range prefix {
		if !isNameRune(r) {
			return "", false
		}
	}
	return prefix, true
}

func isNameRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '_' || r == '.' || r == '-'
}

// Suggest returns up to limit usernames for the active @prefix, best first
func (s *Suggester) Suggest(text string, limit int) []string {
	prefix, ok := ActivePrefix(text)
	if !ok || s == nil || len(s.names) == 0 {
		return nil
	}
	if prefix == "" {
		return s.names[:min(limit, len(s.names))]
	}

	matches := fuzzy.Find(prefix, s.names)
	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, s.names[m.Index])
	}
	return out
}

// Complete replaces the active @prefix with the best suggestion
func (s *Suggester) Complete(text string) (string, bool) {
	best := s.Suggest(text, 1)
	if len(best) == 0 {
		return text, false
	}
	i := strings.LastIndexAny(text, " \t\n")
	return text[:i+1] + "@" + best[0] + " ", true
}
