package sessions

import "github.com/azye/tabdog/pkg/models"

// Session is every saved record sharing one key, in stored order.
type Session struct {
	Key  models.SessionKey
	Tabs []models.TabRecord
}

// Timestamp is the first member's timestamp.
func (s Session) Timestamp() int64 {
	if len(s.Tabs) == 0 {
		return 0
	}
	return s.Tabs[0].Timestamp
}

// Grouped reports whether the session renders as a collapsible group: more
// than one member, or a single member with an explicit session id.
func (s Session) Grouped() bool {
	if len(s.Tabs) > 1 {
		return true
	}
	return len(s.Tabs) == 1 && !s.Tabs[0].Key().IsLegacy()
}

// URLs returns the member URLs in stored order.
func (s Session) URLs() []string {
	out := make([]string, 0, len(s.Tabs))
	for _, tab := range s.Tabs {
		out = append(out, tab.URL)
	}
	return out
}

// Group splits the flat tab list into sessions ordered by first appearance.
// Since the list is kept newest first, so are the sessions.
func Group(tabs []models.TabRecord) []Session {
	index := make(map[models.SessionKey]int)
	var out []Session
	for _, tab := range tabs {
		key := tab.Key()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Session{Key: key})
		}
		out[i].Tabs = append(out[i].Tabs, tab)
	}
	return out
}

// Find returns the session with key.
func Find(tabs []models.TabRecord, key models.SessionKey) (Session, bool) {
	s := Session{Key: key}
	for _, tab := range tabs {
		if tab.Key() == key {
			s.Tabs = append(s.Tabs, tab)
		}
	}
	return s, len(s.Tabs) > 0
}

// Without returns tabs minus every member of key, and how many were dropped.
func Without(tabs []models.TabRecord, key models.SessionKey) ([]models.TabRecord, int) {
	out := make([]models.TabRecord, 0, len(tabs))
	for _, tab := range tabs {
		if tab.Key() == key {
			continue
		}
		out = append(out, tab)
	}
	return out, len(tabs) - len(out)
}
