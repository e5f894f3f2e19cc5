package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/azye/tabdog/internal/sessions"
	"github.com/azye/tabdog/pkg/models"
	"github.com/microcosm-cc/bluemonday"
)

// PlaceholderName is shown for grouped sessions without a custom name.
const PlaceholderName = "Session"

// Item is one saved tab ready for display.
type Item struct {
	Title string
	URL   string
}

// Group is one session as the view shows it.
type Group struct {
	Key   models.SessionKey
	Name  string
	Named bool
	Date  string
	// Grouped sessions get a header row; the rest render as a bare item.
	Grouped bool
	Items   []Item
}

// Header renders "Name (N tabs) - Date".
func (g Group) Header() string {
	return fmt.Sprintf("%s (%d tabs) - %s", g.Name, len(g.Items), g.Date)
}

// URLs returns the member URLs in stored order.
func (g Group) URLs() []string {
	out := make([]string, 0, len(g.Items))
	for _, it := range g.Items {
		out = append(out, it.URL)
	}
	return out
}

type builder struct {
	dates  sessions.DateFormatter
	policy *bluemonday.Policy
}

func newBuilder(dates sessions.DateFormatter) builder {
	return builder{dates: dates, policy: bluemonday.StrictPolicy()}
}

func (b builder) group(s sessions.Session, meta models.SessionMetadata) Group {
	g := Group{
		Key:     s.Key,
		Name:    PlaceholderName,
		Date:    b.dates.Format(s.Timestamp()),
		Grouped: s.Grouped(),
		Items:   make([]Item, 0, len(s.Tabs)),
	}
	if name, ok := meta.Name(s.Key); ok {
		g.Name = b.text(name)
		g.Named = true
	}
	for _, tab := range s.Tabs {
		title := b.text(tab.Title)
		if title == "" {
			title = tab.URL
		}
		g.Items = append(g.Items, Item{Title: title, URL: tab.URL})
	}
	return g
}

// text strips markup from page-controlled strings before they reach the terminal.
func (b builder) text(s string) string {
	s = html.UnescapeString(b.policy.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}
