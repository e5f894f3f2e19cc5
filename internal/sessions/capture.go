package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/azye/tabdog/pkg/models"
)

// Predicate selects which open tabs a capture saves.
type Predicate func(models.LiveTab) bool

// Mode names a capture predicate.
type Mode string

const (
	// ModeAll saves every tab that is not excluded.
	ModeAll Mode = "all"
	// ModeOthers saves every tab except the active one.
	ModeOthers Mode = "others"
	// ModeCurrent saves only the active tab.
	ModeCurrent Mode = "current"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAll, "":
		return ModeAll, nil
	case ModeOthers:
		return ModeOthers, nil
	case ModeCurrent:
		return ModeCurrent, nil
	default:
		return "", fmt.Errorf("unknown capture mode %q (want all, others or current)", s)
	}
}

// Predicate returns the filter for the mode. Tabs whose URL starts with one of
// exclude, such as the browser's own extension pages, never match.
func (m Mode) Predicate(exclude []string) Predicate {
	allowed := func(tab models.LiveTab) bool {
		for _, prefix := range exclude {
			if prefix != "" && strings.HasPrefix(tab.URL, prefix) {
				return false
			}
		}
		return true
	}
	switch m {
	case ModeOthers:
		return func(tab models.LiveTab) bool { return allowed(tab) && !tab.Active }
	case ModeCurrent:
		return func(tab models.LiveTab) bool { return allowed(tab) && tab.Active }
	default:
		return allowed
	}
}

// CaptureResult is the output of Capture.
type CaptureResult struct {
	SessionID models.SessionID
	Records   []models.TabRecord
	// TabIDsToClose lists the captured tabs in reverse capture order, so the
	// browser's "reopen closed tab" brings them back in their original order.
	TabIDsToClose []string
}

// Empty reports whether nothing matched.
func (r CaptureResult) Empty() bool { return len(r.Records) == 0 }

// Capture turns the matching open tabs into one new session stamped with now.
func Capture(open []models.LiveTab, pred Predicate, now time.Time) CaptureResult {
	var picked []models.LiveTab
	for _, tab := range open {
		if pred == nil || pred(tab) {
			picked = append(picked, tab)
		}
	}
	if len(picked) == 0 {
		return CaptureResult{}
	}

	ms := now.UnixMilli()
	id := models.SessionIDFromMillis(ms)
	res := CaptureResult{
		SessionID:     id,
		Records:       make([]models.TabRecord, 0, len(picked)),
		TabIDsToClose: make([]string, 0, len(picked)),
	}
	for _, tab := range picked {
		res.Records = append(res.Records, models.TabRecord{
			Title:     tab.Title,
			URL:       tab.URL,
			Favicon:   tab.FavIconURL,
			Timestamp: ms,
			SessionID: id,
		})
	}
	for i := len(picked) - 1; i >= 0; i-- {
		res.TabIDsToClose = append(res.TabIDsToClose, picked[i].ID)
	}
	return res
}

// Prepend puts fresh records ahead of the existing list without aliasing either.
func Prepend(fresh, existing []models.TabRecord) []models.TabRecord {
	out := make([]models.TabRecord, 0, len(fresh)+len(existing))
	out = append(out, fresh...)
	return append(out, existing...)
}
