package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SessionID identifies a saved session. Captures use the epoch-millisecond
// capture instant; older data may carry arbitrary strings. The empty value
// means the record has no explicit session.
type SessionID string

// SessionIDFromMillis formats an epoch-millisecond instant as a session id.
func SessionIDFromMillis(ms int64) SessionID {
	return SessionID(strconv.FormatInt(ms, 10))
}

// Millis returns the numeric value of the id, if it has one.
func (id SessionID) Millis() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MarshalJSON writes numeric ids as JSON numbers and everything else as strings.
func (id SessionID) MarshalJSON() ([]byte, error) {
	if n, ok := id.Millis(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a number, a string or null.
func (id *SessionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SessionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("session id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = SessionIDFromMillis(i)
		return nil
	}
	*id = SessionID(n.String())
	return nil
}

// TabRecord is one saved tab.
type TabRecord struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Favicon   string    `json:"favicon,omitempty"`
	Timestamp int64     `json:"timestamp"`
	SessionID SessionID `json:"sessionId,omitempty"`
}

// Key returns the session the record belongs to.
func (r TabRecord) Key() SessionKey {
	if r.SessionID == "" || r.SessionID == "0" {
		return LegacyKey()
	}
	return ExplicitKey(r.SessionID)
}

// SessionKey is either an explicit session id or the implicit legacy group
// holding records saved without one.
type SessionKey struct {
	id       SessionID
	explicit bool
}

// ExplicitKey returns the key for a real session id.
func ExplicitKey(id SessionID) SessionKey {
	if id == "" {
		return LegacyKey()
	}
	return SessionKey{id: id, explicit: true}
}

// LegacyKey returns the key for records without a session id.
func LegacyKey() SessionKey {
	return SessionKey{}
}

// LegacyToken is how the legacy group is named on the command line and in logs.
const LegacyToken = "individual"

// ParseSessionKey converts a user-supplied token into a key.
func ParseSessionKey(token string) SessionKey {
	if token == "" || token == LegacyToken {
		return LegacyKey()
	}
	return ExplicitKey(SessionID(token))
}

// IsLegacy reports whether this is the implicit legacy group.
func (k SessionKey) IsLegacy() bool { return !k.explicit }

// ID returns the explicit id; empty for the legacy group.
func (k SessionKey) ID() SessionID { return k.id }

func (k SessionKey) String() string {
	if !k.explicit {
		return LegacyToken
	}
	return string(k.id)
}

// SessionMetadata maps explicit session ids to user-assigned names.
type SessionMetadata map[SessionID]string

// Name returns the custom name for a session, if any. The legacy group never has one.
func (m SessionMetadata) Name(key SessionKey) (string, bool) {
	if key.IsLegacy() || m == nil {
		return "", false
	}
	name, ok := m[key.ID()]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Clone returns a shallow copy that is safe to mutate.
func (m SessionMetadata) Clone() SessionMetadata {
	out := make(SessionMetadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// LiveTab is an open browser tab as reported by the tab source.
type LiveTab struct {
	ID         string
	Title      string
	URL        string
	FavIconURL string
	Active     bool
	WindowID   string
}
