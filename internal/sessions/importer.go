package sessions

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/azye/tabdog/pkg/models"
	"github.com/gabriel-vasile/mimetype"
)

// headerSeparator splits "Date - Name". Only the first occurrence counts, so a
// name containing it cannot round-trip; changing that needs a format version.
const headerSeparator = " - "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportResult is what ImportText would add to the store.
type ImportResult struct {
	NewTabs         []models.TabRecord
	MetadataUpdates models.SessionMetadata
	ImportedCount   int
}

// Block is one header plus its URL lines.
type Block struct {
	Date string
	Name string
	URLs []string
}

// DecodePayload checks that an uploaded file is UTF-8 text and returns it.
func DecodePayload(source string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return "", nil
	}
	mt := mimetype.Detect(data)
	if !isText(mt) {
		return "", &ParseError{Source: source, Err: fmt.Errorf("unsupported content type %s", mt.String())}
	}
	if !utf8.Valid(data) {
		return "", &ParseError{Source: source, Err: errors.New("content is not valid UTF-8")}
	}
	return string(data), nil
}

// isText accepts any type derived from text/plain. Exports holding markup in a
// session name are sniffed as e.g. image/svg+xml, which is still text.
func isText(mt *mimetype.MIME) bool {
	for ; mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}

// ParseBlocks splits text on blank lines. Lines are trimmed and blocks without
// at least a header and one more line are dropped.
func ParseBlocks(raw string) []Block {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var blocks []Block
	var lines []string
	flush := func() {
		if len(lines) >= 2 {
			date, name := splitHeader(lines[0])
			blocks = append(blocks, Block{Date: date, Name: name, URLs: lines[1:]})
		}
		lines = nil
	}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return blocks
}

func splitHeader(header string) (date, name string) {
	if i := strings.Index(header, headerSeparator); i >= 0 {
		return header[:i], header[i+len(headerSeparator):]
	}
	return header, ""
}

type indexedSession struct {
	key       models.SessionKey
	date      string
	name      string
	timestamp int64
	urls      map[string]struct{}
}

// ImportText merges the text format into the existing sessions. A block whose
// date string and name both equal an existing session's header adds to that
// session; otherwise a new session is made. URLs already present in the
// target session, or earlier in the same import, are skipped.
func ImportText(raw string, existing []models.TabRecord, meta models.SessionMetadata, dates DateFormatter, now time.Time) ImportResult {
	var order []*indexedSession
	byKey := make(map[models.SessionKey]*indexedSession)
	for _, tab := range existing {
		key := tab.Key()
		s, ok := byKey[key]
		if !ok {
			name, _ := meta.Name(key)
			s = &indexedSession{
				key:       key,
				date:      dates.Format(tab.Timestamp),
				name:      name,
				timestamp: tab.Timestamp,
				urls:      make(map[string]struct{}),
			}
			byKey[key] = s
			order = append(order, s)
		}
		s.urls[tab.URL] = struct{}{}
	}

	res := ImportResult{MetadataUpdates: models.SessionMetadata{}}
	for _, block := range ParseBlocks(raw) {
		var target *indexedSession
		for _, s := range order {
			if s.date == block.Date && s.name == block.Name {
				target = s
				break
			}
		}

		if target == nil {
			ts, ok := dates.Parse(block.Date)
			if !ok {
				ts = now.UnixMilli()
			}
			key := models.ExplicitKey(models.SessionIDFromMillis(ts))
			if s, ok := byKey[key]; ok {
				target = s
			} else {
				target = &indexedSession{
					key:       key,
					date:      block.Date,
					name:      block.Name,
					timestamp: ts,
					urls:      make(map[string]struct{}),
				}
				byKey[key] = target
				order = append(order, target)
				if block.Name != "" {
					res.MetadataUpdates[key.ID()] = block.Name
				}
			}
		}

		for _, url := range block.URLs {
			if !strings.HasPrefix(url, "http") {
				continue
			}
			if _, dup := target.urls[url]; dup {
				continue
			}
			target.urls[url] = struct{}{}
			res.NewTabs = append(res.NewTabs, models.TabRecord{
				Title:     url,
				URL:       url,
				Timestamp: target.timestamp,
				SessionID: target.key.ID(),
			})
		}
	}
	res.ImportedCount = len(res.NewTabs)
	return res
}

// MergeMetadata overlays updates on a copy of base.
func MergeMetadata(base, updates models.SessionMetadata) models.SessionMetadata {
	out := base.Clone()
	for k, v := range updates {
		out[k] = v
	}
	return out
}
