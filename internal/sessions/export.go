package sessions

import (
	"fmt"
	"strings"
	"time"

	"github.com/azye/tabdog/pkg/models"
)

// ExportText renders every session, newest first: a header line of the first
// member's date plus " - Name" when named, one URL per line, then a blank line.
func ExportText(tabs []models.TabRecord, meta models.SessionMetadata, dates DateFormatter) string {
	var b strings.Builder
	for _, s := range Group(tabs) {
		b.WriteString(Header(s, meta, dates))
		b.WriteByte('\n')
		for _, tab := range s.Tabs {
			b.WriteString(tab.URL)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Header builds the export header for a session.
func Header(s Session, meta models.SessionMetadata, dates DateFormatter) string {
	header := dates.Format(s.Timestamp())
	if name, ok := meta.Name(s.Key); ok {
		header += headerSeparator + name
	}
	return header
}

// BackupFileName follows <product>_backup_<YYYY-MM-DD>.txt.
func BackupFileName(product string, now time.Time) string {
	if product == "" {
		product = "tabdog"
	}
	return fmt.Sprintf("%s_backup_%s.txt", product, now.UTC().Format("2006-01-02"))
}
