package sessions

import (
	"testing"
	"time"

	"github.com/azye/tabdog/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utcDates = NewDateFormatter("", time.UTC)

func fixedNow() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

func sampleTabs() ([]models.TabRecord, models.SessionMetadata) {
	work := time.Date(2024, 5, 6, 9, 30, 15, 250_000_000, time.UTC).UnixMilli()
	home := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC).UnixMilli()
	legacy := time.Date(2023, 12, 24, 8, 0, 0, 0, time.UTC).UnixMilli()
	tabs := []models.TabRecord{
		{Title: "Docs", URL: "https://docs.example.com", Timestamp: work, SessionID: models.SessionIDFromMillis(work)},
		{Title: "Mail", URL: "https://mail.example.com", Timestamp: work, SessionID: models.SessionIDFromMillis(work)},
		{Title: "News", URL: "http://news.example.com", Timestamp: home, SessionID: models.SessionIDFromMillis(home)},
		{Title: "Old", URL: "http://old.example.com", Timestamp: legacy},
	}
	meta := models.SessionMetadata{models.SessionIDFromMillis(work): "Work"}
	return tabs, meta
}

func TestImportScenarioIntoEmptyStore(t *testing.T) {
	raw := "1/1/2024, 12:00:00 PM - Work\nhttp://a.com\nhttp://b.com\n\n"
	res := ImportText(raw, nil, models.SessionMetadata{}, utcDates, fixedNow())

	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	id := models.SessionIDFromMillis(want)
	require.Equal(t, 2, res.ImportedCount)
	require.Len(t, res.NewTabs, 2)
	for _, tab := range res.NewTabs {
		assert.Equal(t, id, tab.SessionID)
		assert.Equal(t, want, tab.Timestamp)
		assert.Equal(t, tab.URL, tab.Title)
	}
	assert.Equal(t, "http://a.com", res.NewTabs[0].URL)
	assert.Equal(t, "http://b.com", res.NewTabs[1].URL)
	assert.Equal(t, models.SessionMetadata{id: "Work"}, res.MetadataUpdates)
}

func TestImportRoundTripIsIdempotent(t *testing.T) {
	tabs, meta := sampleTabs()
	text := ExportText(tabs, meta, utcDates)
	res := ImportText(text, tabs, meta, utcDates, fixedNow())
	assert.Equal(t, 0, res.ImportedCount)
	assert.Empty(t, res.NewTabs)
	assert.Empty(t, res.MetadataUpdates)
}

func TestImportDedupWithinBlock(t *testing.T) {
	raw := "1/1/2024, 12:00:00 PM\nhttp://a.com\nhttp://a.com\nhttp://b.com\nhttp://a.com\n"
	res := ImportText(raw, nil, nil, utcDates, fixedNow())
	require.Equal(t, 2, res.ImportedCount)
	assert.Equal(t, "http://a.com", res.NewTabs[0].URL)
	assert.Equal(t, "http://b.com", res.NewTabs[1].URL)
	assert.Empty(t, res.MetadataUpdates)
}

func TestImportDedupAcrossBlocksWithSameHeader(t *testing.T) {
	raw := "1/1/2024, 12:00:00 PM - X\nhttp://a.com\n\n1/1/2024, 12:00:00 PM - X\nhttp://a.com\nhttp://c.com\n"
	res := ImportText(raw, nil, nil, utcDates, fixedNow())
	require.Equal(t, 2, res.ImportedCount)
	assert.Equal(t, res.NewTabs[0].SessionID, res.NewTabs[1].SessionID)
}

func TestImportMergesIntoMatchingSession(t *testing.T) {
	tabs, meta := sampleTabs()
	workID := tabs[0].SessionID
	header := utcDates.Format(tabs[0].Timestamp) + " - Work"
	raw := header + "\nhttps://docs.example.com\nhttps://calendar.example.com\n"

	res := ImportText(raw, tabs, meta, utcDates, fixedNow())
	require.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, workID, res.NewTabs[0].SessionID)
	assert.Equal(t, tabs[0].Timestamp, res.NewTabs[0].Timestamp)
	assert.Empty(t, res.MetadataUpdates)
}

func TestImportNameMismatchCreatesNewSession(t *testing.T) {
	tabs, meta := sampleTabs()
	// Same date as the named Work session, but no name.
	raw := utcDates.Format(tabs[0].Timestamp) + "\nhttps://calendar.example.com\n"
	res := ImportText(raw, tabs, meta, utcDates, fixedNow())
	require.Equal(t, 1, res.ImportedCount)
	assert.NotEqual(t, tabs[0].SessionID, res.NewTabs[0].SessionID)
	// The header has second precision, so the parsed id drops the milliseconds.
	assert.Equal(t, tabs[0].Timestamp-250, res.NewTabs[0].Timestamp)
}

func TestImportUnparseableDateFallsBackToNow(t *testing.T) {
	raw := "sometime last week - Misc\nhttp://a.com\n"
	res := ImportText(raw, nil, nil, utcDates, fixedNow())
	require.Equal(t, 1, res.ImportedCount)
	id := models.SessionIDFromMillis(fixedNow().UnixMilli())
	assert.Equal(t, id, res.NewTabs[0].SessionID)
	assert.Equal(t, models.SessionMetadata{id: "Misc"}, res.MetadataUpdates)
}

func TestImportIntoLegacySessionStaysLegacy(t *testing.T) {
	tabs, meta := sampleTabs()
	raw := utcDates.Format(tabs[3].Timestamp) + "\nhttp://older.example.com\n"
	res := ImportText(raw, tabs, meta, utcDates, fixedNow())
	require.Equal(t, 1, res.ImportedCount)
	assert.True(t, res.NewTabs[0].Key().IsLegacy())
	assert.Equal(t, tabs[3].Timestamp, res.NewTabs[0].Timestamp)
}

func TestImportDropsNonHTTPLinesAndShortBlocks(t *testing.T) {
	raw := "\r\n\r\n  1/1/2024, 12:00:00 PM  \r\n ftp://files \r\n  http://ok.com \r\n\r\n\r\nlonely header\r\n\n \t \n2/2/2024, 1:00:00 AM\nHTTP://upper.com\n"
	res := ImportText(raw, nil, nil, utcDates, fixedNow())
	require.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, "http://ok.com", res.NewTabs[0].URL)
}

func TestParseBlocksSplitsOnFirstSeparatorOnly(t *testing.T) {
	blocks := ParseBlocks("1/1/2024, 12:00:00 PM - Work - Q1\nhttp://a.com\n")
	require.Len(t, blocks, 1)
	assert.Equal(t, "1/1/2024, 12:00:00 PM", blocks[0].Date)
	assert.Equal(t, "Work - Q1", blocks[0].Name)
}

func TestMergeMetadataKeepsUnrelatedNames(t *testing.T) {
	base := models.SessionMetadata{"1": "One", "2": "Two"}
	out := MergeMetadata(base, models.SessionMetadata{"2": "Deux", "3": "Trois"})
	assert.Equal(t, models.SessionMetadata{"1": "One", "2": "Deux", "3": "Trois"}, out)
	assert.Equal(t, "Two", base["2"])
}

func TestDecodePayload(t *testing.T) {
	text, err := DecodePayload("backup.txt", []byte("\xEF\xBB\xBF1/1/2024, 12:00:00 PM\nhttp://a.com\n"))
	require.NoError(t, err)
	assert.Equal(t, "1/1/2024, 12:00:00 PM\nhttp://a.com\n", text)

	_, err = DecodePayload("image.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "image.png", perr.Source)

	markup := "1/1/2024, 12:00:00 PM - <svg> icon work\nhttp://a.com\n\n"
	text, err = DecodePayload("backup.txt", []byte(markup))
	require.NoError(t, err)
	assert.Equal(t, markup, text)

	html := "1/1/2024, 12:00:00 PM - <html><body>home</body></html>\nhttp://a.com\n\n"
	_, err = DecodePayload("backup.txt", []byte(html))
	require.NoError(t, err)

	_, err = DecodePayload("latin1.txt", []byte("1/1/2024, 12:00:00 PM - caf\xe9\nhttp://a.com\n"))
	require.ErrorAs(t, err, &perr)

	text, err = DecodePayload("empty.txt", []byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestImportBrowserLocaleHeader(t *testing.T) {
	raw := "1/1/2024, 12:00:00\u202fPM - Work\nhttp://a.com\n\n"
	res := ImportText(raw, nil, models.SessionMetadata{}, utcDates, fixedNow())

	id := models.SessionIDFromMillis(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli())
	require.Len(t, res.NewTabs, 1)
	assert.Equal(t, id, res.NewTabs[0].SessionID)

	again := ImportText(raw, res.NewTabs, MergeMetadata(nil, res.MetadataUpdates), utcDates, fixedNow())
	assert.Zero(t, again.ImportedCount)
	assert.Empty(t, again.MetadataUpdates)
}
