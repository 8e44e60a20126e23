package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDocument(t *testing.T) {
	meta := MessageMeta{
		Subject:   `Your order of "Lamp" <shipped>`,
		From:      "Amazon.com <auto-confirm@amazon.com>",
		To:        "buyer@example.com",
		Cc:        "other@example.com",
		Date:      time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC),
		MessageID: "msg-123",
	}

	doc, err := BuildDocument(meta, `<p>Order body <img src="data:image/png;base64,AAAA"></p>`, time.UTC)
	require.NoError(t, err)

	// Metadata is escaped for the markup context.
	assert.Contains(t, doc, "Your order of &#34;Lamp&#34; &lt;shipped&gt;")
	assert.Contains(t, doc, "Amazon.com &lt;auto-confirm@amazon.com&gt;")
	assert.Contains(t, doc, "msg-123")
	assert.Contains(t, doc, "2024-05-01 14:30")
	assert.Contains(t, doc, "<b>CC:</b> other@example.com")

	// The body markup is carried through unescaped.
	assert.Contains(t, doc, `<p>Order body <img src="data:image/png;base64,AAAA"></p>`)

	// Fixed print layout.
	assert.Contains(t, doc, "size: A4")
	assert.Contains(t, doc, "margin: 18mm")
	assert.Contains(t, doc, "page-break-inside: avoid")
}

func TestBuildDocument_NoCc(t *testing.T) {
	meta := MessageMeta{
		Subject:   "s",
		From:      "f",
		To:        "t",
		Date:      time.Now(),
		MessageID: "id",
	}

	doc, err := BuildDocument(meta, "<p>x</p>", time.UTC)
	require.NoError(t, err)
	assert.NotContains(t, doc, "CC:")
}

func TestBuildDocument_TimeZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	meta := MessageMeta{Subject: "s", Date: time.Date(2024, 5, 2, 1, 30, 0, 0, time.UTC)}
	doc, err := BuildDocument(meta, "", loc)
	require.NoError(t, err)
	assert.Contains(t, doc, "2024-05-01 21:30")
}
