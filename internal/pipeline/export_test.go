package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"purchase-archiver/internal/gmail"
)

func exportConfig() ExportConfig {
	return ExportConfig{
		LabelName:       "Amazon Orders",
		FolderPath:      "Purchases/Amazon/Extracted PDFs",
		LogSheetName:    "Amazon PDFs",
		SenderContains:  "amazon.com",
		SubjectContains: "order",
		MaxPerRun:       100,
		PageSize:        50,
		Timezone:        time.UTC,
	}
}

func newExporterUnderTest(mailbox *fakeMailbox, log *fakeLog, files *fakeFileStore, renderer *fakeRenderer, cfg ExportConfig) *Exporter {
	return NewExporter(mailbox, log, files, passthroughInliner{}, renderer, cfg, nil)
}

func TestExporter_CreatesNamedPDF(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", orderMessage("m1", "123-4567890-1234567"))
	log := &fakeLog{}
	files := newFakeFileStore()
	renderer := &fakeRenderer{}

	summary, err := newExporterUnderTest(mailbox, log, files, renderer, exportConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Emitted)
	assert.Contains(t, files.files, "2024-05-01 - Amazon Order 123-4567890-1234567.pdf")
	assert.True(t, log.ensured)
}

func TestExporter_RenderedDocumentCarriesMetadata(t *testing.T) {
	msg := orderMessage("m1", "123-4567890-1234567")
	msg.To = "buyer@example.com"

	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", msg)
	renderer := &fakeRenderer{}

	_, err := newExporterUnderTest(mailbox, &fakeLog{}, newFakeFileStore(), renderer, exportConfig()).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, renderer.rendered, 1)
	doc := renderer.rendered[0]
	assert.Contains(t, doc, "buyer@example.com")
	assert.Contains(t, doc, "m1")
	assert.Contains(t, doc, "<p>Order 123-4567890-1234567</p>")
}

func TestExporter_SavesProcessedSetOnceAtEnd(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", orderMessage("m1", "111-1111111-1111111"))
	mailbox.addThread("t2", orderMessage("m2", "222-2222222-2222222"))
	log := &fakeLog{ids: []string{"old-1"}}

	_, err := newExporterUnderTest(mailbox, log, newFakeFileStore(), &fakeRenderer{}, exportConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, log.saves, "log is persisted exactly once per run")
	assert.Equal(t, [][]interface{}{{"m1"}, {"m2"}, {"old-1"}}, log.saved,
		"save replaces content with the full set, prior IDs included")
}

func TestExporter_SecondRunExportsNothing(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", orderMessage("m1", "111-1111111-1111111"))
	log := &fakeLog{}
	files := newFakeFileStore()
	cfg := exportConfig()

	_, err := newExporterUnderTest(mailbox, log, files, &fakeRenderer{}, cfg).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, files.files, 1)

	summary, err := newExporterUnderTest(mailbox, log, files, &fakeRenderer{}, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Emitted)
	assert.Len(t, files.files, 1)
}

func TestExporter_RenderFailureIsolated(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", orderMessage("m1", "111-1111111-1111111"))
	log := &fakeLog{}

	renderer := &fakeRenderer{err: errors.New("browser crashed")}
	summary, err := newExporterUnderTest(mailbox, log, newFakeFileStore(), renderer, exportConfig()).Run(context.Background())
	require.NoError(t, err, "per-message render failure never aborts the run")

	assert.Zero(t, summary.Emitted)
	assert.Empty(t, log.saved, "failed message is not marked processed")
}

func TestExporter_FileCreationFailureIsolated(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1",
		orderMessage("m1", "111-1111111-1111111"),
		orderMessage("m2", "222-2222222-2222222"),
	)
	files := newFakeFileStore()
	files.createErr["2024-05-01 - Amazon Order 111-1111111-1111111.pdf"] = errors.New("quota")
	log := &fakeLog{}

	summary, err := newExporterUnderTest(mailbox, log, files, &fakeRenderer{}, exportConfig()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Emitted)
	assert.Equal(t, [][]interface{}{{"m2"}}, log.saved)
}

func TestExporter_InlineAttachmentFailureIsolated(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", orderMessage("m1", "111-1111111-1111111"))
	mailbox.failInline["m1"] = true

	summary, err := newExporterUnderTest(mailbox, &fakeLog{}, newFakeFileStore(), &fakeRenderer{}, exportConfig()).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Emitted)
}

func TestExporter_CidImagesInlined(t *testing.T) {
	msg := orderMessage("m1", "111-1111111-1111111")
	msg.HTMLBody = `<img src="cid:logo">`

	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", msg)
	mailbox.attachments["m1"] = []gmail.InlineAttachment{
		{ContentID: "<logo>", ContentType: "image/png", Data: []byte{1, 2, 3}},
	}
	renderer := &fakeRenderer{}

	_, err := newExporterUnderTest(mailbox, &fakeLog{}, newFakeFileStore(), renderer, exportConfig()).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, renderer.rendered, 1)
	assert.Contains(t, renderer.rendered[0], "data:image/png;base64,")
	assert.NotContains(t, renderer.rendered[0], "cid:logo")
}

func TestExporter_PerRunCap(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	for i := 0; i < 3; i++ {
		num := string(rune('1' + i))
		mailbox.addThread("t"+num, orderMessage("m"+num, num+"11-1111111-1111111"))
	}
	files := newFakeFileStore()

	cfg := exportConfig()
	cfg.MaxPerRun = 2

	summary, err := newExporterUnderTest(mailbox, &fakeLog{}, files, &fakeRenderer{}, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Emitted)
	assert.Len(t, files.files, 2)
}

func TestExporter_MissingLabelIsFatal(t *testing.T) {
	mailbox := newFakeMailbox("Some Other Label")

	_, err := newExporterUnderTest(mailbox, &fakeLog{}, newFakeFileStore(), &fakeRenderer{}, exportConfig()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, gmail.ErrLabelNotFound)
}

func TestExporter_EmptyFolderPathIsFatal(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")

	cfg := exportConfig()
	cfg.FolderPath = ""

	_, err := newExporterUnderTest(mailbox, &fakeLog{}, newFakeFileStore(), &fakeRenderer{}, cfg).Run(context.Background())
	assert.Error(t, err)
}

func TestExporter_DryRunWritesNothing(t *testing.T) {
	mailbox := newFakeMailbox("Amazon Orders")
	mailbox.addThread("t1", orderMessage("m1", "111-1111111-1111111"))
	log := &fakeLog{}
	files := newFakeFileStore()

	cfg := exportConfig()
	cfg.DryRun = true

	summary, err := newExporterUnderTest(mailbox, log, files, &fakeRenderer{}, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Emitted)
	assert.Empty(t, files.files)
	assert.Zero(t, log.saves)
}
