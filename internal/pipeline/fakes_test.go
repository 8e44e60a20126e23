package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"purchase-archiver/internal/drive"
	"purchase-archiver/internal/gmail"
	"purchase-archiver/internal/render"
)

// fakeMailbox serves threads in fixed pages, mirroring the sequential
// window contract of the Gmail adapter.
type fakeMailbox struct {
	labels      map[string]gmail.Label
	threads     []gmail.Thread
	messages    map[string][]gmail.Message // keyed by thread ID
	attachments map[string][]gmail.InlineAttachment
	failThreads map[string]bool
	failInline  map[string]bool
}

func newFakeMailbox(labelName string) *fakeMailbox {
	return &fakeMailbox{
		labels:      map[string]gmail.Label{labelName: {ID: "label-1", Name: labelName}},
		messages:    map[string][]gmail.Message{},
		attachments: map[string][]gmail.InlineAttachment{},
		failThreads: map[string]bool{},
		failInline:  map[string]bool{},
	}
}

func (f *fakeMailbox) addThread(id string, msgs ...gmail.Message) {
	f.threads = append(f.threads, gmail.Thread{ID: id})
	f.messages[id] = msgs
}

func (f *fakeMailbox) FindLabel(_ context.Context, name string) (gmail.Label, error) {
	label, ok := f.labels[name]
	if !ok {
		return gmail.Label{}, fmt.Errorf("%w: %q", gmail.ErrLabelNotFound, name)
	}
	return label, nil
}

func (f *fakeMailbox) ListThreads(_ context.Context, _ gmail.Label, start, limit int64) ([]gmail.Thread, error) {
	if start >= int64(len(f.threads)) {
		return nil, nil
	}
	end := start + limit
	if end > int64(len(f.threads)) {
		end = int64(len(f.threads))
	}
	return f.threads[start:end], nil
}

func (f *fakeMailbox) ListMessages(_ context.Context, thread gmail.Thread) ([]gmail.Message, error) {
	if f.failThreads[thread.ID] {
		return nil, errors.New("thread fetch failed")
	}
	return f.messages[thread.ID], nil
}

func (f *fakeMailbox) ListInlineAttachments(_ context.Context, msg gmail.Message) ([]gmail.InlineAttachment, error) {
	if f.failInline[msg.ID] {
		return nil, errors.New("attachment fetch failed")
	}
	return f.attachments[msg.ID], nil
}

// fakeLedger records appended rows and serves a message-ID column.
type fakeLedger struct {
	sheets     map[string]bool
	idColumn   []string
	rows       [][]interface{}
	appendErrs map[string]error // keyed by message ID (last cell)
}

func newFakeLedger(sheet string, ids ...string) *fakeLedger {
	return &fakeLedger{
		sheets:     map[string]bool{sheet: true},
		idColumn:   ids,
		appendErrs: map[string]error{},
	}
}

func (f *fakeLedger) FindSheet(_ context.Context, title string) error {
	if !f.sheets[title] {
		return fmt.Errorf("sheet not found: %q", title)
	}
	return nil
}

func (f *fakeLedger) ReadColumn(_ context.Context, _ string, _ int) ([]string, error) {
	return f.idColumn, nil
}

func (f *fakeLedger) AppendRow(_ context.Context, _ string, values []interface{}) error {
	if id, ok := values[len(values)-1].(string); ok {
		if err := f.appendErrs[id]; err != nil {
			return err
		}
	}
	f.rows = append(f.rows, values)
	return nil
}

// fakeLog is the export pipeline's processed-message log.
type fakeLog struct {
	ensured bool
	ids     []string
	saved   [][]interface{}
	saves   int
}

func (f *fakeLog) EnsureSheet(_ context.Context, _ string, _ []string) error {
	f.ensured = true
	return nil
}

func (f *fakeLog) ReadColumn(_ context.Context, _ string, _ int) ([]string, error) {
	return f.ids, nil
}

func (f *fakeLog) ClearAndRewrite(_ context.Context, _ string, _ []string, rows [][]interface{}) error {
	f.saved = rows
	f.saves++
	// Mirror the persisted content so a second run observes it.
	f.ids = nil
	for _, row := range rows {
		f.ids = append(f.ids, fmt.Sprint(row[0]))
	}
	return nil
}

// fakeFileStore records created files.
type fakeFileStore struct {
	folder    drive.Folder
	pathErr   error
	files     map[string][]byte
	createErr map[string]error // keyed by filename
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{
		folder:    drive.Folder{ID: "folder-1", Path: "Purchases/Amazon"},
		files:     map[string][]byte{},
		createErr: map[string]error{},
	}
}

func (f *fakeFileStore) ResolveOrCreateFolderPath(_ context.Context, path string) (drive.Folder, error) {
	if path == "" {
		return drive.Folder{}, errors.New("drive folder path is empty")
	}
	if f.pathErr != nil {
		return drive.Folder{}, f.pathErr
	}
	return f.folder, nil
}

func (f *fakeFileStore) CreateFile(_ context.Context, _ drive.Folder, name, _ string, data []byte) (string, error) {
	if err := f.createErr[name]; err != nil {
		return "", err
	}
	f.files[name] = data
	return "file-" + name, nil
}

// passthroughInliner leaves markup untouched.
type passthroughInliner struct{}

func (passthroughInliner) Inline(_ context.Context, html string) (string, render.RemoteInlineStats) {
	return html, render.RemoteInlineStats{}
}

// fakeRenderer returns the document bytes as the "PDF".
type fakeRenderer struct {
	err      error
	rendered []string
}

func (f *fakeRenderer) RenderHTML(_ context.Context, html string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.rendered = append(f.rendered, html)
	return []byte("%PDF " + html), nil
}

func orderMessage(id, orderNum string) gmail.Message {
	return gmail.Message{
		ID:        id,
		From:      "Amazon.com <auto-confirm@amazon.com>",
		Subject:   `Your Amazon.com order of "Desk Lamp".`,
		Date:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		PlainBody: "Order # " + orderNum + "\nTotal\n$45.67\n",
		HTMLBody:  "<p>Order " + orderNum + "</p>",
	}
}
