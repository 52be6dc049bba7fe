package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
	"github.com/MrSnakeDoc/duewatch/internal/format"
	"github.com/MrSnakeDoc/duewatch/internal/index"
	"github.com/MrSnakeDoc/duewatch/internal/notify"
	"github.com/MrSnakeDoc/duewatch/internal/sources/portal"
)

type staticSource struct {
	rows []portal.RawRow
	err  error
}

func (s *staticSource) FetchRows(context.Context) ([]portal.RawRow, error) {
	return s.rows, s.err
}

type sentMessage struct {
	destination string
	text        string
}

type fakeSink struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (s *fakeSink) Send(_ context.Context, destination, text string, _ notify.SendOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("network down")
	}
	s.sent = append(s.sent, sentMessage{destination: destination, text: text})
	return nil
}

type brokenStore struct {
	loadErr error
	saved   bool
}

func (s *brokenStore) Load(context.Context) ([]domain.Activity, error) { return nil, s.loadErr }
func (s *brokenStore) Save(context.Context, []domain.Activity) error {
	s.saved = true
	return nil
}

type countingRecorder struct{ outcomes []string }

func (c *countingRecorder) RecordRun(_ context.Context, outcome string) error {
	c.outcomes = append(c.outcomes, outcome)
	return nil
}

func activityRow(course, due, kind string) portal.RawRow {
	return portal.DataRow(
		portal.Cell{},
		portal.Cell{Text: due},
		portal.Cell{Text: course + "\n" + kind},
	)
}

func sampleRows() []portal.RawRow {
	return []portal.RawRow{
		portal.PeriodRow("2025.1"),
		activityRow("BANCO DE DADOS", "10/05", "Avaliação: Prova 1"),
		activityRow("REDES", "12/05", "Tarefa: Lista 2"),
	}
}

type fixture struct {
	source   *staticSource
	store    *index.MemoryIndex
	sink     *fakeSink
	recorder *countingRecorder
	runner   *Runner
}

func newFixture(t *testing.T, rows []portal.RawRow) *fixture {
	t.Helper()
	f := &fixture{
		source:   &staticSource{rows: rows},
		store:    index.NewMemoryIndex(),
		sink:     &fakeSink{},
		recorder: &countingRecorder{},
	}
	f.runner = f.build(f.store)
	return f
}

func (f *fixture) build(s interface {
	Load(context.Context) ([]domain.Activity, error)
	Save(context.Context, []domain.Activity) error
}) *Runner {
	r := NewRunner(Deps{
		Source:      f.source,
		Store:       s,
		Formatter:   format.NewFormatter(format.English(), time.UTC),
		Sink:        f.sink,
		Delivery:    notify.DeliverOptions{Pause: time.Millisecond, Attempts: 2, RetryWait: time.Millisecond},
		Destination: "default-chat",
		Index:       f.store,
		Recorder:    f.recorder,
	})
	r.now = func() time.Time { return time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC) }
	r.newID = func() string { return "run-1" }
	return r
}

func TestFirstRunAnnouncesEverything(t *testing.T) {
	f := newFixture(t, sampleRows())

	report, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Equal(t, "run-1", report.RunID)
	require.Equal(t, 2, report.Extracted)
	require.Len(t, report.New, 2)
	require.True(t, report.Notified)
	require.True(t, report.SnapshotSaved)
	require.Equal(t, 1, report.Chunks)
	require.False(t, report.FailureNotice.Attempted)

	require.Len(t, f.sink.sent, 1)
	require.Equal(t, "default-chat", f.sink.sent[0].destination)
	require.Contains(t, f.sink.sent[0].text, "BANCO DE DADOS")
	require.Contains(t, f.sink.sent[0].text, "Total: 2 activities")

	saved, _ := f.store.Load(context.Background())
	require.Len(t, saved, 2)
	require.Equal(t, []string{"success"}, f.recorder.outcomes)

	last, ok := f.store.LastRun()
	require.True(t, ok)
	require.Equal(t, 2, last.New)
}

func TestUnchangedSourceSendsNothing(t *testing.T) {
	f := newFixture(t, sampleRows())
	_, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	report, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Empty(t, report.New)
	require.False(t, report.Notified)
	require.True(t, report.SnapshotSaved)
	require.Len(t, f.sink.sent, 1, "second run must not notify")
}

func TestOnlyNewActivitiesAreAnnounced(t *testing.T) {
	f := newFixture(t, sampleRows())
	_, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	f.source.rows = append(sampleRows(), activityRow("COMPILADORES", "20/05", "Tarefa: Parser"))
	report, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Len(t, report.New, 1)
	require.Equal(t, "COMPILADORES", report.New[0].Course)
	require.Len(t, f.sink.sent, 2)
	require.NotContains(t, f.sink.sent[1].text, "REDES")
	require.Contains(t, f.sink.sent[1].text, "Total: 1 activity")
}

func TestVanishedActivitiesLeaveTheSnapshot(t *testing.T) {
	f := newFixture(t, sampleRows())
	_, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	f.source.rows = sampleRows()[:2]
	_, err = f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	saved, _ := f.store.Load(context.Background())
	require.Len(t, saved, 1)
	require.Equal(t, "BANCO DE DADOS", saved[0].Course)
}

func TestCorruptSnapshotIsFatal(t *testing.T) {
	f := newFixture(t, sampleRows())
	broken := &brokenStore{loadErr: &domain.SnapshotCorruptError{Location: "snap.json", Err: errors.New("bad json")}}
	runner := f.build(broken)

	report, err := runner.Run(context.Background(), RunOptions{})

	var corrupt *domain.SnapshotCorruptError
	require.ErrorAs(t, err, &corrupt)
	require.False(t, broken.saved, "a corrupt snapshot must not be overwritten")
	require.False(t, report.SnapshotSaved)
	require.True(t, report.FailureNotice.Attempted)
	require.NoError(t, report.FailureNotice.Err)

	require.Len(t, f.sink.sent, 1)
	require.Contains(t, f.sink.sent[0].text, "Error while fetching activities")
	require.Equal(t, []string{"failure"}, f.recorder.outcomes)
}

func TestExtractionFailureSendsNotice(t *testing.T) {
	f := newFixture(t, nil)
	f.source.err = &domain.AuthenticationError{URL: "https://sso/login", Reason: "bad credentials"}

	report, err := f.runner.Run(context.Background(), RunOptions{Destination: "ops-chat"})

	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.True(t, report.FailureNotice.Attempted)
	require.Len(t, f.sink.sent, 1)
	require.Equal(t, "ops-chat", f.sink.sent[0].destination)

	saved, _ := f.store.Load(context.Background())
	require.Empty(t, saved)
}

func TestDeliveryFailureStillSavesSnapshot(t *testing.T) {
	f := newFixture(t, sampleRows())
	f.sink.fail = true

	report, err := f.runner.Run(context.Background(), RunOptions{})

	var delivery *domain.DeliveryError
	require.ErrorAs(t, err, &delivery)
	require.Equal(t, err, report.DeliveryErr)
	require.True(t, report.SnapshotSaved)
	require.False(t, report.Notified)
	require.Zero(t, report.Chunks)

	require.True(t, report.FailureNotice.Attempted)
	require.Error(t, report.FailureNotice.Err, "notice failure is recorded, not propagated")

	saved, _ := f.store.Load(context.Background())
	require.Len(t, saved, 2)
}

func TestSendAllListsEverything(t *testing.T) {
	f := newFixture(t, sampleRows())
	_, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	report, err := f.runner.Run(context.Background(), RunOptions{SendAll: true, Destination: "someone"})
	require.NoError(t, err)

	require.Nil(t, report.New)
	require.True(t, report.Notified)
	require.Len(t, f.sink.sent, 2)
	last := f.sink.sent[1]
	require.Equal(t, "someone", last.destination)
	require.Contains(t, last.text, "YOUR ACADEMIC ACTIVITIES")
	require.Contains(t, last.text, "2025-05-10 12:00:00")
	require.Contains(t, last.text, "Total: 2 activities")
}

func TestSendAllWithEmptyExtraction(t *testing.T) {
	f := newFixture(t, []portal.RawRow{portal.PeriodRow("2025.1")})

	report, err := f.runner.Run(context.Background(), RunOptions{SendAll: true})
	require.NoError(t, err)

	require.True(t, report.Notified)
	require.Len(t, f.sink.sent, 1)
	require.Equal(t, format.English().Text.NoPending, f.sink.sent[0].text)
}

func TestEmptyExtractionInDiffModeSendsNothing(t *testing.T) {
	f := newFixture(t, []portal.RawRow{portal.PeriodRow("2025.1")})

	report, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.False(t, report.Notified)
	require.Empty(t, f.sink.sent)
	require.True(t, report.SnapshotSaved)
}

func TestLongAnnouncementIsChunked(t *testing.T) {
	var rows []portal.RawRow
	rows = append(rows, portal.PeriodRow("2025.1"))
	for i := 0; i < 120; i++ {
		rows = append(rows, activityRow(fmt.Sprintf("COURSE %03d %s", i, strings.Repeat("X", 30)), "10/05/2025 23:59", "Tarefa: Lista"))
	}
	f := newFixture(t, rows)

	report, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Greater(t, report.Chunks, 1)
	require.Len(t, f.sink.sent, report.Chunks)
	require.Contains(t, f.sink.sent[1].text, fmt.Sprintf("Continuation (2/%d)", report.Chunks))
}

// strictMarkdownSink refuses markdown messages whose bold markers do not
// pair up, the way the chat API does.
type strictMarkdownSink struct {
	sent []notify.SendOptions
}

func (s *strictMarkdownSink) Send(_ context.Context, _, text string, opts notify.SendOptions) error {
	if opts.Markdown && strings.Count(text, "*")%2 != 0 {
		return errors.New("bad request: can't parse entities")
	}
	s.sent = append(s.sent, opts)
	return nil
}

func TestChunkedDeliveryIsSentAsPlainText(t *testing.T) {
	rows := []portal.RawRow{portal.PeriodRow("2025.1")}
	for i := 0; i < 150; i++ {
		rows = append(rows, activityRow(fmt.Sprintf("DIM%04d - BANCO DE DADOS", i), "10/05/2025 23:59", "Tarefa: Lista"))
	}
	f := newFixture(t, rows)
	sink := &strictMarkdownSink{}
	f.runner.deps.Sink = sink

	report, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.True(t, report.Notified)
	require.Greater(t, report.Chunks, 1)
	require.Len(t, sink.sent, report.Chunks)
	for _, opts := range sink.sent {
		require.False(t, opts.Markdown)
	}
}

func TestSingleChunkKeepsMarkdown(t *testing.T) {
	f := newFixture(t, sampleRows())
	sink := &strictMarkdownSink{}
	f.runner.deps.Sink = sink

	_, err := f.runner.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	require.Len(t, sink.sent, 1)
	require.True(t, sink.sent[0].Markdown)
}
