package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mdkeep/internal/model"
	appErr "github.com/xxxsen/mdkeep/internal/pkg/errors"
	"github.com/xxxsen/mdkeep/internal/runlog"
)

type fakeFile struct {
	name    string
	content string
	err     error
	panics  bool
}

func (f fakeFile) Name() string {
	return f.name
}

func (f fakeFile) ReadText(ctx context.Context) (string, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

type createCall struct {
	title, text, source string
}

type fakeCreator struct {
	mu      sync.Mutex
	calls   []createCall
	fail    map[string]bool
	blockCh chan struct{}
}

func (f *fakeCreator) CreateTextBookmark(ctx context.Context, title, text, source string) bool {
	if f.blockCh != nil {
		<-f.blockCh
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, createCall{title: title, text: text, source: source})
	return !f.fail[source]
}

func newTestService(creator BookmarkCreator, sleeps *[]time.Duration) *ImportService {
	return NewImportService(
		func(baseURL, apiKey string) BookmarkCreator { return creator },
		WithSleep(func(ctx context.Context, d time.Duration) error {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
			return nil
		}),
	)
}

func testRunContext(sink runlog.Sink) RunContext {
	return RunContext{APIBaseURL: "https://keep.example.com/api/v1/", APIKey: "secret", Sink: sink}
}

func countMatching(entries []model.LogEntry, substr string, isError bool) int {
	n := 0
	for _, e := range entries {
		if e.IsError == isError && strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

func TestRun_ImportsMarkdownInOrder(t *testing.T) {
	creator := &fakeCreator{}
	var sleeps []time.Duration
	mem := runlog.NewMemory()
	svc := newTestService(creator, &sleeps)

	files := []model.FileHandle{
		fakeFile{name: "notes.md", content: "one"},
		fakeFile{name: "a.b.MD", content: "two"},
		fakeFile{name: "image.png", content: "binary"},
	}
	summary, err := svc.Run(context.Background(), testRunContext(mem), files)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Selected)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, 1, summary.Skipped)
	require.False(t, summary.Aborted)
	require.NotEmpty(t, summary.RunID)

	require.Equal(t, []createCall{
		{title: "notes", text: "one", source: "notes.md"},
		{title: "a.b", text: "two", source: "a.b.MD"},
	}, creator.calls)
	require.Equal(t, []time.Duration{DefaultDelay}, sleeps)
	require.Equal(t, 1, countMatching(mem.Entries(), "image.png", false))
	require.Equal(t, 1, countMatching(mem.Entries(), "import finished", false))
}

func TestRun_ReadFailureContinues(t *testing.T) {
	creator := &fakeCreator{}
	mem := runlog.NewMemory()
	svc := newTestService(creator, nil)

	files := []model.FileHandle{
		fakeFile{name: "first.md", content: "1"},
		fakeFile{name: "second.md", err: errors.New("permission denied")},
		fakeFile{name: "third.md", content: "3"},
	}
	summary, err := svc.Run(context.Background(), testRunContext(mem), files)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Processed)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.Len(t, creator.calls, 2)

	entries := mem.Entries()
	require.Equal(t, 1, countMatching(entries, "FileReadError", true))
	require.Equal(t, 1, countMatching(entries, "FileReadError: could not read second.md", true))
}

func TestRun_RemoteFailureContinues(t *testing.T) {
	creator := &fakeCreator{fail: map[string]bool{"bad.md": true}}
	mem := runlog.NewMemory()
	svc := newTestService(creator, nil)

	summary, err := svc.Run(context.Background(), testRunContext(mem), []model.FileHandle{
		fakeFile{name: "bad.md", content: "x"},
		fakeFile{name: "good.md", content: "y"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, 1, countMatching(mem.Entries(), "import of bad.md failed", true))
}

func TestRun_ValidationErrors(t *testing.T) {
	files := []model.FileHandle{fakeFile{name: "a.md"}}
	tests := []struct {
		name  string
		rc    RunContext
		files []model.FileHandle
	}{
		{name: "no base url", rc: RunContext{APIBaseURL: "  ", APIKey: "k"}, files: files},
		{name: "no api key", rc: RunContext{APIBaseURL: "https://x/api/v1", APIKey: ""}, files: files},
		{name: "no files", rc: RunContext{APIBaseURL: "https://x/api/v1", APIKey: "k"}, files: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{}
			summary, err := newTestService(creator, nil).Run(context.Background(), tt.rc, tt.files)
			require.ErrorIs(t, err, appErr.ErrValidation)
			require.Nil(t, summary)
			require.Empty(t, creator.calls)
		})
	}
}

func TestRun_WarnsOnUnexpectedBaseURL(t *testing.T) {
	mem := runlog.NewMemory()
	rc := RunContext{APIBaseURL: "https://keep.example.com", APIKey: "k", Sink: mem}
	_, err := newTestService(&fakeCreator{}, nil).Run(context.Background(), rc, []model.FileHandle{fakeFile{name: "a.md"}})
	require.NoError(t, err)

	warned := false
	for _, e := range mem.Entries() {
		if e.Level == model.LogLevelWarn && strings.Contains(e.Message, "/api/v1") {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestRun_NoDelayAfterLastFile(t *testing.T) {
	var sleeps []time.Duration
	_, err := newTestService(&fakeCreator{}, &sleeps).Run(context.Background(), testRunContext(nil),
		[]model.FileHandle{fakeFile{name: "only.md"}})
	require.NoError(t, err)
	require.Empty(t, sleeps)
}

func TestRun_NoDelayWhenOnlySkippedFilesFollow(t *testing.T) {
	var sleeps []time.Duration
	summary, err := newTestService(&fakeCreator{}, &sleeps).Run(context.Background(), testRunContext(nil),
		[]model.FileHandle{
			fakeFile{name: "a.md"},
			fakeFile{name: "b.txt"},
			fakeFile{name: "c.txt"},
		})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Skipped)
	require.Equal(t, 1, summary.Succeeded)
	require.Empty(t, sleeps)
}

func TestRun_DelayOnlyBetweenSentFiles(t *testing.T) {
	var sleeps []time.Duration
	_, err := newTestService(&fakeCreator{}, &sleeps).Run(context.Background(), testRunContext(nil),
		[]model.FileHandle{
			fakeFile{name: "a.md"},
			fakeFile{name: "skip.txt"},
			fakeFile{name: "b.md"},
			fakeFile{name: "c.md"},
		})
	require.NoError(t, err)
	require.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, sleeps)
}

func TestRun_SameBatchTwiceCreatesDuplicates(t *testing.T) {
	creator := &fakeCreator{}
	svc := newTestService(creator, nil)
	files := []model.FileHandle{fakeFile{name: "dup.md", content: "same"}}

	for i := 0; i < 2; i++ {
		summary, err := svc.Run(context.Background(), testRunContext(nil), files)
		require.NoError(t, err)
		require.Equal(t, 1, summary.Succeeded)
	}
	require.Len(t, creator.calls, 2)
	require.Equal(t, creator.calls[0], creator.calls[1])
}

func TestRun_PanicStillProducesSummary(t *testing.T) {
	creator := &fakeCreator{}
	mem := runlog.NewMemory()
	svc := newTestService(creator, nil)
	summary, err := svc.Run(context.Background(), testRunContext(mem), []model.FileHandle{
		fakeFile{name: "ok.md", content: "1"},
		fakeFile{name: "explode.md", panics: true},
		fakeFile{name: "never.md", content: "3"},
	})
	require.ErrorIs(t, err, appErr.ErrFatal)
	require.NotNil(t, summary)
	require.True(t, summary.Aborted)
	require.Equal(t, 2, summary.Processed)
	require.Equal(t, 1, summary.Succeeded)
	require.Len(t, creator.calls, 1)
	require.Equal(t, 1, countMatching(mem.Entries(), "import finished", false))
	require.False(t, svc.Running())
}

func TestRun_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	creator := &fakeCreator{}
	svc := NewImportService(
		func(baseURL, apiKey string) BookmarkCreator { return creator },
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)
	summary, err := svc.Run(ctx, testRunContext(nil), []model.FileHandle{
		fakeFile{name: "a.md"},
		fakeFile{name: "b.md"},
	})
	require.ErrorIs(t, err, appErr.ErrFatal)
	require.True(t, summary.Aborted)
	require.Equal(t, 1, summary.Succeeded)
	require.Len(t, creator.calls, 1)
}

func TestRun_RefusesOverlappingRun(t *testing.T) {
	creator := &fakeCreator{blockCh: make(chan struct{})}
	svc := newTestService(creator, nil)

	var firstErr atomic.Value
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Run(context.Background(), testRunContext(nil), []model.FileHandle{fakeFile{name: "slow.md"}})
		if err != nil {
			firstErr.Store(err)
		}
	}()
	require.Eventually(t, svc.Running, time.Second, time.Millisecond)

	summary, err := svc.Run(context.Background(), testRunContext(nil), []model.FileHandle{fakeFile{name: "other.md"}})
	require.ErrorIs(t, err, appErr.ErrRunInProgress)
	require.Nil(t, summary)

	close(creator.blockCh)
	<-done
	require.Nil(t, firstErr.Load())
	require.False(t, svc.Running())
	require.Len(t, creator.calls, 1)
}

func TestRun_WithKarakeepClient(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 42}`))
	}))
	defer srv.Close()

	svc := NewImportService(KarakeepClientFactory(), WithDelay(0))
	summary, err := svc.Run(context.Background(), RunContext{APIBaseURL: srv.URL + "/api/v1", APIKey: "k"},
		[]model.FileHandle{fakeFile{name: "x.md", content: "hi"}, fakeFile{name: "skip.txt"}})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, int32(1), hits.Load())
}

func TestTitleFromFilename(t *testing.T) {
	require.Equal(t, "notes", TitleFromFilename("notes.md"))
	require.Equal(t, "a.b", TitleFromFilename("a.b.md"))
	require.Equal(t, "noext", TitleFromFilename("noext"))
	require.Equal(t, "", TitleFromFilename(".md"))
}

func TestIsMarkdownFile(t *testing.T) {
	require.True(t, IsMarkdownFile("a.md"))
	require.True(t, IsMarkdownFile("A.MD"))
	require.False(t, IsMarkdownFile("a.markdown"))
	require.False(t, IsMarkdownFile("md"))
}
