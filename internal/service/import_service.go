package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mdkeep/internal/karakeep"
	"github.com/xxxsen/mdkeep/internal/model"
	appErr "github.com/xxxsen/mdkeep/internal/pkg/errors"
	"github.com/xxxsen/mdkeep/internal/runlog"
)

const DefaultDelay = 100 * time.Millisecond

// BookmarkCreator creates one text bookmark and reports whether it was confirmed.
type BookmarkCreator interface {
	CreateTextBookmark(ctx context.Context, title, text, source string) bool
}

type ClientFactory func(baseURL, apiKey string) BookmarkCreator

// RunContext carries everything a single run needs from its caller.
type RunContext struct {
	APIBaseURL string
	APIKey     string
	Sink       runlog.Sink
}

type ImportService struct {
	newClient ClientFactory
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
	running   atomic.Bool
}

type ImportOption func(*ImportService)

func WithDelay(d time.Duration) ImportOption {
	return func(s *ImportService) {
		if d >= 0 {
			s.delay = d
		}
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) ImportOption {
	return func(s *ImportService) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

func WithClock(fn func() time.Time) ImportOption {
	return func(s *ImportService) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewImportService(newClient ClientFactory, opts ...ImportOption) *ImportService {
	s := &ImportService{
		newClient: newClient,
		delay:     DefaultDelay,
		sleep:     sleepContext,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KarakeepClientFactory builds API clients sharing the given options.
func KarakeepClientFactory(opts ...karakeep.Option) ClientFactory {
	return func(baseURL, apiKey string) BookmarkCreator {
		return karakeep.NewClient(baseURL, apiKey, opts...)
	}
}

// Running reports whether a run is in flight.
func (s *ImportService) Running() bool {
	return s.running.Load()
}

// Run imports files one at a time. Validation problems return an ErrValidation error
// before anything is read or sent. Once started, the summary is always produced; an
// interrupted loop sets Summary.Aborted and returns an error wrapping ErrFatal.
func (s *ImportService) Run(ctx context.Context, rc RunContext, files []model.FileHandle) (summary *model.Summary, err error) {
	baseURL := karakeep.NormalizeBaseURL(rc.APIBaseURL)
	apiKey := strings.TrimSpace(rc.APIKey)
	rl := runlog.New(rc.Sink).WithClock(s.now)
	if err := validateRun(baseURL, apiKey, files); err != nil {
		rl.Error("%v", err)
		return nil, err
	}
	if !s.running.CompareAndSwap(false, true) {
		rl.Error("another import is still running")
		return nil, appErr.ErrRunInProgress
	}
	defer s.running.Store(false)

	job := &model.ImportJob{
		ID:         newID(),
		APIBaseURL: baseURL,
		APIKey:     apiKey,
		Files:      files,
	}
	summary = &model.Summary{
		RunID:     job.ID,
		Selected:  len(files),
		StartedAt: s.now(),
	}
	logger := logutil.GetLogger(ctx).With(zap.String("run_id", job.ID))
	ctx = runlog.WithLogger(ctx, rl)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", appErr.ErrFatal, r)
		}
		if err != nil {
			summary.Aborted = true
			rl.Error("import interrupted: %v", err)
		}
		summary.Processed = job.Processed
		summary.Succeeded = job.Succeeded
		summary.Failed = job.Processed - job.Succeeded
		summary.FinishedAt = s.now()
		rl.Info("import finished: selected=%d attempted=%d succeeded=%d failed=%d skipped=%d",
			summary.Selected, summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
		logger.Info("import run finished",
			zap.Int("selected", summary.Selected),
			zap.Int("processed", summary.Processed),
			zap.Int("succeeded", summary.Succeeded),
			zap.Bool("aborted", summary.Aborted),
			zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
		)
	}()

	if !strings.HasSuffix(baseURL, karakeep.APIPathSuffix) {
		rl.Warn("API base URL %q does not end with %s; requests may not reach the bookmark API", baseURL, karakeep.APIPathSuffix)
	}
	rl.Info("starting import of %d file(s) into %s", len(files), baseURL)
	logger.Info("import run started", zap.Int("files", len(files)), zap.String("base_url", baseURL))

	err = s.importFiles(ctx, job, summary, s.newClient(baseURL, apiKey), rl)
	return summary, err
}

func (s *ImportService) importFiles(ctx context.Context, job *model.ImportJob, summary *model.Summary, client BookmarkCreator, rl *runlog.Logger) error {
	last := lastMarkdownIndex(job.Files)
	for i, file := range job.Files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", appErr.ErrFatal, err)
		}
		name := file.Name()
		if !IsMarkdownFile(name) {
			rl.Warn("skipping %s: not a .md file", name)
			summary.Skipped++
			continue
		}
		job.Processed++
		rl.Info("processing %s (%d/%d)", name, i+1, len(job.Files))
		content, err := file.ReadText(ctx)
		if err != nil {
			rl.Error("FileReadError: could not read %s: %v", name, err)
			continue
		}
		title := TitleFromFilename(name)
		if client.CreateTextBookmark(ctx, title, content, name) {
			job.Succeeded++
		} else {
			rl.Error("import of %s failed", name)
		}
		if i < last && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return fmt.Errorf("%w: %v", appErr.ErrFatal, err)
			}
		}
	}
	return nil
}

// lastMarkdownIndex returns the position of the last file that will be sent, or -1.
func lastMarkdownIndex(files []model.FileHandle) int {
	for i := len(files) - 1; i >= 0; i-- {
		if IsMarkdownFile(files[i].Name()) {
			return i
		}
	}
	return -1
}

func validateRun(baseURL, apiKey string, files []model.FileHandle) error {
	if baseURL == "" {
		return appErr.Validation("API base URL is required")
	}
	if apiKey == "" {
		return appErr.Validation("API key is required")
	}
	if len(files) == 0 {
		return appErr.Validation("no files selected")
	}
	return nil
}

func IsMarkdownFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}

// TitleFromFilename drops the last extension segment: "a.b.md" becomes "a.b".
// A bare ".md" yields an empty title.
func TitleFromFilename(name string) string {
	base := filepath.Base(name)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return base
	}
	return base[:idx]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
