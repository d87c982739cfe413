package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/calebms/vidshift/internal/domain"
	"github.com/calebms/vidshift/internal/logger"
	"github.com/calebms/vidshift/internal/platform"
)

// ErrCaptionDirNotFound means the configured caption directory does not
// exist. Fatal for the caption tool, before any work starts.
var ErrCaptionDirNotFound = errors.New("caption directory not found")

// MatchResult holds one run's caption pairing. Matches reference ledger
// entries; nothing here is persisted.
type MatchResult struct {
	Matched   []domain.CaptionMatch
	Unmatched []string
}

// MatchCaptions associates local caption files with migrated videos by
// normalized name. The lookup over the ledger successes resolves duplicate
// normalized names by the given policy (the tool uses first-seen-wins, so
// shadowed duplicates never double-match). Single pass, O(n+m).
func MatchCaptions(localFiles []string, successes []domain.LedgerEntry, policy domain.ConflictPolicy) MatchResult {
	byKey := make(map[string]*domain.LedgerEntry, len(successes))
	for i := range successes {
		key := NormalizeName(successes[i].Name)
		if key == "" {
			continue
		}
		if _, exists := byKey[key]; exists && policy == domain.FirstSeenWins {
			continue
		}
		byKey[key] = &successes[i]
	}

	var result MatchResult
	for _, file := range localFiles {
		entry, ok := byKey[NormalizeName(filepath.Base(file))]
		if !ok {
			result.Unmatched = append(result.Unmatched, file)
			continue
		}
		result.Matched = append(result.Matched, domain.CaptionMatch{
			LocalFile: file,
			Entry:     entry,
		})
	}
	return result
}

// ListCaptionFiles returns the subtitle files directly inside dir, sorted by
// name for a deterministic run order.
func ListCaptionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCaptionDirNotFound, dir)
		}
		return nil, fmt.Errorf("read caption directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".srt", ".vtt":
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// CaptionService matches local caption files to migrated videos and uploads
// them sequentially. Uploads are not tracked in the ledger; a re-run
// reprocesses every match, and the only record is the run-scoped text log.
type CaptionService struct {
	uploader platform.CaptionUploader
	logger   *logger.Logger

	dir      string
	language string
	logPath  string
	delay    time.Duration
	dryRun   bool
	runID    string
}

// CaptionOptions holds per-run caption settings.
type CaptionOptions struct {
	Dir      string
	Language string // BCP-47-ish language tag for the caption track
	LogPath  string // append-only run log, never read back by the tool
	Delay    time.Duration
	DryRun   bool
	RunID    string
}

// CaptionSummary tallies a caption run.
type CaptionSummary struct {
	Matched   int
	Unmatched int
	Uploaded  int
	Failed    int
}

// NewCaptionService creates a new caption matching and upload service.
func NewCaptionService(uploader platform.CaptionUploader, log *logger.Logger, opts *CaptionOptions) *CaptionService {
	if opts == nil {
		opts = &CaptionOptions{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	language := opts.Language
	if language == "" {
		language = "en"
	}

	return &CaptionService{
		uploader: uploader,
		logger:   log.WithField(logger.FieldComponent, "captions"),
		dir:      opts.Dir,
		language: language,
		logPath:  opts.LogPath,
		delay:    opts.Delay,
		dryRun:   opts.DryRun,
		runID:    opts.RunID,
	}
}

func (s *CaptionService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// Run lists the caption directory, matches against the ledger successes,
// and uploads each match as WebVTT. Item failures are logged and counted but
// never stop the run. Dry run performs no uploads and no run-log writes.
func (s *CaptionService) Run(ctx context.Context, successes []domain.LedgerEntry) (*CaptionSummary, error) {
	files, err := ListCaptionFiles(s.dir)
	if err != nil {
		return nil, err
	}

	matches := MatchCaptions(files, successes, domain.FirstSeenWins)
	summary := &CaptionSummary{
		Matched:   len(matches.Matched),
		Unmatched: len(matches.Unmatched),
	}

	s.log(ctx).WithFields(logger.Fields{
		"files":     len(files),
		"matched":   summary.Matched,
		"unmatched": summary.Unmatched,
		"dry_run":   s.dryRun,
	}).Info("Caption matching completed")

	for _, file := range matches.Unmatched {
		s.log(ctx).WithField("file", file).Warn("No migrated video matches caption file")
	}

	var runLog *os.File
	if !s.dryRun && s.logPath != "" {
		if err := os.MkdirAll(filepath.Dir(s.logPath), 0o755); err != nil {
			return nil, fmt.Errorf("create run log directory: %w", err)
		}
		runLog, err = os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open run log: %w", err)
		}
		defer runLog.Close()
	}

	for i, match := range matches.Matched {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		itemLog := s.log(ctx).WithFields(logger.Fields{
			"file":                 match.LocalFile,
			logger.FieldRemoteID:   match.Entry.RemoteID,
			logger.FieldExternalID: match.Entry.ExternalID,
		})

		if s.dryRun {
			itemLog.Info("Dry run: would upload caption")
			continue
		}

		result := s.uploadOne(ctx, match)
		if result.OK() {
			summary.Uploaded++
			itemLog.Info("Caption uploaded")
		} else {
			summary.Failed++
			itemLog.WithFields(logger.Fields{
				"status": string(result.Status),
				"error":  result.Message,
			}).Warn("Caption upload failed")
		}
		s.appendRunLog(runLog, match, result)

		if i < len(matches.Matched)-1 {
			if err := sleep(ctx, s.delay); err != nil {
				return summary, err
			}
		}
	}

	return summary, nil
}

// uploadOne reads and transcodes one caption file, then submits it. A local
// read failure is reported as a transport-level fault so it lands in the run
// log like any other failed item.
func (s *CaptionService) uploadOne(ctx context.Context, match domain.CaptionMatch) domain.SubmitResult {
	raw, err := os.ReadFile(filepath.Join(s.dir, match.LocalFile))
	if err != nil {
		return domain.TransportFault(fmt.Sprintf("read caption file: %v", err))
	}
	return s.uploader.UploadCaption(ctx, match.Entry.RemoteID, s.language, ToWebVTT(string(raw)))
}

// appendRunLog writes one human-readable outcome line for auditing.
func (s *CaptionService) appendRunLog(runLog *os.File, match domain.CaptionMatch, result domain.SubmitResult) {
	if runLog == nil {
		return
	}

	status := "OK"
	detail := fmt.Sprintf("video=%s lang=%s", match.Entry.RemoteID, s.language)
	if !result.OK() {
		status = "FAIL"
		detail = fmt.Sprintf("video=%s lang=%s error=%s", match.Entry.RemoteID, s.language, result.Message)
	}

	line := fmt.Sprintf("%s run=%s %s %s %s\n",
		time.Now().UTC().Format(time.RFC3339), s.runID, status, match.LocalFile, detail)
	if _, err := runLog.WriteString(line); err != nil {
		s.logger.WithError(err).Warn("Failed to append to caption run log")
	}
}
