package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calebms/vidshift/internal/domain"
)

func successEntry(id, name, remoteID string) domain.LedgerEntry {
	return domain.LedgerEntry{
		ExternalID: id,
		Name:       name,
		RemoteID:   remoteID,
		Outcome:    domain.OutcomeSuccess,
	}
}

func TestMatchCaptions(t *testing.T) {
	successes := []domain.LedgerEntry{
		successEntry("1", "Welcome To The Course.mp4", "u1"),
		successEntry("2", "Module 1 - Setup", "u2"),
	}
	files := []string{"Welcome To The Course.srt", "Module 1 - Setup.srt", "Bonus Content.srt"}

	result := MatchCaptions(files, successes, domain.FirstSeenWins)

	if len(result.Matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Matched))
	}
	if result.Matched[0].Entry.RemoteID != "u1" {
		t.Errorf("first match = %+v, want remote id u1", result.Matched[0])
	}
	if result.Matched[1].Entry.RemoteID != "u2" {
		t.Errorf("second match = %+v, want remote id u2", result.Matched[1])
	}
	if len(result.Unmatched) != 1 || result.Unmatched[0] != "Bonus Content.srt" {
		t.Errorf("unmatched = %v", result.Unmatched)
	}
}

// Duplicate normalized names resolve deterministically to the entry first
// seen; the shadowed duplicate never double-matches.
func TestMatchCaptionsCollisionFirstSeenWins(t *testing.T) {
	successes := []domain.LedgerEntry{
		successEntry("1", "Intro", "u1"),
		successEntry("2", "Intro", "u2"),
	}

	result := MatchCaptions([]string{"Intro.srt"}, successes, domain.FirstSeenWins)

	if len(result.Matched) != 1 {
		t.Fatalf("collision must resolve to exactly one match, got %d", len(result.Matched))
	}
	if result.Matched[0].Entry.RemoteID != "u1" {
		t.Errorf("first-seen entry should win, got %+v", result.Matched[0].Entry)
	}
}

func TestMatchCaptionsReferencesLedgerEntry(t *testing.T) {
	successes := []domain.LedgerEntry{successEntry("1", "Intro", "u1")}

	result := MatchCaptions([]string{"Intro.srt"}, successes, domain.FirstSeenWins)

	if len(result.Matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matched))
	}
	if result.Matched[0].Entry != &successes[0] {
		t.Error("match should reference the ledger entry, not a copy")
	}
}

func TestListCaptionFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.srt", "a.SRT", "c.vtt", "notes.txt", "video.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.srt"), 0o755); err != nil {
		t.Fatalf("mkdir fixture: %v", err)
	}

	files, err := ListCaptionFiles(dir)
	if err != nil {
		t.Fatalf("ListCaptionFiles failed: %v", err)
	}

	want := []string{"a.SRT", "b.srt", "c.vtt"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestListCaptionFilesMissingDir(t *testing.T) {
	_, err := ListCaptionFiles(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrCaptionDirNotFound) {
		t.Fatalf("expected ErrCaptionDirNotFound, got %v", err)
	}
}

// stubUploader records caption uploads and replies from a per-video script.
type stubUploader struct {
	calls   []string // remoteID:language
	bodies  []string
	results map[string]domain.SubmitResult
}

func (s *stubUploader) UploadCaption(_ context.Context, remoteID, language, vtt string) domain.SubmitResult {
	s.calls = append(s.calls, remoteID+":"+language)
	s.bodies = append(s.bodies, vtt)
	if result, ok := s.results[remoteID]; ok {
		return result
	}
	return domain.SubmitResult{Status: domain.SubmitSuccess}
}

func captionFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestCaptionRunUploadsMatches(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "uploads.log")
	captionFixture(t, dir, "Intro.srt", "1\n00:00:01,000 --> 00:00:02,000\nHi\n")
	captionFixture(t, dir, "Orphan.srt", "1\n00:00:01,000 --> 00:00:02,000\nLost\n")

	uploader := &stubUploader{}
	svc := NewCaptionService(uploader, nil, &CaptionOptions{
		Dir:      dir,
		Language: "en",
		LogPath:  logPath,
		RunID:    "run-1",
	})

	summary, err := svc.Run(context.Background(), []domain.LedgerEntry{successEntry("1", "Intro", "u1")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Matched != 1 || summary.Unmatched != 1 || summary.Uploaded != 1 || summary.Failed != 0 {
		t.Errorf("summary = %+v", *summary)
	}
	if len(uploader.calls) != 1 || uploader.calls[0] != "u1:en" {
		t.Errorf("calls = %v", uploader.calls)
	}
	if !strings.HasPrefix(uploader.bodies[0], "WEBVTT\n\n") || !strings.Contains(uploader.bodies[0], "00:00:01.000") {
		t.Errorf("upload body should be transcoded to WebVTT, got %q", uploader.bodies[0])
	}

	logData, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	line := string(logData)
	if !strings.Contains(line, "OK Intro.srt") || !strings.Contains(line, "run=run-1") || !strings.Contains(line, "video=u1") {
		t.Errorf("run log line = %q", line)
	}
}

func TestCaptionRunFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "uploads.log")
	captionFixture(t, dir, "A.srt", "a")
	captionFixture(t, dir, "B.srt", "b")

	uploader := &stubUploader{
		results: map[string]domain.SubmitResult{"u1": domain.Rejected("bad track")},
	}
	svc := NewCaptionService(uploader, nil, &CaptionOptions{Dir: dir, LogPath: logPath})

	successes := []domain.LedgerEntry{
		successEntry("1", "A", "u1"),
		successEntry("2", "B", "u2"),
	}
	summary, err := svc.Run(context.Background(), successes)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Uploaded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", *summary)
	}
	if len(uploader.calls) != 2 {
		t.Errorf("the failed item must not stop the run, calls = %v", uploader.calls)
	}

	logData, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(logData), "FAIL A.srt") || !strings.Contains(string(logData), "error=bad track") {
		t.Errorf("run log = %q", string(logData))
	}
}

func TestCaptionRunDryRunPurity(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "uploads.log")
	captionFixture(t, dir, "Intro.srt", "hello")

	uploader := &stubUploader{}
	svc := NewCaptionService(uploader, nil, &CaptionOptions{
		Dir:     dir,
		LogPath: logPath,
		DryRun:  true,
	})

	summary, err := svc.Run(context.Background(), []domain.LedgerEntry{successEntry("1", "Intro", "u1")})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(uploader.calls) != 0 {
		t.Errorf("dry run must not upload, got %v", uploader.calls)
	}
	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Error("dry run must not create the run log")
	}
	if summary.Matched != 1 {
		t.Errorf("dry run should still report matches, got %+v", *summary)
	}
}
