package platform

import (
	"context"

	"github.com/calebms/vidshift/internal/domain"
)

// VideoSubmitter submits one video for copy-from-URL ingestion on the
// destination platform. Failures come back as data in the SubmitResult, so
// callers can record them and keep going.
type VideoSubmitter interface {
	CopyFromURL(ctx context.Context, record domain.SourceRecord) domain.SubmitResult
}

// CaptionUploader attaches a WebVTT caption track to an already migrated
// video, addressed by the destination platform's id.
type CaptionUploader interface {
	UploadCaption(ctx context.Context, remoteID, language, vtt string) domain.SubmitResult
}
