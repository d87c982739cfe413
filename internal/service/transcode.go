package service

import (
	"regexp"
	"strings"
)

// vttHeader is the WebVTT file signature the destination platform requires.
const vttHeader = "WEBVTT"

// srtTimestampRe matches SubRip timestamps like "00:00:08,667" so the
// comma fractional-second delimiter can be rewritten to the VTT period form.
var srtTimestampRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}),(\d{3})`)

// ToWebVTT converts SubRip-style subtitle text to WebVTT. The transform is
// best-effort and total: malformed input passes through with line endings
// normalized and the header prepended, never an error. It normalizes all
// line-ending variants to LF, rewrites HH:MM:SS,mmm timestamps to the
// period-delimited form, prepends the WEBVTT header followed by a blank
// line, and ends the output with exactly one newline.
func ToWebVTT(src string) string {
	text := strings.ReplaceAll(src, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = srtTimestampRe.ReplaceAllString(text, "$1.$2")

	if !strings.HasPrefix(text, vttHeader) {
		text = vttHeader + "\n\n" + text
	}

	return strings.TrimRight(text, "\n") + "\n"
}
