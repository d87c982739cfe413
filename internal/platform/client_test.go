package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calebms/vidshift/internal/domain"
)

func testRecord() domain.SourceRecord {
	return domain.SourceRecord{
		ExternalID: "42",
		Name:       "Welcome",
		GroupID:    "10",
		SourceURL:  "http://source/welcome.mp4",
	}
}

func newTestClient(baseURL string) *Client {
	return NewClient(&ClientConfig{
		BaseURL:   baseURL,
		Token:     "test-token",
		AccountID: "acct-1",
	})
}

func TestCopyFromURLSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody copyRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(apiResponse{Success: true, VideoID: "u1"})
	}))
	defer server.Close()

	result := newTestClient(server.URL).CopyFromURL(context.Background(), testRecord())

	if result.Status != domain.SubmitSuccess || result.RemoteID != "u1" {
		t.Errorf("result = %+v, want success with remote id u1", result)
	}
	if gotPath != "/v1/accounts/acct-1/videos/copy" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotBody.SourceURL != "http://source/welcome.mp4" || gotBody.Metadata.ExternalID != "42" || gotBody.Metadata.GroupID != "10" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestCopyFromURLRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(apiResponse{
			Success: false,
			Errors:  []apiError{{Message: "source url unreachable"}, {Message: "quota exceeded"}},
		})
	}))
	defer server.Close()

	result := newTestClient(server.URL).CopyFromURL(context.Background(), testRecord())

	if result.Status != domain.SubmitRejected {
		t.Fatalf("result = %+v, want rejected", result)
	}
	if !strings.Contains(result.Message, "source url unreachable") || !strings.Contains(result.Message, "quota exceeded") {
		t.Errorf("message should join error descriptors, got %q", result.Message)
	}
}

func TestCopyFromURLSuccessFlagFalse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(apiResponse{Success: false, Errors: []apiError{{Message: "duplicate"}}})
	}))
	defer server.Close()

	result := newTestClient(server.URL).CopyFromURL(context.Background(), testRecord())

	if result.Status != domain.SubmitRejected || result.Message != "duplicate" {
		t.Errorf("result = %+v, want rejected with message duplicate", result)
	}
}

func TestCopyFromURLTransportFault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	result := newTestClient(server.URL).CopyFromURL(context.Background(), testRecord())

	if result.Status != domain.SubmitTransportFault {
		t.Errorf("result = %+v, want transport fault", result)
	}
	if result.Message == "" {
		t.Error("transport fault should carry the underlying error message")
	}
}

func TestUploadCaption(t *testing.T) {
	var gotPath, gotContentType, gotBody string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("multipart file missing: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotContentType = header.Header.Get("Content-Type")
		data, _ := io.ReadAll(file)
		gotBody = string(data)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(apiResponse{Success: true})
	}))
	defer server.Close()

	vtt := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHi\n"
	result := newTestClient(server.URL).UploadCaption(context.Background(), "u1", "en", vtt)

	if result.Status != domain.SubmitSuccess {
		t.Fatalf("result = %+v, want success", result)
	}
	if gotPath != "/v1/videos/u1/captions/en" {
		t.Errorf("path = %q", gotPath)
	}
	if gotContentType != "text/vtt" {
		t.Errorf("content type = %q, want text/vtt", gotContentType)
	}
	if gotBody != vtt {
		t.Errorf("uploaded body = %q", gotBody)
	}
}

func TestUploadCaptionRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(apiResponse{Success: false, Errors: []apiError{{Message: "video not found"}}})
	}))
	defer server.Close()

	result := newTestClient(server.URL).UploadCaption(context.Background(), "missing", "en", "WEBVTT\n")

	if result.Status != domain.SubmitRejected {
		t.Fatalf("result = %+v, want rejected", result)
	}
	if !strings.Contains(result.Message, "video not found") {
		t.Errorf("message = %q", result.Message)
	}
}
