package platform

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/calebms/vidshift/internal/domain"
)

// Client talks to the destination platform's REST API.
type Client struct {
	client    *resty.Client
	baseURL   string
	accountID string
}

// ClientConfig holds configuration for the platform client.
type ClientConfig struct {
	BaseURL   string
	Token     string
	AccountID string
	Timeout   time.Duration // zero means 5 minutes; copy ingestion is slow
}

// NewClient creates a new platform API client.
func NewClient(cfg *ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.Token)
	client.SetTimeout(timeout)

	return &Client{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		accountID: cfg.AccountID,
	}
}

// copyRequest is the copy-from-URL ingestion payload.
type copyRequest struct {
	SourceURL string       `json:"source_url"`
	Name      string       `json:"name"`
	Metadata  copyMetadata `json:"metadata"`
}

type copyMetadata struct {
	ExternalID string `json:"external_id"`
	GroupID    string `json:"group_id,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

type apiResponse struct {
	Success bool       `json:"success"`
	VideoID string     `json:"video_id"`
	Errors  []apiError `json:"errors,omitempty"`
}

// CopyFromURL asks the platform to ingest one video from its source URL.
func (c *Client) CopyFromURL(ctx context.Context, record domain.SourceRecord) domain.SubmitResult {
	endpoint := fmt.Sprintf("%s/v1/accounts/%s/videos/copy", c.baseURL, c.accountID)

	req := copyRequest{
		SourceURL: record.SourceURL,
		Name:      record.Name,
		Metadata: copyMetadata{
			ExternalID: record.ExternalID,
			GroupID:    record.GroupID,
		},
	}

	var resp apiResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(endpoint)

	return resolve(httpResp, &resp, err)
}

// UploadCaption attaches one WebVTT track to a migrated video.
func (c *Client) UploadCaption(ctx context.Context, remoteID, language, vtt string) domain.SubmitResult {
	endpoint := fmt.Sprintf("%s/v1/videos/%s/captions/%s", c.baseURL, remoteID, language)

	var resp apiResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetMultipartField("file", "captions.vtt", "text/vtt", strings.NewReader(vtt)).
		SetResult(&resp).
		SetError(&resp).
		Post(endpoint)

	return resolve(httpResp, &resp, err)
}

// resolve maps a resty response onto the success/rejected/transport-fault
// discriminant.
func resolve(httpResp *resty.Response, resp *apiResponse, err error) domain.SubmitResult {
	if err != nil {
		return domain.TransportFault(err.Error())
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		return domain.Rejected(fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), errorMessage(resp, httpResp)))
	}

	if !resp.Success {
		return domain.Rejected(errorMessage(resp, httpResp))
	}

	return domain.SubmitResult{Status: domain.SubmitSuccess, RemoteID: resp.VideoID}
}

// errorMessage extracts the API's error descriptors, falling back to the raw
// body when the response shape is unexpected.
func errorMessage(resp *apiResponse, httpResp *resty.Response) string {
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return strings.Join(messages, "; ")
	}
	if body := strings.TrimSpace(string(httpResp.Body())); body != "" {
		return body
	}
	return "request not accepted"
}
