package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fhuszti/media-pipeline/internal/handler/api"
	"github.com/fhuszti/media-pipeline/internal/model"
	"github.com/fhuszti/media-pipeline/internal/port"
	"github.com/fhuszti/media-pipeline/internal/uuid"
)

// Client talks to the media API and to presigned object store URLs.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, http: httpClient}
}

type UploadLinkRequest struct {
	Bucket      string         `json:"bucket"`
	Path        string         `json:"path"`
	MimeType    string         `json:"mime_type"`
	Size        int64          `json:"size"`
	ParentScope string         `json:"parent_scope,omitempty"`
	Extra       model.Metadata `json:"extra,omitempty"`
}

func (c *Client) IssueUploadLink(ctx context.Context, req UploadLinkRequest) (port.IssueUploadLinkOutput, error) {
	var out port.IssueUploadLinkOutput
	err := c.call(ctx, "issue_upload_link", http.MethodPost, "/medias/upload_link", req, &out)
	var te *TransferError
	if errors.As(err, &te) && te.Status == http.StatusRequestEntityTooLarge {
		return out, &ValidationError{Name: req.Path, Err: ErrSizeExceeded}
	}
	if err == nil && out.Media == nil {
		err = &TransferError{Step: "issue_upload_link", Err: errors.New("response has no media")}
	}
	return out, err
}

func (c *Client) IssueVariantLink(ctx context.Context, id uuid.UUID, suffix, mimeType string) (port.IssueVariantLinkOutput, error) {
	var out port.IssueVariantLinkOutput
	body := map[string]string{"suffix": suffix, "mime_type": mimeType}
	err := c.call(ctx, "issue_variant_link", http.MethodPost, "/medias/"+id.String()+"/variant_link", body, &out)
	return out, err
}

// MarkUploaded confirms the primary transfer along with the variant suffixes
// that were stored.
func (c *Client) MarkUploaded(ctx context.Context, id uuid.UUID, variants []string) error {
	var body any
	if len(variants) > 0 {
		body = map[string][]string{"variants": variants}
	}
	return c.call(ctx, "mark_uploaded", http.MethodPost, "/medias/"+id.String()+"/uploaded", body, nil)
}

func (c *Client) EnqueueTranscode(ctx context.Context, id uuid.UUID, eventContextID string) error {
	body := map[string]string{"event_context_id": eventContextID}
	return c.call(ctx, "enqueue_transcode", http.MethodPost, "/medias/"+id.String()+"/transcode", body, nil)
}

func (c *Client) ResolvePublicURLs(ctx context.Context, ids []uuid.UUID) (map[string]port.PublicURL, error) {
	out := map[string]port.PublicURL{}
	body := map[string][]uuid.UUID{"ids": ids}
	if err := c.call(ctx, "resolve_public_urls", http.MethodPost, "/medias/public_urls", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Put sends data to a presigned URL. onProgress is called as bytes are read
// by the transport.
func (c *Client) Put(ctx context.Context, url, contentType string, data []byte, onProgress func(sent, total int64)) error {
	body := &countingReader{r: bytes.NewReader(data), total: int64(len(data)), onRead: onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return &TransferError{Step: "put_object", Err: err}
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransferError{Step: "put_object", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransferError{Step: "put_object", Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	return nil
}

func (c *Client) call(ctx context.Context, step, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", step, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransferError{Step: step, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransferError{Step: step, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr api.ErrorResponse
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &TransferError{Step: step, Status: resp.StatusCode, Err: errors.New(msg)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransferError{Step: step, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

type countingReader struct {
	r      io.Reader
	sent   int64
	total  int64
	onRead func(sent, total int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.sent += int64(n)
		if c.onRead != nil {
			c.onRead(c.sent, c.total)
		}
	}
	return n, err
}
