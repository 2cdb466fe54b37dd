package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/workflow"
)

// Client talks to the workflow backend on behalf of a scan station. All
// methods map HTTP failures onto the workflow error taxonomy so the session
// state machine never sees transport details.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a backend client. token is the staff access token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// labelsResponse mirrors the marker label-resolution payload
type labelsResponse struct {
	InternalCode string           `json:"internalCode"`
	Reprint      bool             `json:"reprint"`
	Labels       []workflow.Label `json:"labels"`
}

// ResolveLabels fetches the printable labels for an internal code.
// A 404 maps to LabelNotFound and a 409 to RetryNotAllowed.
func (c *Client) ResolveLabels(ctx context.Context, internalCode string) ([]workflow.Label, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/marker/labels?internal_code="+internalCode, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &workflow.LabelResolutionError{Kind: workflow.LabelUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, &workflow.LabelResolutionError{Kind: workflow.LabelNotFound}
	case http.StatusConflict:
		return nil, &workflow.LabelResolutionError{Kind: workflow.RetryNotAllowed}
	default:
		return nil, &workflow.LabelResolutionError{
			Kind:    workflow.LabelUnknown,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	var body labelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &workflow.LabelResolutionError{Kind: workflow.LabelUnknown, Message: err.Error()}
	}
	return body.Labels, nil
}

// AckPrinted records the print acknowledgement for a code. The backend write
// is idempotent, so a retransmitted ack is harmless.
func (c *Client) AckPrinted(ctx context.Context, internalCode string) error {
	return c.postJSON(ctx, "/api/marker/work", map[string]string{"internal_code": internalCode})
}

// SubmitRepeatRequest files a reprint statement for the director to review.
func (c *Client) SubmitRepeatRequest(ctx context.Context, internalCode string) error {
	return c.postJSON(ctx, "/api/marker/statements", map[string]string{"internal_code": internalCode})
}

// SubmitInspection posts a quality-control outcome as multipart form data.
func (c *Client) SubmitInspection(ctx context.Context, res workflow.Result) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	mw.WriteField("internal_code", res.InternalCode)
	mw.WriteField("is_defect", strconv.FormatBool(res.Defect))
	if res.Category != "" {
		mw.WriteField("comment", res.Category)
	}
	for i, photo := range res.Photos {
		name := photo.Name
		if name == "" {
			name = fmt.Sprintf("photo_%d.jpg", i)
		}
		part, err := mw.CreateFormFile(fmt.Sprintf("image_%d", i), name)
		if err != nil {
			return &workflow.SubmissionError{Kind: workflow.NetworkFailure, Message: err.Error()}
		}
		if _, err := part.Write(photo.Content); err != nil {
			return &workflow.SubmissionError{Kind: workflow.NetworkFailure, Message: err.Error()}
		}
	}
	if err := mw.Close(); err != nil {
		return &workflow.SubmissionError{Kind: workflow.NetworkFailure, Message: err.Error()}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/otk/work", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.doSubmission(req)
}

// SubmitPack posts a packing confirmation for a code.
func (c *Client) SubmitPack(ctx context.Context, res workflow.Result) error {
	return c.postJSON(ctx, "/api/packer/work", map[string]string{"internal_code": res.InternalCode})
}

// InspectionSubmitter adapts the client to the quality-control station role.
type InspectionSubmitter struct{ *Client }

func (s InspectionSubmitter) Submit(ctx context.Context, res workflow.Result) error {
	return s.SubmitInspection(ctx, res)
}

// PackSubmitter adapts the client to the packing station role.
type PackSubmitter struct{ *Client }

func (s PackSubmitter) Submit(ctx context.Context, res workflow.Result) error {
	return s.SubmitPack(ctx, res)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return &workflow.SubmissionError{Kind: workflow.NetworkFailure, Message: err.Error()}
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doSubmission(req)
}

// doSubmission executes a mutating request and maps the outcome: transport
// errors become NetworkFailure, non-2xx statuses ServerRejected.
func (c *Client) doSubmission(req *http.Request) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &workflow.SubmissionError{Kind: workflow.NetworkFailure, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	msg := fmt.Sprintf("status %d", resp.StatusCode)
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body["error"] != "" {
		msg = body["error"]
	}
	return &workflow.SubmissionError{Kind: workflow.ServerRejected, Message: msg}
}
