package aps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
)

// SignatureHeader carries the work item signature on public submissions.
const SignatureHeader = "x-ads-workitem-signature"

// Status is the lifecycle state of a work item.
type Status string

const (
	StatusPending                   Status = "pending"
	StatusInProgress                Status = "inprogress"
	StatusSuccess                   Status = "success"
	StatusCancelled                 Status = "cancelled"
	StatusFailedDownload            Status = "failedDownload"
	StatusFailedInstructions        Status = "failedInstructions"
	StatusFailedUpload              Status = "failedUpload"
	StatusFailedUploadOptional      Status = "failedUploadOptional"
	StatusFailedLimitDataSize       Status = "failedLimitDataSize"
	StatusFailedLimitProcessingTime Status = "failedLimitProcessingTime"
)

// Argument is one bound work item argument.
type Argument struct {
	URL     string            `json:"url"`
	Verb    string            `json:"verb,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Arguments maps parameter names to their bound arguments.
type Arguments map[string]Argument

// Signatures is the request-level signature block of a public work item.
type Signatures struct {
	ActivityID string `json:"activityId"`
	WorkItem   string `json:"workItem"`
}

type workItemRequest struct {
	ActivityID string      `json:"activityId"`
	Arguments  Arguments   `json:"arguments"`
	Signatures *Signatures `json:"signatures,omitempty"`
}

// WorkItemStats holds the timing and transfer counters reported by the
// service.
type WorkItemStats struct {
	TimeQueued              time.Time `mapstructure:"timeQueued"`
	TimeDownloadStarted     time.Time `mapstructure:"timeDownloadStarted"`
	TimeInstructionsStarted time.Time `mapstructure:"timeInstructionsStarted"`
	TimeInstructionsEnded   time.Time `mapstructure:"timeInstructionsEnded"`
	TimeUploadEnded         time.Time `mapstructure:"timeUploadEnded"`
	TimeFinished            time.Time `mapstructure:"timeFinished"`
	BytesDownloaded         int64     `mapstructure:"bytesDownloaded"`
	BytesUploaded           int64     `mapstructure:"bytesUploaded"`
}

// WorkItemStatus is the status payload of a work item.
type WorkItemStatus struct {
	ID           string        `mapstructure:"id"`
	Status       Status        `mapstructure:"status"`
	Progress     string        `mapstructure:"progress"`
	ReportURL    string        `mapstructure:"reportUrl"`
	DebugInfoURL string        `mapstructure:"debugInfoUrl"`
	Stats        WorkItemStats `mapstructure:"stats"`

	// Raw is the undecoded payload.
	Raw map[string]interface{} `mapstructure:"-"`
}

// SubmitWorkItem submits a work item and returns its id.
func (c *Client) SubmitWorkItem(ctx context.Context, token, activityID string, args Arguments) (string, error) {
	return c.submitWorkItem(ctx, token, workItemRequest{
		ActivityID: activityID,
		Arguments:  args,
	}, nil)
}

// SubmitSignedWorkItem submits a work item against an activity owned by
// another account. The signature is sent both in the body and in the
// x-ads-workitem-signature header.
func (c *Client) SubmitSignedWorkItem(ctx context.Context, token, activityID string, args Arguments, signature string) (string, error) {
	return c.submitWorkItem(ctx, token, workItemRequest{
		ActivityID: activityID,
		Arguments:  args,
		Signatures: &Signatures{
			ActivityID: signature,
			WorkItem:   signature,
		},
	}, http.Header{SignatureHeader: []string{signature}})
}

func (c *Client) submitWorkItem(ctx context.Context, token string, body workItemRequest, header http.Header) (string, error) {
	var resp map[string]interface{}
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.daURL("/workitems"),
		token:  token,
		body:   body,
		header: header,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to submit work item: %w", err)
	}

	id, _ := resp["id"].(string)
	if id == "" {
		return "", newContractError("workitems", "no work item id returned", resp)
	}

	c.logger.Info("work item submitted", "activity", body.ActivityID, "workitem", id)
	return id, nil
}

// GetWorkItemStatus fetches the current status of a work item.
func (c *Client) GetWorkItemStatus(ctx context.Context, token, workItemID string) (*WorkItemStatus, error) {
	var raw map[string]interface{}
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.daURL("/workitems/" + url.PathEscape(workItemID)),
		token:  token,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get work item status: %w", err)
	}

	status, err := DecodeWorkItemStatus(raw)
	if err != nil {
		return nil, newContractError("workitems/"+workItemID, err.Error(), raw)
	}
	return status, nil
}

// DecodeWorkItemStatus decodes a raw status payload. Timestamps are accepted
// in any layout dateparse understands.
func DecodeWorkItemStatus(raw map[string]interface{}) (*WorkItemStatus, error) {
	status := &WorkItemStatus{Raw: raw}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToTimeHook,
		Result:     status,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode work item status: %w", err)
	}
	return status, nil
}

func stringToTimeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return time.Time{}, nil
	}
	return dateparse.ParseAny(s)
}
