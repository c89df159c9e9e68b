package aps

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
)

// ossURNPrefix prefixes every OSS object id.
const ossURNPrefix = "urn:adsk.objects:os.object:"

// PolicyKey is the retention policy of a bucket.
type PolicyKey string

const (
	PolicyTransient  PolicyKey = "transient"
	PolicyTemporary  PolicyKey = "temporary"
	PolicyPersistent PolicyKey = "persistent"
)

// CreateBucketRequest describes a bucket to create.
type CreateBucketRequest struct {
	BucketKey string    `json:"bucketKey"`
	Access    string    `json:"access,omitempty"`
	PolicyKey PolicyKey `json:"policyKey"`

	// Region goes into the x-ads-region header (US, EMEA, AUS, ...).
	Region string `json:"-"`
}

// Bucket is the bucket descriptor returned by OSS.
type Bucket struct {
	BucketKey   string    `json:"bucketKey"`
	BucketOwner string    `json:"bucketOwner"`
	CreatedDate int64     `json:"createdDate"`
	PolicyKey   PolicyKey `json:"policyKey"`
}

// SignedUpload is a short-lived upload grant for one object.
type SignedUpload struct {
	UploadKey        string   `json:"uploadKey"`
	URLs             []string `json:"urls"`
	UploadExpiration string   `json:"uploadExpiration,omitempty"`
	URLExpiration    string   `json:"urlExpiration,omitempty"`
}

// ObjectDetails is returned when an upload completes.
type ObjectDetails struct {
	BucketKey   string `json:"bucketKey"`
	ObjectID    string `json:"objectId"`
	ObjectKey   string `json:"objectKey"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Location    string `json:"location"`
}

// SignedDownload is a short-lived download grant for one object.
type SignedDownload struct {
	Status string `json:"status"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	SHA1   string `json:"sha1"`
}

// ObjectURN builds the OSS object id for bucket/object.
func ObjectURN(bucketKey, objectKey string) string {
	return ossURNPrefix + bucketKey + "/" + objectKey
}

// ParseObjectURN splits an OSS object id (as returned by Data Management
// storage creation) into bucket and object keys.
func ParseObjectURN(urn string) (bucketKey, objectKey string, err error) {
	rest, ok := strings.CutPrefix(urn, ossURNPrefix)
	if !ok {
		return "", "", fmt.Errorf("not an OSS object id: %q", urn)
	}
	bucketKey, objectKey, ok = strings.Cut(rest, "/")
	if !ok || bucketKey == "" || objectKey == "" {
		return "", "", fmt.Errorf("OSS object id has no bucket/object: %q", urn)
	}
	return bucketKey, objectKey, nil
}

func objectPath(bucketKey, objectKey, suffix string) string {
	return fmt.Sprintf("/buckets/%s/objects/%s/%s",
		url.PathEscape(bucketKey),
		url.PathEscape(objectKey),
		suffix)
}

// CreateBucket creates an OSS bucket.
func (c *Client) CreateBucket(ctx context.Context, token string, req CreateBucketRequest) (*Bucket, error) {
	if req.PolicyKey == "" {
		req.PolicyKey = PolicyTransient
	}
	if req.Access == "" {
		req.Access = "full"
	}
	if req.Region == "" {
		req.Region = "US"
	}

	var bucket Bucket
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.ossURL("/buckets"),
		token:  token,
		body:   req,
		header: http.Header{"x-ads-region": []string{req.Region}},
	}, &bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	c.logger.Info("bucket created", "bucket", bucket.BucketKey, "policy", bucket.PolicyKey)
	return &bucket, nil
}

// EnsureBucket creates the bucket unless it already exists. Only the
// "already exists" answer (409) is treated as success.
func (c *Client) EnsureBucket(ctx context.Context, token string, req CreateBucketRequest) error {
	_, err := c.CreateBucket(ctx, token, req)
	if err != nil && IsConflict(err) {
		c.logger.Debug("bucket already exists", "bucket", req.BucketKey)
		return nil
	}
	return err
}

// GetSignedUpload requests a signed S3 upload URL for an object.
func (c *Client) GetSignedUpload(ctx context.Context, token, bucketKey, objectKey string) (*SignedUpload, error) {
	var signed SignedUpload
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.ossURL(objectPath(bucketKey, objectKey, "signeds3upload")),
		token:  token,
	}, &signed)
	if err != nil {
		return nil, fmt.Errorf("failed to get signed upload: %w", err)
	}
	if signed.UploadKey == "" || len(signed.URLs) == 0 {
		return nil, newContractError("signeds3upload", "missing uploadKey or urls", signed)
	}
	return &signed, nil
}

// PutSignedURL uploads raw bytes to a signed URL.
func (c *Client) PutSignedURL(ctx context.Context, signedURL string, body io.Reader, size int64) error {
	resp, err := c.transferRequest(ctx, http.MethodPut, signedURL, body, "application/octet-stream", size)
	if err != nil {
		return fmt.Errorf("failed to upload to signed URL: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// CompleteSignedUpload finalizes an upload started with GetSignedUpload.
func (c *Client) CompleteSignedUpload(ctx context.Context, token, bucketKey, objectKey, uploadKey string) (*ObjectDetails, error) {
	var details ObjectDetails
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.ossURL(objectPath(bucketKey, objectKey, "signeds3upload")),
		token:  token,
		body:   map[string]string{"uploadKey": uploadKey},
	}, &details)
	if err != nil {
		return nil, fmt.Errorf("failed to complete signed upload: %w", err)
	}
	return &details, nil
}

// UploadFile uploads a local file to bucket/object: signed upload request,
// raw PUT of the bytes, completion. A failure after the PUT leaves the
// bytes uploaded but the object incomplete; nothing is retried.
func (c *Client) UploadFile(ctx context.Context, token, bucketKey, objectKey, localPath string) (*ObjectDetails, error) {
	f, err := c.fs.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	signed, err := c.GetSignedUpload(ctx, token, bucketKey, objectKey)
	if err != nil {
		return nil, err
	}

	if err := c.PutSignedURL(ctx, signed.URLs[0], f, info.Size()); err != nil {
		return nil, err
	}

	details, err := c.CompleteSignedUpload(ctx, token, bucketKey, objectKey, signed.UploadKey)
	if err != nil {
		return nil, err
	}

	c.logger.Info("uploaded object",
		"bucket", bucketKey,
		"object", objectKey,
		"size", info.Size())

	return details, nil
}

// GetSignedDownload requests a signed S3 download URL for an object.
func (c *Client) GetSignedDownload(ctx context.Context, token, bucketKey, objectKey string) (*SignedDownload, error) {
	var signed SignedDownload
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.ossURL(objectPath(bucketKey, objectKey, "signeds3download")),
		token:  token,
	}, &signed)
	if err != nil {
		return nil, fmt.Errorf("failed to get signed download: %w", err)
	}
	if signed.URL == "" {
		return nil, newContractError("signeds3download", "missing url", signed)
	}
	return &signed, nil
}

// DownloadSignedURL writes the bytes behind a signed URL to outputPath.
func (c *Client) DownloadSignedURL(ctx context.Context, signedURL, outputPath string) error {
	resp, err := c.transferRequest(ctx, http.MethodGet, signedURL, nil, "", -1)
	if err != nil {
		return fmt.Errorf("failed to download from signed URL: %w", err)
	}
	defer resp.Body.Close()

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	out, err := c.fs.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return out.Close()
}

// DownloadFile downloads bucket/object to a local path.
func (c *Client) DownloadFile(ctx context.Context, token, bucketKey, objectKey, outputPath string) error {
	signed, err := c.GetSignedDownload(ctx, token, bucketKey, objectKey)
	if err != nil {
		return err
	}
	if err := c.DownloadSignedURL(ctx, signed.URL, outputPath); err != nil {
		return err
	}

	c.logger.Info("downloaded object",
		"bucket", bucketKey,
		"object", objectKey,
		"path", outputPath)
	return nil
}
