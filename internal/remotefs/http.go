package remotefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"filebridge/internal/util"
)

// DefaultBaseURL is the public Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const (
	apiKeyHeader     = "x-goog-api-key"
	maxErrorBodySize = 64 << 10
)

// Options configures NewHTTPClient.
type Options struct {
	BaseURL           string
	APIKey            string
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64
	Timeout           time.Duration
	Logger            *zap.Logger
}

// HTTPClient implements Client over the Files REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *retryablehttp.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client. A missing API key is reported per request
// with ErrMissingAPIKey.
func NewHTTPClient(opts Options) *HTTPClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		client.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		client.RetryWaitMax = opts.RetryWaitMax
	}
	if opts.Timeout > 0 {
		client.HTTPClient.Timeout = opts.Timeout
	}
	client.Logger = leveledLogger{logger.Sugar()}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &HTTPClient{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(opts.APIKey),
		client:  client,
		logger:  logger,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

type wireFile struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName"`
	MimeType    string      `json:"mimeType"`
	SizeBytes   json.Number `json:"sizeBytes"`
	URI         string      `json:"uri"`
	State       string      `json:"state"`
	CreateTime  string      `json:"createTime"`
}

func (w wireFile) toFile() File {
	f := File{
		Name:        w.Name,
		DisplayName: w.DisplayName,
		MimeType:    w.MimeType,
		URI:         w.URI,
		State:       w.State,
		CreateTime:  w.CreateTime,
	}
	if w.SizeBytes != "" {
		if n, err := strconv.ParseInt(w.SizeBytes.String(), 10, 64); err == nil {
			f.SizeBytes = &n
		}
	}
	return f
}

// Upload sends localPath through the resumable upload protocol in a single
// chunk.
func (c *HTTPClient) Upload(ctx context.Context, localPath, displayName string) (File, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return File{}, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", localPath, err)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = filepath.Base(localPath)
	}
	mimeType := DetectMIME(localPath)

	meta, _ := json.Marshal(map[string]any{"file": map[string]any{"display_name": displayName}})
	start, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/v1beta/files", meta)
	if err != nil {
		return File{}, err
	}
	start.Header.Set("Content-Type", "application/json")
	start.Header.Set("X-Goog-Upload-Protocol", "resumable")
	start.Header.Set("X-Goog-Upload-Command", "start")
	start.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.FormatInt(info.Size(), 10))
	start.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)

	resp, err := c.do(ctx, start)
	if err != nil {
		return File{}, fmt.Errorf("start upload: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return File{}, errors.New("start upload: response did not include an upload url")
	}

	send, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, uploadURL, f)
	if err != nil {
		return File{}, err
	}
	send.ContentLength = info.Size()
	send.Header.Set("Content-Type", mimeType)
	send.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	send.Header.Set("X-Goog-Upload-Offset", "0")

	resp, err = c.do(ctx, send)
	if err != nil {
		return File{}, fmt.Errorf("upload %s: %w", localPath, err)
	}
	defer resp.Body.Close()

	var payload struct {
		File wireFile `json:"file"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return File{}, fmt.Errorf("decode upload response: %w", err)
	}
	if payload.File.Name == "" {
		return File{}, errors.New("decode upload response: file name missing")
	}
	return payload.File.toFile(), nil
}

// Download streams the remote file into localPath. The file is written to a
// temporary sibling first and renamed into place on success.
func (c *HTTPClient) Download(ctx context.Context, name, localPath string) error {
	endpoint := c.baseURL + "/v1beta/" + escapeName(NormalizeName(name)) + ":download?alt=media"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(filepath.Dir(localPath), ".filebridge-download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	_, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if copyErr != nil {
			return fmt.Errorf("write %s: %w", localPath, copyErr)
		}
		return fmt.Errorf("write %s: %w", localPath, closeErr)
	}
	if err := os.Rename(tmpName, localPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("move download into place: %w", err)
	}
	return nil
}

// List pages through the files collection. A non-positive pageSize leaves the
// page size to the server.
func (c *HTTPClient) List(ctx context.Context, pageSize int) iter.Seq2[File, error] {
	return func(yield func(File, error) bool) {
		token := ""
		for {
			files, next, err := c.listPage(ctx, pageSize, token)
			if err != nil {
				yield(File{}, err)
				return
			}
			for _, f := range files {
				if !yield(f.toFile(), nil) {
					return
				}
			}
			if next == "" {
				return
			}
			token = next
		}
	}
}

func (c *HTTPClient) listPage(ctx context.Context, pageSize int, token string) ([]wireFile, string, error) {
	query := url.Values{}
	if pageSize > 0 {
		query.Set("pageSize", strconv.Itoa(pageSize))
	}
	if token != "" {
		query.Set("pageToken", token)
	}
	endpoint := c.baseURL + "/v1beta/files"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	var page struct {
		Files         []wireFile `json:"files"`
		NextPageToken string     `json:"nextPageToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("decode list response: %w", err)
	}
	return page.Files, page.NextPageToken, nil
}

// do authenticates and sends req. Non-2xx responses are returned as
// *APIError with the body already consumed.
func (c *HTTPClient) do(ctx context.Context, req *retryablehttp.Request) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed",
			zap.String("method", req.Method),
			zap.String("url", util.RedactSecrets(req.URL.String())),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("remote request",
		zap.String("method", req.Method),
		zap.String("url", util.RedactSecrets(req.URL.String())),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, parseAPIError(resp)
	}
	return resp, nil
}

func parseAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}

	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		if payload.Error.Status != "" {
			apiErr.Status = payload.Error.Status
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.Message = util.RedactSecrets(apiErr.Message)
	return apiErr
}

func escapeName(name string) string {
	id := strings.TrimPrefix(name, "files/")
	return "files/" + url.PathEscape(id)
}

// DetectMIME sniffs the content type of path, dropping any parameters.
func DetectMIME(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	media, _, err := mime.ParseMediaType(mt.String())
	if err != nil {
		return mt.String()
	}
	return media
}

// leveledLogger routes retryablehttp logging through zap.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Warnw(msg, redactValues(kv)...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, redactValues(kv)...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, redactValues(kv)...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, redactValues(kv)...) }

func redactValues(kv []interface{}) []interface{} {
	out := make([]interface{}, len(kv))
	for i, v := range kv {
		switch val := v.(type) {
		case string:
			out[i] = util.RedactSecrets(val)
		case error:
			out[i] = util.RedactSecrets(val.Error())
		default:
			out[i] = v
		}
	}
	return out
}
