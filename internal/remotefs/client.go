// Package remotefs talks to the Gemini Files API.
package remotefs

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrMissingAPIKey is returned by every request made without an API key.
var ErrMissingAPIKey = errors.New("remotefs: api key is not configured")

// Client is the remote file manager used by the file tools. Implementations
// must be safe for concurrent use.
type Client interface {
	Upload(ctx context.Context, localPath, displayName string) (File, error)
	Download(ctx context.Context, name, localPath string) error
	// List yields files lazily, fetching further pages on demand. The
	// sequence is single use; an error ends it.
	List(ctx context.Context, pageSize int) iter.Seq2[File, error]
}

// File is the remote metadata of an uploaded file. Only Name is guaranteed.
type File struct {
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	MimeType    string `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	SizeBytes   *int64 `json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	URI         string `json:"uri,omitempty" yaml:"uri,omitempty"`
	State       string `json:"state,omitempty" yaml:"state,omitempty"`
	CreateTime  string `json:"create_time,omitempty" yaml:"create_time,omitempty"`
}

// APIError is a non-2xx response from the Files API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remote request failed with status %d", e.StatusCode)
	if e.Status != "" {
		b.WriteString(" (" + e.Status + ")")
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	return b.String()
}

// NormalizeName accepts either a bare id or a "files/<id>" resource name.
func NormalizeName(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "files/") {
		return id
	}
	return "files/" + id
}
