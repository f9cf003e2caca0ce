// Package remotefstest provides a scriptable remotefs.Client for tests.
package remotefstest

import (
	"context"
	"iter"
	"sync"

	"filebridge/internal/remotefs"
)

// Fake is a configurable in-memory remotefs.Client. Unset funcs succeed with
// zero values unless ctx is already done; every call is counted.
type Fake struct {
	UploadFunc   func(ctx context.Context, localPath, displayName string) (remotefs.File, error)
	DownloadFunc func(ctx context.Context, name, localPath string) error
	ListFunc     func(ctx context.Context, pageSize int) iter.Seq2[remotefs.File, error]

	mu            sync.Mutex
	UploadCalls   int
	DownloadCalls int
	ListCalls     int
}

var _ remotefs.Client = (*Fake)(nil)

// Upload implements remotefs.Client.
func (f *Fake) Upload(ctx context.Context, localPath, displayName string) (remotefs.File, error) {
	f.mu.Lock()
	f.UploadCalls++
	f.mu.Unlock()
	if f.UploadFunc != nil {
		return f.UploadFunc(ctx, localPath, displayName)
	}
	if err := ctx.Err(); err != nil {
		return remotefs.File{}, err
	}
	return remotefs.File{Name: "files/fake", DisplayName: displayName}, nil
}

// Download implements remotefs.Client.
func (f *Fake) Download(ctx context.Context, name, localPath string) error {
	f.mu.Lock()
	f.DownloadCalls++
	f.mu.Unlock()
	if f.DownloadFunc != nil {
		return f.DownloadFunc(ctx, name, localPath)
	}
	return ctx.Err()
}

// List implements remotefs.Client.
func (f *Fake) List(ctx context.Context, pageSize int) iter.Seq2[remotefs.File, error] {
	f.mu.Lock()
	f.ListCalls++
	f.mu.Unlock()
	if f.ListFunc != nil {
		return f.ListFunc(ctx, pageSize)
	}
	return func(yield func(remotefs.File, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(remotefs.File{}, err)
		}
	}
}

// Calls returns the upload, download and list call counts.
func (f *Fake) Calls() (upload, download, list int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.UploadCalls, f.DownloadCalls, f.ListCalls
}

// Files yields files in order.
func Files(files ...remotefs.File) iter.Seq2[remotefs.File, error] {
	return func(yield func(remotefs.File, error) bool) {
		for _, file := range files {
			if !yield(file, nil) {
				return
			}
		}
	}
}

// FailingAfter yields files and then err.
func FailingAfter(err error, files ...remotefs.File) iter.Seq2[remotefs.File, error] {
	return func(yield func(remotefs.File, error) bool) {
		for _, file := range files {
			if !yield(file, nil) {
				return
			}
		}
		yield(remotefs.File{}, err)
	}
}

// Size returns a pointer to n for File.SizeBytes.
func Size(n int64) *int64 { return &n }
