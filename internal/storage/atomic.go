package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
)

// Defaults for the rename retry loop in WriteJSON.
const (
	DefaultRetries    = 5
	DefaultRetryDelay = 200 * time.Millisecond
)

// Replaceable for fault injection in tests.
var (
	replaceFile = os.Rename
	syncFile    = func(f *os.File) error { return f.Sync() }
)

// CorruptError is returned by ReadJSON when the file exists but does not
// decode. The file is left untouched.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt snapshot %s: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// WriteOptions tunes WriteJSON.
type WriteOptions struct {
	Retries    int
	RetryDelay time.Duration
	Indent     string
}

// WriteOption mutates WriteOptions.
type WriteOption func(*WriteOptions)

// WithRetries sets the total number of rename attempts.
func WithRetries(n int) WriteOption {
	return func(o *WriteOptions) {
		if n > 0 {
			o.Retries = n
		}
	}
}

// WithRetryDelay sets the fixed pause between rename attempts.
func WithRetryDelay(d time.Duration) WriteOption {
	return func(o *WriteOptions) {
		if d >= 0 {
			o.RetryDelay = d
		}
	}
}

func defaultWriteOptions() WriteOptions {
	return WriteOptions{
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
		Indent:     "    ",
	}
}

// WriteJSON atomically replaces the file at path with the JSON encoding of v.
//
// The document is written to a temporary file in the same directory, synced
// to stable storage and renamed over the target, so readers observe either
// the previous snapshot or the new one in full. A failing rename is retried
// with a constant delay. The temporary file is removed on every path where
// the rename did not happen.
func WriteJSON(path string, v any, opts ...WriteOption) (err error) {
	o := defaultWriteOptions()
	for _, opt := range opts {
		opt(&o)
	}

	data, err := encode(v, o.Indent)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	renamed := false
	defer func() {
		if renamed {
			return
		}
		// Best effort; the original error is the one worth reporting.
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file %s: %w", tmpPath, err)
	}
	if err := syncFile(tmp); err != nil {
		return fmt.Errorf("failed to sync temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %s: %w", tmpPath, err)
	}

	if err := replace(tmpPath, path, o); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	renamed = true
	return nil
}

func replace(from, to string, o WriteOptions) error {
	var next retry.Backoff
	if o.RetryDelay > 0 {
		next = retry.NewConstant(o.RetryDelay)
	} else {
		// NewConstant rejects a zero duration.
		next = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	backoff := retry.WithMaxRetries(uint64(o.Retries-1), next)
	return retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		if err := replaceFile(from, to); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadJSON decodes the file at path into v. A missing file yields an error
// wrapping fs.ErrNotExist and undecodable content yields a *CorruptError.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("snapshot %s: %w", path, err)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &CorruptError{Path: path, Err: err}
	}
	return nil
}
