// Package staging copies an upload source (local file, HTTP URL or S3 object)
// into a private temporary file that the ingester reads and then removes.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	// ErrTooLarge is returned when a source exceeds Stager.MaxBytes.
	ErrTooLarge = errors.New("staging: source exceeds size limit")
	// ErrNoS3Client is returned for s3:// sources when no client is configured.
	ErrNoS3Client = errors.New("staging: s3 source but no s3 client configured")
)

const defaultUserAgent = "concertarchive-cli"

// S3Getter is the part of *s3.Client the stager needs.
type S3Getter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Stager fetches sources into Dir. A zero MaxBytes means no limit.
type Stager struct {
	Dir        string
	MaxBytes   int64
	HTTPClient *http.Client
	S3         S3Getter
	UserAgent  string
}

// File is a staged copy of a source. Remove is safe to call more than once.
type File struct {
	Path   string
	Source string

	once sync.Once
	err  error
}

// Remove deletes the staged copy. Only the first call touches the disk.
func (f *File) Remove() error {
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			f.err = err
		}
	})
	return f.err
}

// Stage copies src into a new temporary file. src is a local path, an
// http(s) URL or an s3://bucket/key reference. The staged file keeps the
// source's extension so format detection can fall back on it.
func (s *Stager) Stage(ctx context.Context, src string) (*File, error) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Not a URL, or a Windows drive letter.
		return s.stageLocal(src)
	}
	switch u.Scheme {
	case "http", "https":
		return s.stageHTTP(ctx, src, path.Ext(u.Path))
	case "s3":
		return s.stageS3(ctx, src, u.Host, strings.TrimPrefix(u.Path, "/"))
	case "file":
		return s.stageLocal(u.Path)
	default:
		return nil, fmt.Errorf("unsupported source scheme %q", u.Scheme)
	}
}

func (s *Stager) stageLocal(p string) (*File, error) {
	in, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return s.write(p, filepath.Ext(p), in)
}

func (s *Stager) stageHTTP(ctx context.Context, src, ext string) (*File, error) {
	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	ua := s.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: %s", src, resp.Status)
	}
	if s.MaxBytes > 0 && resp.ContentLength > s.MaxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, src, resp.ContentLength)
	}
	return s.write(src, ext, resp.Body)
}

func (s *Stager) stageS3(ctx context.Context, src, bucket, key string) (*File, error) {
	if s.S3 == nil {
		return nil, ErrNoS3Client
	}
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 source %q needs a bucket and key", src)
	}
	out, err := s.S3.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", src, err)
	}
	defer out.Body.Close()
	return s.write(src, path.Ext(key), out.Body)
}

// write copies r into a fresh temp file, enforcing MaxBytes.
func (s *Stager) write(src, ext string, r io.Reader) (*File, error) {
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create uploads dir: %w", err)
		}
	}
	out, err := os.CreateTemp(s.Dir, "upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	f := &File{Path: out.Name(), Source: src}

	if s.MaxBytes > 0 {
		r = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		err = fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, src, s.MaxBytes)
	}
	if err != nil {
		_ = f.Remove()
		return nil, fmt.Errorf("stage %s: %w", src, err)
	}
	return f, nil
}
