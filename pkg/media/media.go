package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/tinyland-inc/ntbridge/pkg/logger"
)

const component = "media"

// ErrUnsupportedURI is returned when a resource URI uses a scheme the
// bridge cannot resolve.
var ErrUnsupportedURI = errors.New("unsupported resource uri")

// Store resolves resource URIs to local files and owns the temp directory
// where downloaded and decoded payloads live until the caller deletes them.
type Store struct {
	dir  string
	http *resty.Client
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Store{
		dir: dir,
		http: resty.New().
			SetTimeout(60 * time.Second).
			SetRetryCount(2),
	}, nil
}

// Dir returns the temp directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// TempPath returns a fresh uniquely named path inside the temp directory.
// Nothing is created on disk.
func (s *Store) TempPath(ext string) string {
	name := uuid.NewString()
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(s.dir, name+ext)
}

// SaveTemp writes data to a fresh temp file and returns its path.
func (s *Store) SaveTemp(data []byte, ext string) (string, error) {
	path := s.TempPath(ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return path, nil
}

// FetchToTemp downloads rawURL into a fresh temp file and returns its path.
func (s *Store) FetchToTemp(ctx context.Context, rawURL string) (string, error) {
	path := s.TempPath("")
	resp, err := s.http.R().
		SetContext(ctx).
		SetOutput(path).
		Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	if resp.IsError() {
		os.Remove(path)
		return "", fmt.Errorf("download %s: status %d", rawURL, resp.StatusCode())
	}
	return path, nil
}

// Resolve turns a resource URI into a local file path. The second return
// value reports whether the path is a temp file the caller must delete.
//
// Supported forms: base64://<data>, file://<path>, http(s)://<url> and a
// bare filesystem path.
func (s *Store) Resolve(ctx context.Context, uri string) (string, bool, error) {
	switch {
	case strings.HasPrefix(uri, "base64://"):
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "base64://"))
		if err != nil {
			return "", false, fmt.Errorf("decode base64 uri: %w", err)
		}
		path, err := s.SaveTemp(data, "")
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	case strings.HasPrefix(uri, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return "", false, fmt.Errorf("parse file uri: %w", err)
		}
		path := u.Path
		if u.Host != "" {
			// Windows-style file://C:/... URIs land the drive in Host.
			path = u.Host + u.Path
		}
		if _, err := os.Stat(path); err != nil {
			return "", false, fmt.Errorf("local file %s: %w", path, err)
		}
		return path, false, nil
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		logger.DebugCF(component, "Downloading resource", map[string]any{"url": uri})
		path, err := s.FetchToTemp(ctx, uri)
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	default:
		if _, err := os.Stat(uri); err == nil {
			return uri, false, nil
		}
		return "", false, fmt.Errorf("%w: %s", ErrUnsupportedURI, uri)
	}
}

// Cleanup removes the given temp files, ignoring individual failures.
func (s *Store) Cleanup(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.DebugCF(component, "Temp file cleanup failed", map[string]any{
				"path":  p,
				"error": err.Error(),
			})
		}
	}
}
