package intake

import (
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/verilens/verilens/internal/domain/analysis"
)

// Store persists uploaded media to a transient directory for the duration of
// one request. Every saved file must be removed before the response is sent.
type Store struct {
	dir      string
	maxBytes int64

	mu  sync.Mutex
	rnd *rand.Rand

	mkdirOnce sync.Once
	mkdirErr  error
}

func NewStore(dir string, maxBytes int64) *Store {
	return &Store{
		dir:      dir,
		maxBytes: maxBytes,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Save validates and persists one multipart file. MIME type is checked
// against the allowlist before any bytes touch disk.
func (s *Store) Save(fh *multipart.FileHeader) (*analysis.Upload, error) {
	if fh == nil {
		return nil, analysis.ErrNoFile
	}

	mimeType := fh.Header.Get("Content-Type")
	if analysis.CategoryOf(mimeType) == analysis.CategoryUnsupported {
		return nil, fmt.Errorf("%w: %s", analysis.ErrUnsupportedType, mimeType)
	}
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", analysis.ErrFileTooLarge, fh.Size)
	}

	s.mkdirOnce.Do(func() {
		s.mkdirErr = os.MkdirAll(s.dir, 0o755)
	})
	if s.mkdirErr != nil {
		return nil, fmt.Errorf("create uploads dir: %w", s.mkdirErr)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(s.dir, s.uniqueName(fh.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("persist upload: %w", err)
	}

	return &analysis.Upload{
		Path:         path,
		MimeType:     mimeType,
		SizeBytes:    n,
		OriginalName: fh.Filename,
	}, nil
}

// uniqueName builds a collision-resistant file name: millisecond timestamp
// plus a random suffix, keeping the original extension.
func (s *Store) uniqueName(original string) string {
	s.mu.Lock()
	suffix := s.rnd.Intn(1_000_000_000)
	s.mu.Unlock()
	return fmt.Sprintf("%d-%09d%s", time.Now().UnixMilli(), suffix, filepath.Ext(original))
}

// Remove deletes a persisted upload. Missing files are not an error so the
// cleanup path can run unconditionally.
func (s *Store) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
