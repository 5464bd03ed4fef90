package media

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"sensor_events/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	// AudioDir is the top-level directory under the storage root, also the URL prefix.
	AudioDir = "audio"
	// DefaultExt is used when the uploaded filename carries no extension.
	DefaultExt = ".bin"

	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Store allocates collision-free paths for uploaded media and writes them
// durably. Paths are partitioned by the UTC day of the event start time.
type Store struct {
	fs         afero.Fs
	defaultExt string
}

// NewStore returns a Store rooted at root on the OS filesystem.
func NewStore(root string) *Store {
	return NewStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// NewStoreFs returns a Store writing into fs, whose root is the storage root.
func NewStoreFs(fs afero.Fs) *Store {
	return &Store{fs: fs, defaultExt: DefaultExt}
}

// WithDefaultExt overrides the extension used for extension-less uploads.
func (s *Store) WithDefaultExt(ext string) *Store {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext != "" {
		s.defaultExt = ext
	}
	return s
}

// Save writes data under audio/YYYY/MM/DD/<uuid><ext> and returns that
// path relative to the storage root. Any failure is a *models.MediaWriteError.
func (s *Store) Save(tsStart time.Time, filename string, data []byte) (string, error) {
	dir := dayDir(tsStart)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return "", &models.MediaWriteError{Op: "mkdir " + dir, Err: err}
	}

	rel := path.Join(dir, uuid.NewString()+s.extension(filename))
	if err := s.writeFile(rel, data); err != nil {
		return "", &models.MediaWriteError{Op: "write " + rel, Err: err}
	}
	return rel, nil
}

// Open re-opens a stored file by its relative path.
func (s *Store) Open(rel string) (afero.File, error) {
	return s.fs.Open(path.Clean(rel))
}

// writeFile creates the file exclusively, writes all bytes and fsyncs.
func (s *Store) writeFile(rel string, data []byte) (err error) {
	f, err := s.fs.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	n, err := f.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(data))
	}
	return f.Sync()
}

// extension returns the lower-cased extension of the client filename, or the
// default one. Only the final dot-suffix is kept; directories are discarded.
func (s *Store) extension(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	idx := strings.LastIndexByte(base, '.')
	if idx < 0 || idx == len(base)-1 {
		return s.defaultExt
	}
	ext := strings.ToLower(base[idx:])
	if !validExt(ext) {
		return s.defaultExt
	}
	return ext
}

func validExt(ext string) bool {
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func dayDir(ts time.Time) string {
	u := ts.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%02d", AudioDir, u.Year(), int(u.Month()), u.Day())
}
