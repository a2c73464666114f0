// Package backup keeps zstd-compressed copies of saves before they are
// rewritten, addressed by the sha256 digest of the original bytes.
package backup

import (
	"bytes"
	_ "crypto/sha256" // registers the digest algorithm
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	defaultFilePerm       = 0o600
	fileExt               = ".zst"
)

// ErrCorrupt is returned when a stored backup does not match its digest.
var ErrCorrupt = errors.New("backup: content does not match digest")

// Store writes backups into a directory hierarchy sharded by digest prefix:
//
//	<dir>/sha256/<prefix>/<hex>.zst
//
// The store is safe for concurrent use; identical content is stored once.
type Store struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	level          zstd.EncoderLevel
}

// Option configures a Store.
type Option func(*Store)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(s *Store) {
		s.shardPrefixLen = n
	}
}

// WithDirPerm sets the permissions used for backup directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// WithLevel sets the zstd encoder level. Defaults to zstd.SpeedDefault.
func WithLevel(level zstd.EncoderLevel) Option {
	return func(s *Store) {
		s.level = level
	}
}

// New creates a backup store rooted at dir.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("backup dir is empty")
	}
	s := &Store{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
		level:          zstd.SpeedDefault,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the root directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Put stores a compressed copy of data and returns its digest.
// Storing content that is already present is a no-op.
func (s *Store) Put(data []byte) (digest.Digest, error) {
	d := digest.FromBytes(data)
	path, err := s.path(d)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return d, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, "backup-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(s.level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := os.Chmod(tmpPath, defaultFilePerm); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(tmpPath)
			return d, nil
		}
		_ = os.Remove(tmpPath)
		return "", err
	}
	return d, nil
}

// Get returns the original bytes stored under d.
// The content is verified against the digest before it is returned.
func (s *Store) Get(d digest.Digest) ([]byte, error) {
	path, err := s.path(d)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // path is derived from a validated digest
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("backup %s: %w", d, err)
	}
	defer dec.Close()

	var buf bytes.Buffer
	verifier := d.Verifier()
	if _, err := io.Copy(io.MultiWriter(&buf, verifier), dec); err != nil {
		return nil, fmt.Errorf("backup %s: %w", d, err)
	}
	if !verifier.Verified() {
		return nil, fmt.Errorf("backup %s: %w", d, ErrCorrupt)
	}
	return buf.Bytes(), nil
}

// Has reports whether content with digest d is stored.
func (s *Store) Has(d digest.Digest) bool {
	path, err := s.path(d)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

func (s *Store) path(d digest.Digest) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	hexHash := d.Encoded()
	base := filepath.Join(s.dir, d.Algorithm().String())
	if s.shardPrefixLen <= 0 {
		return filepath.Join(base, hexHash+fileExt), nil
	}
	prefixLen := min(s.shardPrefixLen, len(hexHash))
	return filepath.Join(base, hexHash[:prefixLen], hexHash+fileExt), nil
}
