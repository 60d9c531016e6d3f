package lock

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	skerr "github.com/samhoang/skillkit/internal/errors"
	"github.com/samhoang/skillkit/internal/logger"
	"github.com/samhoang/skillkit/internal/skill"
)

// Store reads and writes one lock file. Every mutation is a whole-file
// load-modify-save; concurrent writers to the same path race and the last
// one wins.
type Store struct {
	path string
	now  func() time.Time
	log  *logrus.Entry
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for migration notices
func WithLogger(l *logrus.Entry) Option {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore creates a store for the lock file at path
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now, log: logger.L}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the lock file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the lock file. A missing file is an empty lock; a file in a
// legacy layout is migrated in memory. Load never writes.
func (s *Store) Load() (*SkillLock, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, skerr.NewIOError("", "read", s.path, err)
	}

	sh, err := decode(data)
	if err != nil {
		return nil, skerr.NewLockError(s.path, err)
	}
	if _, legacy := sh.(legacyArrayShape); legacy {
		s.log.WithField("path", s.path).Info("migrating legacy lock file")
	}
	return sh.toLock(s.now().UTC()), nil
}

// Save writes the whole lock, creating parent directories. The file is
// replaced by rename so readers never see a partial write.
func (s *Store) Save(l *SkillLock) error {
	if l.Skills == nil {
		l.Skills = make(map[string]Entry)
	}
	if l.Version == "" {
		l.Version = Version
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize lock file")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return skerr.NewIOError("", "create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".skill-lock-*.tmp")
	if err != nil {
		return skerr.NewIOError("", "write", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return skerr.NewIOError("", "write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return skerr.NewIOError("", "write", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return skerr.NewIOError("", "chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return skerr.NewIOError("", "rename", s.path, err)
	}
	return nil
}

// Upsert records an install of name from src at installedPath. The
// original installedAt survives re-installs; updatedAt is always now. An
// empty hash is computed from the installed document.
func (s *Store) Upsert(name string, src skill.Source, installedPath, hash string) (*Entry, error) {
	l, err := s.Load()
	if err != nil {
		return nil, err
	}

	if hash == "" {
		if hash, err = HashDocument(installedPath); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	entry, ok := l.Skills[name]
	if !ok {
		entry.InstalledAt = now
	}
	kind := normalizeKind(string(src.Kind))
	entry.Source = kind.Label()
	entry.SourceType = kind.String()
	entry.SourceURL = src.URL
	entry.SkillPath = installedPath
	entry.Hash = hash
	entry.UpdatedAt = now
	l.Skills[name] = entry

	if err := s.Save(l); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Get returns the entry for name
func (s *Store) Get(name string) (Entry, bool, error) {
	l, err := s.Load()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := l.Skills[name]
	return e, ok, nil
}

// Remove deletes the entry for name. Removing an absent name still
// rewrites the file, migrating a legacy layout.
func (s *Store) Remove(name string) error {
	l, err := s.Load()
	if err != nil {
		return err
	}
	delete(l.Skills, name)
	return s.Save(l)
}

// NamedEntry pairs an entry with its skill name
type NamedEntry struct {
	Name string `json:"name"`
	Entry
}

// List returns every entry sorted by name
func (s *Store) List() ([]NamedEntry, error) {
	l, err := s.Load()
	if err != nil {
		return nil, err
	}
	out := make([]NamedEntry, 0, len(l.Skills))
	for name, e := range l.Skills {
		out = append(out, NamedEntry{Name: name, Entry: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
