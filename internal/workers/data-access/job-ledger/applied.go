// internal/workers/data-access/job-ledger/applied.go
package jobledger

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	apperrors "easyapply/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// AppliedSet holds the IDs of listings already applied to.
type AppliedSet interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) error
	// Save persists the set. Adds are not durable until Save returns.
	Save(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// FileSet is an in-memory set backed by a newline-separated file.
type FileSet struct {
	path  string
	ids   map[string]struct{}
	order []string
	dirty bool
}

// LoadFileSet reads path; a missing file yields an empty set.
func LoadFileSet(path string) (*FileSet, error) {
	s := &FileSet{path: path, ids: map[string]struct{}{}}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, apperrors.NewAppliedSetFailedError("load", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		s.insert(strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewAppliedSetFailedError("load", err)
	}
	return s, nil
}

func (s *FileSet) insert(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *FileSet) Contains(_ context.Context, id string) (bool, error) {
	_, ok := s.ids[id]
	return ok, nil
}

func (s *FileSet) Add(_ context.Context, id string) error {
	if s.insert(id) {
		s.dirty = true
	}
	return nil
}

func (s *FileSet) Len(_ context.Context) (int, error) {
	return len(s.ids), nil
}

// Save rewrites the whole file when the set changed since the last save.
func (s *FileSet) Save(_ context.Context) error {
	if !s.dirty {
		return nil
	}

	var buf bytes.Buffer
	for _, id := range s.order {
		buf.WriteString(id)
		buf.WriteByte('\n')
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewAppliedSetFailedError("save", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return apperrors.NewAppliedSetFailedError("save", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return apperrors.NewAppliedSetFailedError("save", err)
	}
	s.dirty = false
	return nil
}

// RedisSet keeps applied IDs in a redis set so several hosts share one history.
type RedisSet struct {
	client *redis.Client
	key    string
}

func NewRedisSet(client *redis.Client, key string) *RedisSet {
	return &RedisSet{client: client, key: key}
}

func (s *RedisSet) Contains(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key, id).Result()
	if err != nil {
		return false, apperrors.NewAppliedSetFailedError("contains", err)
	}
	return ok, nil
}

func (s *RedisSet) Add(ctx context.Context, id string) error {
	if err := s.client.SAdd(ctx, s.key, id).Err(); err != nil {
		return apperrors.NewAppliedSetFailedError("add", err)
	}
	return nil
}

// Save is a no-op: SADD is already durable.
func (s *RedisSet) Save(context.Context) error {
	return nil
}

func (s *RedisSet) Len(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, apperrors.NewAppliedSetFailedError("len", err)
	}
	return int(n), nil
}
