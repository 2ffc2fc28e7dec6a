package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/susu3304/partybot/internal/ledger"
)

// Store persists every chat in a single JSON document keyed by session ID.
// Writes go to a temporary file that is renamed over the original, so a
// crash never leaves a half-written document behind.
type Store struct {
	path string

	mu     sync.Mutex
	docs   map[string]ledger.ChatDoc
	loaded bool
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(ctx context.Context) (map[string]*ledger.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readLocked(); err != nil {
		return nil, err
	}
	out := make(map[string]*ledger.Chat, len(s.docs))
	for id, doc := range s.docs {
		c, err := ledger.DecodeChat(doc)
		if err != nil {
			return nil, fmt.Errorf("decode session %s: %w", id, err)
		}
		out[id] = c
	}
	return out, nil
}

func (s *Store) Save(ctx context.Context, sessionID string, chat *ledger.Chat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.readLocked(); err != nil {
			return err
		}
	}
	next := make(map[string]ledger.ChatDoc, len(s.docs)+1)
	for id, doc := range s.docs {
		next[id] = doc
	}
	next[sessionID] = ledger.EncodeChat(chat)

	if err := s.writeLocked(next); err != nil {
		return err
	}
	s.docs = next
	return nil
}

func (s *Store) readLocked() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.docs = make(map[string]ledger.ChatDoc)
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	docs := make(map[string]ledger.ChatDoc)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &docs); err != nil {
			return fmt.Errorf("parse %s: %w", s.path, err)
		}
	}
	s.docs = docs
	s.loaded = true
	return nil
}

func (s *Store) writeLocked(docs map[string]ledger.ChatDoc) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
