// Package state persists the small bits of client state that survive a
// restart, currently the id of the chat the user last had open.
//
// Writes go through a temp-file rename and a file lock so concurrent
// invocations of the CLI never see a torn or half-written value.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	currentChatFile = "current_session"
	lockFile        = "current_session.lock"
)

// Store keeps client state files under one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveCurrentChatID records the chat to reopen on next start.
func (s *Store) SaveCurrentChatID(chatID string) error {
	return s.withLock(func() error {
		tmp, err := os.CreateTemp(s.dir, currentChatFile+".*")
		if err != nil {
			return fmt.Errorf("create temp state file: %w", err)
		}
		tmpName := tmp.Name()
		if _, err := tmp.WriteString(chatID + "\n"); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("write state file: %w", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("close state file: %w", err)
		}
		if err := os.Rename(tmpName, filepath.Join(s.dir, currentChatFile)); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("replace state file: %w", err)
		}
		return nil
	})
}

// LoadCurrentChatID returns the saved chat id. A missing file is not an
// error; it returns the empty string.
func (s *Store) LoadCurrentChatID() (string, error) {
	var chatID string
	err := s.withLock(func() error {
		data, err := os.ReadFile(filepath.Join(s.dir, currentChatFile))
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("read state file: %w", err)
		}
		chatID = strings.TrimSpace(string(data))
		return nil
	})
	return chatID, err
}

// ClearCurrentChatID forgets the saved chat. Clearing an already-clear
// store is a no-op.
func (s *Store) ClearCurrentChatID() error {
	return s.withLock(func() error {
		err := os.Remove(filepath.Join(s.dir, currentChatFile))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove state file: %w", err)
		}
		return nil
	})
}

func (s *Store) withLock(fn func() error) error {
	lock := flock.New(filepath.Join(s.dir, lockFile))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire state lock: %w", err)
	}
	defer lock.Unlock()
	return fn()
}
