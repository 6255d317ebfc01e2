// Package file implements store.UserStore over a flat "username:password"
// text file that is re-read on every call.
package file

import (
	"bufio"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"oneonone/agenda-service/internal/logging"
	"oneonone/agenda-service/internal/store"
)

type Store struct {
	path string
	log  logging.Logger
}

func NewStore(path string, log logging.Logger) *Store {
	return &Store{path: path, log: log}
}

func (s *Store) Verify(ctx context.Context, username, password string) error {
	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	stored, ok := users[username]
	if !ok || username == "" {
		return store.ErrUserNotFound
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
		return store.ErrInvalidCredentials
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	users, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := users[username]
	return ok, nil
}

// load reads the file; a missing file means zero users.
func (s *Store) load(ctx context.Context) (map[string]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn(ctx, "credential file not found", "path", s.path)
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("open credential file: %w", err)
	}
	defer f.Close()

	users, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}
	return users, nil
}

// Parse reads "username:password" records. Blank lines and lines without a
// colon are skipped; only the first colon separates the fields.
func Parse(r io.Reader) (map[string]string, error) {
	users := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		username, password, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		users[username] = password
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
