// Package msglog keeps one append-only message log per peer.
//
// Each log is a JSON array stored in <dir>/<peer>_messages.json and created
// on first write. Appends replace the file atomically, so a reader never sees
// a half-written record.
package msglog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	iolib "peer-chat/lib/io"

	"github.com/benbjohnson/clock"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type Direction string

const (
	DirectionSend   Direction = "send"
	DirectionRecv   Direction = "recv"
	DirectionFailed Direction = "failed"
)

type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	Content   string    `json:"content"`
}

var ErrInvalidPeerID = errors.New("invalid peer id")

type Store struct {
	dir   string
	clock clock.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New(dir string, clock clock.Clock) *Store {
	return &Store{
		dir:   dir,
		clock: clock,
		locks: make(map[string]*sync.Mutex),
	}
}

// Append adds an entry to the log of peerID.
// Timestamps never go backwards within one log.
func (s *Store) Append(peerID string, dir Direction, content string) (Entry, error) {
	path, err := s.path(peerID)
	if err != nil {
		return Entry{}, err
	}

	l := s.lock(peerID)
	l.Lock()
	defer l.Unlock()

	entries, err := read(path)
	if err != nil {
		return Entry{}, err
	}

	e := Entry{Timestamp: s.clock.Now().UTC(), Direction: dir, Content: content}
	if n := len(entries); n > 0 && e.Timestamp.Before(entries[n-1].Timestamp) {
		e.Timestamp = entries[n-1].Timestamp
	}
	entries = append(entries, e)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return Entry{}, errors.Wrap(err, "encoding message log")
	}
	if err := iolib.WriteFileAtomic(path, data, 0o644); err != nil {
		return Entry{}, errors.Wrapf(err, "writing message log of %q", peerID)
	}

	return e, nil
}

// Read returns the log of peerID. A peer without a log has no entries.
func (s *Store) Read(peerID string) ([]Entry, error) {
	path, err := s.path(peerID)
	if err != nil {
		return nil, err
	}

	l := s.lock(peerID)
	l.Lock()
	defer l.Unlock()

	return read(path)
}

func (s *Store) lock(peerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[peerID]
	if !ok {
		l = new(sync.Mutex)
		s.locks[peerID] = l
	}
	return l
}

func (s *Store) path(peerID string) (string, error) {
	if peerID == "" || peerID == "." || peerID == ".." || strings.ContainsAny(peerID, `/\`+"\x00") {
		return "", errors.Wrapf(ErrInvalidPeerID, "%q", peerID)
	}
	return filepath.Join(s.dir, peerID+"_messages.json"), nil
}

func read(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, errors.Wrap(err, "reading message log")
	}

	entries := []Entry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrapf(err, "decoding message log %s", path)
	}
	return entries, nil
}
