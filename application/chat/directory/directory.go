package directory

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	iolib "peer-chat/lib/io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// state maps a peer id to its list. The first element is the peer itself,
// the rest are its neighbours.
type state map[string][]Peer

func (s state) clone() state {
	c := make(state, len(s))
	for id, list := range s {
		c[id] = slices.Clone(list)
	}
	return c
}

// Directory is the file backed [Service].
// Mutations hold an exclusive lock for their whole read-modify-write cycle
// and replace the file atomically before the in-memory state changes.
type Directory struct {
	path string

	mu    sync.RWMutex
	state state

	logger *slog.Logger
}

var _ Service = (*Directory)(nil)

// New loads the directory stored at path. A missing file is an empty directory.
func New(path string, logger *slog.Logger) (*Directory, error) {
	d := &Directory{
		path:   path,
		state:  make(state),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return nil, errors.Wrap(err, "reading directory file")
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(data, &d.state); err != nil {
		return nil, errors.Wrapf(err, "decoding directory file %s", path)
	}

	return d, nil
}

// Register upserts the entry of peer.ID. Existing edges are kept and
// neighbours see the new address.
func (d *Directory) Register(ctx context.Context, peer Peer) (Peer, error) {
	if err := peer.validate(); err != nil {
		return Peer{}, err
	}

	st, err := ParseStatus(string(peer.Status))
	if err != nil {
		return Peer{}, err
	}
	peer.Status = st

	err = d.mutate(func(s state) error {
		list, ok := s[peer.ID]
		if !ok {
			s[peer.ID] = []Peer{peer}
			return nil
		}

		list[0] = peer
		for _, neighbour := range list[1:] {
			nl := s[neighbour.ID]
			for i := 1; i < len(nl); i++ {
				if nl[i].ID == peer.ID {
					nl[i] = peer.descriptor()
				}
			}
		}
		return nil
	})
	if err != nil {
		return Peer{}, err
	}

	d.logger.Info("registered peer", "peer", peer.ID, "addr", peer.Addr(), "status", peer.Status)

	return peer, nil
}

// List returns every registered peer ordered by id.
func (d *Directory) List(ctx context.Context) ([]Peer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	peers := make([]Peer, 0, len(d.state))
	for _, list := range d.state {
		if len(list) > 0 {
			peers = append(peers, list[0])
		}
	}
	slices.SortFunc(peers, func(a, b Peer) int { return strings.Compare(a.ID, b.ID) })

	return peers, nil
}

// Connect links from and to in both directions. Repeated calls are no-ops.
func (d *Directory) Connect(ctx context.Context, from, to string) (Connection, error) {
	if from == "" || to == "" {
		return Connection{}, errors.Wrap(ErrValidation, "both peers are required")
	}
	if from == to {
		return Connection{}, errors.Wrapf(ErrValidation, "peer %q cannot connect to itself", from)
	}

	var conn Connection
	err := d.mutate(func(s state) error {
		fromList, ok := s[from]
		if !ok || len(fromList) == 0 {
			return errors.Wrapf(ErrNotFound, "%q", from)
		}
		toList, ok := s[to]
		if !ok || len(toList) == 0 {
			return errors.Wrapf(ErrNotFound, "%q", to)
		}

		s[from] = link(fromList, toList[0].descriptor())
		s[to] = link(toList, fromList[0].descriptor())

		conn = Connection{
			From:          from,
			To:            to,
			ConnectedTo:   toList[0].descriptor(),
			ConnectedFrom: fromList[0].descriptor(),
		}
		return nil
	})
	if err != nil {
		return Connection{}, err
	}

	d.logger.Info("connected peers", "from", from, "to", to)

	return conn, nil
}

// link appends neighbour unless list already holds it.
func link(list []Peer, neighbour Peer) []Peer {
	for _, p := range list[1:] {
		if p.ID == neighbour.ID {
			return list
		}
	}
	return append(list, neighbour)
}

// Connections returns the neighbours of id.
func (d *Directory) Connections(ctx context.Context, id string) ([]Peer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list, ok := d.state[id]
	if !ok || len(list) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", id)
	}

	return slices.Clone(list[1:]), nil
}

func (d *Directory) Lookup(ctx context.Context, id string) (Peer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	list, ok := d.state[id]
	if !ok || len(list) == 0 {
		return Peer{}, errors.Wrapf(ErrNotFound, "%q", id)
	}

	return list[0], nil
}

// mutate applies fn to a copy of the state, persists the copy and swaps it in.
// A failing fn or write leaves both the file and memory untouched.
func (d *Directory) mutate(fn func(s state) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.state.clone()
	if err := fn(next); err != nil {
		return err
	}

	data, err := json.MarshalIndent(next, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encoding directory")
	}
	if err := iolib.WriteFileAtomic(d.path, data, 0o644); err != nil {
		return errors.Wrap(err, "persisting directory")
	}

	d.state = next
	return nil
}
