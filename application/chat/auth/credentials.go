// Package auth checks logins against a credential file and tracks the
// sessions handed out on success.
package auth

import (
	"crypto/subtle"
	"maps"
	"os"
	"sync"

	iolib "peer-chat/lib/io"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrMissingCredentials = errors.New("username and password are required")
)

// DefaultUsers seeds a credential file that does not exist yet.
var DefaultUsers = map[string]string{
	"admin":   "password",
	"client1": "123",
	"client2": "123",
}

// Credentials is a username -> password store kept in a JSON file.
type Credentials struct {
	path string

	mu    sync.RWMutex
	users map[string]string
}

// OpenCredentials loads path, creating it with [DefaultUsers] when missing.
func OpenCredentials(path string) (*Credentials, error) {
	c := &Credentials{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c.users = maps.Clone(DefaultUsers)
		if err := c.persist(c.users); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading credential file")
	}

	if err := json.Unmarshal(data, &c.users); err != nil {
		return nil, errors.Wrapf(err, "decoding credential file %s", path)
	}
	if c.users == nil {
		c.users = make(map[string]string)
	}

	return c, nil
}

func (c *Credentials) Verify(username, password string) bool {
	if username == "" || password == "" {
		return false
	}

	c.mu.RLock()
	want, ok := c.users[username]
	c.mu.RUnlock()

	return ok && subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1
}

// Add creates an account. Existing usernames are never overwritten.
func (c *Credentials) Add(username, password string) error {
	if username == "" || password == "" {
		return ErrMissingCredentials
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[username]; ok {
		return errors.Wrapf(ErrUserExists, "%q", username)
	}

	next := maps.Clone(c.users)
	next[username] = password
	if err := c.persist(next); err != nil {
		return err
	}

	c.users = next
	return nil
}

func (c *Credentials) persist(users map[string]string) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}
	if err := iolib.WriteFileAtomic(c.path, data, 0o600); err != nil {
		return errors.Wrap(err, "writing credential file")
	}
	return nil
}
