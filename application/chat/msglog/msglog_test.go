package msglog

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite

	dir   string
	clock *clock.Mock
	store *Store
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	s.dir = filepath.Join(s.T().TempDir(), "db")
	s.clock = clock.NewMock()
	s.clock.Set(time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC))
	s.store = New(s.dir, s.clock)
}

func (s *StoreTestSuite) TestAppendAndRead() {
	_, err := s.store.Append("app1", DirectionSend, "hi")
	s.Require().NoError(err)

	s.clock.Add(time.Second)
	_, err = s.store.Append("app1", DirectionFailed, "again")
	s.Require().NoError(err)

	entries, err := New(s.dir, s.clock).Read("app1")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	s.Equal(DirectionSend, entries[0].Direction)
	s.Equal("hi", entries[0].Content)
	s.Equal(DirectionFailed, entries[1].Direction)
	s.Equal(time.Second, entries[1].Timestamp.Sub(entries[0].Timestamp))

	_, err = os.Stat(filepath.Join(s.dir, "app1_messages.json"))
	s.NoError(err)
}

func (s *StoreTestSuite) TestReadMissing() {
	entries, err := s.store.Read("nobody")
	s.Require().NoError(err)
	s.Empty(entries)

	_, err = os.Stat(filepath.Join(s.dir, "nobody_messages.json"))
	s.True(os.IsNotExist(err), "reading should not create a log")
}

func (s *StoreTestSuite) TestTimestampsNeverGoBack() {
	_, err := s.store.Append("app1", DirectionRecv, "first")
	s.Require().NoError(err)

	s.clock.Set(s.clock.Now().Add(-time.Hour))
	e, err := s.store.Append("app1", DirectionRecv, "second")
	s.Require().NoError(err)

	entries, err := s.store.Read("app1")
	s.Require().NoError(err)
	s.Equal(entries[0].Timestamp, e.Timestamp)
}

func (s *StoreTestSuite) TestLogsArePerPeer() {
	_, err := s.store.Append("app1", DirectionSend, "to app2")
	s.Require().NoError(err)
	_, err = s.store.Append("app2", DirectionRecv, "from app1")
	s.Require().NoError(err)

	a, _ := s.store.Read("app1")
	b, _ := s.store.Read("app2")
	s.Len(a, 1)
	s.Len(b, 1)
	s.Equal("from app1", b[0].Content)
}

func (s *StoreTestSuite) TestInvalidPeerID() {
	for _, id := range []string{"", "..", "../etc", `a\b`} {
		_, err := s.store.Append(id, DirectionSend, "x")
		s.ErrorIs(err, ErrInvalidPeerID, id)
	}
}

func (s *StoreTestSuite) TestConcurrentAppends() {
	const n = 20

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Append("app1", DirectionRecv, strconv.Itoa(i))
			s.NoError(err)
		}()
	}
	wg.Wait()

	entries, err := s.store.Read("app1")
	s.Require().NoError(err)
	s.Len(entries, n)
}

func (s *StoreTestSuite) TestCorruptLog() {
	s.Require().NoError(os.MkdirAll(s.dir, 0o755))
	s.Require().NoError(os.WriteFile(filepath.Join(s.dir, "app1_messages.json"), []byte("["), 0o644))

	_, err := s.store.Append("app1", DirectionSend, "x")
	s.Error(err)

	data, err := os.ReadFile(filepath.Join(s.dir, "app1_messages.json"))
	s.Require().NoError(err)
	s.Equal("[", string(data))
}
