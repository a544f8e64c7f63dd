package registry

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/numberguess/internal/dependencies/mocks"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	clock    *mocks.MockClock
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = New(0, s.clock, testutil.NopLogger())
}

func (s *RegistrySuite) register(id, name string) model.Player {
	player, err := s.registry.Register(testutil.NewRecordingPeer(model.PlayerID(id)), name)
	s.Require().NoError(err)
	return player
}

// Register tests

func (s *RegistrySuite) TestRegisterSucceeds() {
	player := s.register("p1", "alice")

	s.Equal(model.PlayerID("p1"), player.ID)
	s.Equal("alice", player.Name)
	s.Equal(0, player.Score)
	s.Equal(s.clock.Now(), player.JoinedAt)
	s.Equal(1, s.registry.Count())
}

func (s *RegistrySuite) TestRegisterRejectsDuplicateName() {
	s.register("p1", "alice")

	_, err := s.registry.Register(testutil.NewRecordingPeer("p2"), "Alice")
	s.ErrorIs(err, model.ErrDuplicateName)
	s.Equal(1, s.registry.Count())
}

func (s *RegistrySuite) TestRegisterRejectsSameConnectionTwice() {
	s.register("p1", "alice")

	_, err := s.registry.Register(testutil.NewRecordingPeer("p1"), "bob")
	s.ErrorIs(err, model.ErrAlreadyRegistered)
}

func (s *RegistrySuite) TestRegisterRejectsWhenFull() {
	s.registry = New(2, s.clock, testutil.NopLogger())
	s.register("p1", "alice")
	s.register("p2", "bob")

	_, err := s.registry.Register(testutil.NewRecordingPeer("p3"), "carol")
	s.ErrorIs(err, model.ErrServerFull)
}

func (s *RegistrySuite) TestNameIsFreeAfterRemove() {
	s.register("p1", "alice")
	s.registry.Remove("p1")

	player := s.register("p2", "alice")
	s.Equal(model.PlayerID("p2"), player.ID)
}

func (s *RegistrySuite) TestValidateName() {
	valid := []string{"alice", "Bob_2", "x", "a-b", "abcdefghijklmnopqrst"}
	for _, name := range valid {
		s.NoError(ValidateName(name), name)
	}

	invalid := []string{"", "two words", "abcdefghijklmnopqrstu", "tab\there", "émile", "semi;colon"}
	for _, name := range invalid {
		s.ErrorIs(ValidateName(name), model.ErrInvalidName, name)
	}
}

// Remove tests

func (s *RegistrySuite) TestRemoveIsIdempotent() {
	s.register("p1", "alice")
	s.register("p2", "bob")

	removed, ok := s.registry.Remove("p1")
	s.True(ok)
	s.Equal("alice", removed.Name)
	s.Equal(1, s.registry.Count())

	_, ok = s.registry.Remove("p1")
	s.False(ok)
	s.Equal(1, s.registry.Count())
}

// Score and snapshot tests

func (s *RegistrySuite) TestAddScore() {
	s.register("p1", "alice")

	player, err := s.registry.AddScore("p1", 7)
	s.Require().NoError(err)
	s.Equal(7, player.Score)

	player, err = s.registry.AddScore("p1", 9)
	s.Require().NoError(err)
	s.Equal(16, player.Score)
}

func (s *RegistrySuite) TestAddScoreRejectsNegativeDelta() {
	s.register("p1", "alice")
	_, err := s.registry.AddScore("p1", -1)
	s.ErrorIs(err, ErrNegativeScore)
}

func (s *RegistrySuite) TestAddScoreUnknownPlayer() {
	_, err := s.registry.AddScore("ghost", 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *RegistrySuite) TestSnapshotOrdering() {
	s.register("p1", "alice")
	s.register("p2", "bob")
	s.register("p3", "carol")
	s.register("p4", "dave")

	_, _ = s.registry.AddScore("p3", 9)
	_, _ = s.registry.AddScore("p2", 4)
	_, _ = s.registry.AddScore("p4", 4)

	ranking := s.registry.Snapshot()
	s.Equal([]model.RankEntry{
		{Position: 1, Name: "carol", Score: 9},
		{Position: 2, Name: "bob", Score: 4},
		{Position: 3, Name: "dave", Score: 4},
		{Position: 4, Name: "alice", Score: 0},
	}, ranking)
}

func (s *RegistrySuite) TestSnapshotAfterRemoveDropsExactlyOne() {
	s.register("p1", "alice")
	s.register("p2", "bob")
	s.register("p3", "carol")

	s.registry.Remove("p2")
	ranking := s.registry.Snapshot()

	s.Len(ranking, 2)
	s.Equal("alice", ranking[0].Name)
	s.Equal("carol", ranking[1].Name)
}

func (s *RegistrySuite) TestSnapshotIsACopy() {
	s.register("p1", "alice")
	ranking := s.registry.Snapshot()
	ranking[0].Score = 100

	player, err := s.registry.Get("p1")
	s.Require().NoError(err)
	s.Equal(0, player.Score)
}

func (s *RegistrySuite) TestByName() {
	s.register("p1", "alice")

	player, err := s.registry.ByName("ALICE")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p1"), player.ID)

	_, err = s.registry.ByName("bob")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *RegistrySuite) TestPeersExcludes() {
	s.register("p1", "alice")
	s.register("p2", "bob")

	s.Len(s.registry.Peers(""), 2)
	peers := s.registry.Peers("p1")
	s.Require().Len(peers, 1)
	s.Equal(model.PlayerID("p2"), peers[0].ID())
}

func (s *RegistrySuite) TestReservedPlayerIsHiddenFromPeersUntilActivated() {
	s.register("p1", "alice")
	carol, err := s.registry.Reserve(testutil.NewRecordingPeer("p2"), "carol")
	s.Require().NoError(err)

	peers := s.registry.Peers("")
	s.Require().Len(peers, 1)
	s.Equal(model.PlayerID("p1"), peers[0].ID())

	// The name is already taken and the player counts towards the ranking
	_, err = s.registry.Register(testutil.NewRecordingPeer("p3"), "Carol")
	s.ErrorIs(err, model.ErrDuplicateName)
	s.Equal(2, s.registry.Count())
	s.Len(s.registry.Snapshot(), 2)

	s.True(s.registry.Activate(carol.ID))
	s.Len(s.registry.Peers(""), 2)
	s.False(s.registry.Activate(carol.ID))
	s.False(s.registry.Activate("missing"))
}

func (s *RegistrySuite) TestConcurrentRegisterAndRemove() {
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := model.PlayerID(fmt.Sprintf("p%d", i))
			_, err := s.registry.Register(testutil.NewRecordingPeer(id), fmt.Sprintf("player%d", i))
			s.NoError(err)
			if i%2 == 0 {
				s.registry.Remove(id)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(n/2, s.registry.Count())
	s.Len(s.registry.Snapshot(), n/2)
}

func (s *RegistrySuite) TestConcurrentDuplicateNameOnlyOneWins() {
	const n = 20
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ok  int
		dup int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.registry.Register(testutil.NewRecordingPeer(model.PlayerID(fmt.Sprintf("p%d", i))), "same")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				dup++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, ok)
	s.Equal(n-1, dup)
}
