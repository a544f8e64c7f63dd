package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/protocol"
	"github.com/mcoot/numberguess/internal/testutil"
	"github.com/mcoot/numberguess/internal/web/sse"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp(42)
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) join(id, name string) *testutil.RecordingPeer {
	peer := testutil.NewRecordingPeer(model.PlayerID(id))
	_, err := s.app.GameController.Join(s.ctx, peer, name)
	s.Require().NoError(err)
	return peer
}

// Test: Two players, one round won, next round started, history and ranking updated
func (s *IntegrationSuite) TestCompleteRoundFlow() {
	s.app.MockRandom.QueueBetween(7)

	alice := s.join("p1", "alice")
	bob := s.join("p2", "bob")

	s.True(alice.HasLine("JOINED bob"))
	s.True(bob.HasLine("ROUND 1 1 100"))

	s.Require().NoError(s.app.GameController.Guess(s.ctx, alice, "50"))
	s.Require().NoError(s.app.GameController.Guess(s.ctx, alice, "30"))
	s.Require().NoError(s.app.GameController.Guess(s.ctx, alice, "42"))

	s.True(alice.HasLine("TOO_HIGH 1"))
	s.True(alice.HasLine("TOO_LOW 2"))
	s.True(alice.HasLine("CORRECT 42 3 7"))
	s.True(bob.HasLine("ATTEMPT alice 1"))
	s.True(bob.HasLine("WIN alice 42 3 7"))
	s.True(bob.HasLine("ROUND 2 1 100"))

	view := s.app.GameController.CurrentRound()
	s.Equal(2, view.Number)
	s.True(view.Active)
	s.Equal(7, s.app.RoundState.CurrentSecret())

	ranking := s.app.GameController.Ranking()
	s.Require().Len(ranking, 2)
	s.Equal(model.RankEntry{Position: 1, Name: "alice", Score: 7}, ranking[0])
	s.Equal(model.RankEntry{Position: 2, Name: "bob", Score: 0}, ranking[1])

	history, err := s.app.GameController.History(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("alice", history[0].Winner)
	s.Equal(42, history[0].Secret)
	s.Equal(s.app.MockClock.Now(), history[0].WonAt)
}

// Test: Attempts reset between rounds so the second winner earns full points
func (s *IntegrationSuite) TestAttemptsResetBetweenRounds() {
	s.app.MockRandom.QueueBetween(10)

	alice := s.join("p1", "alice")
	bob := s.join("p2", "bob")

	s.Require().NoError(s.app.GameController.Guess(s.ctx, bob, "1"))
	s.Require().NoError(s.app.GameController.Guess(s.ctx, alice, "42"))
	s.Require().NoError(s.app.GameController.Guess(s.ctx, bob, "10"))

	s.True(bob.HasLine("CORRECT 10 1 9"))

	count, err := s.app.Storage.CountRoundResults(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

// Test: A departing player is dropped from the ranking and the others are told
func (s *IntegrationSuite) TestLeaveUpdatesRanking() {
	alice := s.join("p1", "alice")
	s.join("p2", "bob")

	player, ok := s.app.GameController.Leave("p2")
	s.True(ok)
	s.Equal("bob", player.Name)
	s.True(alice.HasLine(protocol.Left("bob")))

	ranking := s.app.GameController.Ranking()
	s.Require().Len(ranking, 1)
	s.Equal("alice", ranking[0].Name)
	s.False(s.app.GameController.IsRegisteredName("bob"))
}

// Test: Game events reach SSE clients registered on the hub
func (s *IntegrationSuite) TestEventsReachHub() {
	client := sse.NewClient(s.app.Hub, "watcher")
	s.Require().True(s.app.Hub.Register(client))
	s.Require().Eventually(func() bool {
		return s.app.Hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	s.join("p1", "alice")

	select {
	case msg := <-client.Messages():
		s.Contains(string(msg), "event: player-joined")
		s.Contains(string(msg), `"name":"alice"`)
	case <-time.After(time.Second):
		s.Fail("expected a player-joined event")
	}
}
