package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/numberguess/internal/dependencies/clock"
	"github.com/mcoot/numberguess/internal/dispatch"
	"github.com/mcoot/numberguess/internal/model"
	"github.com/mcoot/numberguess/internal/protocol"
	"github.com/mcoot/numberguess/internal/services/guess"
	"github.com/mcoot/numberguess/internal/services/registry"
	"github.com/mcoot/numberguess/internal/services/round"
	"github.com/mcoot/numberguess/internal/storage"
)

// EventPublisher receives game events for spectators
type EventPublisher interface {
	Publish(event model.Event)
}

// Controller drives registration, guessing and round advancement for connected players
type Controller struct {
	cfg        Config
	registry   *registry.Registry
	round      *round.State
	evaluator  *guess.Evaluator
	dispatcher *dispatch.Dispatcher
	storage    storage.Storage
	publisher  EventPublisher
	clock      clock.Clock
	logger     *slog.Logger
}

// NewController creates a new Controller. publisher may be nil.
func NewController(
	cfg Config,
	registry *registry.Registry,
	round *round.State,
	evaluator *guess.Evaluator,
	dispatcher *dispatch.Dispatcher,
	storage storage.Storage,
	publisher EventPublisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		cfg:        cfg,
		registry:   registry,
		round:      round,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		storage:    storage,
		publisher:  publisher,
		clock:      clock,
		logger:     logger.With(slog.String("component", "game")),
	}
}

// Config returns the controller's settings
func (c *Controller) Config() Config {
	return c.cfg
}

// Join registers the peer under name and sends the opening state.
// Registration errors are returned untouched so the caller can decide whether to retry.
func (c *Controller) Join(ctx context.Context, peer dispatch.Peer, name string) (model.Player, error) {
	player, err := c.registry.Reserve(peer, name)
	if err != nil {
		return model.Player{}, err
	}

	// Broadcasts skip the player until Activate, so the opening lines come first
	view := c.round.View()
	c.dispatcher.SendTo(peer, protocol.Welcome(player.Name))
	c.dispatcher.SendTo(peer, protocol.RoundStart(view))
	c.dispatcher.SendTo(peer, protocol.Ranking(c.registry.Snapshot()))
	c.registry.Activate(player.ID)

	// A round started while reserved was announced without this peer
	if current := c.round.View(); current.Number != view.Number {
		c.dispatcher.SendTo(peer, protocol.RoundStart(current))
	}
	c.dispatcher.BroadcastAll(protocol.Joined(player.Name), player.ID)

	c.publish(model.EventPlayerJoined, player.ID, model.PlayerJoinedPayload{Name: player.Name})
	c.publishRanking()

	c.logger.Info("player joined",
		slog.String("player_id", string(player.ID)),
		slog.String("name", player.Name),
		slog.Int("player_count", c.registry.Count()))

	return player, nil
}

// Guess handles one line of guess text from a registered player.
// Protocol problems are answered on the wire; only a missing player is returned as an error.
func (c *Controller) Guess(ctx context.Context, peer dispatch.Peer, text string) error {
	player, err := c.registry.Get(peer.ID())
	if err != nil {
		return err
	}

	n, err := c.evaluator.Parse(text)
	if err != nil {
		c.dispatcher.SendTo(peer, protocol.Rejected(err))
		return nil
	}

	result, err := c.round.Submit(player.ID, n)
	switch {
	case errors.Is(err, model.ErrRoundTransitioning):
		c.dispatcher.SendTo(peer, protocol.RoundOver())
		return nil
	case errors.Is(err, model.ErrInvalidGuess):
		c.dispatcher.SendTo(peer, protocol.Rejected(err))
		return nil
	case err != nil:
		return err
	}

	if result.Outcome != model.OutcomeCorrect {
		c.dispatcher.SendTo(peer, protocol.Feedback(result))
		c.dispatcher.BroadcastAll(protocol.Attempt(player.Name, result.Attempts), player.ID)
		return nil
	}

	c.win(ctx, peer, player, result)
	return nil
}

// win runs on the goroutine whose guess flipped the round to Transitioning,
// which makes it the only caller allowed to start the next round.
func (c *Controller) win(ctx context.Context, peer dispatch.Peer, player model.Player, result model.GuessResult) {
	if _, err := c.registry.AddScore(player.ID, result.Points); err != nil {
		// The winner disconnected between guessing and scoring; the round still advances.
		c.logger.Warn("failed to apply score",
			slog.String("player_id", string(player.ID)),
			slog.Any("error", err))
	}

	c.dispatcher.SendTo(peer, protocol.Correct(result))
	c.dispatcher.BroadcastAll(protocol.Win(player.Name, result), "")
	c.publish(model.EventRoundWon, player.ID, model.RoundWonPayload{
		Round:    result.Round,
		Winner:   player.Name,
		Secret:   result.Secret,
		Attempts: result.Attempts,
		Points:   result.Points,
	})

	c.saveResult(ctx, model.RoundResult{
		Round:    result.Round,
		Secret:   result.Secret,
		Winner:   player.Name,
		Attempts: result.Attempts,
		Points:   result.Points,
		WonAt:    c.clock.Now(),
	})

	c.pause(ctx)

	next := c.round.NewRound()
	view := model.RoundView{Number: next.Number, Range: c.round.Range(), Active: true}
	ranking := c.registry.Snapshot()

	c.dispatcher.BroadcastAll(protocol.RoundStart(view), "")
	c.dispatcher.BroadcastAll(protocol.Ranking(ranking), "")
	// Every registered peer has ROUND queued ahead of any feedback for the new round
	c.round.Open()

	c.publish(model.EventRoundStarted, "", model.RoundStartedPayload{
		Round: view.Number,
		Min:   view.Range.Min,
		Max:   view.Range.Max,
	})
	c.publish(model.EventRanking, "", model.RankingPayload{Players: ranking})
}

func (c *Controller) pause(ctx context.Context) {
	if c.cfg.RoundDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.cfg.RoundDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (c *Controller) saveResult(ctx context.Context, result model.RoundResult) {
	if c.storage == nil {
		return
	}

	saveCtx := context.WithoutCancel(ctx)
	if c.cfg.HistoryTimeout > 0 {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(saveCtx, c.cfg.HistoryTimeout)
		defer cancel()
	}

	if err := c.storage.SaveRoundResult(saveCtx, &result); err != nil {
		c.logger.Error("failed to save round result",
			slog.Int("round", result.Round),
			slog.Any("error", err))
	}
}

// SendRanking sends the current ranking table to one peer
func (c *Controller) SendRanking(peer dispatch.Peer) {
	c.dispatcher.SendTo(peer, protocol.Ranking(c.registry.Snapshot()))
}

// Leave deregisters the player and announces the departure. It is idempotent.
func (c *Controller) Leave(id model.PlayerID) (model.Player, bool) {
	player, ok := c.registry.Remove(id)
	if !ok {
		return model.Player{}, false
	}

	c.dispatcher.BroadcastAll(protocol.Left(player.Name), id)
	c.publish(model.EventPlayerLeft, id, model.PlayerLeftPayload{Name: player.Name})
	c.publishRanking()

	c.logger.Info("player left",
		slog.String("player_id", string(id)),
		slog.String("name", player.Name),
		slog.Int("score", player.Score),
		slog.Int("player_count", c.registry.Count()))

	return player, true
}

// Shutdown warns every registered player that the server is going away
func (c *Controller) Shutdown() {
	sent, _ := c.dispatcher.BroadcastAll(protocol.Shutdown(), "")
	c.logger.Info("shutdown notice sent", slog.Int("recipients", sent))
}

// Ranking returns the current ranking table
func (c *Controller) Ranking() []model.RankEntry {
	return c.registry.Snapshot()
}

// CurrentRound returns the public view of the round
func (c *Controller) CurrentRound() model.RoundView {
	return c.round.View()
}

// IsRegisteredName reports whether a connected player currently holds name
func (c *Controller) IsRegisteredName(name string) bool {
	_, err := c.registry.ByName(name)
	return err == nil
}

// History returns up to limit past round results, newest first
func (c *Controller) History(ctx context.Context, limit int) ([]*model.RoundResult, error) {
	if c.storage == nil {
		return []*model.RoundResult{}, nil
	}
	return c.storage.ListRoundResults(ctx, limit)
}

// HistoryTotal returns how many round results the history store retains
func (c *Controller) HistoryTotal(ctx context.Context) (int, error) {
	if c.storage == nil {
		return 0, nil
	}
	return c.storage.CountRoundResults(ctx)
}

func (c *Controller) publishRanking() {
	c.publish(model.EventRanking, "", model.RankingPayload{Players: c.registry.Snapshot()})
}

func (c *Controller) publish(eventType model.EventType, playerID model.PlayerID, payload any) {
	if c.publisher == nil {
		return
	}
	c.publisher.Publish(model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		PlayerID:  playerID,
		Payload:   payload,
	})
}
