package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/numberguess/internal/dependencies/clock"
	"github.com/mcoot/numberguess/internal/dispatch"
	"github.com/mcoot/numberguess/internal/model"
)

// MaxNameLength is the longest display name accepted
const MaxNameLength = 20

// Names are single protocol tokens so ranking and announcement lines stay unambiguous
var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ErrNegativeScore is returned when a score delta would lower a player's score
var ErrNegativeScore = errors.New("score delta must not be negative")

// Registry tracks the registered players and the peers they play through.
// Every operation runs under one mutex and none of them perform I/O.
type Registry struct {
	mu         sync.Mutex
	entries    map[model.PlayerID]*entry
	names      map[string]model.PlayerID // lower-cased name -> id
	nextSeq    uint64
	maxPlayers int
	clock      clock.Clock
	logger     *slog.Logger
}

type entry struct {
	player model.Player
	peer   dispatch.Peer
	// pending entries hold their name but receive no broadcasts until Activate
	pending bool
}

// New creates an empty Registry. maxPlayers <= 0 means unlimited.
func New(maxPlayers int, clock clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		entries:    make(map[model.PlayerID]*entry),
		names:      make(map[string]model.PlayerID),
		maxPlayers: maxPlayers,
		clock:      clock,
		logger:     logger.With(slog.String("component", "registry")),
	}
}

// Ensure Registry can feed the dispatcher
var _ dispatch.PeerSource = (*Registry)(nil)

// ValidateName checks a display name against the protocol rules
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", model.ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name is longer than %d characters", model.ErrInvalidName, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: use letters, digits, '-' or '_'", model.ErrInvalidName)
	}
	return nil
}

// Register adds the peer under the given display name with a score of 0
func (r *Registry) Register(peer dispatch.Peer, name string) (model.Player, error) {
	player, err := r.Reserve(peer, name)
	if err != nil {
		return model.Player{}, err
	}
	r.Activate(player.ID)
	return player, nil
}

// Reserve adds the player like Register, but Peers leaves it out until Activate.
// This lets the caller queue private opening messages ahead of any broadcast.
func (r *Registry) Reserve(peer dispatch.Peer, name string) (model.Player, error) {
	if err := ValidateName(name); err != nil {
		return model.Player{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := peer.ID()
	if _, ok := r.entries[id]; ok {
		return model.Player{}, model.ErrAlreadyRegistered
	}
	if _, ok := r.names[strings.ToLower(name)]; ok {
		return model.Player{}, model.ErrDuplicateName
	}
	if r.maxPlayers > 0 && len(r.entries) >= r.maxPlayers {
		return model.Player{}, model.ErrServerFull
	}

	r.nextSeq++
	player := model.Player{
		ID:       id,
		Name:     name,
		Score:    0,
		Seq:      r.nextSeq,
		JoinedAt: r.clock.Now(),
	}
	r.entries[id] = &entry{player: player, peer: peer, pending: true}
	r.names[strings.ToLower(name)] = id

	r.logger.Info("player registered",
		slog.String("player_id", string(id)),
		slog.String("name", name),
		slog.Int("total_players", len(r.entries)))

	return player, nil
}

// Activate makes a reserved player visible to Peers.
// It reports false when the player is unknown or already active.
func (r *Registry) Activate(id model.PlayerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || !e.pending {
		return false
	}
	e.pending = false
	return true
}

// Remove drops the player. It is a no-op when the player is already gone.
func (r *Registry) Remove(id model.PlayerID) (model.Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.Player{}, false
	}
	delete(r.entries, id)
	delete(r.names, strings.ToLower(e.player.Name))

	r.logger.Info("player removed",
		slog.String("player_id", string(id)),
		slog.String("name", e.player.Name),
		slog.Int("total_players", len(r.entries)))

	return e.player, true
}

// Get returns a copy of the player
func (r *Registry) Get(id model.PlayerID) (model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.Player{}, model.ErrPlayerNotFound
	}
	return e.player, nil
}

// ByName returns a copy of the player holding name (case-insensitive)
func (r *Registry) ByName(name string) (model.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.names[strings.ToLower(name)]
	if !ok {
		return model.Player{}, model.ErrPlayerNotFound
	}
	return r.entries[id].player, nil
}

// AddScore adds a non-negative delta to the player's score and returns the updated player
func (r *Registry) AddScore(id model.PlayerID, delta int) (model.Player, error) {
	if delta < 0 {
		return model.Player{}, ErrNegativeScore
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.Player{}, model.ErrPlayerNotFound
	}
	e.player.Score += delta
	return e.player, nil
}

// Snapshot returns the ranking: score descending, ties by registration order
func (r *Registry) Snapshot() []model.RankEntry {
	players := r.Players()

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Seq < players[j].Seq
	})

	ranking := make([]model.RankEntry, 0, len(players))
	for i, p := range players {
		ranking = append(ranking, model.RankEntry{
			Position: i + 1,
			Name:     p.Name,
			Score:    p.Score,
		})
	}
	return ranking
}

// Players returns copies of all players in registration order
func (r *Registry) Players() []model.Player {
	r.mu.Lock()
	players := make([]model.Player, 0, len(r.entries))
	for _, e := range r.entries {
		players = append(players, e.player)
	}
	r.mu.Unlock()

	sort.Slice(players, func(i, j int) bool {
		return players[i].Seq < players[j].Seq
	})
	return players
}

// Peers returns the active peers except exclude ("" for none)
func (r *Registry) Peers(exclude model.PlayerID) []dispatch.Peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	peers := make([]dispatch.Peer, 0, len(r.entries))
	for id, e := range r.entries {
		if id == exclude || e.pending {
			continue
		}
		peers = append(peers, e.peer)
	}
	return peers
}

// Count returns the number of registered players
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
