package match

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
	"github.com/DoyleJ11/map-draft-backend/internal/storage"
)

type Msg interface{ isMatchMsg() }

// Join registers a client outbox that receives every state snapshot,
// starting with the current one.
type Join struct {
	ClientID string
	Outbox   chan Snapshot
}

func (Join) isMatchMsg() {}

type Leave struct{ ClientID string }

func (Leave) isMatchMsg() {}

// Submit records one action (captain-submitted or clock-synthesized). The
// reply carries the appended ledger entry or the rejection.
type Submit struct {
	Side       draft.Side
	Type       draft.ActionType
	ItemID     *string
	Preference draft.Preference
	Reply      chan SubmitResult
}

func (Submit) isMatchMsg() {}

// SubmitResult carries the appended entry or the rejection. ReRolled means
// the submission was a second roll that tied: both roll entries were
// discarded, the cycle restarted, and Entry is zero because the record no
// longer exists.
type SubmitResult struct {
	Entry    draft.Entry
	ReRolled bool
	Err      error
}

type Start struct{ Reply chan error }

func (Start) isMatchMsg() {}

type AdminUndo struct{ Reply chan error }

func (AdminUndo) isMatchMsg() {}

type AdminReset struct{ Reply chan error }

func (AdminReset) isMatchMsg() {}

type GetState struct{ Reply chan View }

func (GetState) isMatchMsg() {}

type Shutdown struct{}

func (Shutdown) isMatchMsg() {}

// timerFired is sent by the turn clock. Gen guards against stale fires: a
// fire racing a just-applied action carries an old generation and is
// dropped.
type timerFired struct{ gen uint64 }

func (timerFired) isMatchMsg() {}

type Snapshot struct {
	Version   int
	State     draft.State
	LastEntry *draft.Entry
}

// View reflects internal state without data races; used by GetState.
type View struct {
	Version    int
	NumClients int
	Started    bool
	State      draft.State
	Ledger     []draft.Entry
}

// Match is the single-writer actor that owns one match's ledger. All
// mutations (submits, admin corrections, timer synthesis) flow through the
// inbox and are applied by one goroutine, so at most one is in flight at a
// time.
type Match struct {
	ID string

	cfg   draft.StageConfig
	cat   draft.Catalog
	store storage.Store
	log   *zap.Logger

	inbox    chan Msg
	ledger   []draft.Entry
	started  bool
	state    draft.State
	version  int
	clients  map[string]chan Snapshot
	timer    *time.Timer
	timerGen uint64
	rng      *rand.Rand

	ctx    context.Context
	cancel context.CancelFunc
}

func New(parent context.Context, id string, cfg draft.StageConfig, cat draft.Catalog,
	st storage.Store, started bool, ledger []draft.Entry, log *zap.Logger) *Match {

	ctx, cancel := context.WithCancel(parent)
	m := &Match{
		ID:      id,
		cfg:     cfg,
		cat:     cat,
		store:   st,
		log:     log.With(zap.String("match_id", id)),
		inbox:   make(chan Msg, 64),
		ledger:  slices.Clone(ledger),
		started: started,
		clients: make(map[string]chan Snapshot),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:     ctx,
		cancel:  cancel,
	}
	m.resolve(nil, false)
	go m.loop()
	return m
}

func (m *Match) Inbox() chan<- Msg { return m.inbox }

func (m *Match) loop() {
	for {
		select {
		case <-m.ctx.Done():
			m.shutdown()
			return

		case raw := <-m.inbox:
			switch msg := raw.(type) {
			case Join:
				// Same non-blocking send as broadcast: a client that cannot
				// take the initial snapshot must not wedge the actor.
				select {
				case msg.Outbox <- Snapshot{Version: m.version, State: m.state}:
					m.clients[msg.ClientID] = msg.Outbox
				default:
					close(msg.Outbox)
				}

			case Leave:
				// Closing the outbox releases the client's writer goroutine.
				if ch, ok := m.clients[msg.ClientID]; ok {
					close(ch)
					delete(m.clients, msg.ClientID)
				}

			case Submit:
				entry, reRolled, err := m.apply(msg.Side, msg.Type, msg.ItemID, msg.Preference)
				if msg.Reply != nil {
					msg.Reply <- SubmitResult{Entry: entry, ReRolled: reRolled, Err: err}
				}

			case Start:
				msg.Reply <- m.start()

			case AdminUndo:
				msg.Reply <- m.undo()

			case AdminReset:
				msg.Reply <- m.reset()

			case timerFired:
				if msg.gen == m.timerGen {
					m.expire()
				}

			case GetState:
				msg.Reply <- View{
					Version:    m.version,
					NumClients: len(m.clients),
					Started:    m.started,
					State:      m.state,
					Ledger:     slices.Clone(m.ledger),
				}

			case Shutdown:
				m.shutdown()
				return
			}
		}
	}
}

// apply validates, appends, persists, and re-resolves. The append and the
// resolve are one atomic step from the actor's point of view: no snapshot
// ever shows a ledger entry with stale derived state.
func (m *Match) apply(side draft.Side, t draft.ActionType, itemID *string, pref draft.Preference) (draft.Entry, bool, error) {
	if err := draft.ValidateAction(m.cat, m.state, side, t, itemID, pref); err != nil {
		return draft.Entry{}, false, err
	}
	e := draft.Entry{
		Seq:        len(m.ledger) + 1,
		Side:       side,
		Type:       t,
		ItemID:     itemID,
		Preference: pref,
	}
	if t == draft.ActionRoll {
		e.Value = m.rng.Intn(100) + 1
	}
	m.ledger = append(m.ledger, e)
	if err := m.store.AppendAction(m.ctx, m.ID, e); err != nil {
		m.log.Warn("persist action failed", zap.Int("seq", e.Seq), zap.Error(err))
	}
	if m.resolve(&e, true) {
		// The roll tied and was discarded with its counterpart; there is
		// no ledger record to hand back.
		return draft.Entry{}, true, nil
	}
	return e, false, nil
}

func (m *Match) start() error {
	if m.started {
		return nil
	}
	m.started = true
	if err := m.store.SetMatchStarted(m.ctx, m.ID, true); err != nil {
		m.log.Warn("persist match start failed", zap.Error(err))
	}
	m.resolve(nil, true)
	return nil
}

func (m *Match) undo() error {
	if len(m.ledger) == 0 {
		return draft.ErrEmptyLedger
	}
	m.ledger = m.ledger[:len(m.ledger)-1]
	if err := m.store.DeleteLastAction(m.ctx, m.ID); err != nil {
		m.log.Warn("persist undo failed", zap.Error(err))
	}
	m.resolve(nil, true)
	return nil
}

// reset clears the ledger and returns the match to rolling. Safe to call
// repeatedly.
func (m *Match) reset() error {
	m.ledger = nil
	if err := m.store.ClearActions(m.ctx, m.ID); err != nil {
		m.log.Warn("persist reset failed", zap.Error(err))
	}
	if !m.started {
		m.started = true
		if err := m.store.SetMatchStarted(m.ctx, m.ID, true); err != nil {
			m.log.Warn("persist match start failed", zap.Error(err))
		}
	}
	m.resolve(nil, true)
	return nil
}

// resolve recomputes derived state from the ledger, re-arms the turn
// clock, and (when broadcasting) pushes a new snapshot to every client.
// Returns true when a roll tie was detected and the roll cycle restarted.
func (m *Match) resolve(last *draft.Entry, broadcast bool) bool {
	st, err := draft.Resolve(m.cfg, m.cat, m.ledger, m.started, time.Now())
	reRolled := false
	if errors.Is(err, draft.ErrRollTie) {
		// Tied rolls are discarded and the cycle restarts. The discarded
		// entries must not be advertised as the latest ledger record.
		reRolled = true
		last = nil
		m.ledger = slices.DeleteFunc(m.ledger, func(e draft.Entry) bool {
			return e.Type == draft.ActionRoll
		})
		if derr := m.store.DeleteRollActions(m.ctx, m.ID); derr != nil {
			m.log.Warn("persist roll clear failed", zap.Error(derr))
		}
		m.log.Info("roll tie, restarting roll cycle")
		st, _ = draft.Resolve(m.cfg, m.cat, m.ledger, m.started, time.Now())
	}
	m.state = st
	m.armTimer()
	if broadcast {
		m.version++
		m.broadcast(Snapshot{Version: m.version, State: m.state, LastEntry: last})
	}
	return reRolled
}

func (m *Match) armTimer() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.state.Deadline == nil {
		return
	}
	gen := m.timerGen
	m.timer = time.AfterFunc(time.Until(*m.state.Deadline), func() {
		select {
		case m.inbox <- timerFired{gen: gen}:
		case <-m.ctx.Done():
		}
	})
}

// expire synthesizes the default action for the side that ran out of time:
// skip the ban, pick a random available item, or take the axis-default
// preference. It goes through the same apply path as a captain submission.
func (m *Match) expire() {
	if m.state.ActiveSide == nil {
		return
	}
	side := *m.state.ActiveSide
	phase := m.state.Status

	var err error
	switch phase {
	case draft.StatusBanning:
		_, _, err = m.apply(side, draft.ActionBan, nil, "")
	case draft.StatusPicking:
		id, ok := draft.RandomItem(m.cat, m.state, m.rng)
		if !ok {
			m.log.Error("turn clock expired with no pickable items")
			return
		}
		_, _, err = m.apply(side, draft.ActionPick, &id, "")
	case draft.StatusPreference:
		_, _, err = m.apply(side, draft.ActionPreference, nil, draft.DefaultPreference(m.state))
	default:
		return
	}
	if err != nil {
		m.log.Error("turn clock default action rejected", zap.Error(err))
		return
	}
	m.log.Info("turn clock expired, default action applied",
		zap.String("side", string(side)), zap.String("phase", string(phase)))
}

func (m *Match) broadcast(snap Snapshot) {
	for id, ch := range m.clients {
		select {
		case ch <- snap:
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(m.clients, id)
		}
	}
}

func (m *Match) shutdown() {
	if m.timer != nil {
		m.timer.Stop()
	}
	for id, ch := range m.clients {
		close(ch)
		delete(m.clients, id)
	}
	m.cancel()
}
