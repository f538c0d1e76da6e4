package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"arena_client/internal/chain"
	"arena_client/internal/commitment"
	"arena_client/internal/domain"
	"arena_client/internal/game"
	"arena_client/internal/logger"
	"arena_client/internal/turn"

	"github.com/google/uuid"
)

// ArenaReader - state-read capability
type ArenaReader interface {
	ReadArena(ctx context.Context, arenaID string, variant domain.Variant) (*domain.ArenaSnapshot, error)
}

// Submitter - transaction-submit capability
type Submitter interface {
	Submit(ctx context.Context, tx chain.TxRequest) (*chain.TxResult, error)
}

// ResultRecorder stores finished arenas
type ResultRecorder interface {
	Create(ctx context.Context, res *domain.ArenaResult) error
}

// SecretsFactory opens the secret store of one arena for the local identity
type SecretsFactory func(arenaID string) turn.SecretStore

type Options struct {
	Variant     domain.Variant
	ArenaID     string // empty: find one through the Matchmaker
	Intervals   Intervals
	MaxFailures int
}

type Deps struct {
	Reader     ArenaReader
	Gateway    Submitter
	Builder    *chain.Builder
	Identity   turn.Identity
	Salts      commitment.SaltSource
	Secrets    SecretsFactory
	Moves      MoveSource
	Matchmaker *Matchmaker    // optional
	Results    ResultRecorder // optional
}

// Session drives the local player through one arena
type Session struct {
	id       string
	opts     Options
	reader   ArenaReader
	gateway  Submitter
	builder  *chain.Builder
	identity turn.Identity
	salts    commitment.SaltSource
	secrets  SecretsFactory
	moves    MoveSource
	matcher  *Matchmaker
	results  ResultRecorder
	catalog  *game.Catalog
	status   *broadcaster

	mu      sync.Mutex
	log     *slog.Logger
	arenaID string
	machine *turn.Machine
	cancel  context.CancelFunc
	started bool
	stopped bool

	// last on-chain commitment a reveal was attempted for
	committed domain.Hash
}

func New(opts Options, deps Deps) (*Session, error) {
	if deps.Reader == nil || deps.Gateway == nil || deps.Builder == nil || deps.Identity == nil ||
		deps.Salts == nil || deps.Secrets == nil || deps.Moves == nil {
		return nil, errors.New("session: missing dependency")
	}
	if opts.ArenaID == "" && deps.Matchmaker == nil {
		return nil, errors.New("session: arena id or matchmaker required")
	}
	catalog, err := game.CatalogFor(opts.Variant)
	if err != nil {
		return nil, err
	}
	if opts.Intervals == (Intervals{}) {
		opts.Intervals = DefaultIntervals()
	}

	id := uuid.NewString()
	s := &Session{
		id:       id,
		opts:     opts,
		reader:   deps.Reader,
		gateway:  deps.Gateway,
		builder:  deps.Builder,
		identity: deps.Identity,
		salts:    deps.Salts,
		secrets:  deps.Secrets,
		moves:    deps.Moves,
		matcher:  deps.Matchmaker,
		results:  deps.Results,
		catalog:  catalog,
		log:      logger.ForSession(id, opts.ArenaID, deps.Identity.ID()),
	}
	s.status = newBroadcaster(Status{
		SessionID: id,
		Variant:   opts.Variant,
		Identity:  deps.Identity.ID(),
		ArenaID:   opts.ArenaID,
		State:     StateStarting,
		UpdatedAt: time.Now().UTC(),
	})
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Catalog() *game.Catalog { return s.catalog }

// Status returns the latest published status
func (s *Session) Status() Status { return s.status.current() }

// Subscribe streams status updates, starting with the current one
func (s *Session) Subscribe() (<-chan Status, func()) { return s.status.subscribe() }

// Run blocks until the arena is over (nil), the session is cancelled
// (ErrCancelled) or a fatal error happens.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("session already started")
	}
	if s.stopped {
		s.mu.Unlock()
		return domain.ErrCancelled
	}
	s.started = true
	s.cancel = cancel
	s.mu.Unlock()

	err := s.run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrCancelled) || ctx.Err() != nil:
		s.log.Info("session cancelled")
		s.status.update(func(st *Status) { st.State = StateCancelled })
		return domain.ErrCancelled
	default:
		s.log.Error("session failed", "error", err)
		s.status.update(func(st *Status) {
			st.State = StateFailed
			st.Error = err.Error()
		})
	}
	return err
}

func (s *Session) run(ctx context.Context) error {
	arenaID := s.opts.ArenaID
	if arenaID == "" {
		ctx := logger.NewContext(ctx, s.logger())
		s.setState(StateSearching)
		id, err := s.matcher.FindArena(ctx)
		if err != nil {
			return err
		}
		arenaID = id
	}
	s.bind(arenaID)

	sched := NewScheduler(s.opts.Intervals, s.opts.MaxFailures, s.logger())
	for {
		s.setState(StatePolling)
		err := sched.Start(ctx, s.tick).Wait()
		if !errors.Is(err, domain.ErrSecretMissing) {
			return err
		}
		if err := s.recoverSecret(ctx); err != nil {
			return err
		}
	}
}

// Cancel stops the session. While still searching for a match the kiosk
// also leaves the pool; that transaction is the cancel request itself.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.stopped = true
	searching := s.arenaID == "" && s.matcher != nil && s.Status().State == StateSearching
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if searching {
		return s.matcher.CancelSearch(ctx)
	}
	return nil
}

func (s *Session) bind(arenaID string) {
	s.mu.Lock()
	s.arenaID = arenaID
	s.machine = turn.NewMachine(s.identity, s.salts, s.secrets(arenaID))
	s.log = logger.ForSession(s.id, arenaID, s.identity.ID())
	s.mu.Unlock()
	s.status.update(func(st *Status) { st.ArenaID = arenaID })
}

func (s *Session) logger() *slog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log
}

func (s *Session) setState(state State) {
	s.status.update(func(st *Status) { st.State = state })
}

// tick - one poll: read, evaluate, act
func (s *Session) tick(ctx context.Context) (domain.TurnAction, error) {
	pollsTotal.Inc()
	snap, err := s.reader.ReadArena(ctx, s.arenaID, s.opts.Variant)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrMalformedState) {
			s.status.update(func(st *Status) { st.Error = err.Error() })
		}
		return domain.TurnAction{}, fmt.Errorf("read arena: %w", err)
	}

	action, err := s.machine.Evaluate(ctx, snap)
	if errors.Is(err, domain.ErrNotJoined) {
		return s.join(ctx, snap)
	}
	if err != nil {
		return domain.TurnAction{}, err
	}
	actionsTotal.WithLabelValues(string(action.Kind)).Inc()
	s.observe(snap, action)

	switch action.Kind {
	case domain.ActionCommit:
		return action, s.commit(ctx, snap)
	case domain.ActionReveal:
		return action, s.reveal(ctx, snap)
	case domain.ActionGameOver:
		s.finish(ctx, snap, action)
	}
	return action, nil
}

func (s *Session) observe(snap *domain.ArenaSnapshot, action domain.TurnAction) {
	me, opp, _ := turn.Seats(snap, s.identity)
	s.status.update(func(st *Status) {
		st.State = StatePolling
		st.Action = action
		st.Round = snap.Round
		st.Error = ""
		st.Moves = nil
		if me != nil {
			st.MyHP = game.FormatHP(me.HP)
		}
		if opp != nil {
			st.OpponentHP = game.FormatHP(opp.HP)
		}
	})
}

// join takes the free seat of a v1 arena
func (s *Session) join(ctx context.Context, snap *domain.ArenaSnapshot) (domain.TurnAction, error) {
	if s.opts.Variant != domain.VariantV1 {
		return domain.TurnAction{}, fmt.Errorf("%w: matched arenas cannot be joined", domain.ErrNotParticipant)
	}
	s.logger().Info("joining arena")
	if err := s.submit(ctx, s.builder.Join(snap.Ref())); err != nil {
		return domain.TurnAction{}, err
	}
	return domain.Action(domain.ActionIdle), nil
}

func (s *Session) commit(ctx context.Context, snap *domain.ArenaSnapshot) error {
	me, _, _ := turn.Seats(snap, s.identity)
	moveID, err := s.ask(ctx, PromptCommit, snap.Round, me.MovesAvailable)
	if err != nil {
		return err
	}
	if err := s.catalog.Validate(moveID, me.MovesAvailable); err != nil {
		return err
	}

	hash, err := s.machine.CommitAndPersist(ctx, moveID)
	if err != nil {
		return fmt.Errorf("persist secret: %w", err)
	}
	s.logger().Info("committing move", "round", snap.Round, "hash", hash.String())
	return s.submit(ctx, s.builder.Commit(snap.Ref(), hash))
}

func (s *Session) reveal(ctx context.Context, snap *domain.ArenaSnapshot) error {
	me, _, _ := turn.Seats(snap, s.identity)
	s.mu.Lock()
	s.committed = me.NextAttack
	s.mu.Unlock()

	sec, err := s.machine.PrepareReveal(ctx, me.NextAttack)
	if err != nil {
		return err
	}
	moveID, salt := commitment.Reveal(sec)
	s.logger().Info("revealing move", "round", snap.Round, "move", moveID)
	if err := s.submit(ctx, s.builder.Reveal(snap.Ref(), moveID, salt)); err != nil {
		return err
	}
	if err := s.machine.Forget(ctx); err != nil {
		s.logger().Warn("failed to clear revealed secret", "error", err)
	}
	return nil
}

// finish runs once per arena: cleanup transaction, secret, result
func (s *Session) finish(ctx context.Context, snap *domain.ArenaSnapshot, action domain.TurnAction) {
	log := s.logger()
	log.Info("game over", "winner", action.Winner, "round", snap.Round)

	if s.builder.HasCleanup() {
		if err := s.submit(ctx, s.builder.ClearArena(snap.Ref())); err != nil {
			log.Warn("arena cleanup failed", "error", err)
		}
	}
	if err := s.machine.Forget(ctx); err != nil {
		log.Warn("failed to clear secret", "error", err)
	}

	if s.results != nil {
		res := &domain.ArenaResult{
			SessionID:  s.id,
			ArenaID:    snap.ArenaID,
			Identity:   s.identity.ID(),
			Variant:    snap.Variant,
			Winner:     action.Winner,
			Rounds:     snap.Round,
			FinishedAt: time.Now().UTC(),
		}
		if me, opp, ok := turn.Seats(snap, s.identity); ok {
			res.MyHP = me.HP
			if opp != nil {
				res.OpponentHP = opp.HP
			}
		}
		if err := s.results.Create(ctx, res); err != nil {
			log.Warn("failed to record result", "error", err)
		}
	}

	s.setState(StateFinished)
}

// recoverSecret asks the player to redeclare the move they committed
func (s *Session) recoverSecret(ctx context.Context) error {
	s.logger().Warn("committed secret missing, asking for the original move")
	s.status.update(func(st *Status) {
		st.State = StateSecretMissing
		st.Error = domain.ErrSecretMissing.Error()
	})

	s.mu.Lock()
	committed := s.committed
	s.mu.Unlock()

	// ask until the move opens the on-chain commitment
	for {
		moveID, err := s.ask(ctx, PromptRedeclare, s.Status().Round, nil)
		if err != nil {
			return err
		}
		_, err = s.machine.Redeclare(ctx, moveID, committed)
		if errors.Is(err, domain.ErrCommitmentMismatch) {
			s.logger().Warn("redeclared move does not match the commitment", "move", moveID)
			s.status.update(func(st *Status) { st.Error = err.Error() })
			continue
		}
		if err != nil {
			return err
		}
		break
	}
	s.status.update(func(st *Status) { st.Error = "" })
	return nil
}

func (s *Session) ask(ctx context.Context, reason PromptReason, round uint64, available []uint8) (uint8, error) {
	moves := s.catalog.Allowed(available)
	// published only once the prompt takes moves, so a UI reacting to it never races the queue
	opened := func() {
		s.status.update(func(st *Status) {
			if reason == PromptCommit {
				st.State = StateAwaitingMove
			}
			st.Moves = moves
		})
	}

	id, err := s.moves.ChooseMove(ctx, MovePrompt{
		Reason:  reason,
		ArenaID: s.arenaID,
		Round:   round,
		Moves:   moves,
		Opened:  opened,
	})
	if err != nil {
		if ctx.Err() != nil {
			return 0, domain.ErrCancelled
		}
		return 0, err
	}
	return id, nil
}

// submit never sends anything once ctx is cancelled
func (s *Session) submit(ctx context.Context, tx chain.TxRequest) error {
	if ctx.Err() != nil {
		return domain.ErrCancelled
	}
	s.setState(StateSubmitting)

	res, err := s.gateway.Submit(ctx, tx)
	if err != nil {
		txTotal.WithLabelValues(string(tx.Kind), "error").Inc()
		return err
	}
	txTotal.WithLabelValues(string(tx.Kind), "ok").Inc()
	s.status.update(func(st *Status) { st.LastTx = res.Digest })
	return nil
}
