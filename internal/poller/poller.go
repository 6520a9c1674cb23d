package poller

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"sprint-poker/internal/api"
)

const (
	// GlobalSessionID boards poll on the faster single-board interval.
	GlobalSessionID = "GLOBAL00"

	DefaultSingleInterval = 2 * time.Second
	DefaultMultiInterval  = 5 * time.Second
)

var (
	ErrNoPendingVote  = errors.New("no card selected")
	ErrUnknownSession = errors.New("session not found")
)

type Kind int

const (
	Poker Kind = iota
	Retro
)

type resource string

const (
	resourceVotes   resource = "votes"
	resourceStory   resource = "story"
	resourceMeeting resource = "meeting"
)

var boardResources = []resource{resourceVotes, resourceStory, resourceMeeting}

// fetchMode says how a fetch treats the reconciliation rules. Force applies
// the response even when unchanged. Urgent fetches run even when a scheduled
// fetch of the same resource is outstanding.
type fetchMode struct {
	force  bool
	urgent bool
}

// IntervalFor picks the polling interval for a session: single-board mode
// for the global board, multi-session mode otherwise.
func IntervalFor(sessionID string, single, multi time.Duration) time.Duration {
	if strings.EqualFold(strings.TrimSpace(sessionID), GlobalSessionID) {
		return single
	}
	return multi
}

type Poller struct {
	api        API
	kind       Kind
	interval   time.Duration
	adminToken string
	logf       func(format string, args ...any)

	onSession func(isAdmin bool)
	onVotes   func(api.VotesResponse)
	onStory   func(api.StoryResponse)
	onMeeting func(*api.MeetingResponse)

	mu       sync.Mutex
	state    State
	inflight map[resource]int
	// generation is bumped by every local write. A fetch started under an
	// older generation is dropped instead of applied.
	generation map[resource]uint64
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithVoterName(name string) Option {
	return func(p *Poller) {
		p.state.VoterName = strings.TrimSpace(name)
	}
}

// WithAdminToken is sent with the session lookup so State.IsAdmin reflects
// the caller's rights.
func WithAdminToken(token string) Option {
	return func(p *Poller) {
		p.adminToken = token
	}
}

func WithLogger(logf func(format string, args ...any)) Option {
	return func(p *Poller) {
		p.logf = logf
	}
}

// OnSession is called once the session lookup on load succeeded.
func OnSession(fn func(isAdmin bool)) Option {
	return func(p *Poller) {
		p.onSession = fn
	}
}

// OnVotes is called with every votes response that changed the view.
func OnVotes(fn func(api.VotesResponse)) Option {
	return func(p *Poller) {
		p.onVotes = fn
	}
}

func OnStory(fn func(api.StoryResponse)) Option {
	return func(p *Poller) {
		p.onStory = fn
	}
}

func OnMeeting(fn func(*api.MeetingResponse)) Option {
	return func(p *Poller) {
		p.onMeeting = fn
	}
}

func New(client API, kind Kind, opts ...Option) *Poller {
	p := &Poller{
		api:        client,
		kind:       kind,
		interval:   DefaultMultiInterval,
		logf:       log.Printf,
		inflight:   make(map[resource]int),
		generation: make(map[resource]uint64),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns a copy of the reconciliation state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run loads the session and fetches everything once, bypassing change
// detection, then ticks until ctx is done. An unknown session ends Run with
// ErrUnknownSession; other fetch failures are logged and retried on the next
// tick.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.load(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

func (p *Poller) load(ctx context.Context) error {
	if err := p.fetchSession(ctx); err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusNotFound {
			return ErrUnknownSession
		}
		p.logTick(err)
	}
	p.refresh(ctx, fetchMode{force: true})
	return nil
}

// Tick runs one scheduled poll.
func (p *Poller) Tick(ctx context.Context) {
	p.mu.Lock()
	plan, next := PlanTick(p.state)
	p.state = next
	p.mu.Unlock()

	if p.kind == Retro {
		if plan.Board {
			p.logTick(p.fetchMeeting(ctx, fetchMode{}))
		}
		return
	}
	if plan.Votes {
		p.logTick(p.fetchVotes(ctx, fetchMode{}))
	}
	if plan.Board {
		p.logTick(p.fetchStory(ctx, fetchMode{}))
	}
}

func (p *Poller) logTick(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logf("poll failed err=%v", err)
	}
}

// refresh fetches every board resource and returns the error of the story
// or meeting fetch, if any.
func (p *Poller) refresh(ctx context.Context, mode fetchMode) error {
	if p.kind == Retro {
		err := p.fetchMeeting(ctx, mode)
		p.logTick(err)
		return err
	}
	err := p.fetchStory(ctx, mode)
	p.logTick(err)
	p.logTick(p.fetchVotes(ctx, mode))
	return err
}

// begin marks r in flight and returns the generation the fetch belongs to.
// It returns false when a scheduled fetch finds one for r still outstanding,
// in which case the caller skips it.
func (p *Poller) begin(r resource, mode fetchMode) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight[r] > 0 && !mode.urgent {
		return 0, false
	}
	p.inflight[r]++
	return p.generation[r], true
}

func (p *Poller) end(r resource) {
	p.mu.Lock()
	p.inflight[r]--
	if p.inflight[r] <= 0 {
		delete(p.inflight, r)
	}
	p.mu.Unlock()
}

// current reports whether a fetch of r started under gen may still be
// applied. Callers hold p.mu.
func (p *Poller) current(r resource, gen uint64) bool {
	return p.generation[r] == gen
}

func (p *Poller) fetchSession(ctx context.Context) error {
	var isAdmin bool
	if p.kind == Retro {
		resp, err := p.api.RetroSession(ctx, p.adminToken)
		if err != nil {
			return err
		}
		isAdmin = resp.IsAdmin
	} else {
		resp, err := p.api.PokerSession(ctx, p.adminToken)
		if err != nil {
			return err
		}
		isAdmin = resp.IsAdmin
	}
	p.mu.Lock()
	p.state.SessionLoaded = true
	p.state.IsAdmin = isAdmin
	p.mu.Unlock()
	if p.onSession != nil {
		p.onSession(isAdmin)
	}
	return nil
}

func (p *Poller) fetchVotes(ctx context.Context, mode fetchMode) error {
	gen, ok := p.begin(resourceVotes, mode)
	if !ok {
		return nil
	}
	defer p.end(resourceVotes)
	resp, err := p.api.Votes(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if !p.current(resourceVotes, gen) {
		p.mu.Unlock()
		return nil
	}
	next, changed := ApplyVotes(p.state, resp, mode.force)
	p.state = next
	p.mu.Unlock()
	if changed && p.onVotes != nil {
		p.onVotes(resp)
	}
	return nil
}

func (p *Poller) fetchStory(ctx context.Context, mode fetchMode) error {
	gen, ok := p.begin(resourceStory, mode)
	if !ok {
		return nil
	}
	defer p.end(resourceStory)
	resp, err := p.api.Story(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if !p.current(resourceStory, gen) {
		p.mu.Unlock()
		return nil
	}
	next, changed := ApplyStory(p.state, resp, mode.force)
	p.state = next
	p.mu.Unlock()
	if changed && p.onStory != nil {
		p.onStory(resp)
	}
	return nil
}

func (p *Poller) fetchMeeting(ctx context.Context, mode fetchMode) error {
	gen, ok := p.begin(resourceMeeting, mode)
	if !ok {
		return nil
	}
	defer p.end(resourceMeeting)
	resp, err := p.api.Meeting(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if !p.current(resourceMeeting, gen) {
		p.mu.Unlock()
		return nil
	}
	next, changed := ApplyMeeting(p.state, resp, mode.force)
	p.state = next
	p.mu.Unlock()
	if changed && p.onMeeting != nil {
		p.onMeeting(resp)
	}
	return nil
}

// SetStoryInputFocused pauses board fetches while the user edits the story.
func (p *Poller) SetStoryInputFocused(focused bool) {
	p.mu.Lock()
	p.state.StoryInputFocused = focused
	p.mu.Unlock()
}

func (p *Poller) SelectVote(card string) {
	p.mu.Lock()
	p.state = SelectVote(p.state, card)
	p.mu.Unlock()
}

// ConfirmVote submits the selected card. On failure the selection is kept
// so the caller can retry.
func (p *Poller) ConfirmVote(ctx context.Context) error {
	p.mu.Lock()
	voter, card := p.state.VoterName, p.state.PendingVote
	p.mu.Unlock()
	if card == "" {
		return ErrNoPendingVote
	}
	if err := p.api.SubmitVote(ctx, voter, card); err != nil {
		return err
	}
	p.afterAction(ctx, ActionVote)
	return nil
}

func (p *Poller) CreateStory(ctx context.Context, adminToken, description string) error {
	if err := p.api.CreateStory(ctx, adminToken, description); err != nil {
		return err
	}
	p.afterAction(ctx, ActionStory)
	return nil
}

func (p *Poller) Reveal(ctx context.Context, adminToken string) error {
	if err := p.api.Reveal(ctx, adminToken); err != nil {
		return err
	}
	p.afterAction(ctx, ActionReveal)
	return nil
}

func (p *Poller) Reset(ctx context.Context, adminToken string) error {
	if err := p.api.Reset(ctx, adminToken); err != nil {
		return err
	}
	p.afterAction(ctx, ActionReset)
	return nil
}

func (p *Poller) NewStory(ctx context.Context, adminToken, description string) error {
	if err := p.api.NewStory(ctx, adminToken, description); err != nil {
		return err
	}
	p.afterAction(ctx, ActionNewStory)
	return nil
}

func (p *Poller) AddItem(ctx context.Context, columnID uint, content, authorName string) error {
	if err := p.api.AddItem(ctx, columnID, content, authorName); err != nil {
		return err
	}
	p.afterAction(ctx, ActionBoardEdit)
	return nil
}

// afterAction records the local write and pulls fresh state right away.
// Fetches already in flight were issued before the write, so their results
// are dropped. The next scheduled board fetch is only suppressed when the
// immediate one succeeded.
func (p *Poller) afterAction(ctx context.Context, action Action) {
	p.mu.Lock()
	p.state = AfterAction(p.state, action)
	for _, r := range boardResources {
		p.generation[r]++
	}
	p.mu.Unlock()
	if err := p.refresh(ctx, fetchMode{urgent: true}); err != nil {
		p.mu.Lock()
		p.state.SkipNextStoryPoll = false
		p.mu.Unlock()
	}
}
