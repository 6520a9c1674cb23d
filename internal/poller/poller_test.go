package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sprint-poker/internal/api"
)

type fakeAPI struct {
	mu         sync.Mutex
	votes      api.VotesResponse
	story      api.StoryResponse
	meeting    *api.MeetingResponse
	isAdmin    bool
	sessionErr error
	voteErr    error
	storyErr   error
	submitErr  error
	calls      map[string]int
	submitted  []string
	votesGate  chan struct{}
	votesEnter chan struct{}
	storyGate  chan struct{}
	storyEnter chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		votes: api.VotesResponse{Votes: map[string]string{}},
		calls: make(map[string]int),
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) PokerSession(ctx context.Context, adminToken string) (api.PokerSessionResponse, error) {
	f.record("poker_session")
	f.mu.Lock()
	defer f.mu.Unlock()
	return api.PokerSessionResponse{IsAdmin: f.isAdmin && adminToken != ""}, f.sessionErr
}

func (f *fakeAPI) RetroSession(ctx context.Context, adminToken string) (api.RetroSessionResponse, error) {
	f.record("retro_session")
	f.mu.Lock()
	defer f.mu.Unlock()
	return api.RetroSessionResponse{IsAdmin: f.isAdmin && adminToken != ""}, f.sessionErr
}

func (f *fakeAPI) Votes(ctx context.Context) (api.VotesResponse, error) {
	f.record("votes")
	if f.votesEnter != nil {
		f.votesEnter <- struct{}{}
		<-f.votesGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.votes, f.voteErr
}

func (f *fakeAPI) Story(ctx context.Context) (api.StoryResponse, error) {
	f.record("story")
	f.mu.Lock()
	resp, err := f.story, f.storyErr
	enter, gate := f.storyEnter, f.storyGate
	f.mu.Unlock()
	if enter != nil {
		enter <- struct{}{}
		<-gate
	}
	return resp, err
}

func (f *fakeAPI) Meeting(ctx context.Context) (*api.MeetingResponse, error) {
	f.record("meeting")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meeting, nil
}

func (f *fakeAPI) SubmitVote(ctx context.Context, voterName, value string) error {
	f.record("submit")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, voterName+"="+value)
	return nil
}

func (f *fakeAPI) CreateStory(ctx context.Context, adminToken, description string) error {
	f.record("create_story")
	f.mu.Lock()
	defer f.mu.Unlock()
	var id uint = 1
	if f.story.ID != nil {
		id = *f.story.ID + 1
	}
	f.story = api.StoryResponse{ID: &id, Description: description, LastUpdated: int64(id) * 100}
	return nil
}

func (f *fakeAPI) Reveal(ctx context.Context, adminToken string) error {
	f.record("reveal")
	f.mu.Lock()
	f.votes.IsRevealed = true
	f.votes.LastUpdated++
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) Reset(ctx context.Context, adminToken string) error {
	f.record("reset")
	return nil
}

func (f *fakeAPI) NewStory(ctx context.Context, adminToken, description string) error {
	f.record("new_story")
	return nil
}

func (f *fakeAPI) AddItem(ctx context.Context, columnID uint, content, authorName string) error {
	f.record("add_item")
	return nil
}

func quietLogger(string, ...any) {}

func TestTickAppliesOnlyChanges(t *testing.T) {
	fake := newFakeAPI()
	applied := 0
	p := New(fake, Poker, WithLogger(quietLogger), OnVotes(func(api.VotesResponse) { applied++ }))
	ctx := context.Background()

	if err := p.load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Tick(ctx)
	p.Tick(ctx)
	if applied != 1 {
		t.Fatalf("expected only the forced fetch to apply, got %d", applied)
	}

	fake.mu.Lock()
	fake.votes = api.VotesResponse{Votes: map[string]string{"bob": "3"}, VoteCount: 1, LastUpdated: 50}
	fake.mu.Unlock()
	p.Tick(ctx)
	if applied != 2 {
		t.Fatalf("expected changed votes to apply, got %d", applied)
	}
}

func TestTickSkipsResourceInFlight(t *testing.T) {
	fake := newFakeAPI()
	fake.votesGate = make(chan struct{})
	fake.votesEnter = make(chan struct{})
	p := New(fake, Poker, WithLogger(quietLogger))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		_ = p.fetchVotes(ctx, fetchMode{})
		close(done)
	}()
	<-fake.votesEnter

	fake.votesEnter = nil
	p.Tick(ctx)
	if got := fake.count("votes"); got != 1 {
		t.Fatalf("expected overlapping votes fetch to be skipped, got %d calls", got)
	}
	if got := fake.count("story"); got != 1 {
		t.Fatalf("expected story fetch to proceed, got %d calls", got)
	}
	close(fake.votesGate)
	<-done
}

func TestFailedVoteKeepsPendingVote(t *testing.T) {
	fake := newFakeAPI()
	fake.submitErr = errors.New("server down")
	p := New(fake, Poker, WithLogger(quietLogger), WithVoterName("alice"))
	ctx := context.Background()

	if err := p.ConfirmVote(ctx); !errors.Is(err, ErrNoPendingVote) {
		t.Fatalf("expected no pending vote, got %v", err)
	}
	p.SelectVote("8")
	if err := p.ConfirmVote(ctx); err == nil {
		t.Fatalf("expected submit failure to surface")
	}
	if p.State().PendingVote != "8" {
		t.Fatalf("expected pending vote to be kept for retry")
	}

	fake.mu.Lock()
	fake.submitErr = nil
	fake.mu.Unlock()
	if err := p.ConfirmVote(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	state := p.State()
	if state.PendingVote != "" || !state.SkipNextStoryPoll {
		t.Fatalf("unexpected state after vote %+v", state)
	}
	if len(fake.submitted) != 1 || fake.submitted[0] != "alice=8" {
		t.Fatalf("unexpected submissions %v", fake.submitted)
	}
}

func TestActionFetchesImmediatelyAndSuppressesNextStoryPoll(t *testing.T) {
	fake := newFakeAPI()
	p := New(fake, Poker, WithLogger(quietLogger))
	ctx := context.Background()

	if err := p.Reveal(ctx, "token"); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if fake.count("votes") != 1 || fake.count("story") != 1 {
		t.Fatalf("expected an immediate fetch, got %v", fake.calls)
	}
	if !p.State().Revealed {
		t.Fatalf("expected reveal to be observed")
	}

	p.Tick(ctx)
	if fake.count("story") != 1 {
		t.Fatalf("expected the next story poll to be suppressed")
	}
	if fake.count("votes") != 1 {
		t.Fatalf("expected revealed votes not to be polled")
	}
	p.Tick(ctx)
	if fake.count("story") != 2 {
		t.Fatalf("expected story polling to resume")
	}
}

func TestFailedCheckIsRetriedOnNextTick(t *testing.T) {
	fake := newFakeAPI()
	fake.votes.IsRevealed = true
	p := New(fake, Poker, WithLogger(quietLogger))
	ctx := context.Background()
	if err := p.load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	fake.mu.Lock()
	fake.voteErr = errors.New("timeout")
	fake.mu.Unlock()
	if err := p.Reset(ctx, "token"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !p.State().CheckVotes {
		t.Fatalf("expected check flag to survive a failed fetch")
	}

	fake.mu.Lock()
	fake.voteErr = nil
	fake.votes = api.VotesResponse{Votes: map[string]string{}, LastUpdated: 99}
	fake.mu.Unlock()
	p.Tick(ctx)
	state := p.State()
	if state.CheckVotes || state.Revealed {
		t.Fatalf("expected reset to be observed on the next tick, got %+v", state)
	}
}

func TestRetroPollerFetchesMeeting(t *testing.T) {
	fake := newFakeAPI()
	fake.meeting = &api.MeetingResponse{ID: 1, LastUpdated: 10, ColumnCount: 3}
	var seen []*api.MeetingResponse
	p := New(fake, Retro, WithLogger(quietLogger), OnMeeting(func(m *api.MeetingResponse) { seen = append(seen, m) }))
	ctx := context.Background()

	if err := p.load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Tick(ctx)
	if len(seen) != 1 || fake.count("votes") != 0 {
		t.Fatalf("expected one meeting update and no vote polling, got %d", len(seen))
	}
	if err := p.AddItem(ctx, 1, "hello", "alice"); err != nil {
		t.Fatalf("add item: %v", err)
	}
	p.Tick(ctx)
	if fake.count("meeting") != 3 {
		t.Fatalf("expected suppressed tick after the edit, got %d meeting fetches", fake.count("meeting"))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := newFakeAPI()
	p := New(fake, Poker, WithLogger(quietLogger), WithInterval(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := p.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if fake.count("votes") < 2 {
		t.Fatalf("expected forced fetch plus ticks, got %d", fake.count("votes"))
	}
}

func TestIntervalFor(t *testing.T) {
	if got := IntervalFor("global00", DefaultSingleInterval, DefaultMultiInterval); got != DefaultSingleInterval {
		t.Fatalf("expected single-board interval, got %s", got)
	}
	if got := IntervalFor("ABCD1234", DefaultSingleInterval, DefaultMultiInterval); got != DefaultMultiInterval {
		t.Fatalf("expected multi-session interval, got %s", got)
	}
}

func TestActionDropsFetchIssuedBeforeWrite(t *testing.T) {
	fake := newFakeAPI()
	first := uint(1)
	fake.story = api.StoryResponse{ID: &first, Description: "Login", LastUpdated: 100}
	var seen []uint
	p := New(fake, Poker, WithLogger(quietLogger), OnStory(func(resp api.StoryResponse) {
		if resp.ID != nil {
			seen = append(seen, *resp.ID)
		}
	}))
	ctx := context.Background()

	enter, gate := make(chan struct{}), make(chan struct{})
	fake.mu.Lock()
	fake.storyEnter, fake.storyGate = enter, gate
	fake.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.Tick(ctx)
		close(done)
	}()
	<-enter

	fake.mu.Lock()
	fake.storyEnter, fake.storyGate = nil, nil
	fake.mu.Unlock()
	if err := p.CreateStory(ctx, "token", "Checkout"); err != nil {
		t.Fatalf("create story: %v", err)
	}
	if got := p.State().LastStoryID; got != 2 {
		t.Fatalf("expected the immediate fetch to apply story 2, got %d", got)
	}

	close(gate)
	<-done
	if got := p.State().LastStoryID; got != 2 {
		t.Fatalf("expected the earlier fetch to be dropped, got story %d", got)
	}

	p.Tick(ctx)
	if got := p.State().LastStoryID; got != 2 {
		t.Fatalf("expected story 2 after the next tick, got %d", got)
	}
	if fake.count("story") != 2 {
		t.Fatalf("expected tick plus immediate fetch only, got %d", fake.count("story"))
	}
	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("expected only story 2 to be reported, got %v", seen)
	}
}

func TestFailedImmediateFetchDoesNotSuppressNextPoll(t *testing.T) {
	fake := newFakeAPI()
	fake.storyErr = errors.New("timeout")
	p := New(fake, Poker, WithLogger(quietLogger))
	ctx := context.Background()

	if err := p.CreateStory(ctx, "token", "Checkout"); err != nil {
		t.Fatalf("create story: %v", err)
	}
	if p.State().SkipNextStoryPoll {
		t.Fatalf("expected no suppression after a failed immediate fetch")
	}

	fake.mu.Lock()
	fake.storyErr = nil
	fake.mu.Unlock()
	p.Tick(ctx)
	if got := p.State().LastStoryID; got != 1 {
		t.Fatalf("expected the next tick to pick up the story, got %d", got)
	}
}

func TestLoadFetchesSession(t *testing.T) {
	fake := newFakeAPI()
	fake.isAdmin = true
	p := New(fake, Poker, WithLogger(quietLogger), WithAdminToken("secret"))
	if err := p.load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	state := p.State()
	if !state.SessionLoaded || !state.IsAdmin {
		t.Fatalf("expected admin session info, got %+v", state)
	}
	if fake.count("poker_session") != 1 || fake.count("story") != 1 || fake.count("votes") != 1 {
		t.Fatalf("expected session, story and votes on load, got %v", fake.calls)
	}

	retro := New(newFakeAPI(), Retro, WithLogger(quietLogger))
	if err := retro.load(context.Background()); err != nil {
		t.Fatalf("retro load: %v", err)
	}
	if state := retro.State(); !state.SessionLoaded || state.IsAdmin {
		t.Fatalf("expected non-admin retro session, got %+v", state)
	}
}

func TestRunStopsOnUnknownSession(t *testing.T) {
	fake := newFakeAPI()
	fake.sessionErr = &StatusError{Status: 404, Message: "Session not found"}
	p := New(fake, Poker, WithLogger(quietLogger), WithInterval(time.Millisecond))

	if err := p.Run(context.Background()); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected unknown session, got %v", err)
	}
	if fake.count("votes") != 0 {
		t.Fatalf("expected no board fetches for an unknown session")
	}
}
