package tickets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
)

// fakeTicketRepo is an in-memory TicketRepo whose MarkScanned performs the
// same conditional flip the postgres implementation does, guarded by a
// mutex so concurrency tests exercise the real race.
type fakeTicketRepo struct {
	mu      sync.Mutex
	byToken map[uuid.UUID]*domain.Ticket
	order   []uuid.UUID
	nextID  int64

	insertCalls int
	scanCalls   int

	// failAfter, when > 0, makes Insert fail once insertCalls exceeds it.
	failAfter int
	// conflictsLeft makes the next N Inserts report a ticket_id collision.
	conflictsLeft int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byToken: make(map[uuid.UUID]*domain.Ticket)}
}

func (f *fakeTicketRepo) Insert(_ context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++

	if f.failAfter > 0 && f.insertCalls > f.failAfter {
		return nil, fmt.Errorf("fake: connection lost")
	}

	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return nil, fmt.Errorf("fake: %w", repository.ErrConflict)
	}

	if _, ok := f.byToken[t.TicketID]; ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrConflict)
	}

	f.nextID++
	stored := *t
	stored.ID = f.nextID
	stored.Quantity = 1
	stored.CreatedAt = time.Now()

	f.byToken[t.TicketID] = &stored
	f.order = append(f.order, t.TicketID)

	cp := stored
	return &cp, nil
}

func (f *fakeTicketRepo) GetByTicketID(_ context.Context, ticketID uuid.UUID) (*domain.TicketWithEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.byToken[ticketID]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}

	return &domain.TicketWithEvent{Ticket: *t, EventTitle: "Noche de Reinas"}, nil
}

func (f *fakeTicketRepo) MarkScanned(_ context.Context, ticketID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scanCalls++

	t, ok := f.byToken[ticketID]
	if !ok {
		return fmt.Errorf("fake: %w", repository.ErrNotFound)
	}

	if t.IsScanned {
		return fmt.Errorf("fake: %w", repository.ErrAlreadyScanned)
	}

	now := time.Now()
	t.IsScanned = true
	t.ScannedAt = &now

	return nil
}

func (f *fakeTicketRepo) ListByEvent(_ context.Context, eventID int64) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.Ticket
	for _, id := range f.order {
		if t := f.byToken[id]; t.EventID == eventID {
			out = append(out, *t)
		}
	}

	return out, nil
}

func (f *fakeTicketRepo) ListAll(_ context.Context) ([]domain.TicketWithEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []domain.TicketWithEvent
	for _, id := range f.order {
		out = append(out, domain.TicketWithEvent{Ticket: *f.byToken[id], EventTitle: "Noche de Reinas"})
	}

	return out, nil
}

func (f *fakeTicketRepo) CountByEvent(_ context.Context, eventID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, t := range f.byToken {
		if t.EventID == eventID {
			n++
		}
	}

	return n, nil
}

type fakeEvents struct {
	events map[int64]*domain.Event
}

func (f *fakeEvents) Get(_ context.Context, id int64) (*domain.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}

	return e, nil
}

func newTestService(t *testing.T) (*Service, *fakeTicketRepo) {
	t.Helper()

	repo := newFakeTicketRepo()
	events := &fakeEvents{events: map[int64]*domain.Event{
		1: {ID: 1, Title: "Noche de Reinas", Availability: 100},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return New(repo, events, logger, Config{}), repo
}

func testHolder() Holder {
	return Holder{Email: "ana@example.com", Name: "Ana", Surname: "Torres"}
}

func TestIssueCreatesIndependentTickets(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Issue(context.Background(), 1, testHolder(), 5)
	require.NoError(t, err)
	require.Len(t, created, 5)

	seen := make(map[uuid.UUID]bool)
	for _, tk := range created {
		assert.False(t, seen[tk.TicketID], "ticket_id repeated within one purchase")
		seen[tk.TicketID] = true

		assert.Equal(t, 1, tk.Quantity)
		assert.Equal(t, int64(1), tk.EventID)
		assert.Equal(t, "ana@example.com", tk.Email)
		assert.False(t, tk.IsScanned)
		assert.Nil(t, tk.ScannedAt)
	}
}

func TestIssueRejectsBadInput(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, 1, testHolder(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Issue(ctx, 1, testHolder(), 11)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Issue(ctx, 1, Holder{Email: "   "}, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, repo.insertCalls, "invalid input must not reach the store")
}

func TestIssueUnknownEvent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Issue(context.Background(), 42, testHolder(), 1)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestIssueKeepsPartialResultOnFailure(t *testing.T) {
	svc, repo := newTestService(t)
	repo.failAfter = 2

	created, err := svc.Issue(context.Background(), 1, testHolder(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created 2 of 5")
	require.Len(t, created, 2)

	// The two that made it are real, scannable tickets.
	for _, tk := range created {
		res, err := svc.Validate(context.Background(), tk.TicketID.String())
		require.NoError(t, err)
		assert.Equal(t, ScanValid, res.Status)
	}
}

func TestIssueRegeneratesOnCollision(t *testing.T) {
	svc, repo := newTestService(t)
	repo.conflictsLeft = 1

	created, err := svc.Issue(context.Background(), 1, testHolder(), 1)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 2, repo.insertCalls, "collision should cost one retry")
}

func TestValidateFirstScanWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Issue(ctx, 1, testHolder(), 1)
	require.NoError(t, err)
	token := created[0].TicketID.String()

	first, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ScanValid, first.Status)
	require.NotNil(t, first.Ticket.ScannedAt)
	assert.Equal(t, "Noche de Reinas", first.Ticket.EventTitle)

	second, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ScanAlreadyUsed, second.Status)
	require.NotNil(t, second.Ticket.ScannedAt)
	assert.Equal(t, *first.Ticket.ScannedAt, *second.Ticket.ScannedAt,
		"a replayed scan must not move scanned_at")
}

func TestValidateConcurrentScansAdmitOnce(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Issue(ctx, 1, testHolder(), 1)
	require.NoError(t, err)
	token := created[0].TicketID.String()

	const scanners = 32

	var wg sync.WaitGroup
	results := make([]ScanStatus, scanners)

	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Validate(ctx, token)
			if err == nil {
				results[i] = res.Status
			}
		}(i)
	}
	wg.Wait()

	valid := 0
	for _, st := range results {
		if st == ScanValid {
			valid++
		}
	}
	assert.Equal(t, 1, valid, "exactly one scanner may admit the holder")
}

func TestValidateUnknownToken(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	_, err := svc.Validate(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrTicketNotFound)

	// A token that is not even a UUID is rejected before the store.
	before := repo.scanCalls
	_, err = svc.Validate(ctx, "definitely-not-a-ticket")
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.Equal(t, before, repo.scanCalls)
}

func TestValidateAcceptsQRPayload(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Issue(ctx, 1, testHolder(), 1)
	require.NoError(t, err)

	raw := "  " + QRPrefix + created[0].TicketID.String() + "\n"
	res, err := svc.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, ScanValid, res.Status)
}

func TestDrawWithoutReplacement(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Issue(ctx, 1, testHolder(), 8)
	require.NoError(t, err)

	eligible := make(map[uuid.UUID]bool, len(created))
	for _, tk := range created {
		eligible[tk.TicketID] = true
	}

	winners, err := svc.Draw(ctx, 1, 3)
	require.NoError(t, err)
	require.Len(t, winners, 3)

	seen := make(map[uuid.UUID]bool)
	for _, w := range winners {
		assert.True(t, eligible[w.TicketID], "winner %s was never issued", w.TicketID)
		assert.False(t, seen[w.TicketID], "winner %s drawn twice", w.TicketID)
		seen[w.TicketID] = true
	}
}

func TestDrawClampsToPoolSize(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Issue(ctx, 1, testHolder(), 3)
	require.NoError(t, err)

	winners, err := svc.Draw(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, winners, 3)

	// count below 1 falls back to a single winner.
	winners, err = svc.Draw(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, winners, 1)
}

func TestDrawEmptyEvent(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Draw(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrNoTickets)
}

func TestDrawIncludesScannedTickets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Issue(ctx, 1, testHolder(), 2)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, created[0].TicketID.String())
	require.NoError(t, err)

	// With only two tickets, drawing both proves the scanned one stays
	// eligible.
	winners, err := svc.Draw(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, winners, 2)
}

func TestDrawEventuallyCoversPool(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Issue(ctx, 1, testHolder(), 4)
	require.NoError(t, err)

	hits := make(map[uuid.UUID]int, len(created))
	for i := 0; i < 200; i++ {
		winners, err := svc.Draw(ctx, 1, 1)
		require.NoError(t, err)
		hits[winners[0].TicketID]++
	}

	for _, tk := range created {
		assert.Positive(t, hits[tk.TicketID],
			"ticket %s never won in 200 single draws", tk.TicketID)
	}
}

func TestParseToken(t *testing.T) {
	id := uuid.New()

	cases := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"bare uuid", id.String(), true},
		{"qr payload", QRPrefix + id.String(), true},
		{"whitespace", "  " + QRPrefix + id.String() + "  ", true},
		{"garbage", "hello", false},
		{"empty", "", false},
		{"prefix only", QRPrefix, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseToken(tc.raw)
			if !tc.valid {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestQRCodePNG(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Issue(ctx, 1, testHolder(), 1)
	require.NoError(t, err)

	png, err := svc.QRCodePNG(ctx, created[0].TicketID.String(), 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")), "expected PNG magic bytes")

	_, err = svc.QRCodePNG(ctx, uuid.NewString(), 256)
	assert.ErrorIs(t, err, ErrTicketNotFound)
}
