package httpgin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rodetes/boxoffice/internal/domain"
	"github.com/rodetes/boxoffice/internal/repository"
	"github.com/rodetes/boxoffice/internal/service"
	"github.com/rodetes/boxoffice/internal/service/auth"
	"github.com/rodetes/boxoffice/internal/service/tickets"
)

type memTickets struct {
	mu      sync.Mutex
	byToken map[uuid.UUID]*domain.Ticket
	order   []uuid.UUID
	nextID  int64
}

func (m *memTickets) Insert(_ context.Context, t *domain.Ticket) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byToken[t.TicketID]; ok {
		return nil, fmt.Errorf("mem: %w", repository.ErrConflict)
	}

	m.nextID++
	stored := *t
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	m.byToken[t.TicketID] = &stored
	m.order = append(m.order, t.TicketID)

	cp := stored
	return &cp, nil
}

func (m *memTickets) GetByTicketID(_ context.Context, id uuid.UUID) (*domain.TicketWithEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byToken[id]
	if !ok {
		return nil, fmt.Errorf("mem: %w", repository.ErrNotFound)
	}

	return &domain.TicketWithEvent{Ticket: *t, EventTitle: "Gala Final"}, nil
}

func (m *memTickets) MarkScanned(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byToken[id]
	if !ok {
		return fmt.Errorf("mem: %w", repository.ErrNotFound)
	}
	if t.IsScanned {
		return fmt.Errorf("mem: %w", repository.ErrAlreadyScanned)
	}

	now := time.Now()
	t.IsScanned = true
	t.ScannedAt = &now
	return nil
}

func (m *memTickets) ListByEvent(_ context.Context, eventID int64) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Ticket
	for _, id := range m.order {
		if t := m.byToken[id]; t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTickets) ListAll(_ context.Context) ([]domain.TicketWithEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.TicketWithEvent
	for _, id := range m.order {
		out = append(out, domain.TicketWithEvent{Ticket: *m.byToken[id], EventTitle: "Gala Final"})
	}
	return out, nil
}

func (m *memTickets) CountByEvent(_ context.Context, eventID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, t := range m.byToken {
		if t.EventID == eventID {
			n++
		}
	}
	return n, nil
}

type memEvents struct{ events map[int64]*domain.Event }

func (m *memEvents) Get(_ context.Context, id int64) (*domain.Event, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("mem: %w", repository.ErrNotFound)
	}
	return e, nil
}

type memUsers struct{ byEmail map[string]*domain.User }

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("mem: %w", repository.ErrNotFound)
	}
	return u, nil
}

func (m *memUsers) Count(context.Context) (int64, error) {
	return int64(len(m.byEmail)), nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := &memTickets{byToken: make(map[uuid.UUID]*domain.Ticket)}
	events := &memEvents{events: map[int64]*domain.Event{
		1: {ID: 1, Title: "Gala Final", Availability: 100},
	}}

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &memUsers{byEmail: map[string]*domain.User{
		"staff@rodetes.com": {ID: 1, Email: "staff@rodetes.com", PasswordHash: string(hash)},
	}}

	svcs := &service.Services{
		Tickets: tickets.New(repo, events, logger, tickets.Config{}),
		Auth:    auth.New(users, auth.Config{Secret: "test-secret"}),
	}

	return NewRouter(svcs, nil, nil, logger)
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginStaff(t *testing.T, r *gin.Engine) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"email":    "staff@rodetes.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPurchaseFlow(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/tickets", "", gin.H{
		"event_id": 1,
		"email":    "ana@example.com",
		"name":     "Ana",
		"surname":  "Torres",
		"quantity": 2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp PurchaseTicketsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Tickets, 2)
	assert.NotEqual(t, resp.Tickets[0].TicketID, resp.Tickets[1].TicketID)
}

func TestPurchaseValidation(t *testing.T) {
	r := newTestRouter(t)

	// quantity missing fails binding
	w := doJSON(t, r, http.MethodPost, "/tickets", "", gin.H{
		"event_id": 1,
		"email":    "ana@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/tickets", "", gin.H{
		"event_id": 99,
		"email":    "ana@example.com",
		"quantity": 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScanRequiresAuth(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/tickets/scan", "", gin.H{"ticket_id": uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/tickets/scan", "garbage-token", gin.H{"ticket_id": uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScanLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	token := loginStaff(t, r)

	w := doJSON(t, r, http.MethodPost, "/tickets", "", gin.H{
		"event_id": 1,
		"email":    "ana@example.com",
		"quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var purchase PurchaseTicketsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &purchase))
	ticketID := purchase.Tickets[0].TicketID.String()

	// First scan admits.
	w = doJSON(t, r, http.MethodPost, "/tickets/scan", token, gin.H{"ticket_id": ticketID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var scan ScanTicketResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scan))
	assert.True(t, scan.Success)
	require.NotNil(t, scan.Ticket)
	assert.True(t, scan.Ticket.IsScanned)

	// Replay is refused but still shows the ticket.
	w = doJSON(t, r, http.MethodPost, "/tickets/scan", token, gin.H{"ticket_id": ticketID})
	require.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scan))
	assert.False(t, scan.Success)
	require.NotNil(t, scan.Ticket)
	assert.NotNil(t, scan.Ticket.ScannedAt)

	// Unknown token is a 404, not a replay conflict.
	w = doJSON(t, r, http.MethodPost, "/tickets/scan", token, gin.H{"ticket_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGiveawayOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	token := loginStaff(t, r)

	w := doJSON(t, r, http.MethodPost, "/tickets", "", gin.H{
		"event_id": 1,
		"email":    "ana@example.com",
		"quantity": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/tickets/giveaway/1?count=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var winners []domain.Winner
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &winners))
	require.Len(t, winners, 2)
	assert.NotEqual(t, winners[0].TicketID, winners[1].TicketID)

	// Event with no tickets.
	w = doJSON(t, r, http.MethodGet, "/tickets/giveaway/2", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTicketQROverHTTP(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/tickets", "", gin.H{
		"event_id": 1,
		"email":    "ana@example.com",
		"quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var purchase PurchaseTicketsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &purchase))

	w = doJSON(t, r, http.MethodGet, "/tickets/"+purchase.Tickets[0].TicketID.String()+"/qr", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = doJSON(t, r, http.MethodGet, "/tickets/"+uuid.NewString()+"/qr", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
