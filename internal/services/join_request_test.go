package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventsocials/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockEventRepository struct {
	events     map[string]*domain.Event
	err        error
	listErr    error
	created    *domain.Event
	lastFilter domain.EventFilter
}

func (m *mockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	m.created = event
	return m.err
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventRepository) List(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return []*domain.Event{}, nil
}

type mockUserRepository struct {
	users map[string]*domain.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error { return nil }

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockJoinRequestRepository struct {
	byID          map[string]*domain.JoinRequest
	byPair        map[string]*domain.JoinRequest // eventID:userID
	nextID        string
	createErr     error
	casUpdated    bool
	casWinner     domain.JoinRequestStatus
	casErr        error
	casCalls      int
	createdStatus domain.JoinRequestStatus
}

func (m *mockJoinRequestRepository) Create(ctx context.Context, jr *domain.JoinRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	jr.ID = m.nextID
	m.createdStatus = jr.Status
	if m.byID == nil {
		m.byID = map[string]*domain.JoinRequest{}
	}
	m.byID[jr.ID] = jr
	return nil
}

func (m *mockJoinRequestRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	jr, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return jr, nil
}

func (m *mockJoinRequestRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.JoinRequest, error) {
	jr, ok := m.byPair[eventID+":"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return jr, nil
}

func (m *mockJoinRequestRepository) UpdateStatusIfPending(ctx context.Context, id string, status domain.JoinRequestStatus) (bool, error) {
	m.casCalls++
	if m.casErr != nil {
		return false, m.casErr
	}
	if m.casUpdated {
		m.byID[id].Status = status
	} else if m.casWinner != "" {
		m.byID[id].Status = m.casWinner
	}
	return m.casUpdated, nil
}

// mockCodec encodes actions into a readable pipe-joined form so tests can
// assert on distinct, decodable tokens without real crypto.
type mockCodec struct{}

func (mockCodec) Encode(a domain.JoinAction) (string, error) {
	return strings.Join([]string{a.Sender, a.Receiver, string(a.Status), a.JoinID}, "|"), nil
}

func (mockCodec) Decode(token string) (domain.JoinAction, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 4 {
		return domain.JoinAction{}, domain.ErrInvalidToken
	}
	return domain.JoinAction{
		Sender:   parts[0],
		Receiver: parts[1],
		Status:   domain.JoinRequestStatus(parts[2]),
		JoinID:   parts[3],
	}, nil
}

type mockPublisher struct {
	published []*domain.NotificationMessage
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg *domain.NotificationMessage) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

func fixtures() (*mockEventRepository, *mockUserRepository, *mockJoinRequestRepository) {
	alice := &domain.User{ID: "user-alice", FullName: "Alice", Email: "alice@x.com"}
	bob := &domain.User{ID: "user-bob", FullName: "Bob", Email: "bob@x.com"}
	events := &mockEventRepository{events: map[string]*domain.Event{
		"ev-7": {ID: "ev-7", Title: "GopherCon", CreatorID: alice.ID, Creator: alice},
	}}
	users := &mockUserRepository{users: map[string]*domain.User{
		alice.ID: alice,
		bob.ID:   bob,
	}}
	joins := &mockJoinRequestRepository{nextID: "jr-1", byID: map[string]*domain.JoinRequest{}}
	return events, users, joins
}

func TestJoinRequestService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending request and queues one notification with two decodable tokens", func(t *testing.T) {
		events, users, joins := fixtures()
		pub := &mockPublisher{}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		jr, err := svc.Send(ctx, "ev-7", "user-bob")
		require.NoError(t, err)
		require.Equal(t, "jr-1", jr.ID)
		assert.Equal(t, domain.JoinRequestPending, jr.Status)
		assert.Equal(t, domain.JoinRequestPending, joins.createdStatus)

		require.Len(t, pub.published, 1)
		msg := pub.published[0]
		assert.Equal(t, domain.JoinRequestPending, msg.Type)
		assert.Equal(t, "GopherCon", msg.Title)
		assert.Equal(t, "alice@x.com", msg.Recipient)
		assert.Equal(t, "Bob", msg.RequesterName)
		assert.NotEqual(t, msg.Accept, msg.Deny)

		accept, err := mockCodec{}.Decode(msg.Accept)
		require.NoError(t, err)
		assert.Equal(t, domain.JoinAction{Sender: "alice@x.com", Receiver: "bob@x.com", Status: domain.JoinRequestAccepted, JoinID: "jr-1"}, accept)

		deny, err := mockCodec{}.Decode(msg.Deny)
		require.NoError(t, err)
		assert.Equal(t, domain.JoinRequestRejected, deny.Status)
		assert.Equal(t, "jr-1", deny.JoinID)
	})

	t.Run("missing event and missing user share one NotFound", func(t *testing.T) {
		events, users, joins := fixtures()
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, &mockPublisher{}, testLogger)

		_, err := svc.Send(ctx, "ev-missing", "user-bob")
		require.ErrorIs(t, err, domain.ErrNotFound)

		_, err = svc.Send(ctx, "ev-7", "user-missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("existing request blocks regardless of status", func(t *testing.T) {
		for _, status := range []domain.JoinRequestStatus{
			domain.JoinRequestPending,
			domain.JoinRequestAccepted,
			domain.JoinRequestRejected,
		} {
			events, users, joins := fixtures()
			joins.byPair = map[string]*domain.JoinRequest{
				"ev-7:user-bob": {ID: "jr-0", EventID: "ev-7", UserID: "user-bob", Status: status},
			}
			pub := &mockPublisher{}
			svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

			_, err := svc.Send(ctx, "ev-7", "user-bob")
			require.ErrorIs(t, err, domain.ErrConflict, "status %s", status)
			assert.Empty(t, pub.published)
		}
	})

	t.Run("persistence failure aborts before minting or publishing", func(t *testing.T) {
		events, users, joins := fixtures()
		joins.createErr = errors.New("insert failed")
		pub := &mockPublisher{}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		_, err := svc.Send(ctx, "ev-7", "user-bob")
		require.Error(t, err)
		require.NotErrorIs(t, err, domain.ErrNotificationFailed)
		assert.Empty(t, pub.published)
	})

	t.Run("publish failure surfaces degraded outcome with persisted record", func(t *testing.T) {
		events, users, joins := fixtures()
		pub := &mockPublisher{err: errors.New("broker unreachable")}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		jr, err := svc.Send(ctx, "ev-7", "user-bob")
		require.ErrorIs(t, err, domain.ErrNotificationFailed)
		require.NotNil(t, jr)
		assert.Equal(t, "jr-1", jr.ID)
		assert.Contains(t, joins.byID, "jr-1")
	})
}

func encodeToken(t *testing.T, sender string, status domain.JoinRequestStatus, joinID string) string {
	t.Helper()
	token, err := mockCodec{}.Encode(domain.JoinAction{Sender: sender, Receiver: "bob@x.com", Status: status, JoinID: joinID})
	require.NoError(t, err)
	return token
}

func TestJoinRequestService_Resolve(t *testing.T) {
	ctx := context.Background()

	pendingRequest := func(joins *mockJoinRequestRepository) {
		joins.byID["jr-1"] = &domain.JoinRequest{
			ID: "jr-1", EventID: "ev-7", UserID: "user-bob",
			Status: domain.JoinRequestPending, CreatedAt: time.Now(),
		}
	}

	t.Run("accept token transitions pending to accepted and notifies requester", func(t *testing.T) {
		events, users, joins := fixtures()
		pendingRequest(joins)
		joins.casUpdated = true
		pub := &mockPublisher{}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		jr, err := svc.Resolve(ctx, encodeToken(t, "alice@x.com", domain.JoinRequestAccepted, "jr-1"))
		require.NoError(t, err)
		assert.Equal(t, domain.JoinRequestAccepted, jr.Status)

		require.Len(t, pub.published, 1)
		msg := pub.published[0]
		assert.Equal(t, domain.JoinRequestAccepted, msg.Type)
		assert.Equal(t, "bob@x.com", msg.Recipient)
		assert.Empty(t, msg.Accept)
		assert.Empty(t, msg.Deny)
	})

	t.Run("invalid token is a no-op", func(t *testing.T) {
		events, users, joins := fixtures()
		pendingRequest(joins)
		pub := &mockPublisher{}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		_, err := svc.Resolve(ctx, "garbage")
		require.ErrorIs(t, err, domain.ErrInvalidToken)
		assert.Equal(t, domain.JoinRequestPending, joins.byID["jr-1"].Status)
		assert.Zero(t, joins.casCalls)
		assert.Empty(t, pub.published)
	})

	t.Run("unknown join id is NotFound", func(t *testing.T) {
		events, users, joins := fixtures()
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, &mockPublisher{}, testLogger)

		_, err := svc.Resolve(ctx, encodeToken(t, "alice@x.com", domain.JoinRequestAccepted, "jr-missing"))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("sender other than current creator is Forbidden and changes nothing", func(t *testing.T) {
		events, users, joins := fixtures()
		pendingRequest(joins)
		pub := &mockPublisher{}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		_, err := svc.Resolve(ctx, encodeToken(t, "mallory@x.com", domain.JoinRequestAccepted, "jr-1"))
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, domain.JoinRequestPending, joins.byID["jr-1"].Status)
		assert.Zero(t, joins.casCalls)
		assert.Empty(t, pub.published)
	})

	t.Run("re-presenting a token after resolution is idempotent and does not re-notify", func(t *testing.T) {
		events, users, joins := fixtures()
		joins.byID["jr-1"] = &domain.JoinRequest{
			ID: "jr-1", EventID: "ev-7", UserID: "user-bob",
			Status: domain.JoinRequestAccepted,
		}
		pub := &mockPublisher{}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		// Same decision again.
		jr, err := svc.Resolve(ctx, encodeToken(t, "alice@x.com", domain.JoinRequestAccepted, "jr-1"))
		require.NoError(t, err)
		assert.Equal(t, domain.JoinRequestAccepted, jr.Status)

		// Opposite decision must not overwrite the terminal state.
		jr, err = svc.Resolve(ctx, encodeToken(t, "alice@x.com", domain.JoinRequestRejected, "jr-1"))
		require.NoError(t, err)
		assert.Equal(t, domain.JoinRequestAccepted, jr.Status)

		assert.Zero(t, joins.casCalls)
		assert.Empty(t, pub.published)
	})

	t.Run("losing the conditional write returns the winner's state without publishing", func(t *testing.T) {
		events, users, joins := fixtures()
		pendingRequest(joins)
		// The record reads as pending, but a concurrent accept lands before
		// our conditional write: the CAS reports no row updated and flips
		// the stored record to the winner's state.
		joins.casUpdated = false
		joins.casWinner = domain.JoinRequestAccepted
		pub := &mockPublisher{}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		jr, err := svc.Resolve(ctx, encodeToken(t, "alice@x.com", domain.JoinRequestRejected, "jr-1"))
		require.NoError(t, err)
		assert.Equal(t, domain.JoinRequestAccepted, jr.Status, "the first terminal write wins")
		assert.Equal(t, 1, joins.casCalls)
		assert.Empty(t, pub.published, "the loser must not notify")
	})

	t.Run("publish failure after transition surfaces degraded outcome", func(t *testing.T) {
		events, users, joins := fixtures()
		pendingRequest(joins)
		joins.casUpdated = true
		pub := &mockPublisher{err: errors.New("broker unreachable")}
		svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

		jr, err := svc.Resolve(ctx, encodeToken(t, "alice@x.com", domain.JoinRequestRejected, "jr-1"))
		require.ErrorIs(t, err, domain.ErrNotificationFailed)
		require.NotNil(t, jr)
		assert.Equal(t, domain.JoinRequestRejected, jr.Status)
	})
}

func TestJoinRequestService_SendThenResolveScenario(t *testing.T) {
	// Event ev-7 created by alice@x.com; bob requests to join; the accept
	// token resolves the request; the deny token afterwards is a no-op.
	ctx := context.Background()
	events, users, joins := fixtures()
	joins.casUpdated = true
	pub := &mockPublisher{}
	svc := NewJoinRequestService(events, users, joins, mockCodec{}, pub, testLogger)

	jr, err := svc.Send(ctx, "ev-7", "user-bob")
	require.NoError(t, err)
	require.Equal(t, domain.JoinRequestPending, jr.Status)
	require.Len(t, pub.published, 1)
	pendingMsg := pub.published[0]

	resolved, err := svc.Resolve(ctx, pendingMsg.Accept)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestAccepted, resolved.Status)
	require.Len(t, pub.published, 2)
	assert.Equal(t, domain.JoinRequestAccepted, pub.published[1].Type)

	// Deny token after the fact: terminal record back, no error, no third message.
	after, err := svc.Resolve(ctx, pendingMsg.Deny)
	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestAccepted, after.Status)
	assert.Len(t, pub.published, 2)

	// A duplicate Send attempt now conflicts.
	joins.byPair = map[string]*domain.JoinRequest{"ev-7:user-bob": joins.byID["jr-1"]}
	_, err = svc.Send(ctx, "ev-7", "user-bob")
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestJoinRequestService_ResolveWrapsRepoErrors(t *testing.T) {
	ctx := context.Background()
	events, users, joins := fixtures()
	joins.byID["jr-1"] = &domain.JoinRequest{ID: "jr-1", EventID: "ev-7", UserID: "user-bob", Status: domain.JoinRequestPending}
	joins.casErr = fmt.Errorf("deadlock")
	svc := NewJoinRequestService(events, users, joins, mockCodec{}, &mockPublisher{}, testLogger)

	_, err := svc.Resolve(ctx, encodeToken(t, "alice@x.com", domain.JoinRequestAccepted, "jr-1"))
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrInvalidToken)
}
