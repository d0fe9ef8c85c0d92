package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"meda/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockEventRepository struct {
	events        map[string]*domain.Event
	upcoming      []*domain.EventWithCount
	seriesEvents  map[string][]*domain.EventWithCount
	created       []*domain.Event
	createdSeries [][]*domain.Event
	updatedPatch  *domain.EventPatch
	seriesPatch   *domain.EventPatch
	seriesUpdated int
	deleted       []string
	err           error
}

func (m *mockEventRepository) Create(ctx context.Context, e *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	e.ID = "ev-created"
	m.created = append(m.created, e)
	return nil
}

func (m *mockEventRepository) CreateSeries(ctx context.Context, events []*domain.Event) error {
	if m.err != nil {
		return m.err
	}
	m.createdSeries = append(m.createdSeries, events)
	return nil
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (m *mockEventRepository) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	return m.upcoming, len(m.upcoming), m.err
}

func (m *mockEventRepository) ListUpcoming(ctx context.Context, limit int) ([]*domain.EventWithCount, error) {
	return m.upcoming, m.err
}

func (m *mockEventRepository) ListByOwnerID(ctx context.Context, ownerID string, status domain.EventStatusFilter, params domain.PaginationParams) ([]*domain.EventWithCount, int, error) {
	return m.upcoming, len(m.upcoming), m.err
}

func (m *mockEventRepository) ListUpcomingBySeriesID(ctx context.Context, seriesID string, limit int) ([]*domain.EventWithCount, error) {
	return m.seriesEvents[seriesID], m.err
}

func (m *mockEventRepository) Update(ctx context.Context, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	m.updatedPatch = &patch
	e, ok := m.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (m *mockEventRepository) UpdateSeries(ctx context.Context, seriesID string, patch domain.EventPatch) (int, error) {
	m.seriesPatch = &patch
	return m.seriesUpdated, nil
}

func (m *mockEventRepository) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEventRepository) CountBySeriesID(ctx context.Context, seriesID string) (int, error) {
	return len(m.seriesEvents[seriesID]), nil
}

func (m *mockEventRepository) CountAll(ctx context.Context) (int, error) { return len(m.events), nil }

func (m *mockEventRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

func (m *mockEventRepository) CountSeries(ctx context.Context) (int, error) {
	return len(m.seriesEvents), nil
}

type registerCall struct {
	EventID         string
	UserID          string
	Quantity        int
	EnforceCapacity bool
}

type mockAttendeeRepository struct {
	countByEvent     map[string]int
	countByEventUser map[string]int // key "event:user"
	registered       []registerCall
	registerErr      error
	err              error
}

func (m *mockAttendeeRepository) RegisterBatch(ctx context.Context, eventID, userID string, quantity int, enforceCapacity bool) error {
	if m.registerErr != nil {
		return m.registerErr
	}
	m.registered = append(m.registered, registerCall{eventID, userID, quantity, enforceCapacity})
	return nil
}

func (m *mockAttendeeRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return m.countByEvent[eventID], m.err
}

func (m *mockAttendeeRepository) CountByEventAndUser(ctx context.Context, eventID, userID string) (int, error) {
	return m.countByEventUser[eventID+":"+userID], m.err
}

func (m *mockAttendeeRepository) CountsByUser(ctx context.Context, userID string) (map[string]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	counts := make(map[string]int)
	for key, n := range m.countByEventUser {
		eventID, uid, _ := cutKey(key)
		if uid == userID {
			counts[eventID] = n
		}
	}
	return counts, nil
}

func (m *mockAttendeeRepository) CountsByUserForEvents(ctx context.Context, userID string, eventIDs []string) (map[string]int, error) {
	all, err := m.CountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, id := range eventIDs {
		if n, ok := all[id]; ok {
			counts[id] = n
		}
	}
	return counts, nil
}

func (m *mockAttendeeRepository) CountAll(ctx context.Context) (int, error) { return 0, nil }

func (m *mockAttendeeRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

func cutKey(key string) (string, string, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i], key[i+1:], true
		}
	}
	return key, "", false
}

type mockInvitationRepository struct {
	byHash   map[string]*domain.Invitation
	reusable *domain.Invitation
	claims   map[string]bool // key "inv:user"

	created       *domain.Invitation
	reissued      bool
	reissueMax    int
	revokedOthers string // keepInvitationID
	markedExpired []string
	revoked       []string
	transfer      *domain.ClaimTransfer
	transferErr   error
}

func (m *mockInvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	inv.ID = "inv-created"
	m.created = inv
	return nil
}

func (m *mockInvitationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	inv, ok := m.byHash[tokenHash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (m *mockInvitationRepository) FindReusable(ctx context.Context, eventID, ownerUserID string) (*domain.Invitation, error) {
	if m.reusable == nil {
		return nil, domain.ErrNotFound
	}
	return m.reusable, nil
}

func (m *mockInvitationRepository) Reissue(ctx context.Context, invitationID, tokenHash string, maxClaims int, expiresAt time.Time) (*domain.Invitation, error) {
	m.reissued = true
	m.reissueMax = maxClaims
	inv := *m.reusable
	inv.TokenHash = tokenHash
	inv.Status = domain.InvitationActive
	inv.MaxClaims = maxClaims
	inv.ExpiresAt = expiresAt
	return &inv, nil
}

func (m *mockInvitationRepository) RevokeOthers(ctx context.Context, eventID, ownerUserID, keepInvitationID string) error {
	m.revokedOthers = keepInvitationID
	return nil
}

func (m *mockInvitationRepository) MarkExpired(ctx context.Context, invitationID string) error {
	m.markedExpired = append(m.markedExpired, invitationID)
	return nil
}

func (m *mockInvitationRepository) Revoke(ctx context.Context, invitationID string) error {
	m.revoked = append(m.revoked, invitationID)
	return nil
}

func (m *mockInvitationRepository) HasClaim(ctx context.Context, invitationID, userID string) (bool, error) {
	return m.claims[invitationID+":"+userID], nil
}

func (m *mockInvitationRepository) ClaimTransfer(ctx context.Context, transfer domain.ClaimTransfer) error {
	if m.transferErr != nil {
		return m.transferErr
	}
	m.transfer = &transfer
	return nil
}

type mockUserRepository struct {
	users       map[string]*domain.User
	usersByMail map[string]*domain.User
	created     *domain.User
	createErr   error
	banned      map[string]bool
	roles       map[string]string
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	u.ID = "user-created"
	m.created = u
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := m.usersByMail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepository) List(ctx context.Context, search string, params domain.PaginationParams) ([]*domain.User, int, error) {
	var users []*domain.User
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, len(users), nil
}

func (m *mockUserRepository) SetBanned(ctx context.Context, userID string, banned bool, reason *string) error {
	if _, ok := m.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	if m.banned == nil {
		m.banned = make(map[string]bool)
	}
	m.banned[userID] = banned
	return nil
}

func (m *mockUserRepository) SetRole(ctx context.Context, userID, role string) error {
	if _, ok := m.users[userID]; !ok {
		return domain.ErrUserNotFound
	}
	if m.roles == nil {
		m.roles = make(map[string]string)
	}
	m.roles[userID] = role
	return nil
}

func (m *mockUserRepository) CountAll(ctx context.Context) (int, error) { return len(m.users), nil }

type mockPaymentRepository struct {
	payments      map[string]*domain.Payment // key "txref:user"
	created       *domain.Payment
	confirmed     bool
	confirmCalled bool
	confirmErr    error
	markedFailed  []string
}

func (m *mockPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	p.ID = "pay-created"
	m.created = p
	return nil
}

func (m *mockPaymentRepository) GetByTxRefAndUser(ctx context.Context, txRef, userID string) (*domain.Payment, error) {
	p, ok := m.payments[txRef+":"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPaymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	m.markedFailed = append(m.markedFailed, paymentID)
	return nil
}

func (m *mockPaymentRepository) ConfirmWithRegistration(ctx context.Context, paymentID, eventID, userID string, quantity int, enforceCapacity bool) (bool, error) {
	m.confirmCalled = true
	if m.confirmErr != nil {
		return false, m.confirmErr
	}
	return m.confirmed, nil
}

type mockPaymentGateway struct {
	checkoutURL string
	initErr     error
	lastInit    *domain.GatewayCheckout
	paid        bool
	verifyErr   error
}

func (m *mockPaymentGateway) Initialize(ctx context.Context, checkout domain.GatewayCheckout) (string, error) {
	m.lastInit = &checkout
	if m.initErr != nil {
		return "", m.initErr
	}
	return m.checkoutURL, nil
}

func (m *mockPaymentGateway) Verify(ctx context.Context, txRef string) (bool, error) {
	return m.paid, m.verifyErr
}

type mockEmailService struct {
	sent []*domain.TicketConfirmationEmailData
	err  error
}

func (m *mockEmailService) SendTicketConfirmation(ctx context.Context, data *domain.TicketConfirmationEmailData) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, data)
	return nil
}

type mockHasher struct {
	compareErr error
}

func (m *mockHasher) GenerateSalt() (string, error) { return "salt", nil }
func (m *mockHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}
func (m *mockHasher) Compare(hash, salt, password string) error { return m.compareErr }

type mockTokenIssuer struct{}

func (m *mockTokenIssuer) Issue(userID, email, role string, expiry time.Duration) (string, error) {
	return "token-" + userID + "-" + role, nil
}
