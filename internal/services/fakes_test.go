package services

import (
	"context"
	"sync"
	"time"

	"erpcore/internal/domain"
)

// fakeTokenRepo implements domain.TokenRepository in memory with the
// same consume-exactly-once guarantee the Postgres conditional update
// provides.
type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.Token
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*domain.Token)}
}

func (f *fakeTokenRepo) Create(ctx context.Context, t *domain.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tokens[t.ID] = &cp
	return nil
}

func (f *fakeTokenRepo) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokenRepo) Consume(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return domain.ErrTokenInvalid
	}
	if t.ConsumedAt != nil {
		return domain.ErrTokenAlreadyUsed
	}
	if !t.ExpiresAt.After(time.Now()) {
		return domain.ErrTokenExpired
	}
	now := time.Now()
	t.ConsumedAt = &now
	return nil
}

func (f *fakeTokenRepo) CheckLive(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return domain.ErrTokenInvalid
	}
	if t.ConsumedAt != nil {
		return domain.ErrTokenAlreadyUsed
	}
	if !t.ExpiresAt.After(time.Now()) {
		return domain.ErrTokenExpired
	}
	return nil
}

// fakeInvitationRepo implements domain.InvitationRepository for tests.
type fakeInvitationRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Invitation
	expireRet int64
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{byID: make(map[string]*domain.Invitation)}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.CompanyID == inv.CompanyID && existing.Email == inv.Email && existing.Status == domain.InvitationPending {
			return domain.ErrDuplicateActiveInvite
		}
	}
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrInvitationNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) FindPending(ctx context.Context, companyID, email string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byID {
		if inv.CompanyID == companyID && inv.Email == email && inv.Status == domain.InvitationPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrInvitationNotFound
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return domain.ErrInvitationNotFound
	}
	inv.Status = status
	return nil
}

func (f *fakeInvitationRepo) ListByCompanyID(ctx context.Context, companyID string) ([]*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Invitation
	for _, inv := range f.byID {
		if inv.CompanyID == companyID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) MarkExpiredPending(ctx context.Context) (int64, error) {
	return f.expireRet, nil
}

// fakeProfileRepo implements domain.StaffProfileRepository for tests.
type fakeProfileRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.StaffProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{byID: make(map[string]*domain.StaffProfile)}
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *domain.StaffProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*domain.StaffProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrStaffProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfileRepo) GetByInvitationID(ctx context.Context, invitationID string) (*domain.StaffProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.InvitationID == invitationID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrStaffProfileNotFound
}

func (f *fakeProfileRepo) Update(ctx context.Context, p *domain.StaffProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[p.ID]; !ok {
		return domain.ErrStaffProfileNotFound
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.nextID++
	u.ID = "user-" + string(rune('0'+f.nextID))
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	f.byEmail[u.Email] = &cp
	return nil
}

// fakeResetRepo implements domain.PasswordResetRequestRepository for tests.
type fakeResetRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.PasswordResetRequest
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{byID: make(map[string]*domain.PasswordResetRequest)}
}

func (f *fakeResetRepo) Create(ctx context.Context, req *domain.PasswordResetRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.byID[req.ID] = &cp
	return nil
}

func (f *fakeResetRepo) GetLiveByUserID(ctx context.Context, userID string) (*domain.PasswordResetRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.byID {
		if req.UserID == userID && req.ClosedAt == nil {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeResetRepo) CloseByTokenID(ctx context.Context, tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.byID {
		if req.TokenID == tokenID && req.ClosedAt == nil {
			now := time.Now()
			req.ClosedAt = &now
		}
	}
	return nil
}

// fakeEmailService records sent emails.
type fakeEmailService struct {
	mu         sync.Mutex
	invites    []*domain.StaffInviteEmailData
	resets     []*domain.PasswordResetEmailData
	sendErr    error
}

func (f *fakeEmailService) SendStaffInvite(ctx context.Context, data *domain.StaffInviteEmailData) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, data)
	return nil
}

func (f *fakeEmailService) SendPasswordReset(ctx context.Context, data *domain.PasswordResetEmailData) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, data)
	return nil
}

// fakeProvider implements domain.IdentityProvider. Errors are popped
// off the front of the queues, so a transient failure followed by
// success can be scripted.
type fakeProvider struct {
	mu         sync.Mutex
	createErrs []error
	updateErrs []error
	created    map[string]string // accountID -> password
	updated    map[string]string
	nextID     int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		created: make(map[string]string),
		updated: make(map[string]string),
	}
}

func (f *fakeProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return "", err
		}
	}
	f.nextID++
	id := "acc-" + string(rune('0'+f.nextID))
	f.created[id] = password
	return id, nil
}

func (f *fakeProvider) UpdatePassword(ctx context.Context, accountID, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updateErrs) > 0 {
		err := f.updateErrs[0]
		f.updateErrs = f.updateErrs[1:]
		if err != nil {
			return err
		}
	}
	f.updated[accountID] = password
	return nil
}

func (f *fakeProvider) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, pw := range f.created {
		if pw == password {
			return id, nil
		}
	}
	return "", domain.ErrUserNotFound
}
