package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
	"github.com/whisperbox/whisperbox-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Pending registrations
// ---------------------------------------------------------------------------

type stubPendingRepo struct {
	mu         sync.Mutex
	byUsername map[string]*domain.PendingRegistration
	createErr  error
}

func newStubPendingRepo() *stubPendingRepo {
	return &stubPendingRepo{byUsername: make(map[string]*domain.PendingRegistration)}
}

func clonePending(p *domain.PendingRegistration) *domain.PendingRegistration {
	c := *p
	return &c
}

func (r *stubPendingRepo) Create(_ context.Context, p *domain.PendingRegistration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byUsername[p.Username]; ok {
		return domain.ErrDuplicateUsername
	}
	for _, existing := range r.byUsername {
		if existing.Email == p.Email {
			return domain.ErrDuplicateEmail
		}
	}
	r.byUsername[p.Username] = clonePending(p)
	return nil
}

func (r *stubPendingRepo) FindByUsername(_ context.Context, username string) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return clonePending(p), nil
}

func (r *stubPendingRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byUsername[username]
	return ok, nil
}

func (r *stubPendingRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byUsername {
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubPendingRepo) UpdateCode(_ context.Context, username, code string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUsername[username]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	p.VerifyCode = code
	p.VerifyCodeExpiry = expiry
	return nil
}

func (r *stubPendingRepo) Claim(_ context.Context, username, code string) (*domain.PendingRegistration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byUsername[username]
	if !ok || p.VerifyCode != code {
		return nil, domain.ErrDocumentNotFound
	}
	delete(r.byUsername, username)
	return p, nil
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Account
	seq       int
	createErr error
	linkErr   error
	// onCreate runs before the insert, outside the lock.
	onCreate func()
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	c.MessageIDs = append([]string(nil), a.MessageIDs...)
	return &c
}

func (r *stubAccountRepo) add(a *domain.Account) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c := cloneAccount(a)
	if c.ID == "" {
		c.ID = fmt.Sprintf("acct-%d", r.seq)
	}
	r.byID[c.ID] = c
	return cloneAccount(c)
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	if r.onCreate != nil {
		r.onCreate()
	}
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.mu.Lock()
	for _, existing := range r.byID {
		if existing.Username == a.Username {
			r.mu.Unlock()
			return nil, domain.ErrDuplicateUsername
		}
		if existing.Email == a.Email {
			r.mu.Unlock()
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.mu.Unlock()
	return r.add(a), nil
}

func (r *stubAccountRepo) find(match func(*domain.Account) bool) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if match(a) {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.ID == id })
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Username == username })
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	return r.find(func(a *domain.Account) bool { return a.Email == email })
}

func (r *stubAccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *stubAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubAccountRepo) LinkMessage(_ context.Context, accountID, messageID string) error {
	if r.linkErr != nil {
		return r.linkErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[accountID]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if !a.HasMessage(messageID) {
		a.MessageIDs = append(a.MessageIDs, messageID)
	}
	return nil
}

func (r *stubAccountRepo) UnlinkMessage(_ context.Context, accountID, messageID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[accountID]
	if !ok {
		return false, nil
	}
	for i, id := range a.MessageIDs {
		if id == messageID {
			a.MessageIDs = append(a.MessageIDs[:i], a.MessageIDs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAccountRepo) SetAcceptingMessages(_ context.Context, accountID string, accepting bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[accountID]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	a.IsAcceptingMessages = accepting
	return nil
}

func (r *stubAccountRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

type stubMessageRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Message
	seq       int
	createErr error
	// deleteErrs are returned by successive Delete calls before normal behaviour resumes.
	deleteErrs []error
	deleted    []string
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{byID: make(map[string]*domain.Message)}
}

func (r *stubMessageRepo) Create(_ context.Context, m *domain.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = fmt.Sprintf("msg-%d", r.seq)
	c := *m
	r.byID[m.ID] = &c
	return nil
}

func (r *stubMessageRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Message{}
	for _, id := range ids {
		if m, ok := r.byID[id]; ok {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubMessageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.deleteErrs) > 0 {
		err := r.deleteErrs[0]
		r.deleteErrs = r.deleteErrs[1:]
		return err
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.byID, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubMessageRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *stubMessageRepo) FindUnlinked(_ context.Context, _ time.Time, _ int) ([]domain.UnlinkedMessage, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// External capabilities
// ---------------------------------------------------------------------------

type issuedCode struct {
	email, username, code string
}

type stubIssuer struct {
	mu     sync.Mutex
	fail   bool
	issued []issuedCode
}

func (i *stubIssuer) IssueCode(_ context.Context, email, username, code string) ports.DeliveryResult {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.issued = append(i.issued, issuedCode{email, username, code})
	if i.fail {
		return ports.DeliveryResult{Success: false, Message: "Failed to send verification email"}
	}
	return ports.DeliveryResult{Success: true, Message: "sent"}
}

func (i *stubIssuer) last() issuedCode {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.issued[len(i.issued)-1]
}

type stubModerator struct {
	verdict domain.ModerationVerdict
	err     error
	calls   int
}

func (m *stubModerator) Moderate(_ context.Context, _ string) (domain.ModerationVerdict, error) {
	m.calls++
	return m.verdict, m.err
}

type stubGuard struct {
	seen     map[string]bool
	claimErr error
	released []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{seen: make(map[string]bool)}
}

func (g *stubGuard) Claim(_ context.Context, key string) (bool, error) {
	if g.claimErr != nil {
		return false, g.claimErr
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, key string) error {
	delete(g.seen, key)
	g.released = append(g.released, key)
	return nil
}

type stubMailer struct {
	err  error
	sent []ports.Email
}

func (m *stubMailer) Send(_ context.Context, e ports.Email) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, e)
	return nil
}
