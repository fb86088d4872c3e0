package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

type stubRepo struct {
	accounts        map[int64]Account
	hashes          map[int64]string
	nextID          int64
	revokedSessions []int64
	createErr       error
}

func newStubRepo() *stubRepo {
	return &stubRepo{accounts: make(map[int64]Account), hashes: make(map[int64]string), nextID: 1}
}

func (r *stubRepo) List(context.Context, shared.ListFilters) ([]Account, int, error) {
	return nil, 0, nil
}

func (r *stubRepo) Get(_ context.Context, id int64) (Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *stubRepo) Create(_ context.Context, account Account, hash string) (Account, error) {
	if r.createErr != nil {
		return Account{}, r.createErr
	}
	account.ID = r.nextID
	r.nextID++
	r.accounts[account.ID] = account
	r.hashes[account.ID] = hash
	return account, nil
}

func (r *stubRepo) Update(_ context.Context, id int64, account Account) error {
	account.ID = id
	r.accounts[id] = account
	return nil
}

func (r *stubRepo) SetActive(_ context.Context, id int64, active bool) error {
	a := r.accounts[id]
	a.IsActive = active
	r.accounts[id] = a
	return nil
}

func (r *stubRepo) SetPassword(_ context.Context, id int64, hash string) error {
	r.hashes[id] = hash
	return nil
}

func (r *stubRepo) DeleteSessionsFor(_ context.Context, userID int64) error {
	r.revokedSessions = append(r.revokedSessions, userID)
	return nil
}

type stubNotifier struct {
	email    string
	password string
}

func (n *stubNotifier) NotifyCredentials(_ context.Context, email, password string) error {
	n.email = email
	n.password = password
	return nil
}

var admin = authz.Principal{UserID: 1, Role: authz.RoleAdmin}

func TestCreateGeneratesAndDeliversPassword(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := NewService(repo, nil, notifier)

	created, err := svc.Create(context.Background(), admin, Input{
		Email: "t.nguyen@school.test", Role: "teacher", TeacherID: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, "t.nguyen@school.test", notifier.email)
	require.NotEmpty(t, notifier.password)
	// the stored hash must verify against the delivered password
	err = bcrypt.CompareHashAndPassword([]byte(repo.hashes[created.ID]), []byte(notifier.password))
	assert.NoError(t, err)
}

func TestCreateExplicitPasswordSkipsDelivery(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := NewService(repo, nil, notifier)

	_, err := svc.Create(context.Background(), admin, Input{
		Email: "s.okafor@school.test", Password: "hunter2hunter2", Role: "student", StudentID: 9,
	})
	require.NoError(t, err)
	assert.Empty(t, notifier.email)
}

func TestCreateSurfacesDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = shared.ErrDuplicate
	notifier := &stubNotifier{}
	svc := NewService(repo, nil, notifier)

	_, err := svc.Create(context.Background(), admin, Input{
		Email: "t.nguyen@school.test", Role: "teacher", TeacherID: 4,
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)
	assert.Equal(t, "already exists", shared.UserSafeMessage(err))
	// delivery must not run for an account that was never created
	assert.Empty(t, notifier.email)
}

func TestCreateValidatesInput(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	_, err := svc.Create(context.Background(), admin, Input{Email: "not-an-email", Role: "teacher"})
	assert.Error(t, err)

	_, err = svc.Create(context.Background(), admin, Input{Email: "ok@school.test", Role: "principal"})
	assert.Error(t, err)
}

func TestDeactivateRevokesSessions(t *testing.T) {
	repo := newStubRepo()
	svc := NewService(repo, nil, nil)
	created, err := svc.Create(context.Background(), admin, Input{
		Email: "x@school.test", Password: "hunter2hunter2", Role: "admin",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(context.Background(), admin, created.ID, false))
	assert.Contains(t, repo.revokedSessions, created.ID)
	assert.False(t, repo.accounts[created.ID].IsActive)

	repo.revokedSessions = nil
	require.NoError(t, svc.SetActive(context.Background(), admin, created.ID, true))
	assert.Empty(t, repo.revokedSessions)
}

func TestResetPasswordRotatesHashAndRevokes(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := NewService(repo, nil, notifier)
	created, err := svc.Create(context.Background(), admin, Input{
		Email: "y@school.test", Password: "hunter2hunter2", Role: "admin",
	})
	require.NoError(t, err)
	before := repo.hashes[created.ID]

	require.NoError(t, svc.ResetPassword(context.Background(), admin, created.ID))
	assert.NotEqual(t, before, repo.hashes[created.ID])
	assert.Contains(t, repo.revokedSessions, created.ID)
	assert.Equal(t, "y@school.test", notifier.email)
}
