package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"corporateevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoleRepo implements domain.RoleRepository for tests.
type fakeRoleRepo struct {
	byCode    map[string]*domain.Role
	listByUID map[string][]*domain.Role
	getErr    error
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{
		byCode: map[string]*domain.Role{
			domain.RoleAttendee: {ID: "role-1", Code: domain.RoleAttendee},
			domain.RoleAdmin:    {ID: "role-2", Code: domain.RoleAdmin},
		},
		listByUID: make(map[string][]*domain.Role),
	}
}

func (f *fakeRoleRepo) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r, ok := f.byCode[code]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRoleRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Role, error) {
	return f.listByUID[userID], nil
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	salt string
	hash string
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) { return f.salt, nil }
func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	return "hash-" + password, nil
}
func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash-"+password && (f.hash == "" || hash != f.hash) {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	token     string
	err       error
	lastRoles []string
}

func (f *fakeTokenIssuer) Issue(user *domain.User, roles []string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastRoles = roles
	if f.token != "" {
		return f.token, nil
	}
	return "token-" + user.ID, nil
}

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	byEmail   map[string]*domain.User
	roles     map[string][]string
	getErr    error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]*domain.User),
		roles:   make(map[string][]string),
	}
}

func (f *fakeUserRepo) add(u *domain.User) {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	u.ID = "created-1"
	f.add(u)
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if existing, ok := f.byEmail[u.Email]; ok && existing.ID != u.ID {
		return domain.ErrDuplicateEmail
	}
	f.add(u)
	return nil
}

func (f *fakeUserRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	f.roles[userID] = append(f.roles[userID], roleID)
	return nil
}

type fakeLoginCodeRepo struct {
	codes     map[string]string
	expiresAt time.Time
}

func (f *fakeLoginCodeRepo) Create(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	if f.codes == nil {
		f.codes = make(map[string]string)
	}
	f.codes[email] = codeHash
	f.expiresAt = expiresAt
	return nil
}

func (f *fakeLoginCodeRepo) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	if f.codes[email] != codeHash {
		return false, nil
	}
	delete(f.codes, email)
	return true, nil
}

type fakeEmailService struct {
	loginCodes    []*domain.LoginCodeEmailData
	confirmations []*domain.RegistrationConfirmationEmailData
	err           error
}

func (f *fakeEmailService) SendLoginCode(ctx context.Context, data *domain.LoginCodeEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.loginCodes = append(f.loginCodes, data)
	return nil
}

func (f *fakeEmailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationConfirmationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.confirmations = append(f.confirmations, data)
	return nil
}

type userFixture struct {
	users  *fakeUserRepo
	roles  *fakeRoleRepo
	codes  *fakeLoginCodeRepo
	issuer *fakeTokenIssuer
	emails *fakeEmailService
	audit  *fakeAuditLogger
	svc    domain.UserService
}

func newUserFixture() *userFixture {
	f := &userFixture{
		users:  newFakeUserRepo(),
		roles:  newFakeRoleRepo(),
		codes:  &fakeLoginCodeRepo{},
		issuer: &fakeTokenIssuer{},
		emails: &fakeEmailService{},
		audit:  &fakeAuditLogger{},
	}
	svc := NewUserService(f.users, f.roles, f.codes, &fakePasswordHasher{salt: "s"}, f.issuer, time.Hour, f.emails, f.audit)
	svc.(*userService).now = func() time.Time { return testNow }
	f.svc = svc
	return f
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		id       string
		setup    func(*fakeUserRepo)
		wantUser *domain.User
		wantErr  error
	}{
		{
			name: "success",
			id:   "user-1",
			setup: func(f *fakeUserRepo) {
				f.add(&domain.User{ID: "user-1", Email: "a@b.com", Name: "Alice"})
			},
			wantUser: &domain.User{ID: "user-1", Email: "a@b.com", Name: "Alice"},
		},
		{
			name:    "not found",
			id:      "missing",
			setup:   func(f *fakeUserRepo) {},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:    "repo error",
			id:      "user-1",
			setup:   func(f *fakeUserRepo) { f.getErr = sql.ErrConnDone },
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			tt.setup(f.users)

			user, err := f.svc.GetByID(ctx, tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser.ID, user.ID)
			assert.Equal(t, tt.wantUser.Email, user.Email)
			assert.Equal(t, tt.wantUser.Name, user.Name)
		})
	}
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		user       *domain.User
		wantErr    error
		wantFields []string
	}{
		{
			name: "success normalizes company",
			user: &domain.User{ID: "user-1", Email: "A@B.com", Name: " Alice ", CompanyCNPJ: "12.345.678/0001-90", CompanySegment: "Varejo"},
		},
		{
			name:    "duplicate email",
			user:    &domain.User{ID: "user-1", Email: "other@b.com"},
			wantErr: domain.ErrDuplicateEmail,
		},
		{
			name:       "invalid email and cnpj",
			user:       &domain.User{ID: "user-1", Email: "not-an-email", CompanyCNPJ: "123"},
			wantErr:    domain.ErrInvalidInput,
			wantFields: []string{"email", "company_cnpj"},
		},
		{
			name:    "unknown user",
			user:    &domain.User{ID: "ghost", Email: "ghost@b.com"},
			wantErr: domain.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserFixture()
			f.users.add(&domain.User{ID: "user-1", Email: "a@b.com", Name: "Alice"})
			f.users.add(&domain.User{ID: "user-2", Email: "other@b.com"})

			err := f.svc.Update(ctx, tt.user)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var verr *domain.ValidationError
				if errors.As(err, &verr) {
					for _, field := range tt.wantFields {
						assert.Contains(t, verr.Fields, field)
					}
				}
				return
			}
			require.NoError(t, err)
			stored := f.users.byID["user-1"]
			assert.Equal(t, "a@b.com", stored.Email)
			assert.Equal(t, "Alice", stored.Name)
			assert.Equal(t, "12345678000190", stored.CompanyCNPJ)
			assert.Equal(t, testNow, stored.UpdatedAt)
		})
	}
}

func TestUserService_SignUp(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()

	user, err := f.svc.SignUp(ctx, " Alice@Example.com", "password8", "Alice", "12.345.678/0001-90")
	require.NoError(t, err)
	assert.Equal(t, "created-1", user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "12345678000190", user.CompanyCNPJ)
	assert.Equal(t, "hash-password8", user.PasswordHash)
	assert.Equal(t, "s", user.Salt)
	assert.Equal(t, []string{"role-1"}, f.users.roles["created-1"])
	assert.Equal(t, []domain.AuditLevel{domain.AuditInfo}, f.audit.levels())

	_, err = f.svc.SignUp(ctx, "alice@example.com", "password8", "Alice", "")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserService_SignUp_invalid(t *testing.T) {
	f := newUserFixture()

	_, err := f.svc.SignUp(context.Background(), "bad", "short", "", "1")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "company_cnpj")
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()
	f.users.add(&domain.User{ID: "u1", Email: "login@example.com", PasswordHash: "hash-secret123", Salt: "s"})
	f.users.add(&domain.User{ID: "u2", Email: "code@example.com"})
	f.roles.listByUID["u1"] = []*domain.Role{{ID: "r1", Code: domain.RoleAttendee}}
	f.issuer.token = "jwt-token-123"

	token, user, err := f.svc.Login(ctx, "LOGIN@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token-123", token)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, []string{domain.RoleAttendee}, f.issuer.lastRoles)

	_, _, err = f.svc.Login(ctx, "login@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, "wrong@example.com", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, "code@example.com", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserService_LoginCodeFlow(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture()

	require.NoError(t, f.svc.RequestLoginCode(ctx, "New@Example.com"))
	require.Len(t, f.emails.loginCodes, 1)
	sent := f.emails.loginCodes[0]
	assert.Equal(t, "new@example.com", sent.Email)
	assert.Len(t, sent.Code, 6)
	assert.Equal(t, 15, sent.ExpiresInMinutes)
	assert.Equal(t, testNow.Add(15*time.Minute), f.codes.expiresAt)
	assert.Equal(t, hashLoginCode(sent.Code), f.codes.codes["new@example.com"])

	token, user, err := f.svc.VerifyLoginCode(ctx, "new@example.com", sent.Code)
	require.NoError(t, err)
	assert.Equal(t, "token-created-1", token)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, []string{"role-1"}, f.users.roles["created-1"])

	// a code is single use
	_, _, err = f.svc.VerifyLoginCode(ctx, "new@example.com", sent.Code)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestUserService_VerifyLoginCode_malformed(t *testing.T) {
	f := newUserFixture()
	for _, code := range []string{"", "12", "abcdef", "1234567"} {
		_, _, err := f.svc.VerifyLoginCode(context.Background(), "a@b.com", code)
		assert.ErrorIs(t, err, domain.ErrInvalidCode, code)
	}
}

func TestUserService_RequestLoginCode_emailFailure(t *testing.T) {
	f := newUserFixture()
	f.emails.err = errors.New("ses down")

	err := f.svc.RequestLoginCode(context.Background(), "a@b.com")
	assert.Error(t, err)

	err = f.svc.RequestLoginCode(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
