package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"corporateevents/internal/domain"
	"corporateevents/internal/validation"
)

const (
	loginCodeDigits     = 6
	loginCodeExpiryMins = 15
)

type signUpInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Name        string `json:"name" validate:"max=120"`
	CompanyCNPJ string `json:"company_cnpj" validate:"omitempty,cnpj"`
}

type loginCodeInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"code" validate:"omitempty,len=6,numeric"`
}

type profileInput struct {
	Email          string `json:"email" validate:"omitempty,email,max=254"`
	Name           string `json:"name" validate:"max=120"`
	LastName       string `json:"last_name" validate:"max=120"`
	CompanyCNPJ    string `json:"company_cnpj" validate:"omitempty,cnpj"`
	CompanySegment string `json:"company_segment" validate:"max=120"`
}

type userService struct {
	userRepo      domain.UserRepository
	roleRepo      domain.RoleRepository
	loginCodeRepo domain.LoginCodeRepository
	hasher        domain.PasswordHasher
	tokenIssuer   domain.TokenIssuer
	tokenExpiry   time.Duration
	emailService  domain.EmailService
	audit         domain.AuditLogger
	now           func() time.Time
}

// NewUserService creates a UserService with the given repositories and auth ports.
func NewUserService(userRepo domain.UserRepository, roleRepo domain.RoleRepository, loginCodeRepo domain.LoginCodeRepository, hasher domain.PasswordHasher, tokenIssuer domain.TokenIssuer, tokenExpiry time.Duration, emailService domain.EmailService, audit domain.AuditLogger) domain.UserService {
	return &userService{
		userRepo:      userRepo,
		roleRepo:      roleRepo,
		loginCodeRepo: loginCodeRepo,
		hasher:        hasher,
		tokenIssuer:   tokenIssuer,
		tokenExpiry:   tokenExpiry,
		emailService:  emailService,
		audit:         audit,
		now:           time.Now,
	}
}

func validate(ctx context.Context, in any) error {
	fields, err := validation.FieldErrors(ctx, in)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *userService) SignUp(ctx context.Context, email, password, name, companyCNPJ string) (*domain.User, error) {
	in := signUpInput{
		Email:       normalizeEmail(email),
		Password:    password,
		Name:        strings.TrimSpace(name),
		CompanyCNPJ: domain.DigitsOnly(companyCNPJ),
	}
	if err := validate(ctx, &in); err != nil {
		return nil, err
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := domain.NewUser(in.Email, in.Name, "", in.CompanyCNPJ, now, now)
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.assignRole(ctx, user.ID, domain.RoleAttendee); err != nil {
		return nil, err
	}
	s.audit.Info(ctx, "user", "Usuário cadastrado", user.ID, map[string]any{"email": user.Email})
	return user, nil
}

func (s *userService) assignRole(ctx context.Context, userID, code string) error {
	role, err := s.roleRepo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to get role %q: %w", code, err)
	}
	if err := s.userRepo.AssignRole(ctx, userID, role.ID); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}
	// Users created through a login code have no password.
	if user.PasswordHash == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *userService) issueToken(ctx context.Context, user *domain.User) (string, error) {
	roles, err := s.roleRepo.ListByUserID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load roles: %w", err)
	}
	roleCodes := make([]string, len(roles))
	for i, r := range roles {
		roleCodes[i] = r.Code
	}
	token, err := s.tokenIssuer.Issue(user, roleCodes, s.tokenExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *userService) RequestLoginCode(ctx context.Context, email string) error {
	in := loginCodeInput{Email: normalizeEmail(email)}
	if err := validate(ctx, &in); err != nil {
		return err
	}
	code, err := generateLoginCode(loginCodeDigits)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}
	expiresAt := s.now().Add(loginCodeExpiryMins * time.Minute)
	if err := s.loginCodeRepo.Create(ctx, in.Email, hashLoginCode(code), expiresAt); err != nil {
		return fmt.Errorf("failed to store login code: %w", err)
	}
	data := &domain.LoginCodeEmailData{
		Email:            in.Email,
		Code:             code,
		ExpiresInMinutes: loginCodeExpiryMins,
	}
	if err := s.emailService.SendLoginCode(ctx, data); err != nil {
		return fmt.Errorf("failed to send login code email: %w", err)
	}
	return nil
}

func (s *userService) VerifyLoginCode(ctx context.Context, email, code string) (string, *domain.User, error) {
	in := loginCodeInput{Email: normalizeEmail(email), Code: strings.TrimSpace(code)}
	if in.Code == "" {
		return "", nil, domain.ErrInvalidCode
	}
	if err := validate(ctx, &in); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) && verr.Fields["code"] != nil {
			return "", nil, domain.ErrInvalidCode
		}
		return "", nil, err
	}
	consumed, err := s.loginCodeRepo.Consume(ctx, in.Email, hashLoginCode(in.Code))
	if err != nil {
		return "", nil, fmt.Errorf("failed to verify code: %w", err)
	}
	if !consumed {
		return "", nil, domain.ErrInvalidCode
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, fmt.Errorf("failed to get user: %w", err)
		}
		now := s.now()
		user = domain.NewUser(in.Email, "", "", "", now, now)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.assignRole(ctx, user.ID, domain.RoleAttendee); err != nil {
			return "", nil, err
		}
		s.audit.Info(ctx, "user", "Usuário criado via código de acesso", user.ID, map[string]any{"email": user.Email})
	}
	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func generateLoginCode(digits int) (string, error) {
	const digitspace = "0123456789"
	b := make([]byte, digits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = digitspace[int(b[i])%len(digitspace)]
	}
	return string(b), nil
}

func hashLoginCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func (s *userService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, user *domain.User) error {
	in := profileInput{
		Email:          normalizeEmail(user.Email),
		Name:           strings.TrimSpace(user.Name),
		LastName:       strings.TrimSpace(user.LastName),
		CompanyCNPJ:    domain.DigitsOnly(user.CompanyCNPJ),
		CompanySegment: strings.TrimSpace(user.CompanySegment),
	}
	if err := validate(ctx, &in); err != nil {
		return err
	}
	user.Email = in.Email
	user.Name = in.Name
	user.LastName = in.LastName
	user.CompanyCNPJ = in.CompanyCNPJ
	user.CompanySegment = in.CompanySegment
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) || errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}
