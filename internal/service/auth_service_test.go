package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	profiles     map[uuid.UUID]*models.Profile
	sessions     map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		profiles:     make(map[uuid.UUID]*models.Profile),
		sessions:     make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if profile, ok := m.profiles[userID]; ok {
		return profile, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) EnsureProfile(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	if existing, ok := m.profiles[profile.UserID]; ok {
		return existing, nil
	}
	if profile.Role == "" {
		profile.Role = models.RoleCustomer
	}
	m.profiles[profile.UserID] = profile
	return profile, nil
}

func (m *mockAuthRepository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	m.profiles[profile.UserID] = profile
	return nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	delete(m.sessions, refreshToken)
	return nil
}

func (m *mockAuthRepository) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			sessions = append(sessions, *s)
		}
	}
	return sessions, nil
}

func (m *mockAuthRepository) DeleteSessionByID(ctx context.Context, sessionID uuid.UUID, userID uuid.UUID) error {
	for token, s := range m.sessions {
		if s.ID == sessionID && s.UserID == userID {
			delete(m.sessions, token)
			return nil
		}
	}
	return nil
}

func (m *mockAuthRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if user, ok := m.usersByID[userID]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour, 15*time.Minute)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	res, err := service.Register(ctx, RegisterInput{
		Email:    "Buyer@Example.com",
		Password: "Password123",
		FullName: "Test Buyer",
	}, map[string]string{"ip": "127.0.0.1"})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if res.User.ID == uuid.Nil {
		t.Fatalf("user ID должен быть установлен")
	}

	// Email нормализуется при регистрации
	if res.User.Email != "buyer@example.com" {
		t.Fatalf("email должен быть приведён к нижнему регистру, получили %q", res.User.Email)
	}

	if res.Profile == nil || res.Profile.FullName == nil || *res.Profile.FullName != "Test Buyer" {
		t.Fatalf("профиль должен быть создан с именем")
	}

	if res.User.Role != models.RoleCustomer {
		t.Fatalf("новый пользователь должен получать роль customer")
	}

	if len(repo.sessions) != 1 {
		t.Fatalf("ожидалась одна сессия, получили %d", len(repo.sessions))
	}

	loginRes, err := service.Login(ctx, LoginInput{
		Email:    "buyer@example.com",
		Password: "Password123",
	}, nil)
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	if loginRes.TokenPair.AccessToken == "" {
		t.Fatalf("ожидался access токен")
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	if _, err := service.Register(ctx, RegisterInput{
		Email:    "buyer@example.com",
		Password: "Password123",
	}, nil); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if _, err := service.Login(ctx, LoginInput{
		Email:    "buyer@example.com",
		Password: "WrongPassword1",
	}, nil); err == nil {
		t.Fatalf("логин с неверным паролем должен отклоняться")
	}
}

func TestAuthService_Refresh(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := newTestTokenManager()
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		IsActive:     true,
	}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user

	tokenPair, accessExp, refreshExp, err := tokenManager.GeneratePair(user)
	if err != nil {
		t.Fatalf("не удалось сгенерировать токены: %v", err)
	}
	if accessExp.After(refreshExp) {
		t.Fatalf("access должен истекать раньше refresh")
	}

	repo.sessions[tokenPair.RefreshToken] = &models.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    refreshExp,
	}

	newPair, err := service.Refresh(ctx, tokenPair.RefreshToken, nil)
	if err != nil {
		t.Fatalf("refresh вернул ошибку: %v", err)
	}

	if newPair.RefreshToken == tokenPair.RefreshToken {
		t.Fatalf("ожидался новый refresh токен")
	}
}

func TestTokenManager_ResetTokenBinding(t *testing.T) {
	tokens := newTestTokenManager()

	token, err := tokens.GenerateResetToken("buyer@example.com")
	if err != nil {
		t.Fatalf("не удалось выпустить токен сброса: %v", err)
	}

	if err := tokens.ValidateResetToken(token, "buyer@example.com"); err != nil {
		t.Fatalf("токен для своего email должен приниматься: %v", err)
	}

	if err := tokens.ValidateResetToken(token, "other@example.com"); err == nil {
		t.Fatalf("токен для чужого email должен отклоняться")
	}

	// Access токен не подходит как токен сброса
	user := &models.User{ID: uuid.New(), Role: models.RoleCustomer}
	pair, _, _, err := tokens.GeneratePair(user)
	if err != nil {
		t.Fatalf("не удалось сгенерировать пару: %v", err)
	}
	if err := tokens.ValidateResetToken(pair.AccessToken, "buyer@example.com"); err == nil {
		t.Fatalf("access токен не должен приниматься для сброса пароля")
	}
}

func TestAuthService_CheckEmail(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())
	ctx := context.Background()

	if _, err := service.Register(ctx, RegisterInput{
		Email:    "buyer@example.com",
		Password: "Password123",
		FullName: "Test Buyer",
	}, nil); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	// Занятый email находится и в другом регистре
	exists, err := service.CheckEmail(ctx, " Buyer@Example.COM ")
	if err != nil {
		t.Fatalf("check email вернул ошибку: %v", err)
	}
	if !exists {
		t.Fatalf("зарегистрированный email должен быть занят")
	}

	exists, err = service.CheckEmail(ctx, "free@example.com")
	if err != nil {
		t.Fatalf("check email вернул ошибку: %v", err)
	}
	if exists {
		t.Fatalf("свободный email не должен числиться занятым")
	}

	if _, err := service.CheckEmail(ctx, "not-an-email"); err == nil {
		t.Fatalf("некорректный email должен отклоняться")
	}
}
