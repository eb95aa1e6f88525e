package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/storefront-backend/internal/logger"
	"github.com/ignatzorin/storefront-backend/internal/models"
	"github.com/ignatzorin/storefront-backend/internal/pkg/apperror"
	"github.com/ignatzorin/storefront-backend/internal/repository"
)

func init() {
	logger.Init("error")
}

// mockOTPRepo реализует OTPRepository для тестов. Мьютекс повторяет
// контракт таблицы с UNIQUE(email): Replace атомарен, живая запись
// на email всегда одна.
type mockOTPRepo struct {
	mu       sync.Mutex
	byEmail  map[string]*models.EmailOTP
	lookups  int
	replaced []string
}

func newMockOTPRepo() *mockOTPRepo {
	return &mockOTPRepo{byEmail: make(map[string]*models.EmailOTP)}
}

func (m *mockOTPRepo) Replace(ctx context.Context, otp *models.EmailOTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *otp
	m.byEmail[otp.Email] = &copied
	m.replaced = append(m.replaced, otp.Code)
	return nil
}

func (m *mockOTPRepo) GetByEmailAndCode(ctx context.Context, email, code string) (*models.EmailOTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if otp, ok := m.byEmail[email]; ok && otp.Code == code {
		copied := *otp
		return &copied, nil
	}
	return nil, repository.ErrOTPNotFound
}

func (m *mockOTPRepo) DeleteByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byEmail, email)
	return nil
}

func (m *mockOTPRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for email, otp := range m.byEmail {
		if otp.Expired(now) {
			delete(m.byEmail, email)
			deleted++
		}
	}
	return deleted, nil
}

// mockResetUserRepo реализует PasswordResetUserRepository для тестов.
type mockResetUserRepo struct {
	users    map[string]*models.User
	profiles map[string]*models.Profile
	updated  map[uuid.UUID]string
}

func newMockResetUserRepo() *mockResetUserRepo {
	return &mockResetUserRepo{
		users:    make(map[string]*models.User),
		profiles: make(map[string]*models.Profile),
		updated:  make(map[uuid.UUID]string),
	}
}

func (m *mockResetUserRepo) addUser(email string) *models.User {
	user := &models.User{ID: uuid.New(), Email: email, Role: models.RoleCustomer}
	m.users[email] = user
	m.profiles[email] = &models.Profile{UserID: user.ID, Email: email, Role: models.RoleCustomer}
	return user
}

func (m *mockResetUserRepo) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if profile, ok := m.profiles[email]; ok {
		return profile, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockResetUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.users[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockResetUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	m.updated[userID] = passwordHash
	return nil
}

// fakeSender собирает отправленные письма в память.
type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	failing bool
}

func (s *fakeSender) SendHTML(to, toName, subject, htmlBody string) error {
	if s.failing {
		return errors.New("smtp unavailable")
	}
	s.mu.Lock()
	s.sent = append(s.sent, to)
	s.mu.Unlock()
	return nil
}

func newResetService(otps *mockOTPRepo, users *mockResetUserRepo, sender *fakeSender) *PasswordResetService {
	tokens := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour, 15*time.Minute)
	return NewPasswordResetService(otps, users, sender, tokens, "WOW! Organics", 10*time.Minute)
}

func TestPasswordReset_IssueReplacesPreviousCode(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	users.addUser("buyer@example.com")
	sender := &fakeSender{}
	svc := newResetService(otps, users, sender)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("первая выдача вернула ошибку: %v", err)
	}

	second, err := svc.Issue(ctx, "Buyer@Example.com ")
	if err != nil {
		t.Fatalf("повторная выдача вернула ошибку: %v", err)
	}

	if len(otps.byEmail) != 1 {
		t.Fatalf("ожидалась одна запись кода, получили %d", len(otps.byEmail))
	}

	// Старый код больше не действует
	if _, err := svc.Verify(ctx, "buyer@example.com", first.Code); !errors.Is(err, apperror.ErrOTPInvalid) {
		t.Fatalf("старый код должен быть отклонён, получили: %v", err)
	}

	if _, err := svc.Verify(ctx, "buyer@example.com", second.Code); err != nil {
		t.Fatalf("новый код должен приниматься: %v", err)
	}
}

func TestPasswordReset_CodeIsSingleUse(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	users.addUser("buyer@example.com")
	svc := newResetService(otps, users, &fakeSender{})
	ctx := context.Background()

	result, err := svc.Issue(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("выдача вернула ошибку: %v", err)
	}

	if _, err := svc.Verify(ctx, "buyer@example.com", result.Code); err != nil {
		t.Fatalf("первая проверка должна пройти: %v", err)
	}

	if _, err := svc.Verify(ctx, "buyer@example.com", result.Code); !errors.Is(err, apperror.ErrOTPInvalid) {
		t.Fatalf("повторная проверка того же кода должна быть отклонена, получили: %v", err)
	}
}

func TestPasswordReset_ExpiryBoundary(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	users.addUser("buyer@example.com")
	svc := newResetService(otps, users, &fakeSender{})
	ctx := context.Background()

	issuedAt := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issuedAt }

	result, err := svc.Issue(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("выдача вернула ошибку: %v", err)
	}

	// За секунду до истечения код действует
	svc.now = func() time.Time { return issuedAt.Add(10*time.Minute - time.Second) }
	if _, err := svc.Verify(ctx, "buyer@example.com", result.Code); err != nil {
		t.Fatalf("код до истечения TTL должен приниматься: %v", err)
	}

	// Выдаём заново и проверяем ровно на границе: граница включительная
	svc.now = func() time.Time { return issuedAt }
	result, err = svc.Issue(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("повторная выдача вернула ошибку: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(10 * time.Minute) }
	if _, err := svc.Verify(ctx, "buyer@example.com", result.Code); !errors.Is(err, apperror.ErrOTPExpired) {
		t.Fatalf("код ровно через TTL должен считаться истёкшим, получили: %v", err)
	}

	// Истёкший код удалён, повторная проверка даёт "неверный код"
	if _, err := svc.Verify(ctx, "buyer@example.com", result.Code); !errors.Is(err, apperror.ErrOTPInvalid) {
		t.Fatalf("после истечения запись должна быть удалена, получили: %v", err)
	}
}

func TestPasswordReset_MalformedCodeRejectedBeforeLookup(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	users.addUser("buyer@example.com")
	svc := newResetService(otps, users, &fakeSender{})
	ctx := context.Background()

	for _, code := range []string{"12a456", "12345", "1234567", "", "abc def"} {
		if _, err := svc.Verify(ctx, "buyer@example.com", code); !errors.Is(err, apperror.ErrOTPInvalidFormat) {
			t.Fatalf("код %q должен отклоняться по формату, получили: %v", code, err)
		}
	}

	if otps.lookups != 0 {
		t.Fatalf("некорректный формат не должен приводить к обращению в хранилище, обращений: %d", otps.lookups)
	}

	// Пробелы внутри кода вычищаются до проверки
	result, err := svc.Issue(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("выдача вернула ошибку: %v", err)
	}
	spaced := result.Code[:3] + " " + result.Code[3:]
	if _, err := svc.Verify(ctx, "buyer@example.com", spaced); err != nil {
		t.Fatalf("код с пробелами должен нормализоваться: %v", err)
	}
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	svc := newResetService(newMockOTPRepo(), newMockResetUserRepo(), &fakeSender{})

	_, err := svc.Issue(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrAccountNotFound) {
		t.Fatalf("ожидалась ошибка об отсутствии аккаунта, получили: %v", err)
	}
}

func TestPasswordReset_DeliveryFailureSurfaces(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	users.addUser("buyer@example.com")
	sender := &fakeSender{failing: true}
	svc := newResetService(otps, users, sender)

	_, err := svc.Issue(context.Background(), "buyer@example.com")
	if !errors.Is(err, apperror.ErrEmailDelivery) {
		t.Fatalf("ошибка доставки должна подниматься наверх, получили: %v", err)
	}

	// Код уже записан: пользователь может запросить повтор без блокировки
	if len(otps.byEmail) != 1 {
		t.Fatalf("код должен сохраняться несмотря на сбой доставки")
	}
}

func TestPasswordReset_FullFlow(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	user := users.addUser("buyer@example.com")
	svc := newResetService(otps, users, &fakeSender{})
	ctx := context.Background()

	result, err := svc.Issue(ctx, "buyer@example.com")
	if err != nil {
		t.Fatalf("выдача вернула ошибку: %v", err)
	}

	token, err := svc.Verify(ctx, "buyer@example.com", result.Code)
	if err != nil {
		t.Fatalf("проверка вернула ошибку: %v", err)
	}
	if token == "" {
		t.Fatalf("ожидался токен сброса")
	}

	// Токен привязан к email: для другого адреса не работает
	other := users.addUser("other@example.com")
	_ = other
	if err := svc.Reset(ctx, "other@example.com", token, "NewPassword1"); err == nil {
		t.Fatalf("токен чужого email должен отклоняться")
	}

	if err := svc.Reset(ctx, "buyer@example.com", token, "weak"); err == nil {
		t.Fatalf("слабый пароль должен отклоняться")
	}

	if err := svc.Reset(ctx, "buyer@example.com", token, "NewPassword1"); err != nil {
		t.Fatalf("сброс пароля вернул ошибку: %v", err)
	}

	if _, ok := users.updated[user.ID]; !ok {
		t.Fatalf("пароль пользователя должен быть обновлён")
	}
}

func TestGenerateOTPCode_Format(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateOTPCode()
		if err != nil {
			t.Fatalf("генерация вернула ошибку: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("ожидалось 6 цифр, получили %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("код не должен начинаться с нуля: %q", code)
		}
	}
}

func TestPasswordReset_WrongCodeRespondsBadRequest(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	users.addUser("buyer@example.com")
	sender := &fakeSender{}
	svc := newResetService(otps, users, sender)
	ctx := context.Background()

	if _, err := svc.Issue(ctx, "buyer@example.com"); err != nil {
		t.Fatalf("выдача кода вернула ошибку: %v", err)
	}

	_, err := svc.Verify(ctx, "buyer@example.com", "000000")
	if !errors.Is(err, apperror.ErrOTPInvalid) {
		t.Fatalf("ожидался ErrOTPInvalid, получено: %v", err)
	}

	// Неверный код отвечает 400, а не 404: ответ не раскрывает,
	// выдавался ли код вообще
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("ожидался AppError, получено: %v", err)
	}
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("неверный код должен давать 400, получено: %d", appErr.HTTPStatus)
	}
}

func TestPasswordReset_ConcurrentIssueLeavesOneRecord(t *testing.T) {
	otps := newMockOTPRepo()
	users := newMockResetUserRepo()
	users.addUser("buyer@example.com")
	sender := &fakeSender{}
	svc := newResetService(otps, users, sender)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Issue(ctx, "buyer@example.com"); err != nil {
				t.Errorf("параллельная выдача вернула ошибку: %v", err)
			}
		}()
	}
	wg.Wait()

	// После гонки живая запись ровно одна, побеждает последний писатель
	if len(otps.byEmail) != 1 {
		t.Fatalf("должна остаться одна запись, осталось %d", len(otps.byEmail))
	}
	live := otps.byEmail["buyer@example.com"]
	if live == nil {
		t.Fatalf("запись для email отсутствует")
	}
	if last := otps.replaced[len(otps.replaced)-1]; live.Code != last {
		t.Fatalf("живой код %q не совпадает с последним записанным %q", live.Code, last)
	}
}
