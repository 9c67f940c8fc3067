package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vocab-progress-service/internal/domain"
)

const minPasswordLength = 6

// SignUpRequest carries the fields collected by the sign-up screen.
type SignUpRequest struct {
	Email            string                  `json:"email"`
	Password         string                  `json:"password"`
	DisplayName      string                  `json:"displayName"`
	Gender           string                  `json:"gender"`
	LearningLanguage domain.LearningLanguage `json:"learningLanguage"`
}

// AccountService registers and authenticates users.
type AccountService struct {
	users       UserStore
	progress    ProgressStore
	adminEmails map[string]struct{}
	clock       func() time.Time
}

// NewAccountService builds the service; users signing up with one of
// adminEmails are created as admins.
func NewAccountService(users UserStore, progress ProgressStore, adminEmails []string) *AccountService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}
	return &AccountService{users: users, progress: progress, adminEmails: admins, clock: time.Now}
}

// SignUp creates the user and its initial stats record (rank 1, score 0).
// If the stats write fails the user exists without stats until the next
// successful Login writes them.
func (s *AccountService) SignUp(ctx context.Context, req SignUpRequest) (domain.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.New(domain.KindInvalidArgument, "a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return domain.User{}, domain.New(domain.KindInvalidArgument, "password is too short")
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return domain.User{}, domain.New(domain.KindInvalidArgument, "display name is required")
	}
	lang := req.LearningLanguage
	if lang == "" {
		lang = domain.LearnTarget
	}
	if !lang.Valid() {
		return domain.User{}, domain.New(domain.KindInvalidArgument, "unknown learning language")
	}

	if _, exists, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return domain.User{}, storeErr("get user by email", err)
	} else if exists {
		return domain.User{}, domain.New(domain.KindConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.Wrap(domain.KindUnknown, "hash password", err)
	}

	_, admin := s.adminEmails[email]
	user := domain.User{
		ID:               uuid.NewString(),
		Email:            email,
		PasswordHash:     string(hash),
		DisplayName:      displayName,
		Gender:           strings.TrimSpace(req.Gender),
		IsAdmin:          admin,
		LearningLanguage: lang,
		CreatedAt:        s.clock().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, storeErr("create user", err)
	}
	if err := s.progress.PutStats(ctx, user.ID, domain.InitialStats()); err != nil {
		return user, storeErr("put initial stats", err)
	}
	return user, nil
}

// Login verifies the password against the stored bcrypt hash.
func (s *AccountService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, ok, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.User{}, storeErr("get user by email", err)
	}
	if !ok {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	if err := s.ensureStats(ctx, user.ID); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ensureStats writes initial stats for a user whose sign-up stopped after
// the user record was created.
func (s *AccountService) ensureStats(ctx context.Context, userID string) error {
	_, ok, err := s.progress.GetStats(ctx, userID)
	if err != nil {
		return storeErr("get stats", err)
	}
	if ok {
		return nil
	}
	if err := s.progress.PutStats(ctx, userID, domain.InitialStats()); err != nil {
		return storeErr("put initial stats", err)
	}
	return nil
}

// User returns a user by id.
func (s *AccountService) User(ctx context.Context, userID string) (domain.User, error) {
	user, ok, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, storeErr("get user", err)
	}
	if !ok {
		return domain.User{}, domain.NotFoundf("user %s", userID)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
