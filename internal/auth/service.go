package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/EnguerranCA/HabitHisson/internal/user"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidName        = errors.New("name is required")
	ErrEmailTaken         = errors.New("account already exists for this email")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Service struct {
	users    user.Repo
	sessions SessionRepo

	logger *log.Logger

	cookieName string
	sessionTTL time.Duration
	bcryptCost int
}

type Options struct {
	SessionTTL time.Duration
	BcryptCost int
}

func NewService(users user.Repo, sessions SessionRepo, logger *log.Logger, opts Options) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 7 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		sessions:   sessions,
		logger:     logger,
		cookieName: "habithisson_session",
		sessionTTL: opts.SessionTTL,
		bcryptCost: opts.BcryptCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return ErrInvalidEmail
	}
	if strings.ToLower(addr.Address) != email {
		return ErrInvalidEmail
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// SignUp creates an account and opens a session for it.
func (s *Service) SignUp(ctx context.Context, name, email, password string, now time.Time) (user.User, string, time.Time, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return user.User{}, "", time.Time{}, err
	}
	if strings.TrimSpace(name) == "" {
		return user.User{}, "", time.Time{}, ErrInvalidName
	}
	if len(password) < 6 {
		return user.User{}, "", time.Time{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return user.User{}, "", time.Time{}, err
	}

	u, err := s.users.Create(ctx, user.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		XP:           0,
		Level:        1,
		CreatedAt:    now,
	})
	if errors.Is(err, user.ErrEmailTaken) {
		return user.User{}, "", time.Time{}, ErrEmailTaken
	}
	if err != nil {
		return user.User{}, "", time.Time{}, err
	}

	return s.openSession(ctx, u, now)
}

// SignIn verifies credentials and opens a session. Unknown email and
// wrong password return the same error.
func (s *Service) SignIn(ctx context.Context, email, password string, now time.Time) (user.User, string, time.Time, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return user.User{}, "", time.Time{}, ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return user.User{}, "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return user.User{}, "", time.Time{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return user.User{}, "", time.Time{}, ErrInvalidCredentials
	}

	return s.openSession(ctx, u, now)
}

func (s *Service) openSession(ctx context.Context, u user.User, now time.Time) (user.User, string, time.Time, error) {
	token, err := generateToken()
	if err != nil {
		return user.User{}, "", time.Time{}, err
	}

	exp := now.Add(s.sessionTTL)
	sess := Session{
		UserID:    u.ID,
		TokenHash: hashToken(token),
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: exp,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return user.User{}, "", time.Time{}, err
	}
	return u, token, exp, nil
}

func (s *Service) AuthenticateRequest(r *http.Request, now time.Time) (user.User, Session, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return user.User{}, Session{}, false
	}

	ctx := r.Context()
	sess, ok, err := s.sessions.GetByTokenHash(ctx, hashToken(cookie.Value))
	if err != nil || !ok {
		return user.User{}, Session{}, false
	}

	if now.After(sess.ExpiresAt) {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return user.User{}, Session{}, false
	}

	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return user.User{}, Session{}, false
	}

	// Best-effort last-seen update, throttled to reduce writes.
	if now.Sub(sess.LastSeen) >= 5*time.Minute {
		_ = s.sessions.Touch(ctx, sess.ID, now)
		sess.LastSeen = now
	}

	return u, sess, true
}

func (s *Service) RevokeSessionForRequest(r *http.Request) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return
	}
	_ = s.sessions.DeleteByTokenHash(r.Context(), hashToken(cookie.Value))
}

func (s *Service) shouldUseSecureCookie(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("HABITHISSON_COOKIE_SECURE"))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

func (s *Service) SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.shouldUseSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Service) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.shouldUseSecureCookie(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAPI rejects unauthenticated API requests with a JSON 401 and
// injects the user and session into the request context otherwise.
func (s *Service) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, sess, ok := s.AuthenticateRequest(r, time.Now())
		if !ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized"})
			return
		}
		ctx := withSessionContext(withUserContext(r.Context(), u), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
