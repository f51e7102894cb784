package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidOTPFormat   = errors.New("otp code must be 6 digits")
	ErrInvalidOTP         = errors.New("invalid otp code")
	ErrOTPExpired         = errors.New("otp code expired")
	ErrTooManyOTPAttempts = errors.New("too many invalid otp attempts")
)

const defaultCookieName = "wildcraft_session"

type Service struct {
	repo    *FileRepo
	players PlayerLookup

	logger *log.Logger

	cookieName     string
	cookiePath     string
	cookieDomain   string
	cookieSameSite http.SameSite
	otpTTL         time.Duration
	sessionTTL     time.Duration
	maxOTPAttempts int
}

func NewService(repo *FileRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{
		repo:           repo,
		logger:         logger,
		cookieName:     defaultCookieName,
		cookiePath:     "/",
		cookieSameSite: http.SameSiteLaxMode,
		otpTTL:         10 * time.Minute,
		sessionTTL:     7 * 24 * time.Hour,
		maxOTPAttempts: 5,
	}
	s.applyEnv()
	return s
}

// SetPlayerLookup attaches the caller's player to authenticated requests.
func (s *Service) SetPlayerLookup(fn PlayerLookup) {
	s.players = fn
}

func (s *Service) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("WILDCRAFT_COOKIE_NAME")); v != "" {
		s.cookieName = v
	}
	if v := strings.TrimSpace(os.Getenv("WILDCRAFT_COOKIE_PATH")); v != "" {
		s.cookiePath = v
	}
	if v := strings.TrimSpace(os.Getenv("WILDCRAFT_COOKIE_DOMAIN")); v != "" {
		s.cookieDomain = v
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("WILDCRAFT_COOKIE_SAMESITE"))) {
	case "strict":
		s.cookieSameSite = http.SameSiteStrictMode
	case "none":
		s.cookieSameSite = http.SameSiteNoneMode
	case "lax":
		s.cookieSameSite = http.SameSiteLaxMode
	}
	if n := envInt("WILDCRAFT_SESSION_TTL_HOURS"); n > 0 {
		s.sessionTTL = time.Duration(n) * time.Hour
	}
	if n := envInt("WILDCRAFT_OTP_TTL_MINUTES"); n > 0 {
		s.otpTTL = time.Duration(n) * time.Minute
	}
	if n := envInt("WILDCRAFT_OTP_MAX_ATTEMPTS"); n > 0 {
		s.maxOTPAttempts = n
	}
}

func envInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return 0
	}
	return n
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

func validateCode(code string) error {
	if len(code) != 6 {
		return ErrInvalidOTPFormat
	}
	for _, ch := range code {
		if ch < '0' || ch > '9' {
			return ErrInvalidOTPFormat
		}
	}
	return nil
}

func hashOTP(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return hex.EncodeToString(sum[:])
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func (s *Service) RequestOTP(email string, now time.Time) (expiresAt time.Time, code string, err error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return time.Time{}, "", err
	}
	code, err = generateOTPCode()
	if err != nil {
		return time.Time{}, "", err
	}
	ch := OTPChallenge{
		Email:       email,
		CodeHash:    hashOTP(email, code),
		ExpiresAt:   now.Add(s.otpTTL),
		RequestedAt: now,
		Attempts:    0,
	}
	if err := s.repo.PutChallenge(ch); err != nil {
		return time.Time{}, "", err
	}
	return ch.ExpiresAt, code, nil
}

func (s *Service) VerifyOTP(email, otpCode string, now time.Time) (User, string, time.Time, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return User{}, "", time.Time{}, err
	}
	if err := validateCode(otpCode); err != nil {
		return User{}, "", time.Time{}, err
	}

	ch, ok := s.repo.GetChallenge(email)
	if !ok {
		return User{}, "", time.Time{}, ErrInvalidOTP
	}

	if ch.Expired(now) {
		_ = s.repo.DeleteChallenge(email)
		return User{}, "", time.Time{}, ErrOTPExpired
	}

	if ch.Attempts >= s.maxOTPAttempts {
		_ = s.repo.DeleteChallenge(email)
		return User{}, "", time.Time{}, ErrTooManyOTPAttempts
	}

	if !ch.matches(otpCode) {
		ch.Attempts++
		if ch.Attempts >= s.maxOTPAttempts {
			_ = s.repo.DeleteChallenge(email)
			return User{}, "", time.Time{}, ErrTooManyOTPAttempts
		}
		_ = s.repo.PutChallenge(ch)
		return User{}, "", time.Time{}, ErrInvalidOTP
	}

	if err := s.repo.DeleteChallenge(email); err != nil {
		return User{}, "", time.Time{}, err
	}

	u, created, err := s.repo.GetOrCreateUser(email, now)
	if err != nil {
		return User{}, "", time.Time{}, err
	}
	if created {
		s.logger.Info("user created", "user", u.ID)
	}

	token, err := generateToken()
	if err != nil {
		return User{}, "", time.Time{}, err
	}

	exp := now.Add(s.sessionTTL)
	sess := Session{
		ID:        newID(),
		UserID:    u.ID,
		TokenHash: hashToken(token),
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: exp,
	}
	if err := s.repo.CreateSession(sess); err != nil {
		return User{}, "", time.Time{}, err
	}
	return u, token, exp, nil
}

// requestToken reads the session token from the cookie, falling back to an
// Authorization: Bearer header.
func (s *Service) requestToken(r *http.Request) string {
	if cookie, err := r.Cookie(s.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (s *Service) AuthenticateRequest(r *http.Request, now time.Time) (User, Session, bool) {
	token := s.requestToken(r)
	if token == "" {
		return User{}, Session{}, false
	}

	sess, ok := s.repo.GetSessionByTokenHash(hashToken(token))
	if !ok {
		return User{}, Session{}, false
	}

	if sess.Expired(now) {
		_ = s.repo.DeleteSessionByID(sess.ID)
		return User{}, Session{}, false
	}

	u, ok := s.repo.GetUserByID(sess.UserID)
	if !ok {
		_ = s.repo.DeleteSessionByID(sess.ID)
		return User{}, Session{}, false
	}

	if sess.needsTouch(now) {
		_ = s.repo.TouchSession(sess.ID, now)
		sess.LastSeen = now
	}

	return u, sess, true
}

// Authenticate resolves the request's session and, when a player lookup is
// set, the player the user owns. A failed lookup leaves the player empty.
func (s *Service) Authenticate(r *http.Request, now time.Time) (Principal, bool) {
	u, sess, ok := s.AuthenticateRequest(r, now)
	if !ok {
		return Principal{}, false
	}
	p := Principal{User: u, Session: sess}
	if s.players == nil {
		return p, true
	}
	ref, found, err := s.players(r.Context(), u.ID)
	if err != nil {
		s.logger.Warn("player lookup failed", "user", u.ID, "err", err)
		return p, true
	}
	if found {
		p.Player = ref
	}
	return p, true
}

func (s *Service) RevokeSessionForRequest(r *http.Request) {
	token := s.requestToken(r)
	if token == "" {
		return
	}
	_ = s.repo.DeleteSessionByTokenHash(hashToken(token))
}

// PruneExpired drops expired sessions and OTP challenges.
func (s *Service) PruneExpired(now time.Time) (int, error) {
	n, err := s.repo.PruneExpired(now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("pruned auth records", "count", n)
	}
	return n, nil
}

func (s *Service) shouldUseSecureCookie(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("WILDCRAFT_COOKIE_SECURE"))) {
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

// sameSiteFor downgrades SameSite=None to Lax on insecure cookies, which
// browsers would otherwise reject.
func (s *Service) sameSiteFor(secure bool) http.SameSite {
	if s.cookieSameSite == http.SameSiteNoneMode && !secure {
		return http.SameSiteLaxMode
	}
	return s.cookieSameSite
}

func (s *Service) SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	secure := s.shouldUseSecureCookie(r)
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: s.sameSiteFor(secure),
	})
}

func (s *Service) ClearSessionCookie(w http.ResponseWriter, r *http.Request) {
	secure := s.shouldUseSecureCookie(r)
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     s.cookiePath,
		Domain:   s.cookieDomain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: s.sameSiteFor(secure),
	})
}

func (s *Service) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.Authenticate(r, time.Now())
		if !ok {
			writeErr(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
	})
}
