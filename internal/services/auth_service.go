package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/devarena/backend/internal/config"
	"github.com/devarena/backend/internal/dto"
	"github.com/devarena/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrBadUnsubscribe     = errors.New("invalid or corrupted unsubscribe link")
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

const unsubscribeSalt = "unsubscribe-daily-prompt"

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// Register validates the form fields and creates a local-password account.
// Validation failures come back as plain errors whose messages are shown to
// the user as-is.
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}
	if err := s.db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		AuthProvider: "email",
		Rating:       1000,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(&user)
}

func validateRegistration(req *dto.RegisterRequest) error {
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return errors.New("username, email and password are required")
	}
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return errors.New("username must be 3-20 characters")
	}
	if req.Email != strings.ToLower(req.Email) {
		return errors.New("Email must be in lowercase.")
	}
	if !emailPattern.MatchString(req.Email) {
		return errors.New("invalid email address")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// Login rejects OAuth-only accounts (empty hash) the same way as a wrong
// password, so the response does not leak how the account was created.
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(&user)
}

// GoogleSignIn finds or creates the account matching a verified Google
// identity. First-time emails get a username derived from the profile name,
// de-duplicated with _1, _2, ... suffixes.
func (s *AuthService) GoogleSignIn(googleID, email, name string) (*dto.AuthResponse, error) {
	if googleID == "" || email == "" {
		return nil, errors.New("google profile is missing id or email")
	}
	email = strings.ToLower(email)

	var user models.User
	err := s.db.Where("google_id = ? OR email = ?", googleID, email).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		username, uerr := s.dedupUsername(usernameFromProfile(name, email))
		if uerr != nil {
			return nil, uerr
		}

		user = models.User{
			ID:           uuid.New(),
			Username:     username,
			Email:        email,
			GoogleID:     &googleID,
			AuthProvider: "google",
			Rating:       1000,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create google user: %w", err)
		}
	} else if user.GoogleID == nil {
		// Existing local account logging in with Google for the first time.
		s.db.Model(&user).Updates(map[string]interface{}{
			"google_id":     googleID,
			"auth_provider": "google",
		})
		user.GoogleID = &googleID
		user.AuthProvider = "google"
	}

	return s.generateTokenPair(&user)
}

func usernameFromProfile(name, email string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = strings.Split(email, "@")[0]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" {
		out = "user"
	}
	if len(out) > 16 {
		out = out[:16]
	}
	return out
}

func (s *AuthService) dedupUsername(base string) (string, error) {
	candidate := base
	for i := 0; ; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d", base, i)
		}
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
	}
}

func (s *AuthService) Refresh(req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(&user)
}

func (s *AuthService) Logout(req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}

func (s *AuthService) GetUser(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *AuthService) UpdateProfile(userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if req.Username != "" && req.Username != user.Username {
		if len(req.Username) < 3 || len(req.Username) > 20 {
			return nil, errors.New("username must be 3-20 characters")
		}
		var count int64
		s.db.Model(&models.User{}).Where("username = ? AND id <> ?", req.Username, userID).Count(&count)
		if count > 0 {
			return nil, ErrUsernameTaken
		}
		if err := s.db.Model(user).Update("username", req.Username).Error; err != nil {
			return nil, err
		}
		user.Username = req.Username
	}
	return user, nil
}

// MintUnsubscribeToken signs the user id for one-click unsubscribe links in
// daily prompt mails.
func (s *AuthService) MintUnsubscribeToken(userID uuid.UUID) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(userID.String()))
	return payload + "." + s.unsubscribeSig(payload)
}

// Unsubscribe verifies the token and clears the daily prompt flag.
func (s *AuthService) Unsubscribe(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return ErrBadUnsubscribe
	}
	expected := s.unsubscribeSig(parts[0])
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[1])) != 1 {
		return ErrBadUnsubscribe
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return ErrBadUnsubscribe
	}
	userID, err := uuid.Parse(string(raw))
	if err != nil {
		return ErrBadUnsubscribe
	}

	return s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("subscribed_to_daily_prompt", false).Error
}

func (s *AuthService) unsubscribeSig(payload string) string {
	mac := hmac.New(sha256.New, []byte(s.cfg.SessionSecret))
	mac.Write([]byte(unsubscribeSalt + ":" + payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (s *AuthService) generateTokenPair(user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         UserToResponse(user),
	}, nil
}

// UserToResponse maps a User row to its public JSON shape.
func UserToResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		ImageFile:    user.ImageFile,
		Points:       user.Points,
		Rating:       user.Rating,
		Wins:         user.Wins,
		Losses:       user.Losses,
		TotalBattles: user.TotalBattles,
		IsGoogleUser: user.AuthProvider == "google",
	}
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"email":    user.Email,
		"username": user.Username,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	tokenHash := hashToken(rawToken)

	record := models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
