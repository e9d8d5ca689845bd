package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/velora-shop/velora/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func (s *Service) SignAccess(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.JWTSecret)
}

func (s *Service) SignRefresh(userID uint, role string) (string, time.Time, error) {
	exp := time.Now().Add(RefreshTTL)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"typ":  "refresh",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := t.SignedString(s.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return raw, exp, nil
}

// IssuePair mints an access/refresh token pair and persists the refresh
// token so it can later be rotated or revoked.
func (s *Service) IssuePair(userID uint, role string) (access, refresh string, err error) {
	access, err = s.SignAccess(userID, role)
	if err != nil {
		return "", "", err
	}

	refresh, exp, err := s.SignRefresh(userID, role)
	if err != nil {
		return "", "", err
	}

	stored := models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		Role:      role,
		ExpiresAt: exp,
	}
	if err := s.DB.Create(&stored).Error; err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

func (s *Service) ValidateRefresh(raw string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if typ, ok := claims["typ"].(string); !ok || typ != "refresh" {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}

	var stored models.RefreshToken
	if err := s.DB.Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", ErrInvalidToken)
		}
		return nil, err
	}
	if stored.Revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrInvalidToken)
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", ErrInvalidToken)
	}

	return claims, nil
}

// Rotate exchanges a valid refresh token for a new token pair, revoking
// the old refresh token.
func (s *Service) Rotate(raw string) (access, refresh string, err error) {
	claims, err := s.ValidateRefresh(raw)
	if err != nil {
		return "", "", err
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return "", "", ErrInvalidToken
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", ErrInvalidToken
	}

	if err := s.Revoke(raw); err != nil {
		return "", "", err
	}

	return s.IssuePair(uint(sub), role)
}

func (s *Service) Revoke(raw string) error {
	return s.DB.Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error
}
