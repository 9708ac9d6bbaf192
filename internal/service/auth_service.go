package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"doubtdesk/internal/model"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService resolves the opaque bearer token issued by the identity
// provider into student claims. It never issues credentials for real users;
// IssueStudentToken exists for seeding and tests.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service.
func NewAuthService(secret string) *AuthService {
	return &AuthService{jwtSecret: []byte(secret)}
}

// ValidateStudentToken parses and validates a student token.
func (s *AuthService) ValidateStudentToken(tokenString string) (*model.StudentClaims, error) {
	claims := &model.StudentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueStudentToken signs a token for the given student.
func (s *AuthService) IssueStudentToken(studentID, username, class string) (string, error) {
	claims := &model.StudentClaims{
		StudentID: studentID,
		Username:  username,
		Class:     class,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
