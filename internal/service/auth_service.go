package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"go-todo-client/internal/model"
	"go-todo-client/internal/repository"
	"go-todo-client/internal/util"
	"go-todo-client/pkg/apierror"
)

const MinPasswordLength = 6

type AuthService struct {
	users      repository.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users repository.UserRepository, jwtSecret string, accessTTL time.Duration, bcryptCost int) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &AuthService{
		users:      users,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (model.TokenResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenResponse{}, invalidCredentials()
	}
	if err != nil {
		return model.TokenResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenResponse{}, invalidCredentials()
	}
	if !user.IsActive {
		return model.TokenResponse{}, invalidCredentials()
	}

	return s.issueToken(user)
}

// Register creates a regular account and logs it in. The requested role is
// ignored; admins are only ever created by EnsureAdmin.
func (s *AuthService) Register(ctx context.Context, request model.SignupRequest) (model.TokenResponse, error) {
	request.Username = util.CleanText(request.Username)
	request.Email = util.CleanText(request.Email)
	request.FirstName = util.CleanText(request.FirstName)
	request.LastName = util.CleanText(request.LastName)

	var v validator
	v.length("username", request.Username, 3, 50)
	if request.Username != "" && !util.ValidUsername(request.Username) {
		v.add("username", "string_pattern_mismatch", "String should match pattern '^[A-Za-z0-9][A-Za-z0-9_.@-]*$'")
	}
	if request.Email != "" && !strings.Contains(request.Email, "@") {
		v.add("email", "value_error", "value is not a valid email address")
	}
	v.length("password", request.Password, MinPasswordLength, 72)
	if err := v.err(); err != nil {
		return model.TokenResponse{}, err
	}

	user, err := s.createUser(ctx, request, model.RoleUser)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return s.issueToken(user)
}

// EnsureAdmin creates an admin account unless username is already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username string, password string) (bool, error) {
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return false, err
	}

	_, err := s.createUser(ctx, model.SignupRequest{Username: username, Password: password, FirstName: "Admin"}, model.RoleAdmin)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, request model.SignupRequest, role model.Role) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), s.bcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		Username:     request.Username,
		Email:        request.Email,
		FirstName:    request.FirstName,
		LastName:     request.LastName,
		Role:         role,
		IsActive:     true,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.User{}, apierror.New("ALREADY_EXISTS", "Username already registered", request.Username, http.StatusConflict)
		}
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, invalidCredentials()
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, invalidCredentials()
	}

	claims := &model.AuthClaims{}
	claims.Username, _ = claimsMap["sub"].(string)
	role, _ := claimsMap["role"].(string)
	claims.Role = model.ParseRole(role)
	if id, ok := claimsMap["id"].(float64); ok {
		claims.UserID = int64(id)
	}

	if claims.Username == "" || claims.UserID == 0 {
		return nil, invalidCredentials()
	}

	return claims, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, claims *model.AuthClaims) (model.User, error) {
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, invalidCredentials()
	}
	return user, err
}

// ChangePassword replaces the caller's password. Issued tokens stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, claims *model.AuthClaims, request model.PasswordChangeRequest) error {
	var v validator
	v.length("new_password", request.NewPassword, MinPasswordLength, 72)
	if err := v.err(); err != nil {
		return err
	}

	user, err := s.CurrentUser(ctx, claims)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		return apierror.New("UNAUTHORIZED", "Error on password change", "", http.StatusUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func (s *AuthService) issueToken(user model.User) (model.TokenResponse, error) {
	now := s.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.Username,
		"id":   user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.accessTTL).Unix(),
	})

	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("sign token: %w", err)
	}

	return model.TokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		Role:        string(user.Role),
	}, nil
}

func invalidCredentials() error {
	return apierror.New("UNAUTHORIZED", "Could not validate user.", "", http.StatusUnauthorized)
}
