package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/neocube/neocube-backend/internal/data/repos"
	"github.com/neocube/neocube-backend/internal/data/repos/dberr"
	"github.com/neocube/neocube-backend/internal/domain/user"
	"github.com/neocube/neocube-backend/internal/platform/apierr"
	"github.com/neocube/neocube-backend/internal/platform/ctxutil"
	"github.com/neocube/neocube-backend/internal/platform/logger"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name            string
	Username        string
	Email           string
	Password        string
	Interests       []string
	ExperienceLevel string
}

type AuthResult struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Me(ctx context.Context) (*user.User, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	jwtSecretKey  string
	accessTTL     time.Duration
	adminEmails   map[string]bool
}

func NewAuthService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	avatarService AvatarService,
	jwtSecretKey string,
	accessTTL time.Duration,
	adminEmails []string,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &authService{
		log:           serviceLog,
		userRepo:      userRepo,
		avatarService: avatarService,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		adminEmails:   admins,
	}
}

var errInvalidCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid email or password"))

func (as *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if name == "" || email == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_registration", errors.New("name and email are required"))
	}
	if len(in.Password) < 6 {
		return nil, apierr.New(http.StatusBadRequest, "weak_password", errors.New("password must be at least 6 characters"))
	}
	level := strings.ToLower(strings.TrimSpace(in.ExperienceLevel))
	if level == "" {
		level = "beginner"
	}
	if !user.IsExperienceLevel(level) {
		return nil, apierr.New(http.StatusBadRequest, "invalid_experience_level", fmt.Errorf("unknown experience level %q", in.ExperienceLevel))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := user.RoleUser
	if as.adminEmails[email] {
		role = user.RoleAdmin
	}
	u := &user.User{
		ID:              primitive.NewObjectID(),
		Name:            name,
		Username:        strings.TrimSpace(in.Username),
		Email:           email,
		Password:        string(hash),
		Role:            role,
		Interests:       cleanStrings(in.Interests),
		ExperienceLevel: level,
		Level:           1,
	}
	if as.avatarService != nil {
		if avatar, err := as.avatarService.InitialsDataURI(u); err != nil {
			as.log.Warn("Initials avatar failed", "error", err)
		} else {
			u.Avatar = avatar
		}
	}

	if err := as.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, dberr.ErrDuplicate) {
			return nil, apierr.New(http.StatusConflict, "email_taken", errors.New("an account with this email already exists"))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := as.generateAccessToken(u)
	if err != nil {
		return nil, err
	}
	as.log.Info("User registered", "user_id", u.ID.Hex(), "role", u.Role)
	u.Password = ""
	return &AuthResult{Token: token, User: u}, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errInvalidCredentials
	}
	u, err := as.userRepo.GetByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	token, err := as.generateAccessToken(u)
	if err != nil {
		return nil, err
	}
	u.Password = ""
	return &AuthResult{Token: token, User: u}, nil
}

func (as *authService) Me(ctx context.Context) (*user.User, error) {
	uid, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	u, err := as.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("user no longer exists"))
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (as *authService) generateAccessToken(u *user.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			continue
		}
		seen[strings.ToLower(s)] = true
		out = append(out, s)
	}
	return out
}
