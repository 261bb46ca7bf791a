package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	gamificationrepo "github.com/yungbote/techlearn-backend/internal/data/repos/gamification"
	userrepo "github.com/yungbote/techlearn-backend/internal/data/repos/user"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
	"github.com/yungbote/techlearn-backend/internal/platform/validate"
)

type RegisterInput struct {
	Email          string     `json:"email" validate:"required,email"`
	Username       string     `json:"username" validate:"required,min=3,max=64"`
	Password       string     `json:"password" validate:"required,min=6,max=72"`
	FullName       string     `json:"fullName" validate:"max=200"`
	OrganizationID *uuid.UUID `json:"organizationId"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Profile is the caller's user record joined with their points.
type Profile struct {
	*types.User
	TotalPoints       int `json:"total_points"`
	Level             int `json:"level"`
	CurrentStreakDays int `json:"current_streak_days"`
}

type JWTClaims struct {
	Role           types.Role `json:"role"`
	OrganizationID string     `json:"org"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, in LoginInput) (string, *types.User, error)
	DecodeToken(token string) (types.Principal, error)
	Me(ctx context.Context, p types.Principal) (*Profile, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	users         userrepo.UserRepo
	orgs          userrepo.OrganizationRepo
	points        gamificationrepo.PointsRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	defaultOrgSub string
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	users userrepo.UserRepo,
	orgs userrepo.OrganizationRepo,
	points gamificationrepo.PointsRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	defaultOrgSubdomain string,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		db:            db,
		log:           serviceLog,
		users:         users,
		orgs:          orgs,
		points:        points,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		defaultOrgSub: defaultOrgSubdomain,
		now:           time.Now,
	}
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("hash password: %w", err))
	}
	fullName := in.FullName
	if fullName == "" {
		fullName = in.Username
	}

	var created *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orgID, err := as.resolveOrganization(ctx, tx, in.OrganizationID)
		if err != nil {
			return err
		}
		exists, err := as.users.ExistsByEmailOrUsername(ctx, tx, in.Email, in.Username)
		if err != nil {
			return fmt.Errorf("check existing user: %w", err)
		}
		if exists {
			return apierr.Conflict("user already exists")
		}
		u := &types.User{
			Email:          in.Email,
			Username:       in.Username,
			PasswordHash:   string(hash),
			FullName:       fullName,
			Role:           types.RoleLearner,
			OrganizationID: orgID,
			IsActive:       true,
		}
		if _, err := as.users.Create(ctx, tx, u); err != nil {
			if isDuplicate(err) {
				return apierr.Conflict("user already exists")
			}
			return fmt.Errorf("create user: %w", err)
		}
		if _, err := as.points.Create(ctx, tx, &types.UserPoints{UserID: u.ID, Level: 1}); err != nil {
			return fmt.Errorf("init user points: %w", err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("user registered", "user_id", created.ID, "organization_id", created.OrganizationID)
	return created, nil
}

func (as *authService) resolveOrganization(ctx context.Context, tx *gorm.DB, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested != uuid.Nil {
		org, err := as.orgs.GetByID(ctx, tx, *requested)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load organization: %w", err)
		}
		if org == nil {
			return uuid.Nil, apierr.Validation("organization does not exist")
		}
		return org.ID, nil
	}
	org, err := as.orgs.GetBySubdomain(ctx, tx, as.defaultOrgSub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load default organization: %w", err)
	}
	if org == nil {
		return uuid.Nil, apierr.Validation("no organization given and default organization %q is not set up", as.defaultOrgSub)
	}
	return org.ID, nil
}

func (as *authService) Login(ctx context.Context, in LoginInput) (string, *types.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validate.Struct(in); err != nil {
		return "", nil, err
	}
	u, err := as.users.GetByUsername(ctx, nil, in.Username)
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || !u.IsActive {
		return "", nil, apierr.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, apierr.Unauthorized("invalid credentials")
	}
	now := as.now().UTC()
	if err := as.users.TouchLastLogin(ctx, nil, u.ID, now); err != nil {
		as.log.Warn("failed to record last login", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}
	token, err := as.issueToken(u, now)
	if err != nil {
		return "", nil, apierr.Internal(fmt.Errorf("sign token: %w", err))
	}
	return token, u, nil
}

func (as *authService) issueToken(u *types.User, now time.Time) (string, error) {
	claims := JWTClaims{
		Role:           u.Role,
		OrganizationID: u.OrganizationID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) DecodeToken(tokenString string) (types.Principal, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return types.Principal{}, apierr.Unauthorized("access token required")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return types.Principal{}, apierr.Unauthorized("token expired")
		}
		return types.Principal{}, apierr.Unauthorized("invalid token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return types.Principal{}, apierr.Unauthorized("invalid token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return types.Principal{}, apierr.Unauthorized("invalid token subject")
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil || !claims.Role.Valid() {
		return types.Principal{}, apierr.Unauthorized("invalid token claims")
	}
	return types.Principal{UserID: userID, Role: claims.Role, OrganizationID: orgID}, nil
}

func (as *authService) Me(ctx context.Context, p types.Principal) (*Profile, error) {
	u, err := as.users.GetByID(ctx, nil, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apierr.NotFound("user")
	}
	out := &Profile{User: u, Level: 1}
	pts, err := as.points.Get(ctx, nil, u.ID)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	if pts != nil {
		out.TotalPoints = pts.TotalPoints
		out.Level = pts.Level
		out.CurrentStreakDays = pts.CurrentStreakDays
	}
	return out, nil
}
