package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	gamificationrepo "github.com/yungbote/techlearn-backend/internal/data/repos/gamification"
	userrepo "github.com/yungbote/techlearn-backend/internal/data/repos/user"
	types "github.com/yungbote/techlearn-backend/internal/domain"
	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

//go:embed default.yaml
var defaultSeed []byte

type File struct {
	Organizations []Organization `yaml:"organizations"`
}

type Organization struct {
	Name      string `yaml:"name"`
	Subdomain string `yaml:"subdomain"`
	Users     []User `yaml:"users"`
}

type User struct {
	Username string     `yaml:"username"`
	Email    string     `yaml:"email"`
	Password string     `yaml:"password"`
	FullName string     `yaml:"full_name"`
	Role     types.Role `yaml:"role"`
}

// Load reads a seed file. An empty path loads the built-in demo data.
func Load(path string) (*File, error) {
	raw := defaultSeed
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
		raw = b
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) Validate() error {
	if len(f.Organizations) == 0 {
		return fmt.Errorf("seed file has no organizations")
	}
	for i, org := range f.Organizations {
		if strings.TrimSpace(org.Name) == "" {
			return fmt.Errorf("organizations[%d]: name is required", i)
		}
		if strings.TrimSpace(org.Subdomain) == "" {
			return fmt.Errorf("organizations[%d]: subdomain is required", i)
		}
		for j, u := range org.Users {
			switch {
			case strings.TrimSpace(u.Username) == "":
				return fmt.Errorf("organizations[%d].users[%d]: username is required", i, j)
			case !strings.Contains(u.Email, "@"):
				return fmt.Errorf("organizations[%d].users[%d]: invalid email %q", i, j, u.Email)
			case len(u.Password) < 6:
				return fmt.Errorf("organizations[%d].users[%d]: password must be at least 6 characters", i, j)
			case u.Role != "" && !u.Role.Valid():
				return fmt.Errorf("organizations[%d].users[%d]: unknown role %q", i, j, u.Role)
			}
		}
	}
	return nil
}

type Report struct {
	OrganizationsCreated int
	UsersCreated         int
	UsersSkipped         int
}

type Seeder struct {
	db     *gorm.DB
	log    *logger.Logger
	users  userrepo.UserRepo
	orgs   userrepo.OrganizationRepo
	points gamificationrepo.PointsRepo
	cost   int
}

func NewSeeder(db *gorm.DB, baseLog *logger.Logger) *Seeder {
	return &Seeder{
		db:     db,
		log:    baseLog.With("component", "Seeder"),
		users:  userrepo.NewUserRepo(db, baseLog),
		orgs:   userrepo.NewOrganizationRepo(db, baseLog),
		points: gamificationrepo.NewPointsRepo(db, baseLog),
		cost:   bcrypt.DefaultCost,
	}
}

// Run creates every organization and user in f that does not exist yet.
// Existing records are left untouched, so running it twice is a no-op.
func (s *Seeder) Run(ctx context.Context, f *File) (Report, error) {
	var rep Report
	for _, def := range f.Organizations {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			org, created, err := s.ensureOrganization(ctx, tx, def)
			if err != nil {
				return err
			}
			if created {
				rep.OrganizationsCreated++
			}
			for _, u := range def.Users {
				created, err := s.ensureUser(ctx, tx, org.ID, u)
				if err != nil {
					return err
				}
				if created {
					rep.UsersCreated++
				} else {
					rep.UsersSkipped++
				}
			}
			return nil
		})
		if err != nil {
			return rep, fmt.Errorf("seed organization %q: %w", def.Name, err)
		}
	}
	s.log.Info("seed complete",
		"organizations_created", rep.OrganizationsCreated,
		"users_created", rep.UsersCreated,
		"users_skipped", rep.UsersSkipped,
	)
	return rep, nil
}

func (s *Seeder) ensureOrganization(ctx context.Context, tx *gorm.DB, def Organization) (*types.Organization, bool, error) {
	subdomain := strings.ToLower(strings.TrimSpace(def.Subdomain))
	existing, err := s.orgs.GetBySubdomain(ctx, tx, subdomain)
	if err != nil {
		return nil, false, fmt.Errorf("load organization: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}
	org := &types.Organization{Name: strings.TrimSpace(def.Name), Subdomain: subdomain}
	if _, err := s.orgs.Create(ctx, tx, org); err != nil {
		return nil, false, fmt.Errorf("create organization: %w", err)
	}
	s.log.Info("created organization", "organization_id", org.ID, "subdomain", subdomain)
	return org, true, nil
}

func (s *Seeder) ensureUser(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, def User) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(def.Email))
	username := strings.TrimSpace(def.Username)
	exists, err := s.users.ExistsByEmailOrUsername(ctx, tx, email, username)
	if err != nil {
		return false, fmt.Errorf("check user %q: %w", username, err)
	}
	if exists {
		return false, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(def.Password), s.cost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	role := def.Role
	if role == "" {
		role = types.RoleLearner
	}
	fullName := strings.TrimSpace(def.FullName)
	if fullName == "" {
		fullName = username
	}
	u := &types.User{
		Email:          email,
		Username:       username,
		PasswordHash:   string(hash),
		FullName:       fullName,
		Role:           role,
		OrganizationID: orgID,
		IsActive:       true,
	}
	if _, err := s.users.Create(ctx, tx, u); err != nil {
		return false, fmt.Errorf("create user %q: %w", username, err)
	}
	if _, err := s.points.Create(ctx, tx, &types.UserPoints{UserID: u.ID, Level: 1}); err != nil {
		return false, fmt.Errorf("init points for %q: %w", username, err)
	}
	s.log.Info("created user", "user_id", u.ID, "role", role)
	return true, nil
}
