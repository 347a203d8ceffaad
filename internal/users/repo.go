package users

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"github.com/suPer8Hu/dating-platform/internal/auth"
	"github.com/suPer8Hu/dating-platform/internal/models"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Find returns the user regardless of status. gorm.ErrRecordNotFound when absent.
func (r *Repo) Find(ctx context.Context, id uint64) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindActive returns the user only if it is active and not banned.
func (r *Repo) FindActive(ctx context.Context, id uint64) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ? AND is_banned = ?", id, true, false).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Register creates an active real-type user with a generated username.
func (r *Repo) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// generate username to avoid conflict
	var username string
	for i := 0; i < 5; i++ {
		u, err := randomUsername11()
		if err != nil {
			return nil, err
		}
		var cnt int64
		if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", u).Count(&cnt).Error; err != nil {
			return nil, err
		}
		if cnt == 0 {
			username = u
			break
		}
	}
	if username == "" {
		return nil, errors.New("failed to allocate username")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Type:         models.UserTypeReal,
		IsActive:     true,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks the password for email.
func (r *Repo) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// generate a 11 digit random username
func randomUsername11() (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	out := make([]byte, 11)
	for i := 0; i < 11; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		out[i] = letters[n.Int64()]
	}
	return string(out), nil
}
