package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Queneri/catalogotefi/internal/model"
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repository persists users, their roles and their sessions
type Repository interface {
	// CreateUser stores user together with its initial roles
	CreateUser(ctx context.Context, user *model.User, roles ...string) error
	FindUserByEmail(ctx context.Context, email string) (model.User, error)
	FindUser(ctx context.Context, id uint) (model.User, error)
	HasRole(ctx context.Context, userID uint, role string) (bool, error)
	GrantRole(ctx context.Context, userID uint, role string) error
	CreateSession(ctx context.Context, session model.Session) error
	FindSession(ctx context.Context, id string) (model.Session, error)
	RevokeSession(ctx context.Context, id string, at time.Time) error
}

// GormRepository is the PostgreSQL backed Repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository on db
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates the identity tables
func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(&model.User{}, &model.UserRole{}, &model.Session{})
}

func (r *GormRepository) CreateUser(ctx context.Context, user *model.User, roles ...string) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return errors.Wrap(err, "check existing user")
	}
	if count > 0 {
		return ErrEmailTaken
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return errors.Wrap(err, "create user")
		}
		for _, role := range roles {
			if err := tx.Create(&model.UserRole{UserID: user.ID, Role: role}).Error; err != nil {
				return errors.Wrapf(err, "grant role %s", role)
			}
		}
		return nil
	})
}

func (r *GormRepository) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return user, errors.Wrap(err, "find user")
}

func (r *GormRepository) FindUser(ctx context.Context, id uint) (model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return user, errors.Wrap(err, "find user")
}

func (r *GormRepository) HasRole(ctx context.Context, userID uint, role string) (bool, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "lookup role")
	}
	return count > 0, nil
}

func (r *GormRepository) GrantRole(ctx context.Context, userID uint, role string) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	grant := model.UserRole{UserID: userID, Role: role}
	err := r.db.WithContext(ctx).
		Where(model.UserRole{UserID: userID, Role: role}).
		FirstOrCreate(&grant).Error
	return errors.Wrap(err, "grant role")
}

func (r *GormRepository) CreateSession(ctx context.Context, session model.Session) error {
	defer prometheus.TrackDBOperation("insert")(time.Now())
	return errors.Wrap(r.db.WithContext(ctx).Create(&session).Error, "create session")
}

func (r *GormRepository) FindSession(ctx context.Context, id string) (model.Session, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var session model.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Session{}, ErrNoSession
	}
	return session, errors.Wrap(err, "find session")
}

func (r *GormRepository) RevokeSession(ctx context.Context, id string, at time.Time) error {
	defer prometheus.TrackDBOperation("update")(time.Now())

	res := r.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if res.Error != nil {
		return errors.Wrap(res.Error, "revoke session")
	}
	if res.RowsAffected == 0 {
		return ErrNoSession
	}
	return nil
}

// MemoryRepository keeps identities in process memory
type MemoryRepository struct {
	mu       sync.Mutex
	users    map[uint]model.User
	roles    map[uint]map[string]bool
	sessions map[string]model.Session
	nextID   uint
}

// NewMemoryRepository returns an empty repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[uint]model.User),
		roles:    make(map[uint]map[string]bool),
		sessions: make(map[string]model.Session),
		nextID:   1,
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, user *model.User, roles ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	if len(roles) > 0 {
		r.roles[user.ID] = make(map[string]bool, len(roles))
		for _, role := range roles {
			r.roles[user.ID][role] = true
		}
	}
	return nil
}

func (r *MemoryRepository) FindUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

func (r *MemoryRepository) FindUser(_ context.Context, id uint) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryRepository) HasRole(_ context.Context, userID uint, role string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roles[userID][role], nil
}

func (r *MemoryRepository) GrantRole(_ context.Context, userID uint, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return ErrUserNotFound
	}
	if r.roles[userID] == nil {
		r.roles[userID] = make(map[string]bool)
	}
	r.roles[userID][role] = true
	return nil
}

func (r *MemoryRepository) CreateSession(_ context.Context, session model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

func (r *MemoryRepository) FindSession(_ context.Context, id string) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return model.Session{}, ErrNoSession
	}
	return s, nil
}

func (r *MemoryRepository) RevokeSession(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.RevokedAt != nil {
		return ErrNoSession
	}
	s.RevokedAt = &at
	r.sessions[id] = s
	return nil
}
