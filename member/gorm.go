package member

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemberModel is the member table row.
type MemberModel struct {
	ID          int64            `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username    string           `gorm:"column:username;size:50;uniqueIndex;not null"`
	Password    string           `gorm:"column:password;size:100;not null"`
	Nickname    string           `gorm:"column:nickname;size:50"`
	Activated   bool             `gorm:"column:activated;not null"`
	Authorities []AuthorityModel `gorm:"many2many:user_authority;joinForeignKey:UserID;joinReferences:AuthorityName"`
}

// TableName sets the table name.
func (MemberModel) TableName() string { return "member" }

// AuthorityModel is the authority table row.
type AuthorityModel struct {
	Name string `gorm:"column:authority_name;size:50;primaryKey"`
}

// TableName sets the table name.
func (AuthorityModel) TableName() string { return "authority" }

// OpenPostgres connects to PostgreSQL. GORM's own logging is silenced; errors
// surface through return values, with driver errors translated to GORM's
// sentinels such as gorm.ErrDuplicatedKey.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("member: connect postgres: %w", err)
	}
	return db, nil
}

// GormStore is a Store backed by GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the member tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if s.db == nil {
		return ErrDBUnavailable
	}
	return s.db.WithContext(ctx).AutoMigrate(&AuthorityModel{}, &MemberModel{})
}

// FindByUsername loads a member with its authorities.
func (s *GormStore) FindByUsername(ctx context.Context, username string) (*Member, error) {
	if s.db == nil {
		return nil, ErrDBUnavailable
	}
	var model MemberModel
	err := s.db.WithContext(ctx).
		Preload("Authorities").
		First(&model, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return fromModel(model), nil
}

// Create inserts m with its authorities and assigns its ID. The username
// unique index decides duplicates.
func (s *GormStore) Create(ctx context.Context, m *Member) error {
	if s.db == nil {
		return ErrDBUnavailable
	}
	model := toModel(m)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		return translateError(err)
	}
	m.ID = model.ID
	return nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

// Ping checks database connectivity.
func (s *GormStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrDBUnavailable
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(m *Member) MemberModel {
	model := MemberModel{
		ID:        m.ID,
		Username:  m.Username,
		Password:  m.PasswordHash,
		Nickname:  m.Nickname,
		Activated: m.Activated,
	}
	for _, a := range m.Authorities {
		model.Authorities = append(model.Authorities, AuthorityModel{Name: a})
	}
	return model
}

func fromModel(model MemberModel) *Member {
	m := &Member{
		ID:           model.ID,
		Username:     model.Username,
		PasswordHash: model.Password,
		Nickname:     model.Nickname,
		Activated:    model.Activated,
		Authorities:  make([]string, 0, len(model.Authorities)),
	}
	for _, a := range model.Authorities {
		m.Authorities = append(m.Authorities, a.Name)
	}
	return m
}

var _ Store = (*GormStore)(nil)
