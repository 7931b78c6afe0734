package repository

import (
	"context"

	"look/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository reads and seeds the role existence table.
type RoleRepository interface {
	Names(ctx context.Context) ([]string, error)
	FindExisting(ctx context.Context, names []string) ([]string, error)
	EnsureRoles(ctx context.Context, names ...string) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a new RoleRepository implementation.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&models.Role{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return names, nil
}

// FindExisting returns the subset of names present in the roles table.
func (r *roleRepository) FindExisting(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return []string{}, nil
	}
	var found []string
	if err := r.db.WithContext(ctx).Model(&models.Role{}).
		Where("name IN ?", names).
		Pluck("name", &found).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return found, nil
}

// EnsureRoles inserts any missing names.
func (r *roleRepository) EnsureRoles(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	rows := make([]models.Role, 0, len(names))
	for _, n := range names {
		rows = append(rows, models.Role{Name: n})
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
