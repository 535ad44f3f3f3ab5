package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/branchstack/engine/internal/models"
	appErr "github.com/branchstack/engine/pkg/errors"
)

// UpdateFields holds the branch metadata fields an update may overwrite.
// A nil field keeps the prior value (coalesce, not merge-by-absence-of-key).
type UpdateFields struct {
	Parent        *string
	Strategy      *string
	Configuration datatypes.JSON
}

// BranchRepository persists branch metadata. Status is never read or written
// here; it is derived from the event log by the service layer.
type BranchRepository interface {
	Get(ctx context.Context, name, resource string) (*models.Branch, error)
	List(ctx context.Context, resource string) ([]models.Branch, error)
	Insert(ctx context.Context, b *models.Branch) error
	Update(ctx context.Context, name, resource string, fields UpdateFields) (*models.Branch, error)
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

// Get returns the metadata row, or nil when no branch exists for the pair.
func (r *branchRepository) Get(ctx context.Context, name, resource string) (*models.Branch, error) {
	var b models.Branch
	err := r.db.WithContext(ctx).
		Where("name = ? AND resource = ?", name, resource).
		First(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get branch failed")
	}
	return &b, nil
}

func (r *branchRepository) List(ctx context.Context, resource string) ([]models.Branch, error) {
	var out []models.Branch
	q := r.db.WithContext(ctx).Order("name ASC")
	if resource != "" {
		q = q.Where("resource = ?", resource)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list branches failed")
	}
	return out, nil
}

// Insert creates a new branch row. Uniqueness is enforced only by the
// (name, resource) primary key; avoiding duplicate inserts is the caller's
// responsibility, and a duplicate surfaces as a conflict.
func (r *branchRepository) Insert(ctx context.Context, b *models.Branch) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErr.Wrap(err, appErr.CodeConflict, "branch already exists")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "insert branch failed")
	}
	return nil
}

// Update overwrites only the provided fields and returns the fresh row.
func (r *branchRepository) Update(ctx context.Context, name, resource string, fields UpdateFields) (*models.Branch, error) {
	updates := map[string]any{}
	if fields.Parent != nil {
		updates["parent"] = *fields.Parent
	}
	if fields.Strategy != nil {
		updates["strategy"] = *fields.Strategy
	}
	if fields.Configuration != nil {
		updates["configuration"] = fields.Configuration
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.Branch{}).
			Where("name = ? AND resource = ?", name, resource).
			Updates(updates)
		if res.Error != nil {
			return nil, appErr.Wrap(res.Error, appErr.CodeInternal, "update branch failed")
		}
		if res.RowsAffected == 0 {
			return nil, appErr.New(appErr.CodeNotFound, "branch not found")
		}
	}

	b, err := r.Get(ctx, name, resource)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, appErr.New(appErr.CodeNotFound, "branch not found")
	}
	return b, nil
}
