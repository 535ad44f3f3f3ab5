package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/branchstack/engine/internal/models"
	appErr "github.com/branchstack/engine/pkg/errors"
)

// EventRepository is the append-only log of lifecycle events. It carries no
// business rules; deciding when to append belongs to the service layer.
type EventRepository interface {
	Append(ctx context.Context, branch, resource string, status models.Status, message string) (*models.Event, error)
	Latest(ctx context.Context, branch, resource string) (*models.Event, error)
	History(ctx context.Context, branch, resource string) ([]models.Event, error)
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(ctx context.Context, branch, resource string, status models.Status, message string) (*models.Event, error) {
	e := &models.Event{
		Branch:    branch,
		Resource:  resource,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "append event failed")
	}
	return e, nil
}

// Latest returns the event with the maximum timestamp for the pair, ties
// broken by the highest id, or nil when the pair has no events.
func (r *eventRepository) Latest(ctx context.Context, branch, resource string) (*models.Event, error) {
	var e models.Event
	err := r.db.WithContext(ctx).
		Where("branch = ? AND resource = ?", branch, resource).
		Order("timestamp DESC").Order("id DESC").
		First(&e).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "get latest event failed")
	}
	return &e, nil
}

func (r *eventRepository) History(ctx context.Context, branch, resource string) ([]models.Event, error) {
	var out []models.Event
	err := r.db.WithContext(ctx).
		Where("branch = ? AND resource = ?", branch, resource).
		Order("timestamp ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list events failed")
	}
	return out, nil
}
