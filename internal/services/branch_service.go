package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/branchstack/engine/internal/models"
	"github.com/branchstack/engine/internal/queue"
	"github.com/branchstack/engine/internal/repository"
	"github.com/branchstack/engine/internal/strategy"
	appErr "github.com/branchstack/engine/pkg/errors"
	"github.com/branchstack/engine/pkg/logger"
)

// BranchService orchestrates the branch lifecycle: it validates requests,
// decides when events are appended, and hands provisioning work to the queue.
// It is the only component that writes to the event log.
type BranchService interface {
	RequestCreate(ctx context.Context, input *CreateBranchInput) (*models.Branch, error)
	RequestDelete(ctx context.Context, name, resource string) (*models.Branch, error)
	Get(ctx context.Context, name, resource string) (*models.Branch, error)
	List(ctx context.Context, resource string) ([]models.Branch, error)
	History(ctx context.Context, name, resource string) ([]models.Event, error)
}

type CreateBranchInput struct {
	Name          string
	Parent        string
	Resource      string
	Strategy      string
	Configuration map[string]any
}

type branchService struct {
	branches repository.BranchRepository
	events   repository.EventRepository
	registry *strategy.Registry
	queue    *queue.Queue
}

func NewBranchService(branches repository.BranchRepository, events repository.EventRepository, registry *strategy.Registry, q *queue.Queue) BranchService {
	return &branchService{branches: branches, events: events, registry: registry, queue: q}
}

var _ BranchService = (*branchService)(nil)

// resolveStatus folds the event log into the branch's current status: the
// status of the event with the maximum (timestamp, id) for the pair. The empty
// string means the pair has no events. Callers must not cache the result; the
// log is the only source of truth.
func (s *branchService) resolveStatus(ctx context.Context, name, resource string) (models.Status, error) {
	latest, err := s.events.Latest(ctx, name, resource)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "", nil
	}
	return latest.Status, nil
}

func (s *branchService) RequestCreate(ctx context.Context, input *CreateBranchInput) (*models.Branch, error) {
	if input.Name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "missing required field 'name'")
	}
	if input.Parent == "" {
		return nil, appErr.New(appErr.CodeInvalid, "missing required field 'parent'")
	}
	if input.Strategy == "" {
		return nil, appErr.New(appErr.CodeInvalid, "missing required field 'strategy'")
	}

	logger.L().Info("create branch requested",
		zap.String("branch", input.Name), zap.String("resource", input.Resource), zap.String("strategy", input.Strategy))

	configuration, err := marshalConfiguration(input.Configuration)
	if err != nil {
		return nil, err
	}

	existing, err := s.branches.Get(ctx, input.Name, input.Resource)
	if err != nil {
		return nil, err
	}

	var branch *models.Branch
	if existing != nil {
		status, err := s.resolveStatus(ctx, input.Name, input.Resource)
		if err != nil {
			return nil, err
		}
		if status != models.StatusInactive {
			return nil, appErr.New(appErr.CodeConflict,
				fmt.Sprintf("Branch '%s' already exists for resource '%s'", input.Name, input.Resource))
		}

		// recycle the inactive branch into a fresh lifecycle
		branch, err = s.branches.Update(ctx, input.Name, input.Resource, repository.UpdateFields{
			Parent:        &input.Parent,
			Strategy:      &input.Strategy,
			Configuration: configuration,
		})
		if err != nil {
			return nil, err
		}
	} else {
		branch = &models.Branch{
			Name:          input.Name,
			Resource:      input.Resource,
			Parent:        input.Parent,
			Strategy:      input.Strategy,
			Configuration: configuration,
		}
		if err := s.branches.Insert(ctx, branch); err != nil {
			return nil, err
		}
	}

	if _, err := s.events.Append(ctx, input.Name, input.Resource, models.StatusRequested, ""); err != nil {
		return nil, err
	}

	// Resolved after the branch row and requested event are persisted: an
	// unknown strategy leaves the branch parked at requested, which is
	// accepted, observable behavior.
	strat, err := s.registry.Lookup(input.Resource, input.Strategy)
	if err != nil {
		return nil, err
	}

	name, parent, resource := input.Name, input.Parent, input.Resource
	cfg := input.Configuration
	// TODO: serialize tasks per (branch, resource) so a stale error event from
	// an earlier attempt cannot be appended after a newer active one.
	s.queue.Submit(func(taskCtx context.Context) error {
		if _, err := s.events.Append(taskCtx, name, resource, models.StatusActivating, ""); err != nil {
			return err
		}
		if err := strat.Create(taskCtx, name, parent, cfg); err != nil {
			msg := err.Error()
			if msg == "" {
				msg = fmt.Sprintf("Failed to create branch %s", name)
			}
			if _, appendErr := s.events.Append(taskCtx, name, resource, models.StatusError, msg); appendErr != nil {
				return appendErr
			}
			return err
		}
		_, err := s.events.Append(taskCtx, name, resource, models.StatusActive, "")
		return err
	})

	branch.Status = models.StatusRequested
	return branch, nil
}

func (s *branchService) RequestDelete(ctx context.Context, name, resource string) (*models.Branch, error) {
	branch, err := s.branches.Get(ctx, name, resource)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, appErr.New(appErr.CodeNotFound, fmt.Sprintf("Branch '%s' not found", name))
	}

	status, err := s.resolveStatus(ctx, name, resource)
	if err != nil {
		return nil, err
	}
	if status == models.StatusInactive {
		// idempotent: no new event, no task
		branch.Status = models.StatusInactive
		return branch, nil
	}

	strat, err := s.registry.Lookup(resource, branch.Strategy)
	if err != nil {
		return nil, err
	}

	logger.L().Info("delete branch requested",
		zap.String("branch", name), zap.String("resource", resource), zap.String("strategy", branch.Strategy))

	cfg, err := unmarshalConfiguration(branch.Configuration)
	if err != nil {
		return nil, err
	}

	// deactivating is recorded before returning so the caller observes it
	if _, err := s.events.Append(ctx, name, resource, models.StatusDeactivating, ""); err != nil {
		return nil, err
	}

	s.queue.Submit(func(taskCtx context.Context) error {
		if err := strat.Delete(taskCtx, name, cfg); err != nil {
			msg := err.Error()
			if msg == "" {
				msg = fmt.Sprintf("Failed to delete branch %s", name)
			}
			if _, appendErr := s.events.Append(taskCtx, name, resource, models.StatusError, msg); appendErr != nil {
				return appendErr
			}
			return err
		}
		_, err := s.events.Append(taskCtx, name, resource, models.StatusInactive, "")
		return err
	})

	branch.Status = models.StatusDeactivating
	return branch, nil
}

func (s *branchService) Get(ctx context.Context, name, resource string) (*models.Branch, error) {
	branch, err := s.branches.Get(ctx, name, resource)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, appErr.New(appErr.CodeNotFound, fmt.Sprintf("Branch '%s' not found", name))
	}
	status, err := s.resolveStatus(ctx, name, resource)
	if err != nil {
		return nil, err
	}
	if status == "" {
		// a branch row without events is invisible to reads
		return nil, appErr.New(appErr.CodeNotFound, fmt.Sprintf("Branch '%s' not found", name))
	}
	branch.Status = status
	return branch, nil
}

func (s *branchService) List(ctx context.Context, resource string) ([]models.Branch, error) {
	branches, err := s.branches.List(ctx, resource)
	if err != nil {
		return nil, err
	}
	out := make([]models.Branch, 0, len(branches))
	for _, b := range branches {
		status, err := s.resolveStatus(ctx, b.Name, b.Resource)
		if err != nil {
			return nil, err
		}
		if status == "" {
			continue
		}
		b.Status = status
		out = append(out, b)
	}
	return out, nil
}

func (s *branchService) History(ctx context.Context, name, resource string) ([]models.Event, error) {
	branch, err := s.branches.Get(ctx, name, resource)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, appErr.New(appErr.CodeNotFound, fmt.Sprintf("Branch '%s' not found", name))
	}
	return s.events.History(ctx, name, resource)
}

func marshalConfiguration(configuration map[string]any) (datatypes.JSON, error) {
	if configuration == nil {
		return nil, nil
	}
	b, err := json.Marshal(configuration)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid configuration document")
	}
	return datatypes.JSON(b), nil
}

func unmarshalConfiguration(configuration datatypes.JSON) (map[string]any, error) {
	if len(configuration) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(configuration, &out); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "stored configuration is not an object")
	}
	return out, nil
}
