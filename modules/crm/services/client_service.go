package services

import (
	"context"
	"strings"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/modules/crm/domain/events"
	"github.com/clientdesk/clientdesk/pkg/eventbus"
)

type ClientService struct {
	repo      client.Repository
	publisher eventbus.EventBus
}

func NewClientService(repo client.Repository, publisher eventbus.EventBus) *ClientService {
	return &ClientService{repo: repo, publisher: publisher}
}

func (s *ClientService) GetPaginated(ctx context.Context, params *client.FindParams) ([]*client.Client, int64, error) {
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *ClientService) GetByID(ctx context.Context, id string) (*client.Client, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ClientService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *ClientService) Create(ctx context.Context, dto *client.CreateDTO, createdBy string) (*client.Client, error) {
	entity := dto.ToEntity(createdBy)
	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}
	s.publisher.Publish(&events.ClientCreatedEvent{Client: entity, CreatedBy: createdBy})
	return entity, nil
}

func (s *ClientService) Update(ctx context.Context, id string, dto *client.UpdateDTO, updatedBy string) (*client.Client, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto.Apply(entity)
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}
	s.publisher.Publish(&events.ClientUpdatedEvent{Client: entity, UpdatedBy: updatedBy})
	return entity, nil
}

// ChangeStatus appends a status-history entry; history is append-only.
func (s *ClientService) ChangeStatus(ctx context.Context, id string, dto *client.ChangeStatusDTO, changedBy string) (*client.Client, error) {
	entity, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := entity.ContactStatus
	status, _ := client.ParseContactStatus(dto.Status)
	entity.ChangeStatus(status, changedBy, strings.TrimSpace(dto.Notes))
	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, err
	}
	s.publisher.Publish(&events.ClientStatusChangedEvent{Client: entity, Previous: previous, ChangedBy: changedBy})
	return entity, nil
}

// Delete is an administrative operation; the import pipeline never deletes.
func (s *ClientService) Delete(ctx context.Context, id string, deletedBy string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publisher.Publish(&events.ClientDeletedEvent{ID: id, DeletedBy: deletedBy})
	return nil
}

func (s *ClientService) ForEach(ctx context.Context, fn func(*client.Client) error) error {
	return s.repo.ForEach(ctx, fn)
}
