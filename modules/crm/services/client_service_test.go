package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/modules/crm/domain/events"
	"github.com/clientdesk/clientdesk/pkg/eventbus"
)

func newTestClientService(repo client.Repository) (*ClientService, eventbus.EventBus) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bus := eventbus.NewEventPublisher(logger)
	return NewClientService(repo, bus), bus
}

func TestClientService_CreatePublishesEvent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, bus := newTestClientService(repo)

	var received *events.ClientCreatedEvent
	bus.Subscribe(func(event *events.ClientCreatedEvent) {
		received = event
	})

	created, err := svc.Create(context.Background(), &client.CreateDTO{Name: "Acme", Email: "a@acme.com"}, "agent@example.com")
	require.NoError(t, err)
	require.Equal(t, "Acme", created.Name)
	require.Equal(t, "agent@example.com", created.OwnedBy)

	require.NotNil(t, received)
	require.Equal(t, created.ID, received.Client.ID)

	stored, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "a@acme.com", stored.Email)
}

func TestClientService_UpdateAppliesOnlyProvidedFields(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, _ := newTestClientService(repo)

	created, err := svc.Create(context.Background(), &client.CreateDTO{Name: "Acme", Phone: "555-0100"}, "agent@example.com")
	require.NoError(t, err)

	name := "Acme Holdings"
	updated, err := svc.Update(context.Background(), created.ID, &client.UpdateDTO{Name: &name}, "agent@example.com")
	require.NoError(t, err)
	require.Equal(t, "Acme Holdings", updated.Name)
	require.Equal(t, "555-0100", updated.Phone)
}

func TestClientService_ChangeStatusAppendsHistory(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, _ := newTestClientService(repo)

	created, err := svc.Create(context.Background(), &client.CreateDTO{Name: "Acme"}, "agent@example.com")
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(context.Background(), created.ID, &client.ChangeStatusDTO{Status: "Closed won", Notes: "signed"}, "agent@example.com")
	require.NoError(t, err)
	require.Equal(t, client.StatusClosedWon, updated.ContactStatus)
	require.Len(t, updated.StatusHistory, 1)
	require.Equal(t, "signed", updated.StatusHistory[0].Notes)

	updated, err = svc.ChangeStatus(context.Background(), created.ID, &client.ChangeStatusDTO{Status: "Sampling"}, "agent@example.com")
	require.NoError(t, err)
	require.Len(t, updated.StatusHistory, 2)
	require.Equal(t, client.StatusClosedWon, updated.StatusHistory[0].Status)
}

func TestClientService_DeleteMissing(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, _ := newTestClientService(repo)

	err := svc.Delete(context.Background(), "nope", "agent@example.com")
	require.ErrorIs(t, err, client.ErrNotFound)
}
