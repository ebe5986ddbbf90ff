package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/harper/dealdesk/internal/database/models"
)

// QueueNotifier enqueues an invite notification task for the worker.
// It satisfies the seat service's notifier contract.
type QueueNotifier struct {
	client *asynq.Client
}

func NewQueueNotifier(client *asynq.Client) *QueueNotifier {
	return &QueueNotifier{client: client}
}

func (n *QueueNotifier) InviteIssued(ctx context.Context, invite *models.Invite) error {
	task, err := NewInviteNotifyTask(InviteNotifyPayload{
		InviteID:       invite.ID,
		OrganizationID: invite.OrganizationID,
		Email:          invite.Email,
	})
	if err != nil {
		return fmt.Errorf("building invite task: %w", err)
	}

	if _, err := n.client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueueing invite task: %w", err)
	}
	return nil
}
