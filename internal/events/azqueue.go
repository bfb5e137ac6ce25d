package events

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"fintrack/internal/azauth"
	"fintrack/internal/log"
)

type enqueuer interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// QueuePublisher enqueues events on an Azure Storage queue. Bodies are
// base64 JSON, which is what queue-triggered Functions expect by default.
type QueuePublisher struct {
	queue enqueuer
}

var _ Publisher = (*QueuePublisher)(nil)

func NewQueuePublisher(ctx context.Context, serviceURL, queueName string, logger *log.Logger) (*QueuePublisher, error) {
	if logger == nil {
		logger = log.Nop()
	}

	var client *azqueue.ServiceClient
	if azauth.IsLocal(serviceURL) {
		logger.Info("using Azurite credentials for queue publisher")
		name, key := azauth.Azurite()
		cred, err := azqueue.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("create shared key credential: %w", err)
		}
		client, err = azqueue.NewServiceClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create queue client with shared key: %w", err)
		}
	} else {
		cred, err := azauth.Default()
		if err != nil {
			return nil, fmt.Errorf("create default azure credential: %w", err)
		}
		client, err = azqueue.NewServiceClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("create queue client: %w", err)
		}
	}

	queue := client.NewQueueClient(queueName)
	if _, err := queue.Create(ctx, nil); err != nil {
		var azErr *azcore.ResponseError
		if !(errors.As(err, &azErr) && azErr.ErrorCode == "QueueAlreadyExists") {
			logger.Warn("failed to create queue (may already exist)", "queue", queueName, log.FieldError, err)
		}
	}

	return &QueuePublisher{queue: queue}, nil
}

func (p *QueuePublisher) Publish(ctx context.Context, e Event) error {
	data, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := p.queue.EnqueueMessage(ctx, base64.StdEncoding.EncodeToString(data), nil); err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}
	return nil
}

func (p *QueuePublisher) Close() error { return nil }
