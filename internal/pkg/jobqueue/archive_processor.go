package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/archive"
)

// WebhookArchiver stores raw webhook bodies
type WebhookArchiver interface {
	Archive(ctx context.Context, obj archive.Object) (string, error)
}

// WebhookArchiveHandler uploads archived webhook bodies
func WebhookArchiveHandler(a WebhookArchiver) Handler {
	return func(ctx context.Context, job *Job) error {
		payload, err := WebhookArchiveJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("%w: failed to parse archive payload: %v", ErrPermanent, err)
		}

		key, err := a.Archive(ctx, archive.Object{
			OrgID:      payload.OrgID,
			DeliveryID: payload.DeliveryID,
			ReceivedAt: payload.ReceivedAt,
			Body:       []byte(payload.Body),
		})
		if err != nil {
			return err
		}
		log.Infof("[Archive] Stored webhook %s at %s", payload.DeliveryID, key)
		return nil
	}
}
