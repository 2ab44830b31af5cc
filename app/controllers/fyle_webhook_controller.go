package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/jobqueue"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/notification"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/webhookschema"
)

// errDeliveryFailed means at least one recipient's Slack message failed. The
// delivery stays reprocessable and Fyle's retry reaches the remaining recipients.
var errDeliveryFailed = errors.New("slack delivery failed")

// FyleWebhookController receives Fyle platform webhooks. The signature is
// checked by middleware before the handler runs.
type FyleWebhookController struct {
	*Services
}

func NewFyleWebhookController(s *Services) *FyleWebhookController {
	return &FyleWebhookController{Services: s}
}

// deliveryID prefers the id Fyle sends and falls back to a body hash so
// redelivered payloads are still deduplicated.
func deliveryID(c *fiber.Ctx, ev *notification.Event, body []byte) string {
	if ev.DeliveryID != "" {
		return ev.DeliveryID
	}
	if h := strings.TrimSpace(c.Get("X-Fyle-Delivery-Id")); h != "" {
		return h
	}
	sum := sha256.Sum256(body)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// HandleWebhook validates, deduplicates and routes one event.
// 400 invalid payload, 404 unknown team or recipient, 502 when a Slack message
// failed, otherwise 200 with the routing outcome. A redelivery of a failed
// delivery runs again and skips recipients that already have the message.
func (wc *FyleWebhookController) HandleWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.Body()...)
	teamID := c.Params("team_id")

	ctx, cancel := requestContext()
	defer cancel()

	if err := webhookschema.Validate(rawBody); err != nil {
		log.Warnf("[Webhook] Rejected payload for team %s: %v", teamID, err)
		wc.countDelivery(c, "invalid")
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
	}
	var ev notification.Event
	if err := json.Unmarshal(rawBody, &ev); err != nil {
		wc.countDelivery(c, "invalid")
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
	}
	if err := ev.Validate(); err != nil {
		wc.countDelivery(c, "invalid")
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload")
	}

	team, err := wc.Repos.Team.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			wc.countDelivery(c, "unknown_team")
			return jsonError(c, fiber.StatusNotFound, "unknown_team")
		}
		log.Errorf("[Webhook] Team lookup %s failed: %v", teamID, err)
		return jsonError(c, fiber.StatusInternalServerError, "team_lookup_failed")
	}

	key := ev.Key()
	created, stored, err := wc.Repos.Webhook.CreateIfNotExists(ctx, &models.WebhookDelivery{
		SlackTeamID: team.ID,
		DeliveryID:  deliveryID(c, &ev, rawBody),
		EventKey:    string(key),
		PayloadJSON: string(rawBody),
	})
	if err != nil {
		log.Errorf("[Webhook] Persisting delivery for team %s failed: %v", team.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "webhook_persist_failed")
	}

	var sent map[string]bool
	if !created {
		claimed := false
		if stored.Reprocessable(time.Now(), requestTimeout) {
			claimed, err = wc.Repos.Webhook.Reclaim(ctx, stored, time.Now().Add(-requestTimeout))
			if err != nil {
				log.Errorf("[Webhook] Reclaiming delivery %s for team %s failed: %v", stored.DeliveryID, team.ID, err)
				return jsonError(c, fiber.StatusInternalServerError, "webhook_persist_failed")
			}
		}
		if !claimed {
			wc.countDelivery(c, "duplicate")
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true, "outcome": stored.Outcome})
		}
		sent = stored.Delivered()
		log.Infof("[Webhook] Reprocessing delivery %s for team %s (%d already sent)", stored.DeliveryID, team.ID, len(sent))
	}

	summary, err := wc.Dispatcher.Redispatch(ctx, team, &ev, sent)
	for _, r := range summary.Results {
		if err := wc.Counter.AddOutcome(ctx, string(key), string(r.Outcome)); err != nil {
			log.Warnf("[Webhook] Counting outcome failed: %v", err)
		}
	}
	if err == nil {
		err = summary.Errors()
		if err != nil {
			err = fmt.Errorf("%w: %v", errDeliveryFailed, err)
		}
	}
	if err != nil {
		if markErr := wc.Repos.Webhook.MarkProcessed(ctx, stored.ID, models.DeliveryOutcomeError, err.Error(), mergeDelivered(sent, summary.DeliveredTo())); markErr != nil {
			log.Warnf("[Webhook] Marking delivery %d failed: %v", stored.ID, markErr)
		}
		status := statusFor(err)
		switch {
		case errors.Is(err, errDeliveryFailed):
			log.Errorf("[Webhook] %s for team %s was not delivered to every recipient: %v", key, team.ID, err)
			wc.countDelivery(c, "error")
			return jsonError(c, fiber.StatusBadGateway, "delivery_failed")
		case status == fiber.StatusNotFound:
			log.Infof("[Webhook] %s for team %s has no recipient: %v", key, team.ID, err)
			wc.countDelivery(c, "not_found")
			return jsonError(c, status, "not_found")
		}
		log.Errorf("[Webhook] Dispatching %s for team %s failed: %v", key, team.ID, err)
		wc.countDelivery(c, "error")
		return jsonError(c, status, "dispatch_failed")
	}

	outcome := summary.Outcome()
	if err := wc.Repos.Webhook.MarkProcessed(ctx, stored.ID, string(outcome), "", summary.DeliveredTo()); err != nil {
		log.Warnf("[Webhook] Marking delivery %d processed failed: %v", stored.ID, err)
	}
	wc.countDelivery(c, "processed")

	if wc.ArchiveEnabled {
		payload := jobqueue.WebhookArchiveJobPayload{
			TeamID:     team.ID,
			OrgID:      ev.OrgID,
			DeliveryID: stored.DeliveryID,
			ReceivedAt: time.Now(),
			Body:       string(rawBody),
		}
		if _, err := wc.Queue.EnqueueJob(jobqueue.JobTypeWebhookArchive, payload.ToMap()); err != nil {
			log.Warnf("[Archive] Queueing delivery %s failed: %v", stored.DeliveryID, err)
		}
	}

	log.Infof("[Webhook] %s for team %s: %s", key, team.ID, outcome)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "outcome": outcome})
}

// mergeDelivered keeps recipients reached by an earlier attempt when this
// attempt stopped before getting to them.
func mergeDelivered(sent map[string]bool, now []string) []string {
	out := append([]string(nil), now...)
	seen := map[string]bool{}
	for _, k := range now {
		seen[k] = true
	}
	for k := range sent {
		if !seen[k] {
			out = append(out, k)
		}
	}
	return out
}

func (wc *FyleWebhookController) countDelivery(c *fiber.Ctx, status string) {
	if err := wc.Counter.AddDelivery(c.Context(), status); err != nil {
		log.Warnf("[Webhook] Counting delivery failed: %v", err)
	}
}
