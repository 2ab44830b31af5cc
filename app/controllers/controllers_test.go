package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/blocks"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/jobqueue"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/metrics/counter"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/notification"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/slackapp"
)

type fakeTeams struct {
	teams   map[string]*models.Team
	deleted []string
}

func (f *fakeTeams) Upsert(_ context.Context, t *models.Team) error {
	f.teams[t.ID] = t
	return nil
}

func (f *fakeTeams) GetByID(_ context.Context, id string) (*models.Team, error) {
	if t, ok := f.teams[id]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTeams) Delete(_ context.Context, id string) error {
	if _, ok := f.teams[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.teams, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeUsers struct {
	users     map[string]*models.User
	prefs     *fakePrefs
	lookupErr error // returned once by GetByFyleUserID
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.users[u.SlackUserID] = u
	for _, p := range models.DefaultPreferences(u.SlackUserID) {
		f.prefs.rows = append(f.prefs.rows, p)
	}
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *models.User) error {
	f.users[u.SlackUserID] = u
	return nil
}

func (f *fakeUsers) GetBySlackID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByFyleUserID(_ context.Context, teamID, fyleUserID string) (*models.User, error) {
	if err := f.lookupErr; err != nil {
		f.lookupErr = nil
		return nil, err
	}
	for _, u := range f.users {
		if u.SlackTeamID == teamID && u.FyleUserID == fyleUserID {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakePrefs struct {
	rows []models.NotificationPreference
}

func (f *fakePrefs) find(slackUserID, key string) *models.NotificationPreference {
	for i := range f.rows {
		if f.rows[i].SlackUserID == slackUserID && f.rows[i].NotificationType == key {
			return &f.rows[i]
		}
	}
	return nil
}

func (f *fakePrefs) Get(_ context.Context, slackUserID, key string) (*models.NotificationPreference, error) {
	if p := f.find(slackUserID, key); p != nil {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakePrefs) ListByUser(_ context.Context, slackUserID string) ([]models.NotificationPreference, error) {
	var out []models.NotificationPreference
	for _, p := range f.rows {
		if p.SlackUserID == slackUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePrefs) SetEnabled(_ context.Context, slackUserID, key string, enabled bool) error {
	p := f.find(slackUserID, key)
	if p == nil {
		return repository.ErrNotFound
	}
	p.IsEnabled = enabled
	return nil
}

type fakeDeliveries struct {
	byKey     map[string]*models.WebhookDelivery
	processed map[uint]string
	nextID    uint
}

func (f *fakeDeliveries) CreateIfNotExists(_ context.Context, d *models.WebhookDelivery) (bool, *models.WebhookDelivery, error) {
	key := d.SlackTeamID + "|" + d.DeliveryID
	if existing, ok := f.byKey[key]; ok {
		cp := *existing
		return false, &cp, nil
	}
	f.nextID++
	d.ID = f.nextID
	d.UpdatedAt = time.Now()
	f.byKey[key] = d
	cp := *d
	return true, &cp, nil
}

func (f *fakeDeliveries) byID(id uint) *models.WebhookDelivery {
	for _, d := range f.byKey {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (f *fakeDeliveries) Reclaim(_ context.Context, d *models.WebhookDelivery, staleBefore time.Time) (bool, error) {
	row := f.byID(d.ID)
	if row == nil || !row.Reprocessable(time.Now(), time.Since(staleBefore)) {
		return false, nil
	}
	row.ProcessedAt, row.Outcome, row.ProcessingError = nil, "", ""
	row.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeDeliveries) MarkProcessed(_ context.Context, id uint, outcome, processingError string, deliveredTo []string) error {
	f.processed[id] = outcome
	if d := f.byID(id); d != nil {
		now := time.Now()
		d.ProcessedAt = &now
		d.Outcome = outcome
		d.ProcessingError = processingError
		d.DeliveredTo = models.JoinDelivered(deliveredTo)
	}
	return nil
}

type posted struct {
	channel, ts string
	msg         blocks.Message
}

type fakeMessenger struct {
	posts   []posted
	updates []posted
	replies []posted
	homes   []string
	modals  []slack.ModalViewRequest
}

func (m *fakeMessenger) PostMessage(_ context.Context, channel string, msg blocks.Message) (string, error) {
	m.posts = append(m.posts, posted{channel: channel, msg: msg})
	return "1.0", nil
}

func (m *fakeMessenger) PostThreadReply(_ context.Context, channel, ts string, msg blocks.Message) (string, error) {
	m.replies = append(m.replies, posted{channel, ts, msg})
	return "2.0", nil
}

func (m *fakeMessenger) UpdateMessage(_ context.Context, channel, ts string, msg blocks.Message) error {
	m.updates = append(m.updates, posted{channel, ts, msg})
	return nil
}

func (m *fakeMessenger) PublishHomeView(_ context.Context, userID string, _ slack.HomeTabViewRequest) error {
	m.homes = append(m.homes, userID)
	return nil
}

func (m *fakeMessenger) OpenModal(_ context.Context, _ string, view slack.ModalViewRequest) error {
	m.modals = append(m.modals, view)
	return nil
}

func (m *fakeMessenger) OpenDM(_ context.Context, userID string) (string, error) {
	return "D" + userID, nil
}

type fakeFactory struct{ m *fakeMessenger }

func (f fakeFactory) ForTeam(*models.Team) (slackapp.Messenger, error) { return f.m, nil }

type fakeQueue struct {
	jobs []jobqueue.Job
	err  error
}

func (q *fakeQueue) EnqueueJob(jobType jobqueue.JobType, payload map[string]interface{}) (*jobqueue.Job, error) {
	if q.err != nil {
		return nil, q.err
	}
	job := jobqueue.Job{ID: "job1", Type: jobType, Payload: payload}
	q.jobs = append(q.jobs, job)
	return &job, nil
}

type fakeCounter struct {
	outcomes   []string
	deliveries []string
}

func (c *fakeCounter) AddOutcome(_ context.Context, t, outcome string) error {
	c.outcomes = append(c.outcomes, t+":"+outcome)
	return nil
}

func (c *fakeCounter) AddDelivery(_ context.Context, status string) error {
	c.deliveries = append(c.deliveries, status)
	return nil
}

type dmRecorder struct {
	to     []string
	failTo map[string]bool // recipients whose next DM fails
}

func (d *dmRecorder) SendDM(_ context.Context, _ *models.Team, user *models.User, _ blocks.Message) error {
	if d.failTo[user.SlackUserID] {
		delete(d.failTo, user.SlackUserID)
		return errors.New("slack: channel_not_found")
	}
	d.to = append(d.to, user.SlackUserID)
	return nil
}

type fixture struct {
	services   *Services
	teams      *fakeTeams
	users      *fakeUsers
	prefs      *fakePrefs
	deliveries *fakeDeliveries
	messenger  *fakeMessenger
	queue      *fakeQueue
	counter    *fakeCounter
	dms        *dmRecorder
	app        *fiber.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prefs := &fakePrefs{}
	f := &fixture{
		teams:      &fakeTeams{teams: map[string]*models.Team{"T1": {ID: "T1", Name: "Acme"}}},
		users:      &fakeUsers{users: map[string]*models.User{}, prefs: prefs},
		prefs:      prefs,
		deliveries: &fakeDeliveries{byKey: map[string]*models.WebhookDelivery{}, processed: map[uint]string{}},
		messenger:  &fakeMessenger{},
		queue:      &fakeQueue{},
		counter:    &fakeCounter{},
		dms:        &dmRecorder{},
	}
	for _, u := range []*models.User{
		{SlackUserID: "UOWNER", SlackTeamID: "T1", FyleUserID: "usOwner", FyleRefreshToken: "sealed"},
		{SlackUserID: "UAPPR", SlackTeamID: "T1", FyleUserID: "usAppr", FyleRefreshToken: "sealed"},
	} {
		require.NoError(t, f.users.Create(context.Background(), u))
	}
	repos := &repository.Repositories{Team: f.teams, User: f.users, Preference: f.prefs, Webhook: f.deliveries}
	f.services = &Services{
		Repos:         repos,
		Slack:         fakeFactory{f.messenger},
		Queue:         f.queue,
		Dispatcher:    notification.NewDispatcher(notification.FylerHandlers(f.dms), notification.ApproverHandlers(f.dms), notification.NewGate(f.prefs), f.users),
		Counter:       f.counter,
		StateSecret:   "state-secret",
		PublicBaseURL: "https://slack.example.com",
	}

	sc := NewSlackController(f.services)
	wc := NewFyleWebhookController(f.services)
	f.app = fiber.New()
	f.app.Post("/slack/events", sc.HandleEvents)
	f.app.Post("/slack/commands", sc.HandleCommand)
	f.app.Post("/slack/interactive", sc.HandleInteractive)
	f.app.Post("/fyle/webhooks/:team_id", wc.HandleWebhook)
	return f
}

func (f *fixture) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestEventsURLVerification(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, jsonRequest("/slack/events", `{"token":"x","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P","type":"url_verification"}`))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P", body["challenge"])
}

func TestEventsAppUninstalledRemovesTeam(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, jsonRequest("/slack/events", `{"type":"event_callback","team_id":"T1","api_app_id":"A1","event":{"type":"app_uninstalled"}}`))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"T1"}, f.teams.deleted)

	// A second uninstall for a team already gone is still acknowledged.
	status, _ = f.do(t, jsonRequest("/slack/events", `{"type":"event_callback","team_id":"T1","api_app_id":"A1","event":{"type":"app_uninstalled"}}`))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestEventsAppHomeOpenedRegistersUser(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, jsonRequest("/slack/events", `{"type":"event_callback","team_id":"T1","api_app_id":"A1","event":{"type":"app_home_opened","user":"UNEW","tab":"home"}}`))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"UNEW"}, f.messenger.homes)

	user, err := f.users.GetBySlackID(context.Background(), "UNEW")
	require.NoError(t, err)
	assert.False(t, user.IsFyleLinked())
	prefs, _ := f.prefs.ListByUser(context.Background(), "UNEW")
	assert.Len(t, prefs, len(models.AllNotificationTypes()))
}

func TestCommandHelp(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, formRequest("/slack/commands", url.Values{
		"command": {"/fyle"}, "team_id": {"T1"}, "user_id": {"UOWNER"}, "text": {"what"},
	}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, slack.ResponseTypeEphemeral, body["response_type"])
	assert.Contains(t, body["text"], "/fyle expense")
}

func TestCommandExpenseAsksUnlinkedUserToLink(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, formRequest("/slack/commands", url.Values{
		"command": {"/fyle"}, "team_id": {"T1"}, "user_id": {"UNEW"}, "text": {"expense"}, "trigger_id": {"tr1"},
	}))
	assert.Equal(t, fiber.StatusOK, status)
	raw, _ := json.Marshal(body)
	assert.Contains(t, string(raw), "https://slack.example.com/fyle/oauth/start?state=")
	assert.Empty(t, f.messenger.modals)
}

func TestCommandNotificationsOpensModal(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, formRequest("/slack/commands", url.Values{
		"command": {"/fyle"}, "team_id": {"T1"}, "user_id": {"UOWNER"}, "text": {"notifications"}, "trigger_id": {"tr1"},
	}))
	assert.Equal(t, fiber.StatusOK, status)
	require.Len(t, f.messenger.modals, 1)
}

func interaction(t *testing.T, payload map[string]any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return formRequest("/slack/interactive", url.Values{"payload": {string(raw)}})
}

func TestInteractiveApproveQueuesJob(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, interaction(t, map[string]any{
		"type":      "block_actions",
		"team":      map[string]any{"id": "T1"},
		"user":      map[string]any{"id": "UAPPR"},
		"container": map[string]any{"type": "message", "channel_id": "DUAPPR", "message_ts": "1700000000.000100"},
		"actions": []map[string]any{
			{"type": "button", "block_id": "report_approval_actions", "action_id": blocks.ActionApproveReport, "value": "rp1"},
		},
	}))
	assert.Equal(t, fiber.StatusOK, status)

	require.Len(t, f.messenger.updates, 1)
	assert.Equal(t, "1700000000.000100", f.messenger.updates[0].ts)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, jobqueue.JobTypeReportApproval, f.queue.jobs[0].Type)

	payload, err := jobqueue.ReportApprovalJobPayloadFromMap(f.queue.jobs[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "rp1", payload.ReportID)
	assert.Equal(t, "UAPPR", payload.ApproverUserID)
	assert.Equal(t, "DUAPPR", payload.Channel)
	assert.Empty(t, f.messenger.replies)
}

func TestInteractiveApproveEnqueueFailureRestoresButton(t *testing.T) {
	f := newFixture(t)
	f.queue.err = errors.New("redis down")
	status, _ := f.do(t, interaction(t, map[string]any{
		"type":      "block_actions",
		"team":      map[string]any{"id": "T1"},
		"user":      map[string]any{"id": "UAPPR"},
		"container": map[string]any{"type": "message", "channel_id": "DUAPPR", "message_ts": "1700000000.000100"},
		"actions": []map[string]any{
			{"type": "button", "block_id": "report_approval_actions", "action_id": blocks.ActionApproveReport, "value": "rp1"},
		},
	}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, f.messenger.updates, 2)
	require.Len(t, f.messenger.replies, 1)
	assert.Contains(t, f.messenger.replies[0].msg.Text, "try again")
}

func TestInteractivePreferenceToggle(t *testing.T) {
	f := newFixture(t)
	paid := models.PreferenceKey(models.NotificationReportPaid, models.RoleFyler)
	status, _ := f.do(t, interaction(t, map[string]any{
		"type": "block_actions",
		"team": map[string]any{"id": "T1"},
		"user": map[string]any{"id": "UOWNER"},
		"actions": []map[string]any{{
			"type":             "checkboxes",
			"block_id":         blocks.PreferenceBlockID(models.RoleFyler),
			"action_id":        blocks.ActionPreferenceToggle,
			"selected_options": []map[string]any{{"value": paid}},
		}},
	}))
	assert.Equal(t, fiber.StatusOK, status)

	for _, info := range models.AllNotificationTypes() {
		key := models.PreferenceKey(info.Type, info.Role)
		p, err := f.prefs.Get(context.Background(), "UOWNER", key)
		require.NoError(t, err)
		want := info.Role == models.RoleApprover || key == paid
		assert.Equal(t, want, p.IsEnabled, key)
	}
}

func reportWebhook(deliveryID string) string {
	return `{"resource":"REPORT","action":"SUBMITTED","delivery_id":"` + deliveryID + `","data":{
		"id":"rp1","purpose":"Offsite","amount":10,"currency":"USD","user_id":"usOwner",
		"user":{"id":"usOwner","full_name":"Jane Doe"},
		"approvals":[{"approver_user_id":"usAppr","state":"APPROVAL_PENDING"}]}}`
}

func TestWebhookInvalidPayload(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`not json`, `{"resource":"","action":"PAID","data":{}}`, `{"resource":"REPORT","action":"PAID"}`} {
		status, resp := f.do(t, jsonRequest("/fyle/webhooks/T1", body))
		assert.Equal(t, fiber.StatusBadRequest, status, body)
		assert.Equal(t, "invalid_payload", resp["error"])
	}
	assert.Empty(t, f.dms.to)
}

func TestWebhookUnknownTeam(t *testing.T) {
	f := newFixture(t)
	status, resp := f.do(t, jsonRequest("/fyle/webhooks/T404", reportWebhook("d1")))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "unknown_team", resp["error"])
}

func TestWebhookDeliversOnceAndDeduplicates(t *testing.T) {
	f := newFixture(t)
	status, resp := f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d1")))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, string(notification.OutcomeDelivered), resp["outcome"])
	assert.ElementsMatch(t, []string{"UOWNER", "UAPPR"}, f.dms.to)
	assert.Len(t, f.counter.outcomes, 2)

	status, resp = f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d1")))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["duplicate"])
	assert.Len(t, f.dms.to, 2)
	assert.Equal(t, []string{"processed", "duplicate"}, f.counter.deliveries)
}

func TestWebhookRedeliveryAfterDispatchErrorDelivers(t *testing.T) {
	f := newFixture(t)
	f.users.lookupErr = errors.New("db: connection reset")

	status, resp := f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d5")))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "dispatch_failed", resp["error"])
	assert.Empty(t, f.dms.to)

	status, resp = f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d5")))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, resp["duplicate"])
	assert.Equal(t, string(notification.OutcomeDelivered), resp["outcome"])
	assert.ElementsMatch(t, []string{"UOWNER", "UAPPR"}, f.dms.to)

	status, resp = f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d5")))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["duplicate"])
	assert.Len(t, f.dms.to, 2)
}

func TestWebhookRedeliveryOnlyReachesMissedRecipients(t *testing.T) {
	f := newFixture(t)
	f.dms.failTo = map[string]bool{"UAPPR": true}

	status, resp := f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d6")))
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "delivery_failed", resp["error"])
	assert.Equal(t, []string{"UOWNER"}, f.dms.to)

	status, resp = f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d6")))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, string(notification.OutcomeDelivered), resp["outcome"])
	assert.Equal(t, []string{"UOWNER", "UAPPR"}, f.dms.to)

	stored := f.deliveries.byID(1)
	require.NotNil(t, stored)
	assert.Equal(t, map[string]bool{"FYLER:UOWNER": true, "APPROVER:UAPPR": true}, stored.Delivered())
}

func TestWebhookInFlightDeliveryIsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.deliveries.byKey["T1|d7"] = &models.WebhookDelivery{ID: 42, SlackTeamID: "T1", DeliveryID: "d7", UpdatedAt: time.Now()}

	status, resp := f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d7")))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, resp["duplicate"])
	assert.Empty(t, f.dms.to)
}

func TestWebhookUnknownEventIsNoOp(t *testing.T) {
	f := newFixture(t)
	status, resp := f.do(t, jsonRequest("/fyle/webhooks/T1", `{"resource":"ADVANCE","action":"CREATED","data":{"id":"adv1"}}`))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, string(notification.OutcomeNoHandler), resp["outcome"])
	assert.Empty(t, f.dms.to)
}

func TestWebhookNoLinkedRecipient(t *testing.T) {
	f := newFixture(t)
	body := strings.ReplaceAll(strings.ReplaceAll(reportWebhook("d2"), "usOwner", "usStranger"), "usAppr", "usNobody")
	status, resp := f.do(t, jsonRequest("/fyle/webhooks/T1", body))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", resp["error"])
}

func TestWebhookQueuesArchiveWhenEnabled(t *testing.T) {
	f := newFixture(t)
	f.services.ArchiveEnabled = true
	status, _ := f.do(t, jsonRequest("/fyle/webhooks/T1", reportWebhook("d3")))
	assert.Equal(t, fiber.StatusOK, status)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, jobqueue.JobTypeWebhookArchive, f.queue.jobs[0].Type)
	assert.Equal(t, "d3", f.queue.jobs[0].Payload["delivery_id"])
}

type fakeMetrics struct{ snap *counter.Snapshot }

func (m fakeMetrics) Snapshot(context.Context) (*counter.Snapshot, error) { return m.snap, nil }

type fakeStats struct{}

func (fakeStats) GetQueueSize(context.Context) (int64, error) { return 3, nil }
func (fakeStats) GetJobStats(context.Context) (map[jobqueue.JobStatus]int64, error) {
	return map[jobqueue.JobStatus]int64{jobqueue.JobStatusCompleted: 7, jobqueue.JobStatusFailed: 1}, nil
}

func TestOpsMetrics(t *testing.T) {
	oc := NewOpsController(fakeMetrics{&counter.Snapshot{
		Deliveries: []counter.Line{{Name: "processed", Value: 4}},
		Outcomes:   []counter.Line{{Name: "REPORT_PAID:delivered", Value: 2}},
	}}, fakeStats{})
	app := fiber.New()
	app.Get("/health", oc.HandleHealth)
	app.Get("/metrics", oc.HandleMetrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	text := string(raw)
	assert.Contains(t, text, `fyleslack_webhook_deliveries{status="processed"} 4`)
	assert.Contains(t, text, `fyleslack_notifications{type="REPORT_PAID",outcome="delivered"} 2`)
	assert.Contains(t, text, "fyleslack_jobs_pending 3")
	assert.Contains(t, text, `fyleslack_jobs{status="completed"} 7`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
