package blocks

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

func testReport() *fyle.Report {
	return &fyle.Report{
		ID:          "rp1",
		Purpose:     "Offsite",
		SeqNum:      "C/2026/10/R/4",
		Amount:      120.5,
		Currency:    "USD",
		NumExpenses: 3,
		State:       fyle.ReportStateApproverPending,
		User:        fyle.UserRef{ID: "usOwner", FullName: "Jane Doe"},
	}
}

func buttons(blocks []slack.Block) []*slack.ButtonBlockElement {
	var out []*slack.ButtonBlockElement
	for _, b := range blocks {
		ab, ok := b.(*slack.ActionBlock)
		if !ok {
			continue
		}
		for _, el := range ab.Elements.ElementSet {
			if btn, ok := el.(*slack.ButtonBlockElement); ok {
				out = append(out, btn)
			}
		}
	}
	return out
}

// roundTrip mimics blocks coming back from an interaction payload.
func roundTrip(t *testing.T, in []slack.Block) []slack.Block {
	t.Helper()
	raw, err := json.Marshal(slack.Blocks{BlockSet: in})
	require.NoError(t, err)
	var out slack.Blocks
	require.NoError(t, json.Unmarshal(raw, &out))
	return out.BlockSet
}

func TestApprovalRequestHasApproveButton(t *testing.T) {
	msg := ApprovalRequest(testReport())
	btns := buttons(msg.Blocks)
	require.NotEmpty(t, btns)
	assert.Equal(t, ActionApproveReport, btns[0].ActionID)
	assert.Equal(t, "rp1", btns[0].Value)
	assert.Equal(t, "Approve", btns[0].Text.Text)
	assert.Contains(t, msg.Text, "Jane Doe")
}

func TestApprovalInFlightThenRestore(t *testing.T) {
	original := roundTrip(t, ApprovalRequest(testReport()).Blocks)

	inFlight := ApprovalInFlight(original, "rp1")
	btns := buttons(inFlight.Blocks)
	assert.Equal(t, ActionApprovalInFlight, btns[0].ActionID)
	assert.Len(t, btns, 2, "view link is kept")

	restored := RestoreApproveButton(roundTrip(t, inFlight.Blocks), "rp1")
	btns = buttons(restored.Blocks)
	assert.Equal(t, ActionApproveReport, btns[0].ActionID)
	assert.Equal(t, "rp1", btns[0].Value)
	assert.Equal(t, "Approve", btns[0].Text.Text)
	assert.Len(t, restored.Blocks, len(original))
}

func TestRestoreAppendsButtonWhenMissing(t *testing.T) {
	restored := RestoreApproveButton([]slack.Block{section("hello")}, "rp2")
	btns := buttons(restored.Blocks)
	require.Len(t, btns, 1)
	assert.Equal(t, "rp2", btns[0].Value)
}

func TestApprovalTerminalStripsActions(t *testing.T) {
	msg := ApprovalTerminal(ApprovalRequest(testReport()).Blocks, "This report was sent back to the employee.")
	assert.Empty(t, buttons(msg.Blocks))
	last := msg.Blocks[len(msg.Blocks)-1]
	assert.Equal(t, slack.MBTContext, last.BlockType())
	assert.Contains(t, msg.Text, "sent back")
}

func TestReportSentBackIncludesReason(t *testing.T) {
	msg := ReportSentBack(testReport(), "Missing receipts")
	raw, err := json.Marshal(msg.Blocks)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Missing receipts")
}

func TestHomeTab(t *testing.T) {
	unlinked := HomeTab(HomeState{LinkURL: "https://example.com/fyle/oauth/start"})
	btns := buttons(unlinked.Blocks.BlockSet)
	require.Len(t, btns, 1)
	assert.Equal(t, ActionLinkFyleAccount, btns[0].ActionID)

	linked := HomeTab(HomeState{Linked: true, Email: "jane@example.com", Counts: []DashboardCount{{"Awaiting your approval", 2}}})
	raw, err := json.Marshal(linked)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Awaiting your approval")
	assert.Equal(t, slack.VTHomeTab, linked.Type)
}

func TestNotificationSettingsModal(t *testing.T) {
	prefs := models.DefaultPreferences("U1")
	prefs[0].IsEnabled = false

	view := NotificationSettingsModal(prefs, []models.Role{models.RoleFyler})
	var groups []*slack.CheckboxGroupsBlockElement
	for _, b := range view.Blocks.BlockSet {
		if ab, ok := b.(*slack.ActionBlock); ok {
			for _, el := range ab.Elements.ElementSet {
				if g, ok := el.(*slack.CheckboxGroupsBlockElement); ok {
					groups = append(groups, g)
				}
			}
		}
	}
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Options, 7)
	assert.Len(t, groups[0].InitialOptions, 6)
}

func TestParseExpenseSubmission(t *testing.T) {
	values := map[string]map[string]slack.BlockAction{
		ExpenseAmountBlock:   {expenseValueAction: {Value: "42.10"}},
		ExpenseCurrencyBlock: {expenseValueAction: {SelectedOption: slack.OptionBlockObject{Value: "EUR"}}},
		ExpensePurposeBlock:  {expenseValueAction: {Value: " Team lunch "}},
		ExpenseDateBlock:     {expenseValueAction: {SelectedDate: "2026-10-01"}},
	}
	exp, errs := ParseExpenseSubmission(values)
	assert.Nil(t, errs)
	assert.Equal(t, 42.10, exp.Amount)
	assert.Equal(t, "EUR", exp.Currency)
	assert.Equal(t, "Team lunch", exp.Purpose)

	values[ExpenseAmountBlock] = map[string]slack.BlockAction{expenseValueAction: {Value: "-1"}}
	delete(values, ExpensePurposeBlock)
	_, errs = ParseExpenseSubmission(values)
	assert.Contains(t, errs, ExpenseAmountBlock)
	assert.Contains(t, errs, ExpensePurposeBlock)
}

func TestExpenseModalDefaults(t *testing.T) {
	view := ExpenseModal("USD", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, CallbackExpenseModal, view.CallbackID)
	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"initial_date":"2026-10-19"`)
}
