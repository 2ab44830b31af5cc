package blocks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/app/models"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// Input block and action ids of the expense modal.
const (
	ExpenseAmountBlock   = "expense_amount"
	ExpenseCurrencyBlock = "expense_currency"
	ExpensePurposeBlock  = "expense_purpose"
	ExpenseMerchantBlock = "expense_merchant"
	ExpenseDateBlock     = "expense_date"
	expenseValueAction   = "value"
)

var currencies = []string{"USD", "EUR", "GBP", "INR", "AUD", "CAD", "SGD"}

// DashboardCount is one line of the home tab summary.
type DashboardCount struct {
	Label string
	Value int
}

// HomeState drives the home tab.
type HomeState struct {
	Linked  bool
	LinkURL string
	Email   string
	Counts  []DashboardCount
}

// HomeTab renders the App Home dashboard.
func HomeTab(s HomeState) slack.HomeTabViewRequest {
	blocks := []slack.Block{
		slack.NewHeaderBlock(plain("Fyle")),
	}

	if !s.Linked {
		blocks = append(blocks,
			section("Connect your Fyle account to get expense notifications and approve reports right here in Slack."),
			slack.NewActionBlock("home_link",
				linkButton(ActionLinkFyleAccount, "Link Fyle account", s.LinkURL).WithStyle(slack.StylePrimary),
			),
		)
		return slack.HomeTabViewRequest{Type: slack.VTHomeTab, Blocks: slack.Blocks{BlockSet: blocks}}
	}

	blocks = append(blocks, section(fmt.Sprintf(":wave: You're connected to Fyle as *%s*.", s.Email)))
	if len(s.Counts) > 0 {
		fields := make([]*slack.TextBlockObject, 0, len(s.Counts))
		for _, c := range s.Counts {
			fields = append(fields, mrkdwn(fmt.Sprintf("*%s*\n%d", c.Label, c.Value)))
		}
		blocks = append(blocks, slack.NewDividerBlock(), slack.NewSectionBlock(mrkdwn("*Your reports*"), fields, nil))
	}
	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewActionBlock("home_actions",
			slack.NewButtonBlockElement(ActionOpenExpenseModal, "", plain("Create expense")).WithStyle(slack.StylePrimary),
			slack.NewButtonBlockElement(ActionOpenPreferences, "", plain("Notification settings")),
			linkButton(ActionViewInFyle, "Open Fyle", fyle.AppURL()),
		),
		contextLine("Counts refresh every few minutes."),
	)
	return slack.HomeTabViewRequest{Type: slack.VTHomeTab, Blocks: slack.Blocks{BlockSet: blocks}}
}

// PreferenceBlockID is the block holding one role's checkbox group.
func PreferenceBlockID(role models.Role) string {
	return "prefs_" + strings.ToLower(string(role))
}

// NotificationSettingsModal shows one checkbox per notification type of the
// given roles, checked when enabled.
func NotificationSettingsModal(prefs []models.NotificationPreference, roles []models.Role) slack.ModalViewRequest {
	enabled := make(map[string]bool, len(prefs))
	for _, p := range prefs {
		enabled[p.NotificationType] = p.IsEnabled
	}

	blocks := []slack.Block{
		section("Choose which Fyle notifications you receive in Slack."),
	}
	for _, role := range roles {
		var options, initial []*slack.OptionBlockObject
		for _, info := range models.AllNotificationTypes() {
			if info.Role != role {
				continue
			}
			key := models.PreferenceKey(info.Type, info.Role)
			if _, ok := enabled[key]; !ok {
				continue
			}
			opt := slack.NewOptionBlockObject(key, plain(info.Title), plain(info.Description))
			options = append(options, opt)
			if enabled[key] {
				initial = append(initial, opt)
			}
		}
		if len(options) == 0 {
			continue
		}
		group := slack.NewCheckboxGroupsBlockElement(ActionPreferenceToggle, options...)
		group.InitialOptions = initial
		title := "As an employee"
		if role == models.RoleApprover {
			title = "As an approver"
		}
		blocks = append(blocks,
			slack.NewHeaderBlock(plain(title)),
			slack.NewActionBlock(PreferenceBlockID(role), group),
		)
	}

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: CallbackNotificationSettings,
		Title:      plain("Notifications"),
		Close:      plain("Done"),
		Blocks:     slack.Blocks{BlockSet: blocks},
	}
}

// ExpenseModal is the expense creation form.
func ExpenseModal(defaultCurrency string, today time.Time) slack.ModalViewRequest {
	currencyOpts := make([]*slack.OptionBlockObject, 0, len(currencies))
	var initial *slack.OptionBlockObject
	for _, c := range currencies {
		opt := slack.NewOptionBlockObject(c, plain(c), nil)
		currencyOpts = append(currencyOpts, opt)
		if c == defaultCurrency {
			initial = opt
		}
	}
	currency := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plain("Currency"), expenseValueAction, currencyOpts...)
	currency.InitialOption = initial

	date := slack.NewDatePickerBlockElement(expenseValueAction)
	date.InitialDate = today.Format("2006-01-02")

	merchant := slack.NewInputBlock(ExpenseMerchantBlock, plain("Merchant"), nil,
		slack.NewPlainTextInputBlockElement(plain("e.g. Starbucks"), expenseValueAction))
	merchant.Optional = true

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: CallbackExpenseModal,
		Title:      plain("Create expense"),
		Submit:     plain("Create"),
		Close:      plain("Cancel"),
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewInputBlock(ExpenseAmountBlock, plain("Amount"), nil,
				slack.NewPlainTextInputBlockElement(plain("0.00"), expenseValueAction)),
			slack.NewInputBlock(ExpenseCurrencyBlock, plain("Currency"), nil, currency),
			slack.NewInputBlock(ExpensePurposeBlock, plain("Purpose"), nil,
				slack.NewPlainTextInputBlockElement(plain("What was this for?"), expenseValueAction)),
			merchant,
			slack.NewInputBlock(ExpenseDateBlock, plain("Date of spend"), nil, date),
		}},
	}
}

// ParseExpenseSubmission reads the modal state. The second return maps block
// ids to field errors in the shape Slack's response_action=errors expects.
func ParseExpenseSubmission(values map[string]map[string]slack.BlockAction) (fyle.NewExpense, map[string]string) {
	get := func(block string) slack.BlockAction {
		return values[block][expenseValueAction]
	}
	errs := map[string]string{}

	var out fyle.NewExpense
	amount, err := strconv.ParseFloat(strings.TrimSpace(get(ExpenseAmountBlock).Value), 64)
	if err != nil || amount <= 0 {
		errs[ExpenseAmountBlock] = "Enter a positive amount, e.g. 12.50"
	}
	out.Amount = amount

	out.Currency = get(ExpenseCurrencyBlock).SelectedOption.Value
	if out.Currency == "" {
		errs[ExpenseCurrencyBlock] = "Pick a currency"
	}

	out.Purpose = strings.TrimSpace(get(ExpensePurposeBlock).Value)
	if out.Purpose == "" {
		errs[ExpensePurposeBlock] = "Purpose is required"
	}
	out.Merchant = strings.TrimSpace(get(ExpenseMerchantBlock).Value)

	out.SpentAt = get(ExpenseDateBlock).SelectedDate
	if _, err := time.Parse("2006-01-02", out.SpentAt); err != nil {
		errs[ExpenseDateBlock] = "Pick the date of spend"
	}

	if len(errs) == 0 {
		return out, nil
	}
	return out, errs
}

// ExpenseCreated confirms a created expense in the user's DM.
func ExpenseCreated(e *fyle.Expense) Message {
	text := fmt.Sprintf(":receipt: Expense of *%s* created in Fyle.", FormatAmount(e.Currency, e.Amount))
	url := fmt.Sprintf("%s/app/main/#/my_expenses/%s", fyle.AppURL(), e.ID)
	return Message{
		Text: text,
		Blocks: []slack.Block{
			section(text),
			slack.NewActionBlock("", linkButton(ActionViewInFyle, "View in Fyle", url)),
		},
	}
}

// LinkPrompt asks an unlinked user to connect Fyle.
func LinkPrompt(linkURL string) Message {
	text := "Connect your Fyle account first."
	return Message{
		Text: text,
		Blocks: []slack.Block{
			section(text),
			slack.NewActionBlock("", linkButton(ActionLinkFyleAccount, "Link Fyle account", linkURL).WithStyle(slack.StylePrimary)),
		},
	}
}

// CommandHelp lists the slash command's subcommands.
func CommandHelp(command string) Message {
	text := fmt.Sprintf("*%[1]s expense* creates an expense\n*%[1]s notifications* opens notification settings", command)
	return Message{Text: text, Blocks: []slack.Block{section(text)}}
}
