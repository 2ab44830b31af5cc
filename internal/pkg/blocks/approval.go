package blocks

import (
	"fmt"

	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/fyle"
)

// StripActions drops every actions block, removing all call-to-action buttons.
func StripActions(original []slack.Block) []slack.Block {
	out := make([]slack.Block, 0, len(original))
	for _, b := range original {
		if b.BlockType() == slack.MBTAction {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ApprovalTerminal is the informational end state: no buttons, reason appended.
func ApprovalTerminal(original []slack.Block, reason string) Message {
	blocks := StripActions(original)
	blocks = append(blocks, contextLine(":information_source: "+reason))
	return Message{Text: reason, Blocks: blocks}
}

// ApprovalInFlight swaps the Approve button for a loading indicator while the
// approval job runs.
func ApprovalInFlight(original []slack.Block, reportID string) Message {
	btn := slack.NewButtonBlockElement(ActionApprovalInFlight, reportID, plain(":hourglass_flowing_sand: Approving..."))
	return Message{Text: "Approving...", Blocks: replaceApproveButton(original, btn)}
}

// RestoreApproveButton puts the Approve button back so the user can retry.
func RestoreApproveButton(original []slack.Block, reportID string) Message {
	return Message{Text: "Approval failed, please try again.", Blocks: replaceApproveButton(original, ApproveButton(reportID))}
}

// ApprovalErrorReply is posted in the thread of the approval message.
func ApprovalErrorReply(reportID string) Message {
	text := fmt.Sprintf(":warning: Looks like something went wrong while approving this report. Please try again, or approve it directly in <%s|Fyle>.",
		fyle.ReportURL(reportID, true))
	return Message{
		Text:   text,
		Blocks: []slack.Block{section(text)},
	}
}

// ApprovalLinkReply is posted in the thread when the approver has no working
// Fyle connection.
func ApprovalLinkReply() Message {
	text := ":link: Connect your Fyle account from the *Home* tab of this app, then click *Approve* again."
	return Message{Text: text, Blocks: []slack.Block{section(text)}}
}

// replaceApproveButton rewrites the first approve or in-flight button found in
// an actions block. When none exists a new actions block is appended.
func replaceApproveButton(original []slack.Block, btn *slack.ButtonBlockElement) []slack.Block {
	out := make([]slack.Block, 0, len(original)+1)
	replaced := false
	for _, b := range original {
		ab, ok := b.(*slack.ActionBlock)
		if !ok || replaced || ab.Elements == nil {
			out = append(out, b)
			continue
		}
		elements := make([]slack.BlockElement, 0, len(ab.Elements.ElementSet))
		for _, el := range ab.Elements.ElementSet {
			if existing, ok := el.(*slack.ButtonBlockElement); ok && !replaced && isApprovalButton(existing.ActionID) {
				elements = append(elements, btn)
				replaced = true
				continue
			}
			elements = append(elements, el)
		}
		out = append(out, slack.NewActionBlock(ab.BlockID, elements...))
	}
	if !replaced {
		out = append(out, slack.NewActionBlock(approvalActionsBlockID, btn))
	}
	return out
}

func isApprovalButton(actionID string) bool {
	return actionID == ActionApproveReport || actionID == ActionApprovalInFlight
}
