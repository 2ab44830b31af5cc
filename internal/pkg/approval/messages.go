package approval

// User-visible reasons shown when a report cannot be approved from Slack.
const (
	MsgSentBack           = "This expense report has been sent back to the employee, so it can't be approved right now."
	MsgAlreadyApproved    = "This expense report has already been approved."
	MsgYouAlreadyApproved = "Looks like you've already approved this expense report."
	MsgNoPermission       = "You no longer have permission to approve this expense report."
	MsgNoAccess           = "Looks like you no longer have access to this expense report."
)
