package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/slack-go/slack"

	"github.com/fylein/fyle-slack-app-sub000/app/repository"
	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/approval"
)

// ApprovalExecutor runs one approval attempt
type ApprovalExecutor interface {
	Execute(ctx context.Context, req approval.Request) error
}

// EnqueueReportApproval hands an Approve click to the workers
func EnqueueReportApproval(q Enqueuer, req approval.Request) (*Job, error) {
	raw, err := json.Marshal(slack.Blocks{BlockSet: req.Message.Blocks})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message blocks: %w", err)
	}

	payload := ReportApprovalJobPayload{
		ReportID:       req.ReportID,
		ApproverUserID: req.ApproverUserID,
		TeamID:         req.TeamID,
		Channel:        req.Message.Channel,
		MessageTS:      req.Message.Timestamp,
		BlocksJSON:     string(raw),
	}
	job, err := q.EnqueueJob(JobTypeReportApproval, payload.ToMap())
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue approval of report %s: %w", req.ReportID, err)
	}
	return job, nil
}

// Request rebuilds the executor request from the stored payload
func (p *ReportApprovalJobPayload) Request() (approval.Request, error) {
	var blocks slack.Blocks
	if p.BlocksJSON != "" {
		if err := json.Unmarshal([]byte(p.BlocksJSON), &blocks); err != nil {
			return approval.Request{}, fmt.Errorf("failed to unmarshal message blocks: %w", err)
		}
	}
	return approval.Request{
		ReportID:       p.ReportID,
		ApproverUserID: p.ApproverUserID,
		TeamID:         p.TeamID,
		Message: approval.MessageRef{
			Channel:   p.Channel,
			Timestamp: p.MessageTS,
			Blocks:    blocks.BlockSet,
		},
	}, nil
}

// ReportApprovalHandler runs approval jobs. Missing teams or approvers and
// unusable bot tokens are permanent failures.
func ReportApprovalHandler(exec ApprovalExecutor) Handler {
	return func(ctx context.Context, job *Job) error {
		payload, err := ReportApprovalJobPayloadFromMap(job.Payload)
		if err != nil {
			return fmt.Errorf("%w: failed to parse approval payload: %v", ErrPermanent, err)
		}
		req, err := payload.Request()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}

		log.Infof("[Approval] Processing approval of report %s by %s", req.ReportID, req.ApproverUserID)
		if err := exec.Execute(ctx, req); err != nil {
			if errors.Is(err, repository.ErrNotFound) || errors.Is(err, approval.ErrNoSlackClient) {
				return fmt.Errorf("%w: %v", ErrPermanent, err)
			}
			return err
		}
		return nil
	}
}
