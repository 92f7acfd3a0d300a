package errors

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// JobAction is what the handler does with a failed job.
type JobAction string

const (
	// ActionFail fails the job, letting Zeebe retry while retries remain.
	ActionFail JobAction = "fail"
	// ActionThrow throws a BPMN error so the process can route on the code.
	ActionThrow JobAction = "throw"
)

// Decision describes how a failed job is reported back to the broker.
type Decision struct {
	Action  JobAction
	Retries int32
	StdErr  *StandardError
	BPMN    *BPMNError
}

// ErrorHandler reports worker failures to Zeebe in a uniform way.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decide maps err onto a fail or throw decision without touching the broker.
// Retryable errors fail the job with at most GetRetryCount retries and never more
// than the job has left; everything else becomes a BPMN error.
func (h *ErrorHandler) Decide(job entities.Job, err error) Decision {
	stdErr := normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	if bpmnErr.Retries > 0 && job.GetRetries() > 0 {
		retries := int32(bpmnErr.Retries)
		if remaining := job.GetRetries() - 1; remaining < retries {
			retries = remaining
		}
		return Decision{Action: ActionFail, Retries: retries, StdErr: stdErr, BPMN: bpmnErr}
	}

	return Decision{Action: ActionThrow, StdErr: stdErr, BPMN: bpmnErr}
}

// HandleJobError decides and sends the matching command.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) error {
	d := h.Decide(job, err)
	h.logError(job, d)

	switch d.Action {
	case ActionFail:
		return h.failJob(ctx, client, job, d)
	default:
		return h.throwBPMNError(ctx, client, job, d)
	}
}

func normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, d Decision) error {
	cmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(d.Retries).
		ErrorMessage(fmt.Sprintf("[%s] %s", d.BPMN.Code, d.BPMN.Message))

	withVars, err := cmd.VariablesFromMap(d.BPMN.ToErrorVariables())
	if err != nil {
		_, sendErr := cmd.Send(ctx)
		return sendErr
	}
	_, err = withVars.Send(ctx)
	return err
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, d Decision) error {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(d.BPMN.Code).
		ErrorMessage(d.BPMN.Message)

	varsJSON, err := json.Marshal(d.BPMN.ToErrorVariables())
	if err == nil {
		if withVars, varErr := cmd.VariablesFromString(string(varsJSON)); varErr == nil {
			_, err = withVars.Send(ctx)
			return err
		}
	}
	_, err = cmd.Send(ctx)
	return err
}

func (h *ErrorHandler) logError(job entities.Job, d Decision) {
	if h.logger == nil {
		return
	}
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.GetKey(),
		"jobType":          job.GetType(),
		"errorCode":        string(d.StdErr.Code),
		"bpmnErrorCode":    d.BPMN.Code,
		"message":          d.BPMN.Message,
		"details":          d.StdErr.Details,
		"retryable":        d.StdErr.Retryable,
		"retries":          d.Retries,
		"action":           string(d.Action),
		"errorCategory":    GetErrorCategory(d.StdErr.Code),
		"workflowInstance": job.GetProcessInstanceKey(),
	})
}
