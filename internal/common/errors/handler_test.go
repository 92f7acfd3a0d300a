package errors

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
)

func jobWithRetries(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                12345,
		Type:               "form.component.generate",
		ProcessInstanceKey: 999,
		Retries:            retries,
		Variables:          `{}`,
	}}
}

func TestErrorHandler_Decide(t *testing.T) {
	h := NewErrorHandler(nil)

	tests := []struct {
		name        string
		err         error
		jobRetries  int32
		wantAction  JobAction
		wantRetries int32
		wantCode    string
	}{
		{
			name:        "retryable error fails with capped retries",
			err:         NewCustomComponentError(NewLLMGenerationError("503", nil)),
			jobRetries:  3,
			wantAction:  ActionFail,
			wantRetries: 2,
			wantCode:    "CUSTOM_COMPONENT_GENERATION_FAILED",
		},
		{
			name:        "job retries cap the decision",
			err:         NewLLMGenerationError("503", nil),
			jobRetries:  2,
			wantAction:  ActionFail,
			wantRetries: 1,
			wantCode:    "LLM_GENERATION_FAILED",
		},
		{
			name:        "last job retry fails with zero",
			err:         NewLLMTimeoutError(time.Second),
			jobRetries:  1,
			wantAction:  ActionFail,
			wantRetries: 0,
			wantCode:    "LLM_TIMEOUT",
		},
		{
			name:       "non-retryable throws",
			err:        NewCustomComponentError(NewNotConfiguredError("off")),
			jobRetries: 3,
			wantAction: ActionThrow,
			wantCode:   "CUSTOM_COMPONENT_GENERATION_FAILED",
		},
		{
			name:       "plain error becomes internal and throws",
			err:        stderrors.New("boom"),
			jobRetries: 3,
			wantAction: ActionThrow,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "no retries left throws",
			err:        NewLLMGenerationError("503", nil),
			jobRetries: 0,
			wantAction: ActionThrow,
			wantCode:   "LLM_GENERATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := h.Decide(jobWithRetries(tt.jobRetries), tt.err)
			assert.Equal(t, tt.wantAction, d.Action)
			assert.Equal(t, tt.wantRetries, d.Retries)
			assert.Equal(t, tt.wantCode, d.BPMN.Code)
			assert.Equal(t, tt.wantCode, d.BPMN.ToErrorVariables()["errorCode"])
		})
	}
}
