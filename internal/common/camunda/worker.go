// internal/common/camunda/worker.go
package camunda

import (
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every worker package's Handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
	GetTaskType() string
}

// WorkerOptions are the polling settings for one job type.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

// OpenWorker registers handler for its task type and starts polling.
func OpenWorker(client zbc.Client, handler JobHandler, opts WorkerOptions) worker.JobWorker {
	taskType := handler.GetTaskType()
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(opts.MaxJobsActive).
		Name(fmt.Sprintf("%s-worker", taskType))
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}
	return step.Open()
}
