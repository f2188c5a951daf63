package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"feedbackdesk/internal/model"
	"feedbackdesk/internal/repository"
)

// ResponseRepo is an in-memory repository.ResponseRepo
type ResponseRepo struct {
	mu        sync.RWMutex
	responses []*model.Response
	now       func() time.Time
}

// NewResponseRepo creates an empty response store
func NewResponseRepo() *ResponseRepo {
	return &ResponseRepo{now: time.Now}
}

var _ repository.ResponseRepo = (*ResponseRepo)(nil)

func (r *ResponseRepo) Append(_ context.Context, answers model.AnswerMap) (*model.Response, error) {
	copied := make(model.AnswerMap, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	response := &model.Response{
		ID:        uuid.NewString(),
		Answers:   copied,
		CreatedAt: r.now().UTC(),
	}

	r.mu.Lock()
	r.responses = append(r.responses, response)
	r.mu.Unlock()
	return response, nil
}

// Seed appends stored responses as-is, including legacy shaped ones.
func (r *ResponseRepo) Seed(responses ...*model.Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, responses...)
}

// List returns responses newest first; equal timestamps keep reverse
// insertion order.
func (r *ResponseRepo) List(_ context.Context) ([]*model.Response, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Response, 0, len(r.responses))
	for i := len(r.responses) - 1; i >= 0; i-- {
		out = append(out, r.responses[i])
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(responses []*model.Response) {
	sort.SliceStable(responses, func(i, j int) bool {
		return responses[i].CreatedAt.After(responses[j].CreatedAt)
	})
}
