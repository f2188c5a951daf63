// Package memory provides in-process implementations of the repository
// interfaces. They back the server when MONGO_URI is memory:// and are used
// throughout the service tests.
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

// QuestionRepo is an in-memory repository.QuestionRepo
type QuestionRepo struct {
	mu        sync.RWMutex
	questions map[string]model.Question
	seq       map[string]int
	next      int
}

// NewQuestionRepo creates an empty question store
func NewQuestionRepo() *QuestionRepo {
	return &QuestionRepo{
		questions: make(map[string]model.Question),
		seq:       make(map[string]int),
	}
}

var _ repository.QuestionRepo = (*QuestionRepo)(nil)

func (r *QuestionRepo) List(_ context.Context) ([]model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Question, 0, len(r.questions))
	for _, q := range r.questions {
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return r.seq[out[i].ID] < r.seq[out[j].ID]
	})
	return out, nil
}

func (r *QuestionRepo) GetByID(_ context.Context, id string) (*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (r *QuestionRepo) Create(_ context.Context, question *model.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[question.ID]; ok {
		return repository.ErrDuplicateID
	}
	r.store(question)
	return nil
}

func (r *QuestionRepo) Upsert(_ context.Context, question *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(question)
	return nil
}

// store must be called with mu held.
func (r *QuestionRepo) store(question *model.Question) {
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now().UTC()
	}
	if _, ok := r.seq[question.ID]; !ok {
		r.next++
		r.seq[question.ID] = r.next
	}
	r.questions[question.ID] = *question
}

func (r *QuestionRepo) Merge(_ context.Context, id string, patch model.QuestionPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questions[id]
	if !ok {
		return repository.ErrNotFound
	}
	patch.Apply(&q)
	r.questions[id] = q
	return nil
}

func (r *QuestionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.questions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.questions, id)
	delete(r.seq, id)
	return nil
}
