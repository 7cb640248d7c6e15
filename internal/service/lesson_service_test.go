package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-booking-api/internal/cache"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
)

type lessonMutatorStub struct {
	data *bookingData

	patchResult cache.MutationResult
	rebuilds    int
}

func (m *lessonMutatorStub) PatchLessonColumn(ctx context.Context, id, column, value string) cache.MutationResult {
	if m.patchResult != cache.MutationApplied {
		return m.patchResult
	}
	for i := range m.data.lessons {
		if m.data.lessons[i].ID == id && column == "status" {
			m.data.lessons[i].Status = models.LessonStatus(value)
			return cache.MutationApplied
		}
	}
	return cache.MutationStale
}

func (m *lessonMutatorStub) RebuildLessons(ctx context.Context) ([]models.Lesson, error) {
	m.rebuilds++
	return m.data.lessons, nil
}

type cellWrite struct {
	table, idColumn, id, column, value string
}

type cellsStub struct {
	updates   []cellWrite
	updateErr error
}

func (c *cellsStub) UpdateCell(ctx context.Context, table, idColumn, id, column, value string) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	c.updates = append(c.updates, cellWrite{table: table, idColumn: idColumn, id: id, column: column, value: value})
	return nil
}

func newLessonFixture(lessons []models.Lesson) (*LessonService, *bookingData, *lessonMutatorStub, *cellsStub) {
	data := &bookingData{lessons: lessons}
	mutator := &lessonMutatorStub{data: data}
	cells := &cellsStub{}
	return NewLessonService(data, mutator, cells, nil), data, mutator, cells
}

func TestCloseLessonWritesStoreThenPatchesCache(t *testing.T) {
	svc, data, mutator, cells := newLessonFixture([]models.Lesson{sessionLesson(intPtr(5), nil)})

	closed, err := svc.Close(context.Background(), "l-1", staffClaims())
	require.NoError(t, err)
	assert.Equal(t, models.LessonCancelled, closed.Status)

	require.Len(t, cells.updates, 1)
	assert.Equal(t, cellWrite{table: "lessons", idColumn: "id", id: "l-1", column: "status", value: "CANCELLED"}, cells.updates[0])

	assert.Equal(t, models.LessonCancelled, data.lessons[0].Status)
	assert.Zero(t, mutator.rebuilds)
}

func TestCloseLessonRebuildsWhenPatchStale(t *testing.T) {
	svc, _, mutator, _ := newLessonFixture([]models.Lesson{sessionLesson(nil, nil)})
	mutator.patchResult = cache.MutationStale

	_, err := svc.Close(context.Background(), "l-1", staffClaims())
	require.NoError(t, err)
	assert.Equal(t, 1, mutator.rebuilds)
}

func TestCloseLessonGuards(t *testing.T) {
	svc, data, _, cells := newLessonFixture([]models.Lesson{sessionLesson(nil, nil)})

	_, err := svc.Close(context.Background(), "l-1", studentClaims("stu-1"))
	requireCode(t, err, appErrors.ErrForbidden.Code)

	_, err = svc.Close(context.Background(), "missing", staffClaims())
	requireCode(t, err, appErrors.ErrNotFound.Code)

	data.lessons[0].Status = models.LessonCancelled
	_, err = svc.Close(context.Background(), "l-1", staffClaims())
	requireCode(t, err, appErrors.ErrLessonClosed.Code)

	assert.Empty(t, cells.updates)
}
