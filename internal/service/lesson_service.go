package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-booking-api/internal/cache"
	"github.com/noah-isme/lesson-booking-api/internal/models"
	"github.com/noah-isme/lesson-booking-api/internal/store"
	appErrors "github.com/noah-isme/lesson-booking-api/pkg/errors"
)

type lessonDatasets interface {
	Lessons(ctx context.Context) ([]models.Lesson, error)
}

type lessonMutator interface {
	PatchLessonColumn(ctx context.Context, id, column, value string) cache.MutationResult
	RebuildLessons(ctx context.Context) ([]models.Lesson, error)
}

type cellWriter interface {
	UpdateCell(ctx context.Context, table, idColumn, id, column, value string) error
}

// LessonService covers the small staff-side lesson transitions. Booking
// reads lessons through the availability calculator; this only flips status.
type LessonService struct {
	data    lessonDatasets
	mutator lessonMutator
	cells   cellWriter
	logger  *zap.Logger
}

// NewLessonService constructs LessonService.
func NewLessonService(data lessonDatasets, mutator lessonMutator, cells cellWriter, logger *zap.Logger) *LessonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{data: data, mutator: mutator, cells: cells, logger: logger}
}

// Close cancels a scheduled lesson so no further reservations can target
// it. Existing reservations stay untouched; students cancel or staff
// amend them individually.
func (s *LessonService) Close(ctx context.Context, lessonID string, claims *models.JWTClaims) (models.Lesson, error) {
	if claims == nil || !claims.CanOverride() {
		return models.Lesson{}, appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	lessons, err := s.data.Lessons(ctx)
	if err != nil {
		return models.Lesson{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	var lesson *models.Lesson
	for i := range lessons {
		if lessons[i].ID == lessonID {
			lesson = &lessons[i]
			break
		}
	}
	if lesson == nil {
		return models.Lesson{}, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	if lesson.Status != models.LessonScheduled {
		return models.Lesson{}, appErrors.Clone(appErrors.ErrLessonClosed, "lesson is already closed")
	}

	status := string(models.LessonCancelled)
	if err := s.cells.UpdateCell(ctx, store.TableLessons, "id", lessonID, "status", status); err != nil {
		return models.Lesson{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close lesson")
	}
	if result := s.mutator.PatchLessonColumn(ctx, lessonID, "status", status); result != cache.MutationApplied {
		s.logger.Warn("lesson patch not applied, rebuilding",
			zap.String("lesson_id", lessonID),
			zap.String("result", result.String()))
		if _, err := s.mutator.RebuildLessons(ctx); err != nil {
			s.logger.Error("lesson rebuild failed", zap.Error(err))
		}
	}

	lesson.Status = models.LessonCancelled
	return *lesson, nil
}
