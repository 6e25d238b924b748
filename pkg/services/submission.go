package services

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/models"
	"form-intake/pkg/storage"
	"form-intake/pkg/utils"
	"form-intake/pkg/validation"
)

var submissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "formintake_submissions_total",
		Help: "Form submissions by outcome",
	},
	[]string{"outcome"},
)

// Enqueuer accepts a stored record for best-effort notification.
type Enqueuer interface {
	Enqueue(rec models.UserRecord) bool
}

// SubmissionService defines the interface for handling form submissions
type SubmissionService interface {
	// Submit validates raw, stores the record and schedules the admin
	// notification. The returned error carries VALIDATION_FAILED or
	// STORAGE_FAILURE; a notification problem never fails the call.
	Submit(ctx context.Context, raw models.RawSubmission) (models.UserRecord, error)
}

type submissionServiceImpl struct {
	store    storage.Store
	notifier Enqueuer
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(store storage.Store, notifier Enqueuer) SubmissionService {
	return &submissionServiceImpl{
		store:    store,
		notifier: notifier,
	}
}

func (s *submissionServiceImpl) Submit(ctx context.Context, raw models.RawSubmission) (models.UserRecord, error) {
	rec, err := validation.Validate(raw)
	if err != nil {
		var fields validation.Errors
		if !errors.As(err, &fields) {
			return models.UserRecord{}, apperrors.Wrap(apperrors.ErrCodeInternal, "error validating submission", err)
		}

		submissions.WithLabelValues("rejected").Inc()
		log.WithField("prefix", "submission").WithField("fields", fields.Fields()).Info("submission rejected")

		return models.UserRecord{}, apperrors.WrapWithContext(apperrors.ErrCodeValidation, "submission rejected", err,
			map[string]any{"fields": fields.Fields()})
	}

	entry := log.WithField("prefix", "submission").
		WithField("id", rec.ID).
		WithField("mobile_hash", utils.HashString(rec.Mobile))

	if err := s.store.Put(ctx, rec); err != nil {
		submissions.WithLabelValues("store_failed").Inc()
		entry.WithError(err).Error("error storing submission")

		if !apperrors.IsCode(err, apperrors.ErrCodeStorage) {
			err = apperrors.StorageError("put", err)
		}
		return models.UserRecord{}, err
	}

	submissions.WithLabelValues("stored").Inc()
	entry.Info("submission stored")

	s.notifier.Enqueue(rec)
	return rec, nil
}
