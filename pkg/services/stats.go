package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/storage"
)

// StatsUnavailableReply is sent when the record count cannot be read.
const StatsUnavailableReply = "Sorry, something went wrong while counting users. Please try again later."

// StatsService answers the administrator's stats command
type StatsService interface {
	// Reply returns the plain-text answer. It never fails; store errors are
	// logged and turned into StatsUnavailableReply.
	Reply(ctx context.Context) string
}

type statsServiceImpl struct {
	store storage.Store
}

// NewStatsService creates a new stats service
func NewStatsService(store storage.Store) StatsService {
	return &statsServiceImpl{store: store}
}

func (s *statsServiceImpl) Reply(ctx context.Context) string {
	n, err := s.store.Count(ctx)
	if err != nil {
		log.WithField("prefix", "stats").
			WithField("code", apperrors.CodeOf(err)).
			WithError(err).
			Error("error counting users")
		return StatsUnavailableReply
	}
	return fmt.Sprintf("Total registered users: %d", n)
}
