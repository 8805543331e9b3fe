package service

import (
	"context"
	"fmt"

	"alcyxob/fitplan/internal/domain"
	"alcyxob/fitplan/internal/generator"
	"alcyxob/fitplan/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// HistorySample is the personalization context read before prompting.
type HistorySample struct {
	History  []domain.SessionHistoryEntry
	Progress []domain.ProgressRecord
}

// HistorySampler reads the latest sessions and progress records of a user.
type HistorySampler struct {
	sessions repository.SessionRepository
	progress repository.ProgressRepository
}

func NewHistorySampler(sessions repository.SessionRepository, progress repository.ProgressRepository) *HistorySampler {
	return &HistorySampler{sessions: sessions, progress: progress}
}

// Sample runs both reads concurrently. An empty history is a valid result.
func (s *HistorySampler) Sample(ctx context.Context, userID primitive.ObjectID) (*HistorySample, error) {
	var (
		sessions []domain.WorkoutSession
		progress []domain.ProgressRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = s.sessions.ListRecent(gctx, userID, generator.HistorySessionLimit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		progress, err = s.progress.ListRecent(gctx, userID, generator.HistoryProgressLimit)
		if err != nil {
			return fmt.Errorf("list progress: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sample := &HistorySample{
		History:  make([]domain.SessionHistoryEntry, 0, len(sessions)),
		Progress: progress,
	}
	for _, sess := range sessions {
		sample.History = append(sample.History, sess.HistoryEntry())
	}
	if sample.Progress == nil {
		sample.Progress = []domain.ProgressRecord{}
	}
	return sample, nil
}
