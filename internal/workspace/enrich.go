package workspace

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/meltforce/fichatreino/internal/coach"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/models"
)

// Job is the asynchronous part of an operation, run after its
// preconditions were checked and its placeholder state published.
type Job func(ctx context.Context)

// SelectExercise makes name the selected exercise and runs the enrichment
// pipeline to completion. AI failures degrade the detail and are reported
// through statuses, not the returned error.
func (s *Session) SelectExercise(ctx context.Context, name string) error {
	job, err := s.StartExercise(name)
	if err != nil {
		return err
	}
	s.run(ctx, job)
	return nil
}

// StartExercise publishes name as the selected exercise with no
// description, clears the image and the cue, and returns the enrichment
// pipeline: analysis text, then the illustration when the analysis gave a
// visual prompt.
func (s *Session) StartExercise(name string) (Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBlankName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return nil, err
	}
	s.enrichSeq++
	seq, epoch := s.enrichSeq, s.epoch
	s.selected = &models.ExerciseDetail{Name: name}
	s.enrichStatus = models.StatusLoading
	s.image = nil
	s.imageStatus = models.StatusLoading
	s.cue = ""
	s.cueStatus = models.StatusIdle
	s.cueSeq++

	return func(ctx context.Context) { s.enrich(ctx, name, seq, epoch) }, nil
}

func (s *Session) enrich(ctx context.Context, name string, seq, epoch uint64) {
	log := s.log.With("exercise", name, "seq", seq)

	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.enrichCurrent(seq, epoch) && s.imageStatus == models.StatusLoading {
			s.imageStatus = models.StatusFailed
		}
	}()

	if !s.sleep(ctx, s.settle) {
		s.publishDetail(seq, epoch, models.ExerciseDetail{Name: name}, models.StatusFailed)
		return
	}

	analysis, ok := s.analyze(ctx, log, name, seq, epoch)
	if !ok {
		s.publishDetail(seq, epoch, models.ExerciseDetail{Name: name}, models.StatusFailed)
		return
	}

	if !s.enrichCurrentLocked(seq, epoch) {
		log.Debug("dropping stale enrichment")
		return
	}
	if analysis.VisualPrompt != "" {
		s.illustrate(ctx, log, name, analysis.VisualPrompt, seq, epoch)
	} else {
		s.mu.Lock()
		if s.enrichCurrent(seq, epoch) {
			s.imageStatus = models.StatusIdle
		}
		s.mu.Unlock()
	}

	detail := models.ExerciseDetail{
		Name:        name,
		Description: analysis.Description,
		Benefits:    analysis.Benefits,
	}
	if s.publishDetail(seq, epoch, detail, models.StatusSuccess) {
		log.Info("exercise enriched", "described", detail.Enriched())
	} else {
		log.Debug("dropping stale enrichment")
	}
}

func (s *Session) analyze(ctx context.Context, log *slog.Logger, name string, seq, epoch uint64) (coach.Analysis, bool) {
	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.ai.GenerateText(callCtx, coach.AnalysisPrompt(name), coach.AnalysisSchema)
	if err == nil {
		var analysis coach.Analysis
		analysis, err = coach.ParseAnalysis(text)
		if err == nil {
			s.record(ctx, journal.OpAnalysis, name, started, s.freshness(s.enrichCurrentLocked(seq, epoch)), nil)
			return analysis, true
		}
	}
	log.Error("exercise analysis failed", "error", err)
	s.record(ctx, journal.OpAnalysis, name, started, journal.StatusFailed, err)
	return coach.Analysis{}, false
}

func (s *Session) illustrate(ctx context.Context, log *slog.Logger, name, prompt string, seq, epoch uint64) {
	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.ai.GenerateImage(callCtx, prompt, coach.IllustrationOptions)
	if err != nil {
		log.Warn("illustration failed", "error", err)
		s.record(ctx, journal.OpImage, name, started, journal.StatusFailed, err)
		return
	}

	s.mu.Lock()
	current := s.enrichCurrent(seq, epoch)
	if current {
		s.image = &models.Image{MIMEType: coach.IllustrationOptions.MIMEType, Bytes: data}
		s.imageStatus = models.StatusSuccess
	}
	s.mu.Unlock()
	s.record(ctx, journal.OpImage, name, started, s.freshness(current), nil)
}

func (s *Session) publishDetail(seq, epoch uint64, d models.ExerciseDetail, status models.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enrichCurrent(seq, epoch) {
		return false
	}
	s.selected = &d
	s.enrichStatus = status
	return true
}

func (s *Session) enrichCurrent(seq, epoch uint64) bool {
	return s.enrichSeq == seq && s.epoch == epoch
}

func (s *Session) enrichCurrentLocked(seq, epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrichCurrent(seq, epoch)
}

func (s *Session) freshness(current bool) string {
	if current {
		return journal.StatusOK
	}
	return journal.StatusStale
}

// sleep waits d or until ctx is done, reporting whether the full delay
// elapsed.
func (s *Session) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// GenerateCue asks for a short technical cue for the selected exercise
// and waits for it.
func (s *Session) GenerateCue(ctx context.Context) error {
	job, err := s.StartCue()
	if err != nil {
		return err
	}
	s.run(ctx, job)
	return nil
}

// StartCue marks the cue as loading and returns the request, adapted to
// the student's neurodivergence notes. On failure the generic safety cue
// is shown and the status is failed.
func (s *Session) StartCue() (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return nil, err
	}
	if s.selected == nil {
		return nil, ErrNoExercise
	}
	s.cueSeq++
	seq, epoch := s.cueSeq, s.epoch
	name, neuro := s.selected.Name, s.profile.Neurodivergence
	s.cueStatus = models.StatusLoading

	return func(ctx context.Context) { s.cueRequest(ctx, name, neuro, seq, epoch) }, nil
}

func (s *Session) cueRequest(ctx context.Context, name, neuro string, seq, epoch uint64) {
	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cue, status := coach.FallbackCue, models.StatusFailed
	text, err := s.ai.GenerateText(callCtx, coach.CuePrompt(name, neuro), nil)
	if err == nil {
		if text = strings.TrimSpace(text); text != "" {
			cue, status = text, models.StatusSuccess
		}
	}

	s.mu.Lock()
	current := s.cueSeq == seq && s.epoch == epoch
	if current {
		s.cue = cue
		s.cueStatus = status
	}
	s.mu.Unlock()

	switch {
	case err != nil:
		s.log.Warn("technical cue failed, using fallback", "exercise", name, "error", err)
		s.record(ctx, journal.OpCue, name, started, journal.StatusFailed, err)
	case status == models.StatusFailed:
		s.log.Warn("technical cue empty, using fallback", "exercise", name)
		s.record(ctx, journal.OpCue, name, started, journal.StatusFailed, nil)
	default:
		s.record(ctx, journal.OpCue, name, started, s.freshness(current), nil)
	}
}
