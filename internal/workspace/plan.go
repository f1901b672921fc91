package workspace

import (
	"context"
	"strings"
	"time"

	"github.com/meltforce/fichatreino/internal/coach"
	"github.com/meltforce/fichatreino/internal/journal"
	"github.com/meltforce/fichatreino/internal/models"
)

// RequestPlan asks for a periodization report and waits for it.
func (s *Session) RequestPlan(ctx context.Context) error {
	job, err := s.StartPlan()
	if err != nil {
		return err
	}
	s.run(ctx, job)
	return nil
}

// StartPlan closes the intake, sets the consulting flag and returns the
// periodization request. On success the report replaces the previous one,
// the report view opens and the bio-insight is requested in the
// background. On failure the previous report is kept. The consulting flag
// is cleared either way.
func (s *Session) StartPlan() (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return nil, err
	}
	s.planSeq++
	seq, epoch := s.planSeq, s.epoch
	profile := s.profile
	s.showIntake = false
	s.consulting = true
	s.reportStatus = models.StatusLoading

	return func(ctx context.Context) { s.plan(ctx, profile, seq, epoch) }, nil
}

func (s *Session) plan(ctx context.Context, profile models.Profile, seq, epoch uint64) {
	current := func() bool { return s.planSeq == seq && s.epoch == epoch }
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if current() {
			s.consulting = false
		}
	}()

	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.ai.GenerateText(callCtx, coach.PeriodizationPrompt(profile), coach.ReportSchema)
	var report models.Report
	if err == nil {
		report, err = coach.ParseReport(text)
	}
	if err != nil {
		s.log.Error("periodization failed", "student", profile.Name, "error", err)
		s.record(ctx, journal.OpPeriodization, profile.Name, started, journal.StatusFailed, err)
		s.mu.Lock()
		if current() {
			s.reportStatus = models.StatusFailed
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	published := current()
	if published {
		s.report = &report
		s.reportStatus = models.StatusSuccess
		s.showReport = true
	}
	s.mu.Unlock()
	s.record(ctx, journal.OpPeriodization, profile.Name, started, s.freshness(published), nil)

	if !published {
		s.log.Debug("dropping stale periodization", "student", profile.Name, "seq", seq)
		return
	}
	s.log.Info("periodization ready", "student", profile.Name, "notes", len(report.ClinicalNotes))
	if strings.TrimSpace(profile.Name) != "" {
		s.Go(func(ctx context.Context) { s.requestInsight(ctx, profile, epoch) })
	}
}

// requestInsight fills the bio-insight panel. Failures leave it empty.
func (s *Session) requestInsight(ctx context.Context, profile models.Profile, epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.insightSeq++
	seq := s.insightSeq
	s.insightState = models.StatusLoading
	s.mu.Unlock()

	started := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.ai.GenerateText(callCtx, coach.InsightPrompt(profile), nil)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errEmptyInsight
	}

	s.mu.Lock()
	current := s.insightSeq == seq && s.epoch == epoch
	if current {
		if err != nil {
			s.insight = ""
			s.insightState = models.StatusFailed
		} else {
			s.insight = text
			s.insightState = models.StatusSuccess
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("bio-insight failed", "student", profile.Name, "error", err)
		s.record(ctx, journal.OpInsight, profile.Name, started, journal.StatusFailed, err)
		return
	}
	s.record(ctx, journal.OpInsight, profile.Name, started, s.freshness(current), nil)
}
