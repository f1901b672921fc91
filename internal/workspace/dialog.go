package workspace

import (
	"slices"

	"github.com/meltforce/fichatreino/internal/models"
)

// OpenAddDialog seeds the editing buffer from the default configuration.
func (s *Session) OpenAddDialog() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return err
	}
	s.buffer = s.defaults
	s.editTarget = ""
	s.dialogOpen = true
	return nil
}

// OpenEditDialog seeds the editing buffer from the entry with id.
func (s *Session) OpenEditDialog(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return err
	}
	entry, ok := s.cart.Get(id)
	if !ok {
		return ErrUnknownEntry
	}
	s.buffer = entry.Dosage
	s.editTarget = id
	s.dialogOpen = true
	return nil
}

// SetBuffer replaces the dosage being edited in the open dialog.
func (s *Session) SetBuffer(d models.Dosage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return err
	}
	if !s.dialogOpen {
		return ErrDialogClosed
	}
	s.buffer = d
	return nil
}

// Confirm commits the editing buffer and closes the dialog. In edit mode
// the target entry's dosage is replaced; in add mode the selected exercise
// is appended with the current image. It returns nil when nothing was
// committed.
func (s *Session) Confirm() (*models.PrescribedExercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return nil, err
	}
	if !s.dialogOpen {
		return nil, ErrDialogClosed
	}
	defer s.closeDialog()

	if s.editTarget != "" {
		entry, ok := s.cart.Update(s.editTarget, s.buffer)
		if !ok {
			return nil, nil
		}
		return &entry, nil
	}
	if s.selected == nil {
		return nil, nil
	}
	entry := s.cart.Add(s.selected.Name, s.buffer, s.image)
	s.log.Info("exercise added", "exercise", entry.Name, "id", entry.ID, "position", s.cart.Len())
	return &entry, nil
}

// CancelDialog closes the dialog without touching the cart.
func (s *Session) CancelDialog() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return err
	}
	s.closeDialog()
	return nil
}

func (s *Session) closeDialog() {
	s.dialogOpen = false
	s.editTarget = ""
}

// Remove deletes the entry with id. It never opens the edit dialog and
// unknown ids are a no-op.
func (s *Session) Remove(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return false, err
	}
	return s.cart.Remove(id), nil
}

// CycleName advances the workout label, wrapping after the last one.
func (s *Session) CycleName() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireWorkspace(); err != nil {
		return "", err
	}
	i := slices.Index(WorkoutLabels, s.workoutName)
	s.workoutName = WorkoutLabels[(i+1)%len(WorkoutLabels)]
	return s.workoutName, nil
}

// SetDefaults replaces the template copied into new entries. It lasts
// until logout.
func (s *Session) SetDefaults(d models.Dosage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = d
}

// Workout returns the label and a copy of the cart.
func (s *Session) Workout() (string, []models.PrescribedExercise) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workoutName, s.cart.Entries()
}
