package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/fichatreino/internal/models"
	"github.com/meltforce/fichatreino/internal/workspace"
)

// summary is the workspace state without image payloads, which would bloat
// tool results.
type summary struct {
	workspace.State
	HasImage bool `json:"has_image"`
}

func summarize(st workspace.State) summary {
	out := summary{State: st, HasImage: st.Image != nil}
	out.Image = nil
	if len(st.Cart) > 0 {
		cart := make([]models.PrescribedExercise, len(st.Cart))
		copy(cart, st.Cart)
		for i := range cart {
			cart[i].Image = nil
		}
		out.Cart = cart
	}
	return out
}

var dosageFields = []struct {
	key  string
	desc string
	set  func(*models.Dosage, string)
}{
	{"sets", "Number of sets, e.g. '3'", func(d *models.Dosage, v string) { d.Sets = v }},
	{"reps", "Repetitions, e.g. '10-12'", func(d *models.Dosage, v string) { d.Reps = v }},
	{"rest", "Rest between sets, e.g. '60s'", func(d *models.Dosage, v string) { d.Rest = v }},
	{"technique", "Intensity technique, e.g. 'Drop-set'", func(d *models.Dosage, v string) { d.Technique = v }},
	{"observation", "Free-text note for the student", func(d *models.Dosage, v string) { d.Observation = v }},
}

func dosageOptions(extra ...mcp.ToolOption) []mcp.ToolOption {
	opts := extra
	for _, f := range dosageFields {
		opts = append(opts, mcp.WithString(f.key, mcp.Description(f.desc)))
	}
	return opts
}

// mergeDosage overrides the fields of base present in the request.
func mergeDosage(base models.Dosage, req mcp.CallToolRequest) models.Dosage {
	args := req.GetArguments()
	for _, f := range dosageFields {
		if _, ok := args[f.key]; ok {
			f.set(&base, req.GetString(f.key, ""))
		}
	}
	return base
}

var intakeFields = []struct {
	key  string
	desc string
	set  func(*models.Profile, string)
}{
	{"age", "Age in years", func(p *models.Profile, v string) { p.Age = v }},
	{"height", "Height in cm", func(p *models.Profile, v string) { p.Height = v }},
	{"weight", "Weight in kg", func(p *models.Profile, v string) { p.Weight = v }},
	{"objectives", "Training objectives", func(p *models.Profile, v string) { p.Objectives = v }},
	{"neurodivergence", "Neurodivergence profile (TEA/TDAH)", func(p *models.Profile, v string) { p.Neurodivergence = v }},
	{"medical_history", "Relevant medical history", func(p *models.Profile, v string) { p.MedicalHistory = v }},
	{"medications", "Current medications", func(p *models.Profile, v string) { p.Medications = v }},
	{"exercise_preference", "Whether the student likes exercising", func(p *models.Profile, v string) { p.ExercisePreference = v }},
	{"other_activities", "Other physical activities", func(p *models.Profile, v string) { p.OtherActivities = v }},
	{"training_schedule", "Available training days and times", func(p *models.Profile, v string) { p.TrainingSchedule = v }},
	{"session_duration", "Session duration", func(p *models.Profile, v string) { p.SessionDuration = v }},
	{"goal_timeline", "Deadline for the objective", func(p *models.Profile, v string) { p.GoalTimeline = v }},
}

func intakeOptions() []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Update intake (anamnesis) fields of the active student. Omitted fields keep their value."),
		mcp.WithBoolean("bariatric", mcp.Description("Whether the student had bariatric surgery")),
	}
	for _, f := range intakeFields {
		opts = append(opts, mcp.WithString(f.key, mcp.Description(f.desc)))
	}
	return opts
}

// --- Tool definitions ---

var toolGetState = mcp.NewTool("get_state",
	mcp.WithDescription("Current workspace: view, active student, intake, selected exercise with AI analysis and statuses, workout cart and dialog. Image bytes are omitted."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List muscle groups with their exercises. Pass muscle_group to list a single group."),
	mcp.WithString("muscle_group", mcp.Description("Muscle group name, e.g. 'Peito'")),
)

var toolOpenStudent = mcp.NewTool("open_student",
	mcp.WithDescription("Open a student's workspace, logging in and leaving the current student as needed. Resets all per-student state."),
	mcp.WithString("student", mcp.Required(), mcp.Description("Student name")),
	mcp.WithString("teacher", mcp.Description("Trainer name, required when not logged in")),
)

var toolSelectMuscleGroup = mcp.NewTool("select_muscle_group",
	mcp.WithDescription("Choose the muscle group whose exercises are offered."),
	mcp.WithString("muscle_group", mcp.Required(), mcp.Description("Muscle group name")),
)

var toolAnalyzeExercise = mcp.NewTool("analyze_exercise",
	mcp.WithDescription("Select an exercise and run the AI analysis: technical description, benefits and a generated illustration. Returns when the analysis is published."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name, e.g. 'Supino Inclinado HBC'")),
)

var toolTechnicalCue = mcp.NewTool("technical_cue",
	mcp.WithDescription("Generate a quick biomechanical cue for the selected exercise, adapted to the student's neurodivergence profile."),
)

var toolUpdateIntake = mcp.NewTool("update_intake", intakeOptions()...)

var toolRequestPeriodization = mcp.NewTool("request_periodization",
	mcp.WithDescription("Ask the AI for a periodization plan from the intake. On success the report opens and a follow-up insight with safety tips is generated."),
)

var toolAddExercise = mcp.NewTool("add_exercise", dosageOptions(
	mcp.WithDescription("Add the selected exercise to the workout cart. Omitted dosage fields use the session defaults."),
)...)

var toolEditExercise = mcp.NewTool("edit_exercise", dosageOptions(
	mcp.WithDescription("Change the dosage of a cart entry. Omitted fields keep their value."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Cart entry id")),
)...)

var toolRemoveExercise = mcp.NewTool("remove_exercise",
	mcp.WithDescription("Remove an entry from the workout cart."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Cart entry id")),
)

var toolCycleWorkoutName = mcp.NewTool("cycle_workout_name",
	mcp.WithDescription("Advance the workout label: TREINO A, B, C, D, E, then back to A."),
)

var toolSetDefaults = mcp.NewTool("set_defaults", dosageOptions(
	mcp.WithDescription("Change the dosage template used for newly added exercises. Omitted fields keep their value."),
)...)

var toolExportWorkout = mcp.NewTool("export_workout",
	mcp.WithDescription("Render the workout sheet with ordinal positions."),
	mcp.WithString("format", mcp.Description("Output format. Defaults to 'markdown'."), mcp.Enum("text", "csv", "markdown", "html")),
)

// --- Tool handlers ---

func (h *handlers) stateResult(op string, st workspace.State, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		h.log.Error("mcp "+op, "error", err)
		return mcp.NewToolResultError(op + " failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(summarize(st))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.State(ctx)
	return h.stateResult("get_state", st, err)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	groups, err := h.ds.Catalog(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if name := req.GetString("muscle_group", ""); name != "" {
		for _, g := range groups {
			if g.Name == name {
				result, err := mcp.NewToolResultJSON(g)
				if err != nil {
					return mcp.NewToolResultError("serialization failed"), nil
				}
				return result, nil
			}
		}
		return mcp.NewToolResultError("unknown muscle group: " + name), nil
	}

	result, err := mcp.NewToolResultJSON(groups)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) openStudent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	student, err := req.RequireString("student")
	if err != nil {
		return mcp.NewToolResultError("student parameter is required"), nil
	}

	st, err := h.ds.State(ctx)
	if err != nil {
		return h.stateResult("open_student", st, err)
	}

	switch st.View {
	case models.ViewLogin:
		teacher := req.GetString("teacher", "")
		if teacher == "" {
			return mcp.NewToolResultError("teacher parameter is required to log in"), nil
		}
		if _, err := h.ds.Login(ctx, teacher); err != nil {
			return h.stateResult("open_student", st, err)
		}
	case models.ViewWorkspace:
		if _, err := h.ds.Back(ctx); err != nil {
			return h.stateResult("open_student", st, err)
		}
	}

	st, err = h.ds.SelectStudent(ctx, student)
	return h.stateResult("open_student", st, err)
}

func (h *handlers) selectMuscleGroup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	group, err := req.RequireString("muscle_group")
	if err != nil {
		return mcp.NewToolResultError("muscle_group parameter is required"), nil
	}
	st, err := h.ds.SelectMuscleGroup(ctx, group)
	return h.stateResult("select_muscle_group", st, err)
}

func (h *handlers) analyzeExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	st, err := h.ds.SelectExercise(ctx, name)
	return h.stateResult("analyze_exercise", st, err)
}

func (h *handlers) technicalCue(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.GenerateCue(ctx)
	return h.stateResult("technical_cue", st, err)
}

func (h *handlers) updateIntake(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.State(ctx)
	if err != nil {
		return h.stateResult("update_intake", st, err)
	}
	if st.Profile == nil {
		return mcp.NewToolResultError("no student is open"), nil
	}

	p := *st.Profile
	args := req.GetArguments()
	for _, f := range intakeFields {
		if _, ok := args[f.key]; ok {
			f.set(&p, req.GetString(f.key, ""))
		}
	}
	if _, ok := args["bariatric"]; ok {
		p.Bariatric = req.GetBool("bariatric", false)
	}

	st, err = h.ds.UpdateProfile(ctx, p)
	return h.stateResult("update_intake", st, err)
}

func (h *handlers) requestPeriodization(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.RequestPlan(ctx)
	if err == nil && st.ReportStatus == models.StatusFailed {
		return mcp.NewToolResultError("periodization failed; the previous report is kept"), nil
	}
	return h.stateResult("request_periodization", st, err)
}

// applyDialog merges the request into the open dialog buffer and confirms.
// The dialog is cancelled if any step fails.
func (h *handlers) applyDialog(ctx context.Context, op string, st workspace.State, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.SetBuffer(ctx, mergeDosage(st.Dialog.Buffer, req))
	if err == nil {
		st, err = h.ds.Confirm(ctx)
	}
	if err != nil {
		if _, cerr := h.ds.CancelDialog(ctx); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return h.stateResult(op, st, err)
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.State(ctx)
	if err != nil {
		return h.stateResult("add_exercise", st, err)
	}
	if st.Selected == nil {
		return mcp.NewToolResultError("no exercise selected; call analyze_exercise first"), nil
	}

	st, err = h.ds.OpenAddDialog(ctx)
	if err != nil {
		return h.stateResult("add_exercise", st, err)
	}
	return h.applyDialog(ctx, "add_exercise", st, req)
}

func (h *handlers) editExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	st, err := h.ds.OpenEditDialog(ctx, id)
	if err != nil {
		return h.stateResult("edit_exercise", st, err)
	}
	return h.applyDialog(ctx, "edit_exercise", st, req)
}

func (h *handlers) removeExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	st, err := h.ds.Remove(ctx, id)
	return h.stateResult("remove_exercise", st, err)
}

func (h *handlers) cycleWorkoutName(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.CycleName(ctx)
	return h.stateResult("cycle_workout_name", st, err)
}

func (h *handlers) setDefaults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.ds.State(ctx)
	if err != nil {
		return h.stateResult("set_defaults", st, err)
	}
	st, err = h.ds.SetDefaults(ctx, mergeDosage(st.Defaults, req))
	return h.stateResult("set_defaults", st, err)
}

func (h *handlers) exportWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.ds.Export(ctx, req.GetString("format", "markdown"))
	if err != nil {
		h.log.Error("mcp export_workout", "error", err)
		return mcp.NewToolResultError("export failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(out), nil
}
