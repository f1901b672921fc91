package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("fichatreino", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Fichatreino workout-sheet workspace for personal trainers. Open a student, browse the exercise catalog by muscle group, analyze exercises with AI, build the ficha de treino and request a periodization plan. Labels and AI texts are in Portuguese."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetState, Handler: h.getState},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolOpenStudent, Handler: h.openStudent},
		server.ServerTool{Tool: toolSelectMuscleGroup, Handler: h.selectMuscleGroup},
		server.ServerTool{Tool: toolAnalyzeExercise, Handler: h.analyzeExercise},
		server.ServerTool{Tool: toolTechnicalCue, Handler: h.technicalCue},
		server.ServerTool{Tool: toolUpdateIntake, Handler: h.updateIntake},
		server.ServerTool{Tool: toolRequestPeriodization, Handler: h.requestPeriodization},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolEditExercise, Handler: h.editExercise},
		server.ServerTool{Tool: toolRemoveExercise, Handler: h.removeExercise},
		server.ServerTool{Tool: toolCycleWorkoutName, Handler: h.cycleWorkoutName},
		server.ServerTool{Tool: toolSetDefaults, Handler: h.setDefaults},
		server.ServerTool{Tool: toolExportWorkout, Handler: h.exportWorkout},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resState, Handler: h.stateResource},
		server.ServerResource{Resource: resCatalog, Handler: h.catalogResource},
		server.ServerResource{Resource: resWorkout, Handler: h.workoutResource},
		server.ServerResource{Resource: resReport, Handler: h.reportResource},
		server.ServerResource{Resource: resJournal, Handler: h.journalResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resState = mcp.NewResource(
	"fichatreino://state",
	"Workspace State",
	mcp.WithResourceDescription("Active view, student, selected exercise, AI statuses and the workout cart"),
	mcp.WithMIMEType("application/json"),
)

var resCatalog = mcp.NewResource(
	"fichatreino://catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Muscle groups and their exercises in display order"),
	mcp.WithMIMEType("application/json"),
)

var resWorkout = mcp.NewResource(
	"fichatreino://workout",
	"Ficha de Treino",
	mcp.WithResourceDescription("The current workout sheet as a Markdown table with ordinal positions"),
	mcp.WithMIMEType("text/markdown"),
)

var resReport = mcp.NewResource(
	"fichatreino://report",
	"Periodization Report",
	mcp.WithResourceDescription("The latest periodization report of the active student"),
	mcp.WithMIMEType("text/markdown"),
)

var resJournal = mcp.NewResource(
	"fichatreino://journal",
	"AI Call Journal",
	mcp.WithResourceDescription("The 50 most recent AI calls with status, duration and error"),
	mcp.WithMIMEType("application/json"),
)
