package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/meltforce/fichatreino/internal/coach"
	"github.com/meltforce/fichatreino/internal/genai"
	"github.com/meltforce/fichatreino/internal/journal"
)

// fakeAI routes calls by kind so each test only scripts what it needs.
type fakeAI struct {
	mu sync.Mutex

	analysis func(ctx context.Context, prompt string) (string, error)
	report   func(ctx context.Context, prompt string) (string, error)
	plain    func(ctx context.Context, prompt string) (string, error)
	image    func(ctx context.Context, prompt string) ([]byte, error)

	prompts []string
	images  []string
}

func (f *fakeAI) GenerateText(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	var fn func(context.Context, string) (string, error)
	switch schema {
	case coach.AnalysisSchema:
		fn = f.analysis
	case coach.ReportSchema:
		fn = f.report
	default:
		fn = f.plain
	}
	if fn == nil {
		return "", fmt.Errorf("unexpected text call: %.40s", prompt)
	}
	return fn(ctx, prompt)
}

func (f *fakeAI) GenerateImage(ctx context.Context, prompt string, opts genai.ImageOptions) ([]byte, error) {
	f.mu.Lock()
	f.images = append(f.images, prompt)
	f.mu.Unlock()
	if f.image == nil {
		return nil, fmt.Errorf("unexpected image call")
	}
	return f.image(ctx, prompt)
}

func (f *fakeAI) promptsContaining(sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.prompts {
		if strings.Contains(p, sub) {
			n++
		}
	}
	return n
}

func reply(text string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return text, nil }
}

func fail(msg string) func(context.Context, string) (string, error) {
	return func(context.Context, string) (string, error) { return "", fmt.Errorf("%s", msg) }
}

// memJournal collects entries in memory.
type memJournal struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (m *memJournal) Record(_ context.Context, e journal.Entry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return int64(len(m.entries)), nil
}

func (m *memJournal) statuses(op string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		if e.Operation == op {
			out = append(out, e.Status)
		}
	}
	return out
}

func counterIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("ex-%d", n)
	}
}
