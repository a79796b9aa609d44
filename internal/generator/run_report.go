package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"classgraph/internal/analysis"
	"classgraph/internal/resolver"
)

type ReportSignal struct {
	Code     string `json:"code"`
	Stage    string `json:"stage"`
	Severity string `json:"severity"`
	Class    string `json:"class,omitempty"`
	Message  string `json:"message"`
}

type StageMetric struct {
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	StartedAt  string         `json:"started_at"`
	FinishedAt string         `json:"finished_at"`
	DurationMS int64          `json:"duration_ms"`
	Counters   map[string]int `json:"counters,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	FailedStages      int            `json:"failed_stages"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// RunReport is the machine-readable record of one scan.
type RunReport struct {
	Version     string         `json:"version"`
	Root        string         `json:"root"`
	GeneratedAt string         `json:"generated_at"`
	Stages      []StageMetric  `json:"stages"`
	Signals     []ReportSignal `json:"signals,omitempty"`
	Summary     ReportSummary  `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func NewRunReport(root string) *RunReport {
	return &RunReport{
		Version:     "v1",
		Root:        root,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stages:      []StageMetric{},
		Signals:     []ReportSignal{},
	}
}

func (r *RunReport) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *RunReport) EndStage(h StageHandle, counters map[string]int, err error) {
	if r == nil || h.name == "" {
		return
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     "ok",
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
	}
	if err != nil {
		m.Status = "error"
		m.Error = err.Error()
	}
	r.Stages = append(r.Stages, m)
}

// AddResolverStages records one stage per resolver of a chain run. Chain
// stages are not timed individually.
func (r *RunReport) AddResolverStages(stages []resolver.StageResult) {
	if r == nil {
		return
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, st := range stages {
		m := StageMetric{
			Name:       "resolve/" + st.Resolver,
			Status:     "ok",
			StartedAt:  now,
			FinishedAt: now,
			Counters: map[string]int{
				"attempted":         st.Stats.Attempted,
				"resolved":          st.Stats.Resolved,
				"skipped":           st.Stats.Skipped,
				"unresolved_before": st.UnresolvedBefore,
				"unresolved_after":  st.UnresolvedAfter,
				"edges":             st.EdgeCount,
			},
		}
		if st.Err != nil {
			m.Status = "error"
			m.Error = st.Err.Error()
		}
		r.Stages = append(r.Stages, m)
	}
}

func (r *RunReport) AddSignal(code, stage, severity, class, message string) {
	if r == nil {
		return
	}
	s := ReportSignal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Class:    strings.TrimSpace(class),
		Message:  strings.TrimSpace(message),
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

// AddDiagnostics turns analysis findings into signals. Cycles are critical,
// everything else is a warning.
func (r *RunReport) AddDiagnostics(diags []analysis.Diagnostic) {
	for _, d := range diags {
		severity := "warning"
		if d.Kind == analysis.InheritanceCycle {
			severity = "critical"
		}
		r.AddSignal(string(d.Kind), "diagnose", severity, d.Class.FullName(), d.Message)
	}
}

func (r *RunReport) Finalize() {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	severityCount := map[string]int{
		"critical": 0,
		"warning":  0,
		"info":     0,
	}
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi := signalPriority(r.Signals[i].Severity)
		pj := signalPriority(r.Signals[j].Severity)
		if pi == pj {
			if r.Signals[i].Code == r.Signals[j].Code {
				return r.Signals[i].Class < r.Signals[j].Class
			}
			return r.Signals[i].Code < r.Signals[j].Code
		}
		return pi > pj
	})
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}
	r.Summary = ReportSummary{
		StageCount:        len(r.Stages),
		FailedStages:      failed,
		SignalsBySeverity: severityCount,
	}
}

func (r *RunReport) Save(path string) error {
	if r == nil {
		return nil
	}
	r.Finalize()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func cleanCounters(raw map[string]int) map[string]int {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func signalPriority(severity string) int {
	switch severity {
	case "critical":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}
