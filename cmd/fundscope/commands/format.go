package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/snapshot"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintResult prints the outcome of one build
func PrintResult(res snapshot.Result) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Snapshot build: %s\n", res.Kind)
	PrintSeparator()
	PrintKeyValue("Build ID", res.BuildID, 12)
	if res.SnapshotID > 0 {
		PrintKeyValue("Snapshot", fmt.Sprintf("#%d", res.SnapshotID), 12)
	}
	PrintKeyValue("Candidates", fmt.Sprintf("%d", res.TotalCandidates), 12)
	PrintKeyValue("Qualified", fmt.Sprintf("%d", res.QualifiedCount), 12)
	PrintKeyValue("Failures", res.Failures.String(), 12)
	PrintKeyValue("Elapsed", res.Elapsed.Round(time.Millisecond).String(), 12)
	if res.Kind == snapshot.ResultFailed {
		PrintKeyValue("Stage", string(res.Stage), 12)
		PrintKeyValue("Reason", res.Reason, 12)
	}
	PrintDoubleSeparator()
}

// PrintSnapshot prints snapshot metadata
func PrintSnapshot(s *contracts.Snapshot) {
	PrintKeyValue("Snapshot", fmt.Sprintf("#%d", s.ID), 12)
	PrintKeyValue("Date", contracts.DateKey(s.Date), 12)
	PrintKeyValue("Status", string(s.Status), 12)
	PrintKeyValue("Benchmark", s.BenchmarkSymbol, 12)
	PrintKeyValue("Qualified", fmt.Sprintf("%d / %d", s.QualifiedCount, s.TotalCandidates), 12)
	if s.Error != "" {
		PrintKeyValue("Error", s.Error, 12)
	}
}

var rankingWidths = []int{4, 6, 20, 6, 5, 7, 8, 8, 24}

// PrintRanking prints ranked records as a table
func PrintRanking(recs []*contracts.MetricsRecord) {
	PrintTableHeader(
		[]string{"#", "Code", "Name", "Score", "Grade", "Sharpe", "MaxDD", "Alpha", "Labels"},
		rankingWidths,
	)
	for _, r := range recs {
		PrintTableRow(rankingRow(r), rankingWidths)
	}
}

// rankingRow drawdown is shown as a positive magnitude
func rankingRow(r *contracts.MetricsRecord) []string {
	labels := make([]string, len(r.Labels))
	for i, l := range r.Labels {
		labels[i] = string(l)
	}
	return []string{
		fmt.Sprintf("%d", r.Rank),
		r.Code,
		truncate(r.Name, 20),
		fmt.Sprintf("%.1f", r.Score),
		r.Grade,
		fmt.Sprintf("%.2f", r.Sharpe),
		pct(r.AbsMaxDrawdown()),
		pct(r.Alpha),
		strings.Join(labels, ","),
	}
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// truncate cuts by runes; fund names are CJK
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
