package stats

import (
	"context"
	"fmt"
	"strings"
)

// ExportCSV renders the productivity aggregates as CSV text. The layout
// mirrors the stats dashboard: global summary, month comparison, weekly
// buckets, per-habit rows, then the trailing 30-day XP series.
func (s *Service) ExportCSV(ctx context.Context, userID string) (string, error) {
	p, err := s.Productivity(ctx, userID, 12)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	w := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	w("=== PRODUCTIVITY STATS ===")
	w("")

	w("GLOBAL SUMMARY")
	w("Habits,%d", p.Global.TotalHabits)
	w("Total completions,%d", p.Global.TotalCompletions)
	w("Overall success rate,%d%%", p.Global.OverallSuccessRate)
	w("Total XP,%d", p.Global.TotalXP)
	w("Daily average,%d", p.Global.AverageDaily)
	w("")

	w("MONTH COMPARISON")
	w("Month,Success rate,Completions,XP earned")
	w("%s,%d%%,%d,%d", p.MonthComparison.Current.Name, p.MonthComparison.Current.SuccessRate,
		p.MonthComparison.Current.TotalCompletions, p.MonthComparison.Current.XPEarned)
	w("%s,%d%%,%d,%d", p.MonthComparison.Previous.Name, p.MonthComparison.Previous.SuccessRate,
		p.MonthComparison.Previous.TotalCompletions, p.MonthComparison.Previous.XPEarned)
	w("")

	w("WEEKLY STATS")
	w("Week start,Week end,Total habits,Completed,Success rate,XP earned")
	for _, wk := range p.Weekly {
		w("%s,%s,%d,%d,%d%%,%d", wk.WeekStart, wk.WeekEnd, wk.TotalHabits, wk.CompletedHabits, wk.SuccessRate, wk.XPEarned)
	}
	w("")

	w("PER-HABIT STATS")
	w("Name,Kind,Cadence,Total completions,Current streak,Best streak,Success rate")
	for _, h := range p.Habits {
		w("%s %s,%s,%s,%d,%d,%d,%d%%", h.Emoji, h.Name, h.Kind, h.Cadence,
			h.TotalCompletions, h.CurrentStreak, h.BestStreak, h.SuccessRate)
	}
	w("")

	w("XP HISTORY (last 30 days)")
	w("Day,XP,Cumulative XP")
	daily := p.DailyXP
	if len(daily) > 30 {
		daily = daily[len(daily)-30:]
	}
	for _, d := range daily {
		w("%s,%d,%d", d.Day, d.XP, d.CumulativeXP)
	}

	return b.String(), nil
}
