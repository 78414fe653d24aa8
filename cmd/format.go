package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Kizuruki/historybowlreview/internal/db"
	"github.com/Kizuruki/historybowlreview/internal/mastery"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatDurationShort formats a duration into a compact human-readable string.
//
//	<1s  -> "0.Xs"
//	<1m  -> "X.Xs"
//	<1h  -> "XmYs"
//	else -> "XhYm"
func formatDurationShort(d time.Duration) string {
	ms := d.Milliseconds()
	switch {
	case ms < 1000:
		return fmt.Sprintf("0.%ds", ms/100)
	case ms < 60000:
		return fmt.Sprintf("%d.%ds", ms/1000, (ms%1000)/100)
	case ms < 3600000:
		return fmt.Sprintf("%dm%ds", ms/60000, (ms%60000)/1000)
	default:
		return fmt.Sprintf("%dh%dm", ms/3600000, (ms%3600000)/60000)
	}
}

// truncateMiddle shortens a string by replacing the middle with "..." if it
// exceeds maxLen. Used for long file paths.
func truncateMiddle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	available := maxLen - 3
	firstHalf := (available + 1) / 2
	lastHalf := available / 2
	return s[:firstHalf] + "..." + s[len(s)-lastHalf:]
}

func truncTitle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a UTF-8 boundary
	truncated := s[:max]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "..."
}

// starBar renders a star count as filled and empty stars.
func starBar(stars int) string {
	if stars < 0 {
		stars = 0
	}
	if stars > mastery.MaxStars {
		stars = mastery.MaxStars
	}
	return strings.Repeat("★", stars) + strings.Repeat("☆", mastery.MaxStars-stars)
}

func printNodeTable(w io.Writer, nodes []db.Node) {
	if len(nodes) == 0 {
		fmt.Fprintln(w, "No nodes.")
		return
	}
	for _, n := range nodes {
		sub := n.Subdivision
		if sub == "" {
			sub = "-"
		}
		fmt.Fprintf(w, "  %-32s %-8s %-20s %s\n", truncTitle(n.ID, 32), n.Type, truncTitle(sub, 20), n.Name)
	}
	fmt.Fprintf(w, "\n%d node(s)\n", len(nodes))
}

func printProgress(w io.Writer, node *db.Node, p db.UserProgress, now time.Time) {
	fmt.Fprintf(w, "%s (%s)\n", node.Name, node.ID)
	fmt.Fprintf(w, "  %s  correct=%d wrong=%d\n", starBar(p.Stars), p.TimesCorrect, p.TimesWrong)
	if p.PlatinumUntil != nil {
		until := time.UnixMilli(*p.PlatinumUntil)
		if mastery.IsPlatinum(p.PlatinumUntil, now) {
			fmt.Fprintf(w, "  platinum until %s\n", until.Format("2006-01-02"))
		} else {
			fmt.Fprintf(w, "  platinum expired %s\n", until.Format("2006-01-02"))
		}
	}
	if p.LastPracticed > 0 {
		fmt.Fprintf(w, "  last practiced %s\n", time.UnixMilli(p.LastPracticed).Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "  next: %s\n", mastery.ExpectedMode(p.Stars))
}
