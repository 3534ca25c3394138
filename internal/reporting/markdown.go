package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Session Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Session: %s\n\n", r.SessionID))
	sb.WriteString(fmt.Sprintf("Codes: %s | Range: %s..%s | Freq: %s | Mode: %s\n\n",
		strings.Join(r.Request.Codes, ", "), r.Request.Start, r.Request.End, r.Request.Freq, r.Request.Mode))

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Bars | %d |\n", r.DataSummary.TotalBars))
	sb.WriteString(fmt.Sprintf("| Codes | %d |\n", r.DataSummary.CodeCount))
	sb.WriteString(fmt.Sprintf("| First Bar | %s |\n", r.DataSummary.FirstDatetime))
	sb.WriteString(fmt.Sprintf("| Last Bar | %s |\n", r.DataSummary.LastDatetime))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	if r.DataQuality.AllColumnsLoaded {
		sb.WriteString("All columns loaded.\n\n")
	} else {
		sb.WriteString("### Column Errors\n\n")
		for _, err := range r.DataQuality.ColumnErrors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	// Per-code
	sb.WriteString("## Codes\n\n")
	if len(r.CodeSummaries) > 0 {
		sb.WriteString("| Code | Bars | First | Last | Open | Close | High | Low | Volume | Amount | Return |\n")
		sb.WriteString("|------|------|-------|------|------|-------|------|-----|--------|--------|--------|\n")
		for _, c := range r.CodeSummaries {
			if !c.NumericAvailable {
				sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | - | - | - | - | - | - | - |\n",
					c.Code, c.Bars, c.FirstDatetime, c.LastDatetime))
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %.2f | %.2f | %.2f | %.2f | %.0f | %.2f | %.4f |\n",
				c.Code, c.Bars, c.FirstDatetime, c.LastDatetime,
				c.FirstOpen, c.LastClose, c.High, c.Low, c.Volume, c.Amount, c.Return))
		}
	} else {
		sb.WriteString("No bars available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
