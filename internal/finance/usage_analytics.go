package finance

import (
	"fmt"
	"sort"
	"strings"

	"portfolioRiskBot/internal/storage"

	"github.com/vicanso/go-charts/v2"
)

// UsageAnalytics handles usage metrics visualization
type UsageAnalytics struct{}

func NewUsageAnalytics() *UsageAnalytics {
	return &UsageAnalytics{}
}

func sortedCategories(stats map[string]*storage.UsageStats) ([]string, int) {
	var cats []string
	total := 0
	for category, stat := range stats {
		cats = append(cats, category)
		total += stat.Count
	}
	sort.Strings(cats)
	return cats, total
}

// MakeUsageChart creates a pie chart of command usage per category
func (ua *UsageAnalytics) MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("no usage data available")
	}

	cats, total := sortedCategories(stats)
	values := make([]float64, 0, len(cats))
	labels := make([]string, 0, len(cats))
	for _, category := range cats {
		count := stats[category].Count
		values = append(values, float64(count))
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", category, float64(count)/float64(total)*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Command Usage Distribution (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatUsageStatsText creates a formatted text summary of usage statistics
func (ua *UsageAnalytics) FormatUsageStatsText(stats map[string]*storage.UsageStats, days int) string {
	if len(stats) == 0 {
		return "No usage data available for the specified period."
	}

	cats, total := sortedCategories(stats)
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Usage Analytics* (%d days)\n\n", days)
	fmt.Fprintf(&b, "*Total Commands*: %d\n\n", total)

	for _, category := range cats {
		stat := stats[category]
		fmt.Fprintf(&b, "*%s* (%d commands, %.1f%%)\n",
			formatCategoryName(category), stat.Count, float64(stat.Count)/float64(total)*100)

		type cmdCount struct {
			cmd   string
			count int
		}
		var commands []cmdCount
		for cmd, count := range stat.Commands {
			commands = append(commands, cmdCount{cmd, count})
		}
		sort.Slice(commands, func(i, j int) bool {
			if commands[i].count != commands[j].count {
				return commands[i].count > commands[j].count
			}
			return commands[i].cmd < commands[j].cmd
		})

		// Show top commands
		for i, cmd := range commands {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %d\n", cmd.cmd, cmd.count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// formatCategoryName converts category names to user-friendly format
func formatCategoryName(category string) string {
	switch category {
	case storage.CategoryAnalysis:
		return "💼 Portfolio Analysis"
	case storage.CategoryCommentary:
		return "🤖 AI Commentary"
	case storage.CategoryHistory:
		return "🗂 History"
	case storage.CategoryHelp:
		return "❓ Help"
	default:
		return category
	}
}
