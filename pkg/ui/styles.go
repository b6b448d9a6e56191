package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"inatscraper/pkg/scraper"
)

var (
	leafGreen = lipgloss.Color("#74C365")
	barkBrown = lipgloss.Color("#A47551")
	dimGray   = lipgloss.Color("#8A8A8A")
	alertRed  = lipgloss.Color("#E06C75")

	headerStyle = lipgloss.NewStyle().Foreground(leafGreen).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	failedStyle = cellStyle.Foreground(alertRed)
	borderStyle = lipgloss.NewStyle().Foreground(barkBrown)
	reasonStyle = cellStyle.Foreground(dimGray)
)

const (
	colSpecies = iota
	colSaved
	colSkipped
	colFailed
	colPages
	colReason
)

// summaryTable renders one row per species
func summaryTable(species []scraper.Summary) string {
	rows := make([][]string, 0, len(species))
	for _, s := range species {
		rows = append(rows, []string{
			s.Species.Name,
			fmt.Sprintf("%d/%d", s.Downloaded, s.Target),
			fmt.Sprintf("%d", s.Skipped),
			fmt.Sprintf("%d", s.Failed),
			fmt.Sprintf("%d", s.Pages),
			describeReason(s.Reason),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Species", "Saved", "Skipped", "Failed", "Pages", "Stopped").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == colFailed && row >= 0 && row < len(species) && species[row].Failed > 0:
				return failedStyle.Align(lipgloss.Right)
			case col == colReason:
				return reasonStyle
			case col == colSpecies:
				return cellStyle
			default:
				return numberStyle
			}
		}).
		String()
}
