package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bryanwahyu/geo-authority/internal/domain/evaluation"
)

func location(nation, state string) string {
	if state == "" {
		return nation
	}
	return state + ", " + nation
}

func printCompanies(w io.Writer, list []evaluation.Company) {
	if len(list) == 0 {
		warningColor.Fprintln(w, "No companies yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tWEBSITE")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Website)
	}
	tw.Flush()
}

func printProjects(w io.Writer, c evaluation.Company, list []evaluation.Project) {
	headerColor.Fprintf(w, "%s\n", c.Name)
	if len(list) == 0 {
		warningColor.Fprintln(w, "No projects yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOMAIN\tLOCATION")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Domain, location(p.Nation, p.State))
	}
	tw.Flush()
}

// printResults prints one line per question, then the score.
func printResults(w io.Writer, s evaluation.Session) {
	for i, r := range s.Results {
		mark, c := "MISS", errorColor
		switch {
		case !r.HasAnswer():
			mark, c = "----", warningColor
		case r.Found:
			mark, c = "FOUND", successColor
		}
		c.Fprintf(w, "%-5s", mark)
		fmt.Fprintf(w, " %2d. [%s] %s\n", i+1, r.Category, oneLine(r.Question))
	}

	st := s.Stats()
	fmt.Fprintln(w, strings.Repeat("─", 60))
	c := errorColor
	if st.Score >= 50 {
		c = successColor
	}
	c.Fprintf(w, "Visibility score: %d%%", st.Score)
	fmt.Fprintf(w, " (%d/%d found)\n", st.FoundCount, st.Total)
	if s.Error != "" {
		warningColor.Fprintln(w, s.Error)
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 90 {
		return string(r[:87]) + "..."
	}
	return s
}
