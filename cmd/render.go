package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/hddwater/bargesim/internal/archive"
	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/opsday"
	"github.com/hddwater/bargesim/sim/optimize"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(22)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func dollars(v float64) string { return "$" + humanize.Commaf(float64(int64(v+0.5))) }

func gallons(v float64) string { return humanize.Commaf(float64(int64(v+0.5))) + " gal" }

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outcome(ranDry int) string {
	if ranDry == 0 {
		return okStyle.Render("no rig ran dry")
	}
	return badStyle.Render(fmt.Sprintf("%d ran-dry event(s)", ranDry))
}

func renderCosts(c sim.CostBreakdown) string {
	return strings.Join([]string{
		row("Rental", dollars(c.Rental)),
		row("Fuel", dollars(c.Fuel)),
		row("Downtime", dollars(c.Downtime)),
		row("Mobilization", dollars(c.Mobilization)),
		row("Water", dollars(c.Water)),
		row("Total", lipgloss.NewStyle().Bold(true).Render(dollars(c.GrandTotal))),
	}, "\n")
}

func renderReport(w io.Writer, r *sim.Report) {
	lines := []string{
		titleStyle.Render("Campaign " + r.StartDate),
		row("Fleet", r.Fleet.String()),
		row("Outcome", outcome(r.RanDryCount)),
		row("Demand", gallons(r.TotalDemand)),
		row("Delivered to rigs", gallons(r.TotalUsage)),
		row("Deficit", gallons(r.TotalDeficit)),
		row("Downtime", fmt.Sprintf("%.1f h", r.DowntimeHours)),
		row("Score", dollars(r.Score)),
		"",
		renderCosts(r.Costs),
	}
	fmt.Fprintln(w, sectionStyle.Render(strings.Join(lines, "\n")))
	for _, e := range r.RanDryEvents {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  %s at %s ran dry in %s on %s for %.2f h", e.Rig, e.HDD, e.Phase, e.Date, e.Duration)))
	}
	for _, msg := range r.Warnings {
		fmt.Fprintln(w, warnStyle.Render("  warning: "+msg))
	}
}

func renderResults(w io.Writer, title string, rs []optimize.Result) {
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-4s %-22s %16s %16s %7s", "#", "Fleet", "Cost", "Score", "RanDry")))
	for i, r := range rs {
		line := fmt.Sprintf("%-4d %-22s %16s %16s %7d", i+1, r.Fleet, dollars(r.Cost), dollars(r.Score), r.RanDryCount)
		if r.ZeroRanDry() {
			line = okStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

func renderSearch(w io.Writer, res *optimize.SearchResult) {
	renderResults(w, "Top fleets", res.Top)
	fmt.Fprintln(w)
	fmt.Fprintln(w, row("Simulated", humanize.Comma(int64(res.Tested))))
	fmt.Fprintln(w, row("Prescreened out", humanize.Comma(int64(res.Screened))))
	fmt.Fprintln(w, row("Zero ran-dry", humanize.Comma(int64(res.Summary.ZeroRanDry))))
	if res.BestZeroRanDry != nil {
		fmt.Fprintln(w, row("Best", okStyle.Render(res.BestZeroRanDry.Fleet.String()+" at "+dollars(res.BestZeroRanDry.Cost))))
		fmt.Fprintln(w, row("Median zero ran-dry", dollars(res.Summary.MedianCost)))
	} else {
		fmt.Fprintln(w, row("Best", badStyle.Render("every fleet ran dry")))
	}
}

func renderLocal(w io.Writer, res *optimize.LocalResult) {
	renderResults(w, "Optimization path", res.Path)
	fmt.Fprintln(w)
	fmt.Fprintln(w, row("Simulated", humanize.Comma(int64(res.Tested))))
	fmt.Fprintln(w, row("Optimal", res.Optimal.Fleet.String()+" at "+dollars(res.Optimal.Cost)))
	fmt.Fprintln(w, row("Outcome", outcome(res.Optimal.RanDryCount)))
}

func renderSensitivity(w io.Writer, res *optimize.SensitivityResult) {
	fmt.Fprintln(w, titleStyle.Render("Sensitivity"))
	fmt.Fprintln(w, row("Baseline", res.Baseline.Fleet.String()+" at "+dollars(res.Baseline.Cost)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-24s %10s %16s %10s", "Parameter", "Impact", "Range", "Success")))
	for _, im := range res.Impacts {
		if !im.Available {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%-24s %10s %16s %6d/%d", im.Name, "n/a", "n/a", im.SuccessCount, im.TotalCount)))
			continue
		}
		fmt.Fprintf(w, "%-24s %9.1f%% %16s %6d/%d\n", im.Name, im.MaxImpactPct, dollars(im.Range), im.SuccessCount, im.TotalCount)
	}
}

var briefStyles = map[opsday.Status]lipgloss.Style{
	opsday.StatusCritical: badStyle,
	opsday.StatusWarning:  warnStyle,
	opsday.StatusHealthy:  okStyle,
	opsday.StatusStandby:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
}

func renderBrief(w io.Writer, b *opsday.Brief) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (day %d)", b.DisplayDate, b.ProjectDay)))
	for _, a := range b.ActiveHDDs {
		st := briefStyles[a.Status].Render(strings.ToUpper(string(a.Status)))
		fmt.Fprintf(w, "%-6s %-8s %-6s day %d/%d  %s / %s (%.0f%%)  %.0fh  %s\n",
			a.Crossing, a.Rig, a.Phase, a.PhaseDay, a.PhaseTotalDays,
			gallons(a.StorageLevel), gallons(a.StorageCapacity), a.StoragePercent, a.SupplyHours, st)
	}
	if len(b.Tugs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Tugs"))
		for _, t := range b.Tugs {
			fmt.Fprintf(w, "%-4s %-14s %s\n", t.Name, t.Status, t.Location)
		}
	}
	if len(b.Deliveries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Deliveries"))
		for _, d := range b.Deliveries {
			fmt.Fprintf(w, "%8s  %-4s -> %-6s %s\n", d.Time, d.Tug, d.Destination, gallons(d.Volume))
		}
	}
	for _, n := range append(b.Alerts, b.Recommendations...) {
		style := okStyle
		switch n.Type {
		case "critical":
			style = badStyle
		case "warning":
			style = warnStyle
		}
		fmt.Fprintln(w, style.Render("* "+n.Title)+" "+n.Detail)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, row("Deliveries", fmt.Sprintf("%d, %s", b.Summary.TotalDeliveries, gallons(b.Summary.TotalVolume))))
	fmt.Fprintln(w, row("Average storage", fmt.Sprintf("%.0f%%", b.Summary.AvgStoragePercent)))
}

func renderEntries(w io.Writer, es []archive.Entry) {
	if len(es) == 0 {
		fmt.Fprintln(w, "no archived results")
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-36s %-12s %-22s %16s %7s  %s", "ID", "Kind", "Fleet", "Cost", "RanDry", "When")))
	for _, e := range es {
		fmt.Fprintf(w, "%-36s %-12s %-22s %16s %7d  %s\n",
			e.ID, e.Kind, e.Fleet, dollars(e.Cost), e.RanDryCount, humanize.Time(e.CreatedAt))
	}
}
