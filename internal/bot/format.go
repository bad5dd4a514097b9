package bot

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/game"
	"github.com/rewired-gh/elasticity/internal/simulator"
)

func formatPrice(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func formatRevenue(v float64) string {
	return humanize.FormatFloat("#,###.", v)
}

func formatQuantity(v float64) string {
	return humanize.FormatFloat("#,###.#", v)
}

func formatEvaluation(ev simulator.Evaluation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s at %s under %s (demand x%.2f)\n", ev.ProductID, formatPrice(ev.Price), ev.ScenarioID, ev.Shock)
	for _, row := range ev.Segments {
		fmt.Fprintf(&sb, "%s: quantity %s, elasticity %s (%s), revenue %s\n",
			row.Segment, formatQuantity(row.Quantity), row.Elasticity, className(row.Class), formatRevenue(row.Revenue))
	}
	fmt.Fprintf(&sb, "Total: quantity %s, revenue %s", formatQuantity(ev.Quantity), formatRevenue(ev.Revenue))
	return sb.String()
}

func className(c demand.Class) string {
	return strings.ReplaceAll(string(c), "_", " ")
}

var bucketText = map[game.Bucket]string{
	game.Hot:  "Hot!",
	game.Warm: "Warm.",
	game.Cold: "Cold.",
}

var trendText = map[game.Trend]string{
	game.Rising:  "Revenue still rises just above this price.",
	game.Falling: "Revenue falls just above this price.",
	game.Flat:    "Revenue is flat just above this price.",
}

var comparisonText = map[game.Comparison]string{
	game.Warmer: " Warmer than your last guess.",
	game.Colder: " Colder than your last guess.",
	game.Same:   " As close as your last guess.",
}

func formatFeedback(fb game.Feedback, maxAttempts int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Guess %d/%d: %s earns %s (%.1f%% of max)\n",
		fb.Attempt, maxAttempts, formatPrice(fb.Price), formatRevenue(fb.Revenue), fb.Fraction*100)

	switch fb.Outcome {
	case game.Win:
		fmt.Fprintf(&sb, "Exact! %s is the optimal price.", formatPrice(fb.OptimalPrice))
		return sb.String()
	case game.Loss:
		fmt.Fprintf(&sb, "%s Out of attempts. The optimal price was %s (revenue %s).",
			bucketText[fb.Bucket], formatPrice(fb.OptimalPrice), formatRevenue(fb.MaxRevenue))
		return sb.String()
	}

	fmt.Fprintf(&sb, "%s %s the price.%s\n", bucketText[fb.Bucket], directionVerb(fb.Direction), comparisonText[fb.Comparison])
	sb.WriteString(trendText[fb.Trend])
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Look between %s and %s. %d attempts left.",
		formatPrice(fb.Range.Low), formatPrice(fb.Range.High), fb.AttemptsLeft)
	return sb.String()
}

func directionVerb(d game.Direction) string {
	if d == game.Raise {
		return "Raise"
	}
	return "Lower"
}
