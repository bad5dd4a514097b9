package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rewired-gh/elasticity/internal/bot"
	"github.com/rewired-gh/elasticity/internal/catalog"
	"github.com/rewired-gh/elasticity/internal/config"
	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/game"
	"github.com/rewired-gh/elasticity/internal/logger"
	"github.com/rewired-gh/elasticity/internal/simulator"
	"github.com/rewired-gh/elasticity/internal/storage"
)

var (
	configPath = flag.String("config", "", "Path to configuration file (built-in defaults when empty)")
	productID  = flag.String("product", "smartphone", "Product ID")
	scenarioID = flag.String("scenario", "base", "Scenario ID")
	price      = flag.Float64("price", 1500, "Price to evaluate")
	list       = flag.Bool("list", false, "List products and scenarios")
	showOpt    = flag.Bool("optimum", false, "Show the revenue-maximising price")
	sweep      = flag.Bool("sweep", false, "Print demand and revenue over the whole price grid")
	csvPath    = flag.String("csv", "", "Write the evaluation table as CSV to this file (- for stdout)")
	play       = flag.Bool("play", false, "Play the guessing game in the terminal")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	cat, err := catalog.LoadOrDefault(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog: %v", err)
	}
	sim, err := simulator.New(cat, cfg.Domain())
	if err != nil {
		logger.Fatal("Failed to initialize simulator: %v", err)
	}

	switch {
	case *list:
		printListing(sim)
	case *play:
		if err := runGame(cfg, cat, sim, os.Stdin, os.Stdout); err != nil {
			logger.Fatal("Game failed: %v", err)
		}
	case *sweep:
		if err := printSweep(sim, *productID, *scenarioID); err != nil {
			logger.Fatal("Sweep failed: %v", err)
		}
	case *showOpt:
		if err := printOptimum(sim, *productID, *scenarioID); err != nil {
			logger.Fatal("Optimum failed: %v", err)
		}
	default:
		ev, err := sim.Evaluate(*productID, *price, *scenarioID)
		if err != nil {
			logger.Fatal("Evaluation failed: %v", err)
		}
		if *csvPath != "" {
			if err := exportCSV(*csvPath, ev); err != nil {
				logger.Fatal("CSV export failed: %v", err)
			}
			return
		}
		printEvaluation(ev)
	}
}

func printListing(sim *simulator.Simulator) {
	fmt.Println("Products:")
	for _, id := range sim.ListProducts() {
		p, _ := sim.Product(id)
		fmt.Printf("  %-12s %s\n", p.ID, p.DisplayName())
		for _, seg := range p.Segments {
			if seg.IsCeiling() {
				fmt.Printf("    %-10s Q = %.0f·s·(1 - P/%.0f)\n", seg.Name, seg.Intercept, seg.PriceCeiling)
			} else {
				fmt.Printf("    %-10s Q = %.0f·s - %.2f·P\n", seg.Name, seg.Intercept, seg.Slope)
			}
		}
	}
	fmt.Println("\nScenarios:")
	for _, id := range sim.ListScenarios() {
		s, _ := sim.Scenario(id)
		fmt.Printf("  %-12s %-20s s = %.2f\n", s.ID, s.DisplayName(), s.Shock)
	}
}

func printEvaluation(ev simulator.Evaluation) {
	fmt.Printf("\n%s at %.2f under %s (s = %.2f)\n", ev.ProductID, ev.Price, ev.ScenarioID, ev.Shock)
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("%-12s %12s %12s %-12s %16s\n", "segment", "quantity", "elasticity", "class", "revenue")
	for _, row := range ev.Segments {
		fmt.Printf("%-12s %12.2f %12s %-12s %16.2f\n", row.Segment, row.Quantity, row.Elasticity, row.Class, row.Revenue)
	}
	fmt.Println(strings.Repeat("-", 72))
	fmt.Printf("%-12s %12.2f %12s %-12s %16.2f\n", "total", ev.Quantity, "", "", ev.Revenue)
}

func printOptimum(sim *simulator.Simulator, productID, scenarioID string) error {
	for _, method := range []demand.Method{demand.ClosedForm, demand.GridSearch} {
		p, r, err := sim.OptimumWith(productID, scenarioID, method)
		if err != nil {
			return err
		}
		fmt.Printf("%-12s P* = %10.2f  R* = %16.2f\n", method, p, r)
	}
	return nil
}

const barWidth = 40

func printSweep(sim *simulator.Simulator, productID, scenarioID string) error {
	points, err := sim.Sweep(productID, scenarioID)
	if err != nil {
		return err
	}

	var maxRevenue float64
	for _, p := range points {
		maxRevenue = math.Max(maxRevenue, p.Revenue)
	}

	fmt.Printf("%10s %12s %16s\n", "price", "quantity", "revenue")
	for _, p := range points {
		bar := 0
		if maxRevenue > 0 {
			bar = int(math.Round(p.Revenue / maxRevenue * barWidth))
		}
		fmt.Printf("%10.2f %12.2f %16.2f %s\n", p.Price, p.Quantity, p.Revenue, strings.Repeat("#", bar))
	}
	return nil
}

func exportCSV(path string, ev simulator.Evaluation) error {
	if path == "-" {
		return simulator.WriteCSV(os.Stdout, ev)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := simulator.WriteCSV(f, ev); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	logger.Info("Evaluation written to %s", path)
	return nil
}

// runGame plays through the chat bot with the terminal as the only chat.
// Finished rounds go to an in-memory archive so /stats works for the session.
func runGame(cfg *config.Config, cat *catalog.Catalog, sim *simulator.Simulator, in io.Reader, out io.Writer) error {
	engine, err := game.New(cat, cfg.GameSettings())
	if err != nil {
		return err
	}
	archive, err := storage.OpenArchive(storage.MemoryPath)
	if err != nil {
		return err
	}
	defer archive.Close()

	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	b, err := bot.New(sim, engine, storage.NewSessions(), archive, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	const terminalChat = 0
	ctx := context.Background()

	fmt.Fprintln(out, b.Handle(ctx, terminalChat, "/play"))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" || line == "/exit" {
			return nil
		}
		fmt.Fprintln(out, b.Handle(ctx, terminalChat, line))
	}
}
