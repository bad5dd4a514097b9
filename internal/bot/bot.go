// Package bot turns chat text into simulator queries and game moves.
//
// The bot is transport agnostic: Handle takes a chat ID and the raw message
// text and returns the reply. The Telegram transport and the terminal CLI
// both drive it. Each chat has its own game session; a round that finishes
// is archived, a round that is abandoned is simply forgotten.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rewired-gh/elasticity/internal/catalog"
	"github.com/rewired-gh/elasticity/internal/demand"
	"github.com/rewired-gh/elasticity/internal/game"
	"github.com/rewired-gh/elasticity/internal/logger"
	"github.com/rewired-gh/elasticity/internal/models"
	"github.com/rewired-gh/elasticity/internal/simulator"
	"github.com/rewired-gh/elasticity/internal/storage"
)

// Archive records finished rounds. *storage.Archive satisfies it.
type Archive interface {
	RecordRound(ctx context.Context, r *models.RoundResult) error
	Stats(ctx context.Context, chatID int64) (storage.Stats, error)
}

// lockedRand makes a single random source safe to share between chats.
type lockedRand struct {
	mu  sync.Mutex
	rng game.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Intn(n)
}

// Bot answers chat commands.
type Bot struct {
	sim      *simulator.Simulator
	engine   *game.Engine
	sessions *storage.Sessions
	archive  Archive
	rng      game.Rand
	now      func() time.Time
}

// New creates a new Bot instance. archive may be nil, in which case rounds
// are not recorded and /stats is unavailable.
func New(sim *simulator.Simulator, engine *game.Engine, sessions *storage.Sessions, archive Archive, rng game.Rand) (*Bot, error) {
	if sim == nil || engine == nil || sessions == nil {
		return nil, errors.New("simulator, engine and sessions are required")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	return &Bot{
		sim:      sim,
		engine:   engine,
		sessions: sessions,
		archive:  archive,
		rng:      &lockedRand{rng: rng},
		now:      time.Now,
	}, nil
}

// Handle processes one message and returns the reply text.
func (b *Bot) Handle(ctx context.Context, chatID int64, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}

	// A bare number during a round is a guess.
	if !strings.HasPrefix(fields[0], "/") {
		if _, ok := parsePrice(fields[0]); ok && b.sessions.Get(chatID).Active {
			return b.guess(ctx, chatID, fields)
		}
		return "Send /help to see what I can do."
	}

	cmd := strings.ToLower(fields[0])
	// Telegram appends @botname to commands in group chats.
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	args := fields[1:]

	logger.Debug("chat %d: %s %v", chatID, cmd, args)

	switch cmd {
	case "/start", "/help":
		return helpText
	case "/products":
		return b.products()
	case "/scenarios":
		return b.scenarios()
	case "/evaluate":
		return b.evaluate(args)
	case "/optimum":
		return b.optimum(args)
	case "/play":
		return b.play(chatID)
	case "/guess":
		return b.guess(ctx, chatID, args)
	case "/hint":
		return b.hint(chatID)
	case "/reset":
		return b.reset(chatID)
	case "/stats":
		return b.stats(ctx, chatID)
	default:
		return fmt.Sprintf("Unknown command %s. Send /help for the list.", cmd)
	}
}

const helpText = `Price elasticity simulator

/products - list products
/scenarios - list economic scenarios
/evaluate <product> <price> [scenario] - demand, elasticity and revenue per segment
/optimum <product> [scenario] - revenue-maximising price
/play - start a "guess the optimal price" round
/guess <price> - guess during a round (a bare number works too)
/hint - get an approximate price band, once per round
/reset - abandon the current round
/stats - your finished rounds`

func (b *Bot) products() string {
	var sb strings.Builder
	sb.WriteString("Products:\n")
	for _, id := range b.sim.ListProducts() {
		p, err := b.sim.Product(id)
		if err != nil {
			continue
		}
		names := make([]string, len(p.Segments))
		for i, seg := range p.Segments {
			names[i] = seg.Name
		}
		fmt.Fprintf(&sb, "%s - %s (%s)\n", p.ID, p.DisplayName(), strings.Join(names, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) scenarios() string {
	var sb strings.Builder
	sb.WriteString("Scenarios:\n")
	for _, id := range b.sim.ListScenarios() {
		s, err := b.sim.Scenario(id)
		if err != nil {
			continue
		}
		fmt.Fprintf(&sb, "%s - %s (demand x%.2f)\n", s.ID, s.DisplayName(), s.Shock)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// scenarioArg returns the scenario named at args[i], or the first scenario.
func (b *Bot) scenarioArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	if ids := b.sim.ListScenarios(); len(ids) > 0 {
		return ids[0]
	}
	return ""
}

func (b *Bot) evaluate(args []string) string {
	if len(args) < 2 {
		return "Usage: /evaluate <product> <price> [scenario]"
	}
	price, ok := parsePrice(args[1])
	if !ok {
		return fmt.Sprintf("%q is not a price.", args[1])
	}

	ev, err := b.sim.Evaluate(args[0], price, b.scenarioArg(args, 2))
	if err != nil {
		return userError(err)
	}
	return formatEvaluation(ev)
}

func (b *Bot) optimum(args []string) string {
	if len(args) < 1 {
		return "Usage: /optimum <product> [scenario]"
	}
	scenarioID := b.scenarioArg(args, 1)

	price, revenue, err := b.sim.Optimum(args[0], scenarioID)
	if err != nil {
		return userError(err)
	}
	d := b.sim.Domain()
	return fmt.Sprintf("Optimal price for %s under %s: %s (revenue %s), searched over %s..%s",
		args[0], scenarioID, formatPrice(price), formatRevenue(revenue), formatPrice(d.Min), formatPrice(d.Max))
}

func (b *Bot) play(chatID int64) string {
	st, err := b.engine.Start(b.rng)
	if err != nil {
		logger.Error("Failed to start round for chat %d: %v", chatID, err)
		return "Could not start a round, please try again."
	}
	b.sessions.Put(chatID, st)

	product, _ := b.sim.Product(st.ProductID)
	scenario, _ := b.sim.Scenario(st.ScenarioID)
	d := b.engine.Settings().Domain

	return fmt.Sprintf("New round: %s under the %s scenario.\n"+
		"Guess the revenue-maximising price between %s and %s in steps of %s.\n"+
		"You have %d attempts and one /hint.",
		product.DisplayName(), scenario.DisplayName(),
		formatPrice(d.Min), formatPrice(d.Max), formatPrice(d.Step), st.MaxAttempts)
}

func (b *Bot) guess(ctx context.Context, chatID int64, args []string) string {
	if len(args) < 1 {
		return "Usage: /guess <price>"
	}
	price, ok := parsePrice(args[0])
	if !ok {
		return fmt.Sprintf("%q is not a price.", args[0])
	}

	var fb game.Feedback
	next, err := b.sessions.Update(chatID, func(st game.State) (game.State, error) {
		var (
			updated game.State
			gerr    error
		)
		updated, fb, gerr = b.engine.Guess(b.rng, st, price)
		return updated, gerr
	})
	if err != nil {
		return userError(err)
	}

	if fb.Outcome != game.Continue {
		b.record(ctx, chatID, next, fb)
	}
	return formatFeedback(fb, next.MaxAttempts)
}

func (b *Bot) hint(chatID int64) string {
	var band game.Range
	_, err := b.sessions.Update(chatID, func(st game.State) (game.State, error) {
		var (
			updated game.State
			herr    error
		)
		updated, band, herr = b.engine.Hint(b.rng, st)
		return updated, herr
	})
	if err != nil {
		return userError(err)
	}
	return fmt.Sprintf("The optimal price is somewhere around %s..%s.", formatPrice(band.Low), formatPrice(band.High))
}

func (b *Bot) reset(chatID int64) string {
	_, err := b.sessions.Update(chatID, func(st game.State) (game.State, error) {
		if !st.Active {
			return st, game.ErrNoActiveRound
		}
		return b.engine.Reset(st), nil
	})
	if err != nil {
		return userError(err)
	}
	return "Round abandoned. Send /play to start a new one."
}

func (b *Bot) record(ctx context.Context, chatID int64, st game.State, fb game.Feedback) {
	if b.archive == nil {
		return
	}
	result := &models.RoundResult{
		ID:           st.ID,
		ChatID:       chatID,
		ProductID:    st.ProductID,
		ScenarioID:   st.ScenarioID,
		OptimalPrice: st.OptimalPrice,
		MaxRevenue:   st.MaxRevenue,
		Attempts:     st.Attempts,
		Outcome:      string(fb.Outcome),
		BestFraction: st.BestFraction(),
		FinishedAt:   b.now(),
	}
	if err := b.archive.RecordRound(ctx, result); err != nil {
		logger.Error("Failed to archive round %s for chat %d: %v", st.ID, chatID, err)
		return
	}
	logger.Info("Archived round %s for chat %d: %s in %d attempts", st.ID, chatID, fb.Outcome, st.Attempts)
}

func (b *Bot) stats(ctx context.Context, chatID int64) string {
	if b.archive == nil {
		return "Stats are not available."
	}
	st, err := b.archive.Stats(ctx, chatID)
	if err != nil {
		logger.Error("Failed to load stats for chat %d: %v", chatID, err)
		return "Could not load your stats, please try again."
	}
	if st.Rounds == 0 {
		return "No finished rounds yet. Send /play to start one."
	}
	return fmt.Sprintf("Rounds: %d (%d won, %d lost, %.0f%% win rate)\n"+
		"Average attempts: %.1f\n"+
		"Average best guess: %.1f%% of max revenue",
		st.Rounds, st.Wins, st.Losses, st.WinRate()*100,
		st.AverageAttempts, st.AverageBestFraction*100)
}

// parsePrice accepts thousands separators, so "1,200" is 1200.
func parsePrice(s string) (float64, bool) {
	price, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return price, err == nil
}

// userError maps domain errors onto replies.
func userError(err error) string {
	switch {
	case errors.Is(err, game.ErrNoActiveRound):
		return "No round in progress. Send /play to start one."
	case errors.Is(err, game.ErrHintUsed):
		return "You already used your hint this round."
	case errors.Is(err, game.ErrOutOfRange), errors.Is(err, game.ErrOffStep):
		return fmt.Sprintf("Invalid guess: %v. It did not count as an attempt.", err)
	case errors.Is(err, catalog.ErrUnknownProduct):
		return "Unknown product. Send /products for the list."
	case errors.Is(err, catalog.ErrUnknownScenario):
		return "Unknown scenario. Send /scenarios for the list."
	case errors.Is(err, demand.ErrInvalidParameter):
		return fmt.Sprintf("Invalid input: %v", err)
	default:
		logger.Error("Unexpected error: %v", err)
		return "Something went wrong, please try again."
	}
}
