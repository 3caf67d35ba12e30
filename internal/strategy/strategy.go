package strategy

// strategy.go — Pure decision logic shared by backtest and live trading.
//
// Every function here is free of I/O and state mutation. The backtest replay
// engine and the live executor call exactly the same code paths, which is what
// guarantees behavioral parity between the two modes.

import (
	"strings"

	"github.com/alejandrodnm/tierbot/internal/domain"
)

// KeywordCluster is a named super-category: a set of keywords that groups
// correlated markets across nominally different categories. Clusters are
// evaluated in declared order and only the first matching cluster constrains
// an entry — intentional, not exhaustive.
type KeywordCluster struct {
	Name     string
	Keywords []string
}

// Config holds all strategy parameters. Shared verbatim by both modes.
type Config struct {
	Tiers []domain.Tier

	TakeProfitPrice float64
	ReboundMargin   float64 // recovery above hard stop that cancels a pending trigger

	TakerFeeRate    float64
	MakerFeeRate    float64
	TickImprovement float64 // added to the observed price on entry (queue priority)
	StopSlippage    float64 // subtracted from the observed price on emergency exits
	MinExitPrice    float64

	MaxConcurrentPositions int
	MaxSameCategory        int

	BlacklistKeywords []string
	SuperCategories   []KeywordCluster
}

// Default returns the V5.1 parameter set.
func Default() Config {
	return Config{
		Tiers: []domain.Tier{
			{
				Name:         "TierA",
				PriceLow:     0.940,
				PriceHigh:    0.990,
				MaxHours:     12,
				PositionSize: 50.0,
				SoftStopLoss: 0.88,
				HardStopLoss: 0.85,
			},
		},
		TakeProfitPrice:        0.99,
		ReboundMargin:          0.01,
		TakerFeeRate:           0.005,
		MakerFeeRate:           0.0,
		TickImprovement:        0.001,
		StopSlippage:           0.01,
		MinExitPrice:           0.01,
		MaxConcurrentPositions: 50,
		MaxSameCategory:        5,
		BlacklistKeywords: []string{
			"dispute", "uma", "opinion",
			"oscar", "grammy", "emmy", "golden globe",
			"x poll", "twitter poll", "tweet", "twitter",
			"gymnastics score", "diving score", "figure skating",
			"sec sue", "indict", "court ruling",
			"first ever", "first time",
		},
		SuperCategories: []KeywordCluster{
			{Name: "sports", Keywords: []string{
				"sports", "nba", "nfl", "mlb", "nhl", "soccer", "football",
				"tennis", "mma", "ufc", "cricket", "f1", "racing", "boxing",
				"baseball", "basketball", "hockey", "golf", "olympics",
				"game", "match", "beat", "win", "score", "points",
			}},
			{Name: "politics", Keywords: []string{
				"politics", "election", "congress", "senate", "president",
				"governor", "legislation", "government", "vote", "ballot",
				"trump", "biden", "republican", "democrat", "party",
			}},
			{Name: "crypto", Keywords: []string{
				"crypto", "bitcoin", "ethereum", "solana", "defi", "token",
				"blockchain", "nft", "btc", "eth", "xrp", "price of",
			}},
			{Name: "entertainment", Keywords: []string{
				"entertainment", "movie", "tv", "music", "celebrity", "award",
			}},
			{Name: "economy", Keywords: []string{
				"economy", "fed", "inflation", "gdp", "interest rate",
				"unemployment", "cpi", "stock market", "recession",
			}},
		},
	}
}

// Strategy evaluates tier classification, entry eligibility, and exit
// conditions. Value semantics: a Strategy carries no mutable state.
type Strategy struct {
	cfg Config
}

// New builds a Strategy from cfg.
func New(cfg Config) Strategy {
	return Strategy{cfg: cfg}
}

// Config returns the parameter set this strategy was built with.
func (s Strategy) Config() Config {
	return s.cfg
}

// TierByName looks up a tier by its name.
func (s Strategy) TierByName(name string) (domain.Tier, bool) {
	for _, t := range s.cfg.Tiers {
		if t.Name == name {
			return t, true
		}
	}
	return domain.Tier{}, false
}

// Classify returns the first tier whose price band contains price and whose
// max-hours bound admits hoursToResolution, or nil. A non-positive
// hoursToResolution never matches — the market is already past resolution.
func (s Strategy) Classify(price, hoursToResolution float64) *domain.Tier {
	for i := range s.cfg.Tiers {
		t := s.cfg.Tiers[i]
		if t.Contains(price) && hoursToResolution > 0 && hoursToResolution <= t.MaxHours {
			return &t
		}
	}
	return nil
}

// EntryEligible checks all entry conditions in order and returns the matching
// tier, or nil on the first unmet condition. Blacklist filtering happens
// upstream when markets are constructed, not here.
func (s Strategy) EntryEligible(
	market domain.Market,
	price, hoursToResolution float64,
	openPositions []domain.Position,
	availableCash float64,
) *domain.Tier {
	tier := s.Classify(price, hoursToResolution)
	if tier == nil {
		return nil
	}

	if len(openPositions) >= s.cfg.MaxConcurrentPositions {
		return nil
	}

	for _, p := range openPositions {
		if p.Market.TokenID == market.TokenID {
			return nil // no duplicate exposure to the same market
		}
	}

	if availableCash < tier.PositionSize {
		return nil
	}

	catCount := 0
	for _, p := range openPositions {
		if strings.EqualFold(p.Market.Category, market.Category) {
			catCount++
		}
	}
	if catCount >= s.cfg.MaxSameCategory {
		return nil
	}

	// Super-category cap: only the FIRST matching cluster is checked, in
	// declared order. A market matching two clusters is only constrained by
	// the first one.
	combined := market.CombinedText()
	for _, cluster := range s.cfg.SuperCategories {
		if !matchesAny(combined, cluster.Keywords) {
			continue
		}
		count := 0
		for _, p := range openPositions {
			if matchesAny(p.Market.CombinedText(), cluster.Keywords) {
				count++
			}
		}
		if count >= s.cfg.MaxSameCategory {
			return nil
		}
		break
	}

	return tier
}

// TakeProfitHit reports whether price has reached the take-profit threshold.
func (s Strategy) TakeProfitHit(price float64) bool {
	return price >= s.cfg.TakeProfitPrice
}

// TakeProfitPrice is the fixed threshold at which TP exits fill.
func (s Strategy) TakeProfitPrice() float64 {
	return s.cfg.TakeProfitPrice
}

// HardStop evaluates the two-stage stop state machine for one price tick.
//
// Returns (shouldExit, triggered): triggered is the new soft-stop state for
// the position. nextPrice is the one-tick look-ahead (available in backtest);
// pass nil in live monitoring, where confirmation happens on the next poll.
//
// Price at or above the hard stop always reverts to Normal. Below it, the
// first breach only arms the trigger; a second consecutive observation
// confirms the exit unless the look-ahead shows a rebound above
// hardStop + reboundMargin.
func (s Strategy) HardStop(price float64, tier domain.Tier, softTriggered bool, nextPrice *float64) (shouldExit, triggered bool) {
	if price >= tier.HardStopLoss {
		return false, false
	}

	if !softTriggered {
		return false, true // first breach — wait for confirmation
	}

	reboundTarget := tier.HardStopLoss + s.cfg.ReboundMargin
	if nextPrice != nil && *nextPrice >= reboundTarget {
		return false, false // false alarm, recovered
	}

	return true, true
}

// EntryPrice improves the observed price by one tick, capped at the tier's
// upper band — emulates queue-priority maker placement.
func (s Strategy) EntryPrice(observed, priceHigh float64) float64 {
	p := observed + s.cfg.TickImprovement
	if p > priceHigh {
		return priceHigh
	}
	return p
}

// StopExitPrice is the emergency taker exit price with slippage applied.
func (s Strategy) StopExitPrice(observed float64) float64 {
	p := observed - s.cfg.StopSlippage
	if p < s.cfg.MinExitPrice {
		return s.cfg.MinExitPrice
	}
	return p
}

// FeeRate returns the applicable fee rate for an exit style.
func (s Strategy) FeeRate(isTaker bool) float64 {
	if isTaker {
		return s.cfg.TakerFeeRate
	}
	return s.cfg.MakerFeeRate
}

// Blacklisted reports whether a market's text matches any excluded topic
// keyword (disputable or judged-outcome markets). Applied at market
// construction time by the data adapters.
func (s Strategy) Blacklisted(question string, tags []string) bool {
	combined := strings.ToLower(question + " " + strings.Join(tags, " "))
	return matchesAny(combined, s.cfg.BlacklistKeywords)
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
