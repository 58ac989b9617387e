package normalize

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/TalFeiny/Dilla-sub007/internal/benchmark"
	"github.com/TalFeiny/Dilla-sub007/internal/model"
)

var titleCaser = cases.Title(language.English)

// StageDisplayName renders a stage key as a round name: "series_a" ->
// "Series A", "pre_seed" -> "Pre Seed".
func StageDisplayName(stage model.Stage) string {
	return titleCaser.String(strings.ReplaceAll(string(stage), "_", " "))
}

// monthsBetweenRounds spaces synthesized rounds when no dates are known.
const monthsBetweenRounds = 18

// synthesizeRounds builds a plausible round history for a company with no
// recorded rounds: one round per funding milestone from pre-seed through
// the current stage, sized from stage benchmarks, with default 1x
// non-participating terms in arrival order.
//
// When an actual valuation is known, the final round's pre-money is
// anchored so its post-money matches the valuation.
func synthesizeRounds(stage model.Stage, table *benchmark.Table, actualValuation float64, now time.Time) []model.FundingRound {
	ord := stage.Ord()
	if ord < 0 {
		ord = model.StageSeed.Ord()
	}
	milestones := model.Stages[:ord+1]

	rounds := make([]model.FundingRound, 0, len(milestones))
	// Latest round lands ~6 months ago; earlier rounds step back from there.
	for i, ms := range milestones {
		bench := table.ForStage(ms)
		monthsAgo := 6 + (len(milestones)-1-i)*monthsBetweenRounds
		r := model.FundingRound{
			Name:      StageDisplayName(ms),
			Amount:    bench.RoundSize,
			PreMoney:  bench.PreMoney,
			Date:      now.AddDate(0, -monthsAgo, 0),
			Terms:     model.DefaultTerms(i),
			Synthetic: true,
		}
		rounds = append(rounds, r)
	}

	// Anchor the latest round's post-money to the actual valuation so the
	// ledger stays consistent with the observed number.
	if actualValuation > 0 && len(rounds) > 0 {
		last := &rounds[len(rounds)-1]
		pre := actualValuation - last.Amount
		if pre < 0 {
			pre = actualValuation * 0.8
			last.Amount = actualValuation - pre
		}
		last.PreMoney = pre
	}

	return rounds
}
