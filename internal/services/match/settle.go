package match

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/services/rating"
)

// end finishes m, settles it and schedules its purge. declared names the
// winner when it is already known.
func (e *Engine) end(ctx context.Context, m *model.Match, declared string, reason model.EndReason) error {
	if !m.Live() {
		return model.ErrMatchNotActive
	}
	e.disarm(m.ID)
	if err := m.Transition(model.StatusEnded); err != nil {
		return err
	}

	winner, loser := resolve(m, declared)
	m.Winner = winner.Username
	m.EndReason = reason
	m.EndedAt = e.clock.Now()
	e.table.Release(m)
	e.schedule(m, e.cfg.Retention, e.purge)

	logger := e.logger.With(
		slog.String("match_id", string(m.ID)),
		slog.String("winner", winner.Username),
		slog.String("loser", loser.Username),
		slog.String("reason", string(reason)),
	)

	if err := e.settle(ctx, m, winner, loser); err != nil {
		logger.Error("settlement failed", slog.String("error", err.Error()))
		for _, p := range m.Players {
			e.notify(p, model.EventError, model.ErrorPayload{
				Code:    "SETTLEMENT_FAILED",
				Message: "match result could not be recorded",
			})
		}
		return err
	}

	logger.Info("match ended")
	return nil
}

// resolve picks the winner of an ending match. Exact ties favour the
// first-listed player.
func resolve(m *model.Match, declared string) (winner, loser *model.Player) {
	a, b := m.Players[0], m.Players[1]
	pick := func(aWins bool) (*model.Player, *model.Player) {
		if aWins {
			return a, b
		}
		return b, a
	}

	if declared != "" {
		return pick(a.Username == declared)
	}
	if m.Mode == model.ModeSprint {
		return pick(a.Solves >= b.Solves)
	}

	switch {
	case a.RoundScore != b.RoundScore:
		return pick(a.RoundScore > b.RoundScore)
	case a.Solved && b.Solved:
		return pick(a.SolveTime <= b.SolveTime)
	case a.Solved != b.Solved:
		return pick(a.Solved)
	default:
		return pick(len(a.Guesses) <= len(b.Guesses))
	}
}

// settle moves the loser's stake and the rating delta between the two
// profiles and records the result
func (e *Engine) settle(ctx context.Context, m *model.Match, winner, loser *model.Player) error {
	wp, err := e.storage.GetProfile(ctx, winner.Username)
	if err != nil {
		return fmt.Errorf("loading winner profile: %w", err)
	}
	lp, err := e.storage.GetProfile(ctx, loser.Username)
	if err != nil {
		return fmt.Errorf("loading loser profile: %w", err)
	}

	delta := rating.Delta(winner.Rating, loser.Rating)
	stake := loser.Stake
	now := e.clock.Now()

	wp.Balance += stake
	wp.Rating += delta
	wp.GamesPlayed++
	wp.GamesWon++
	wp.UpdatedAt = now

	lp.Balance -= stake
	lp.Rating -= delta
	lp.GamesPlayed++
	lp.UpdatedAt = now

	record := &model.MatchRecord{
		ID:          m.ID,
		Mode:        m.Mode,
		Winner:      winner.Username,
		Loser:       loser.Username,
		Stake:       stake,
		RatingDelta: delta,
		Reason:      m.EndReason,
		Secrets:     make(map[string]string, model.PlayersPerMatch),
		Scores:      make(map[string]int, model.PlayersPerMatch),
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
	}
	for _, p := range m.Players {
		record.Secrets[p.Username] = m.SecretFor(p)
		if m.Mode == model.ModeSprint {
			record.Scores[p.Username] = p.Solves
		} else {
			record.Scores[p.Username] = p.RoundScore
		}
	}
	if err := e.storage.SettleMatch(ctx, wp, lp, record); err != nil {
		return fmt.Errorf("saving settlement: %w", err)
	}

	e.notifyEnd(m, winner, wp, stake, delta)
	e.notifyEnd(m, loser, lp, -stake, -delta)
	return nil
}

func (e *Engine) notifyEnd(m *model.Match, p *model.Player, profile *model.Profile, winnings, ratingChange int) {
	payload := model.MatchEndPayload{
		MatchID:      m.ID,
		Won:          p.Username == m.Winner,
		Reason:       m.EndReason,
		TargetWord:   m.SecretFor(p),
		Winnings:     winnings,
		RatingChange: ratingChange,
		NewRating:    profile.Rating,
		NewRank:      rating.RankFor(profile.Rating),
		NewBalance:   profile.Balance,
	}
	if m.Mode == model.ModeSprint {
		payload.Solves = p.Solves
	} else {
		scores := scoreboard(m, p)
		payload.Scores = &scores
	}
	e.notify(p, model.EventMatchEnd, payload)
}
