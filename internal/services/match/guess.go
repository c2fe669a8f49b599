package match

import (
	"context"
	"log/slog"

	"github.com/mcoot/worduel/internal/model"
	"github.com/mcoot/worduel/internal/services/evaluator"
)

// SubmitGuess evaluates a guess from username against their current word.
// Every rejection happens before any state changes.
func (e *Engine) SubmitGuess(ctx context.Context, username, raw string) error {
	m, ok := e.table.ForUser(username)
	if !ok {
		return model.ErrNoActiveMatch
	}
	if m.Status != model.StatusActive {
		return model.ErrMatchNotActive
	}
	p, _ := m.Player(username)
	if p.Solved {
		return model.ErrAlreadySolved
	}
	if p.Exhausted() {
		return model.ErrNoGuessesLeft
	}

	word := evaluator.Normalize(raw)
	if len(word) != model.WordLength {
		return model.ErrInvalidGuessLength
	}
	if !e.words.IsValidWord(word) {
		e.notify(p, model.EventInvalidWord, model.InvalidWordPayload{Word: word})
		return model.ErrUnknownWord
	}

	secret := m.SecretFor(p)
	verdicts := evaluator.Evaluate(word, secret)
	solved := evaluator.Solved(verdicts)

	p.Guesses = append(p.Guesses, model.Guess{Word: word, Verdicts: verdicts})
	if solved {
		p.Solved = true
		p.SolveTime = e.clock.Now().Sub(m.StartedAt)
	}

	opp := m.Opponent(username)
	e.notify(p, model.EventGuessResult, model.GuessResultPayload{
		Word:        word,
		Verdicts:    verdicts,
		Solved:      solved,
		GuessNumber: len(p.Guesses),
	})
	e.notify(opp, model.EventOpponentGuess, model.OpponentGuessPayload{
		Verdicts:    verdicts,
		Solved:      solved,
		GuessNumber: len(p.Guesses),
	})

	if m.Mode == model.ModeSprint {
		e.advanceSprint(m, p, opp, secret)
		return nil
	}

	if solved || (p.Finished() && opp.Finished()) {
		e.closeRound(m)
	}
	return nil
}

// advanceSprint hands p a fresh word after a solve or a sixth miss
func (e *Engine) advanceSprint(m *model.Match, p, opp *model.Player, previous string) {
	switch {
	case p.Solved:
		p.Solves++
		p.Secret = e.drawSecret(m, previous)
		p.ResetRound()
		e.notify(p, model.EventSprintWordSolved, model.SprintWordSolvedPayload{
			SolvedWord:     previous,
			Word:           p.Secret,
			Solves:         p.Solves,
			OpponentSolves: opp.Solves,
		})
		e.notify(opp, model.EventSprintOpponentSolved, model.SprintOpponentSolvedPayload{
			Solves:         opp.Solves,
			OpponentSolves: p.Solves,
		})
	case p.Exhausted():
		p.Secret = e.drawSecret(m, previous)
		p.ResetRound()
		e.notify(p, model.EventSprintWordFailed, model.SprintWordFailedPayload{
			FailedWord: previous,
			Word:       p.Secret,
		})
	}
}

// roundWinner returns the sole solver, else the player with fewer guesses.
// A dead heat returns nil.
func roundWinner(m *model.Match) *model.Player {
	a, b := m.Players[0], m.Players[1]
	switch {
	case a.Solved && !b.Solved:
		return a
	case b.Solved && !a.Solved:
		return b
	case len(a.Guesses) < len(b.Guesses):
		return a
	case len(b.Guesses) < len(a.Guesses):
		return b
	}
	return nil
}

// closeRound scores the current duel round and either schedules the match
// end or the next round
func (e *Engine) closeRound(m *model.Match) {
	winner := roundWinner(m)
	if winner != nil {
		winner.RoundScore++
	}

	for _, p := range m.Players {
		e.notify(p, model.EventRoundEnd, model.RoundEndPayload{
			Round:      m.Round,
			Won:        p == winner,
			Draw:       winner == nil,
			Scores:     scoreboard(m, p),
			TargetWord: m.Secret,
		})
	}

	logger := e.logger.With(
		slog.String("match_id", string(m.ID)),
		slog.Int("round", m.Round),
	)

	if winner != nil && winner.RoundScore >= model.RoundsToWin {
		if err := m.Transition(model.StatusBetweenRounds); err != nil {
			logger.Error("failed to close round", slog.String("error", err.Error()))
			return
		}
		logger.Info("match decided", slog.String("winner", winner.Username))
		decided := winner.Username
		e.schedule(m, e.cfg.DecisiveDelay, func(ctx context.Context, m *model.Match) {
			if err := e.end(ctx, m, decided, model.EndReasonRounds); err != nil {
				logger.Error("failed to end match", slog.String("error", err.Error()))
			}
		})
		return
	}

	m.Secret = e.drawSecret(m, m.Secret)
	for _, p := range m.Players {
		p.ResetRound()
	}
	m.Round++
	if err := m.Transition(model.StatusBetweenRounds); err != nil {
		logger.Error("failed to close round", slog.String("error", err.Error()))
		return
	}
	logger.Info("round closed", slog.Bool("draw", winner == nil))
	e.schedule(m, e.cfg.IntermissionDelay, e.startRound)
}

func (e *Engine) startRound(_ context.Context, m *model.Match) {
	if m.Status != model.StatusBetweenRounds {
		return
	}
	if err := m.Transition(model.StatusActive); err != nil {
		e.logger.Error("failed to start round",
			slog.String("match_id", string(m.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	for _, p := range m.Players {
		e.notify(p, model.EventRoundStart, model.RoundStartPayload{
			Round:  m.Round,
			Word:   m.Secret,
			Scores: scoreboard(m, p),
		})
	}
}
