package analysis

import (
	"sync"

	"github.com/danielpatrickdp/chandra/internal/psi"
)

// #region session

// Session analyzes a conversation turn by turn over a single estimator.
// Calls are serialized, so a Session may be shared between goroutines.
type Session struct {
	mu    sync.Mutex
	a     *Analyzer
	est   *psi.Estimator
	turns []psi.Turn
}

// NewSession starts an empty session.
func (a *Analyzer) NewSession() *Session {
	return &Session{a: a, est: psi.NewEstimator(a.psiConfig)}
}

// Turn scores one exchange and returns its Ψ state. Turns are numbered from 0
// in submission order.
func (s *Session) Turn(prompt, response string) psi.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.est.AnalyzeTurn(prompt, response, len(s.turns))
	s.turns = append(s.turns, psi.Turn{Prompt: prompt, Response: response})
	return st.Rounded()
}

// Len returns the number of submitted turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Report builds the integrated report over every turn so far. The Ψ part
// covers the states the estimator still retains.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.est.History()
	turns := append([]psi.Turn(nil), s.turns...)
	return s.a.report(turns, "", s.est.Summarize(history), history)
}

// #endregion session
