package canopy

import (
	"log/slog"
)

// debugMaxPath is the traversal depth above which debug mode warns.
const debugMaxPath = 64

// debugLog logs the statistics of a scene's last pass at debug level.
// Only active with WithDebug.
func (e *Engine) debugLog(s *Scene) {
	if !e.debug {
		return
	}
	st := &s.stats
	s.logger.Debug("render pass",
		slog.Duration("elapsed", st.Elapsed),
		slog.Int("nodes", st.Nodes),
		slog.Int("draws", st.Draws),
		slog.Int("errors", len(st.Errors)),
		slog.Bool("balanced", st.Balanced))
	attrs := make([]any, 0, int(categoryCount))
	for c := Category(0); c < categoryCount; c++ {
		attrs = append(attrs, slog.Group(c.String(),
			slog.Int("push", st.Pushes[c]),
			slog.Int("pop", st.Pops[c])))
	}
	s.logger.Debug("state stacks", attrs...)
	if st.MaxPath > debugMaxPath {
		s.logger.Warn("deep traversal", slog.Int("depth", st.MaxPath), slog.Int("threshold", debugMaxPath))
	}
	if !st.Balanced {
		s.logger.Error("state stacks unbalanced after pass")
	}
}
