package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level, giving an
// audit trail of the random decisions behind an encounter.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	if src == nil || logger == nil {
		panic("dice: NewLoggedSource requires non-nil src and logger")
	}
	return &LoggedSource{src: src, logger: logger}
}

// Float64 draws from the wrapped source and logs the value.
func (l *LoggedSource) Float64() float64 {
	v := l.src.Float64()
	l.logger.Debug("random draw", zap.String("kind", "uniform"), zap.Float64("value", v))
	return v
}

// Intn draws from the wrapped source and logs the bound and value.
//
// Precondition: n > 0.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random draw", zap.String("kind", "intn"), zap.Int("n", n), zap.Int("value", v))
	return v
}

// Seed forwards the wrapped source's seed so wrapping does not hide it.
func (l *LoggedSource) Seed() uint64 {
	seed, _ := SeedOf(l.src)
	return seed
}
