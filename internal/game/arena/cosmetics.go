package arena

import "go.uber.org/zap"

// LogSink writes cosmetic events to a logger and counts them. It implements
// weapon.CosmeticSink.
type LogSink struct {
	logger  *zap.Logger
	sounds  map[string]int
	muzzles int
	shakes  int
}

// NewLogSink returns a sink logging at debug level to logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger, sounds: make(map[string]int)}
}

// PlaySound implements weapon.CosmeticSink.
func (s *LogSink) PlaySound(cue string) {
	s.sounds[cue]++
	s.logger.Debug("sound", zap.String("cue", cue))
}

// PlayMuzzleEffect implements weapon.CosmeticSink.
func (s *LogSink) PlayMuzzleEffect() {
	s.muzzles++
	s.logger.Debug("muzzle effect")
}

// PlayCameraShake implements weapon.CosmeticSink.
func (s *LogSink) PlayCameraShake() {
	s.shakes++
	s.logger.Debug("camera shake")
}

// Sounds returns how many times cue was played.
func (s *LogSink) Sounds(cue string) int { return s.sounds[cue] }

// Effects returns the muzzle effect and camera shake counts.
func (s *LogSink) Effects() (muzzles, shakes int) { return s.muzzles, s.shakes }
