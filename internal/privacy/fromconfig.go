package privacy

import (
	"github.com/TheSethRose/Moltbook-Wrapper/internal/config"
	"github.com/TheSethRose/Moltbook-Wrapper/internal/logger"
	"go.uber.org/zap"
)

// FromConfig builds a detector from the creator section of the
// configuration. Rejected custom patterns are reported by position only,
// never by content.
func FromConfig(registry *Registry, cfg config.CreatorConfig, log *logger.Logger) *Detector {
	d := NewWithCreator(registry, CreatorProfile{
		Name:     cfg.Name,
		Handle:   cfg.Handle,
		Location: cfg.Location,
		Employer: cfg.Employer,
	}, log)

	for _, name := range cfg.Family {
		d.AddCreatorFamily(name)
	}
	d.AddCreatorPhone(cfg.Phone)
	d.AddCreatorEmail(cfg.Email)
	d.AddCreatorAddress(cfg.Address)

	for i, pattern := range cfg.CustomPatterns {
		if err := d.AddCustomPattern(pattern); err != nil {
			// The compile error embeds the pattern source, which may
			// itself contain a secret. Log the position only.
			log.Warn("Skipping invalid custom pattern", zap.Int("index", i))
		}
	}

	return d
}
