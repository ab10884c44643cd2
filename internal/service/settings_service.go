package service

import (
	"fmt"

	"github.com/markdown-blog-api/internal/settings"
	"github.com/rs/zerolog"
)

type settingsService struct {
	fontsFile string
	log       zerolog.Logger
}

func newSettingsService(fontsFile string, log zerolog.Logger) *settingsService {
	return &settingsService{
		fontsFile: fontsFile,
		log:       log.With().Str("service", "settings").Logger(),
	}
}

// Fonts re-reads the font list on every call so edits apply without a restart
func (s *settingsService) Fonts() ([]string, error) {
	fonts, err := settings.LoadFonts(s.fontsFile)
	if err != nil {
		s.log.Error().Err(err).Str("path", s.fontsFile).Msg("Failed to load fonts")
		return nil, fmt.Errorf("%w: %v", ErrSettingsUnavailable, err)
	}
	return fonts, nil
}
