package decoder

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tbrumbaugh5396/music-visualizer/internal/domain"
)

// readTrackInfo fills the descriptive fields of a track from the file's tags.
// The title falls back to the file name when the file carries no usable tags.
func readTrackInfo(filePath string) domain.Track {
	base := filepath.Base(filePath)
	ext := filepath.Ext(base)

	track := domain.Track{
		FilePath: filePath,
		Title:    strings.TrimSuffix(base, ext),
		Format:   strings.TrimPrefix(strings.ToLower(ext), "."),
	}

	file, err := os.Open(filePath)
	if err != nil {
		return track
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		return track
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		track.Title = title
	}
	track.Artist = strings.TrimSpace(metadata.Artist())
	track.Album = strings.TrimSpace(metadata.Album())

	return track
}
