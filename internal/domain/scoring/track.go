package scoring

import (
	"sort"

	"github.com/okian/judgeboard/internal/domain/model"
)

// ResolveTrack finds the criteria for a record's track. An exact track id
// match wins; otherwise the first configured track (in sorted id order)
// whose name equals the record's embedded track name is used. Older
// records carry track ids that no longer line up with configuration keys,
// so the name fallback stays.
func ResolveTrack(cfg *model.ScoringConfiguration, trackID, trackName string) (*model.TrackConfig, bool) {
	if cfg == nil || len(cfg.Tracks) == 0 {
		return nil, false
	}
	if t, ok := cfg.Tracks[trackID]; ok {
		return &t, true
	}
	if trackName == "" {
		return nil, false
	}
	for _, id := range sortedTrackIDs(cfg) {
		if t := cfg.Tracks[id]; t.Name == trackName {
			return &t, true
		}
	}
	return nil, false
}

func sortedTrackIDs(cfg *model.ScoringConfiguration) []string {
	ids := make([]string, 0, len(cfg.Tracks))
	for id := range cfg.Tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
