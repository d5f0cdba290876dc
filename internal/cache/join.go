package cache

import "github.com/tgienger/dash/internal/models"

// PlaceholderColor is used for activity tags that cannot be resolved.
const PlaceholderColor = "#cccccc"

// IndexTags maps activity tags by id.
func IndexTags(tags []models.ActivityTag) map[int64]models.ActivityTag {
	idx := make(map[int64]models.ActivityTag, len(tags))
	for _, t := range tags {
		idx[t.ID] = t
	}
	return idx
}

// ResolveTag looks up tagID, returning a placeholder tag named "unknown" when
// it is not present (for example while the tag list is still loading).
func ResolveTag(tagID int64, tags map[int64]models.ActivityTag) models.ActivityTag {
	if t, ok := tags[tagID]; ok {
		return t
	}
	return models.ActivityTag{ID: tagID, Name: "unknown", Color: PlaceholderColor}
}

// JoinBlocks resolves the tag of each block record.
func JoinBlocks(records []models.ActivityBlockRecord, tags map[int64]models.ActivityTag) []models.ActivityBlock {
	blocks := make([]models.ActivityBlock, 0, len(records))
	for _, r := range records {
		b := models.ActivityBlock{
			ID:        r.ID,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
			Tag:       ResolveTag(r.TagID, tags),
		}
		if r.Detail != nil {
			b.Detail = *r.Detail
		}
		blocks = append(blocks, b)
	}
	return blocks
}
