package metadata

// TrackMetadata is enrichment data found for a track. Every field is
// independently optional; the zero value is the degraded (all-absent) result.
type TrackMetadata struct {
	Artist   *string `json:"artist,omitempty"`
	Album    *string `json:"album,omitempty"`
	CoverURL *string `json:"cover_url,omitempty"`
}

// Empty reports whether no field is set.
func (m TrackMetadata) Empty() bool {
	return m.Artist == nil && m.Album == nil && m.CoverURL == nil
}

// Tags is the text and picture content read back from an audio file.
type Tags struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album"`
	HasCover  bool   `json:"has_cover"`
	CoverMIME string `json:"cover_mime,omitempty"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringOrEmpty dereferences s, substituting "" for nil.
func StringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
