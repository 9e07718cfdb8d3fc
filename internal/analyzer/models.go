package analyzer

// PageMetrics summarizes the presentation of one page.
type PageMetrics struct {
	Lines     int     `json:"lines"`
	Neatness  float64 `json:"neatness"`
	Slant     float64 `json:"slant_degrees"`
	WordCount int     `json:"word_count"`
}
