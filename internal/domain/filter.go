package domain

// Filter restricts a similarity search to chunks matching known attributes.
// Only the attributes the chunk index actually carries are representable;
// anything else a filter-derivation step invents is discarded upstream.
type Filter struct {
	Entity    string
	SourceURL string
}

// IsEmpty reports whether the filter constrains nothing.
func (f Filter) IsEmpty() bool {
	return f.Entity == "" && f.SourceURL == ""
}
