// package models defines the data model shared across the sync engine
package models

// Kind is the media kind of a watchlist item.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindShow    Kind = "show"
	KindUnknown Kind = "unknown"
)

// ParseKind maps a Plex media type attribute to a Kind.
func ParseKind(s string) Kind {
	switch s {
	case "movie":
		return KindMovie
	case "show":
		return KindShow
	default:
		return KindUnknown
	}
}

// Known reports whether the kind identifies a dispatchable media type.
func (k Kind) Known() bool {
	return k == KindMovie || k == KindShow
}

// Item represents a single watchlist entry as returned by the source
// service. Items are produced fresh on every fetch and never persisted.
type Item struct {
	RatingKey string // Source-side identifier
	Title     string
	Year      int // 0 when the source omits the year
	Kind      Kind
}

// Classification is the resolved identity of an item after metadata lookup.
type Classification struct {
	Kind   Kind
	TMDBID int64
	Title  string // Canonical title from the lookup service
	Year   int
}
