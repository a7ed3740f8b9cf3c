package timestamp

import "time"

// windowSpan bounds how far past the starting directory a query may reach.
const windowSpan = 10 * time.Hour

// Window is the minute-granularity [From, To] query bound sent to the
// console's image-listing operation. Built fresh per call; never persisted.
type Window struct {
	From string
	To   string
}

// ResolveWindow derives the query window for a starting directory timestamp:
// From is the directory instant, To is the earlier of From+10h and now, both
// at minute granularity. A directory stamped in the future yields To earlier
// than From; that is passed through unvalidated, the console simply returns
// no images for such a window.
func ResolveWindow(start string, now time.Time) (Window, error) {
	from, err := Parse(start)
	if err != nil {
		return Window{}, err
	}
	to := from.Add(windowSpan)
	if to.After(now) {
		to = now
	}
	return Window{
		From: FormatMinute(from),
		To:   FormatMinute(to),
	}, nil
}
