package tweet

import "sort"

// Threaded is the result of grouping a flat tweet list into conversations.
type Threaded struct {
	// Threads maps a thread id to its tweets, ordered by ThreadPosition
	// ascending. Ties keep input order.
	Threads map[string][]Tweet
	// Standalone holds every tweet that is not part of a thread, in the
	// order it was given.
	Standalone []Tweet
}

// AssembleThreads partitions tweets into conversation threads and standalone
// posts. A tweet joins a thread iff IsThread is set and ThreadID is
// non-empty. No tweet is dropped, duplicated, or placed in both outputs.
// The input slice is not modified.
func AssembleThreads(tweets []Tweet) Threaded {
	out := Threaded{Threads: make(map[string][]Tweet)}

	for _, t := range tweets {
		if t.IsThread && t.ThreadID != "" {
			out.Threads[t.ThreadID] = append(out.Threads[t.ThreadID], t)
			continue
		}
		out.Standalone = append(out.Standalone, t)
	}

	for id, ts := range out.Threads {
		sort.SliceStable(ts, func(i, j int) bool {
			return ts[i].ThreadPosition < ts[j].ThreadPosition
		})
		out.Threads[id] = ts
	}

	return out
}
