// Package spantree turns span begin/end events into a hierarchical timing
// profile.
//
// A Tree is a trace.Tracer. While spans are open it keeps one pending entry
// per span; when a span ends its entry becomes a Node appended to the parent's
// entry. When a root span ends the finished tree is optionally aggregated
// (same-named siblings merged, counts and durations summed) and printed:
//
//	 8.37ms          top_level
//	   1.09ms          middle
//	     1.06ms          leaf
//	   1.06ms          middle
//
// and with aggregation:
//
//	 8.39ms          top_level
//	   8.35ms   4      middle
//	     2.13ms   2      leaf
//
// Host contract violations (an end without a begin, a child outliving its
// parent) panic.
package spantree
