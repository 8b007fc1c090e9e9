// Package validation maps a full field snapshot to an ErrorMap. Rules are
// data: a path, a message, an optional guard and a predicate. Guards let a
// rule follow the visibility of its field (a portfolio URL is only checked
// while position is "Designer"), and the engine evaluates every rule uniformly
// with no hidden state or I/O.
package validation
