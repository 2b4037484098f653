// Package predict provides access predictors for the prefetching cache.
//
// All predictors are pure functions of (current, history), safe for
// concurrent use, and return likelihoods in (0, 1]. They never predict
// keys below zero, so unsigned key types are safe.
package predict
