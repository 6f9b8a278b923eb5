// Package covers renders, caches and sources publication covers.
//
// Cache stores encoded cover renditions on disk so HTTP requests and
// background warm-up tasks share work. OpenLibraryClient provides a cover
// service for publications that carry an ISBN but no cover of their own.
package covers
