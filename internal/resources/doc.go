// Package resources reads the bytes of resources linked from a publication
// manifest.
//
// # Fetchers
//
//   - DirFetcher: hrefs relative to an unpacked publication directory
//   - HTTPFetcher: absolute http(s) hrefs, with a content-addressed disk cache
//   - RoutingFetcher: dispatches absolute URLs to HTTP and everything else to a directory
//
// All fetchers report failures as *publication.FetchError so that callers can
// tell which href failed and why.
package resources
