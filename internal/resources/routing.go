package resources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mrlokans/pubshelf/internal/publication"
)

// RoutingFetcher sends absolute http(s) hrefs to Remote and all other hrefs
// to Local. Either side may be nil, in which case those hrefs fail.
type RoutingFetcher struct {
	Local  publication.Fetcher
	Remote publication.Fetcher
}

// Read dispatches link to the matching fetcher.
func (f *RoutingFetcher) Read(ctx context.Context, link publication.Link) ([]byte, error) {
	target := f.Local
	if IsRemote(link.Href) {
		target = f.Remote
	}
	if target == nil {
		return nil, &publication.FetchError{
			Href: link.Href,
			Err:  fmt.Errorf("no fetcher configured for this href"),
		}
	}
	return target.Read(ctx, link)
}

// IsRemote reports whether href is an absolute http or https URL.
func IsRemote(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

var _ publication.Fetcher = (*RoutingFetcher)(nil)
