package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"image-pipeline/internal/domain"
)

// ImageSet is what an <img> tag consumer needs: a primary src and, when
// multiple rendition sizes exist, a srcset/sizes pair for the browser.
type ImageSet struct {
	Src    string `json:"src"`
	SrcSet string `json:"srcset,omitempty"`
	Sizes  string `json:"sizes,omitempty"`
}

// Named usage contexts across the storefront. Each maps to one of the two
// eager rendition sizes.
const (
	UsageList        = "list"
	UsageCard        = "card"
	UsageAvatar      = "avatar"
	UsageDetail      = "detail"
	UsageHeaderLarge = "header-large"
)

// ResponsiveSet selects rendition keys for a usage context given an asset
// base path. Data URIs and foreign URLs have no derived renditions and pass
// through as a bare src.
func (r *Resolver) ResponsiveSet(ref, usage string) ImageSet {
	if ref == "" {
		return ImageSet{}
	}
	if strings.HasPrefix(ref, "data:") {
		return ImageSet{Src: ref}
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" && !r.ownsHost(u.Hostname()) {
		return ImageSet{Src: ref}
	}

	base := strings.Trim(r.KeyFromURL(ref), "/")
	if base == "" {
		return ImageSet{Src: r.PublicURL(ref)}
	}

	thumb := r.PublicURL(domain.EagerVariants[0].Key(base, domain.FormatJPEG))
	detail := r.PublicURL(domain.EagerVariants[1].Key(base, domain.FormatJPEG))

	set := ImageSet{
		SrcSet: fmt.Sprintf("%s %dw, %s %dw", thumb, domain.ThumbWidth, detail, domain.DetailWidth),
	}

	switch usage {
	case UsageAvatar:
		set.Src = thumb
		set.Sizes = "96px"
	case UsageList, UsageCard:
		set.Src = thumb
		set.Sizes = fmt.Sprintf("(max-width: 640px) 50vw, %dpx", domain.ThumbWidth)
	default:
		set.Src = detail
		set.Sizes = fmt.Sprintf("(max-width: %dpx) 100vw, %dpx", domain.DetailWidth, domain.DetailWidth)
	}

	return set
}
