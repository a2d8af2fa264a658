// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package intake

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are the non-utm query keys stripped during URL
// canonicalization (R2.1). The whole utm_* family is stripped by prefix.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"wt_mc":  true,
	"wt_zmc": true,
	"_ga":    true,
	"_gid":   true,
}

func isTrackingParam(key string) bool {
	return strings.HasPrefix(key, "utm_") || trackingParams[key]
}

// CanonicalizeURL strips tracking parameters and the fragment from rawURL.
// The surviving query parameters keep their order and original encoding, so
// two sightings of the same link always canonicalize identically (R2.2).
func CanonicalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	if u.RawQuery != "" {
		var kept []string
		for _, param := range strings.Split(u.RawQuery, "&") {
			if param == "" {
				continue
			}
			key := param
			if i := strings.IndexByte(param, '='); i >= 0 {
				key = param[:i]
			}
			if !isTrackingParam(key) {
				kept = append(kept, param)
			}
		}
		u.RawQuery = strings.Join(kept, "&")
	}

	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}
