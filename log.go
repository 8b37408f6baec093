//
// Copyright 2018-2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package transfer

import (
	"log/slog"
	"net/url"

	"github.com/dustin/go-humanize"
)

// redactURL strips userinfo and masks query values so that URIs can be
// logged without leaking credentials.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.User = nil
	if u.RawQuery != "" {
		query := u.Query()
		for key := range query {
			query.Set(key, "***")
		}
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// bytesAttr renders a byte count both raw and human readable.
func bytesAttr(key string, n uint64) slog.Attr {
	return slog.Group(key,
		slog.Uint64("bytes", n),
		slog.String("human", humanize.IBytes(n)))
}
