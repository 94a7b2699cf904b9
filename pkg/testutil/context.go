package testutil

import (
	"net/http"

	"familyshare/pkg/requestcontext"
)

// WithClientMetadata attaches the client IP and user agent the metadata middleware would
// extract, so audit entries written during the request carry them.
func WithClientMetadata(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}
