package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/flexibio/flexibio-go/internal/geoip"
	"github.com/flexibio/flexibio-go/internal/store"
	"github.com/flexibio/flexibio-go/internal/util"
)

// recordTimeout bounds the background write for one click event.
const recordTimeout = 5 * time.Second

// ClickRecorder records link click events and keeps the per-link counters
// current. Recording happens off the request path: the redirect response is
// sent first and the write runs in a detached goroutine. Failures are
// logged, never surfaced to the visitor.
type ClickRecorder struct {
	db      *sql.DB
	queries *store.Queries
	geo     *geoip.Lookup
}

// NewClickRecorder creates a new ClickRecorder. geo may be nil when GeoIP
// is not configured.
func NewClickRecorder(db *sql.DB, geo *geoip.Lookup) *ClickRecorder {
	return &ClickRecorder{
		db:      db,
		queries: store.New(db),
		geo:     geo,
	}
}

// ClickInfo carries the request attributes captured before the redirect.
type ClickInfo struct {
	LinkID    int64
	UserAgent string
	Referrer  string
	ClientIP  string
}

// RecordAsync records a click in a detached goroutine. It must be called
// after the redirect has been written; it never blocks the caller.
func (c *ClickRecorder) RecordAsync(info ClickInfo) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		if err := c.Record(ctx, info); err != nil {
			slog.Error("failed to record link click",
				"link_id", info.LinkID,
				"error", err,
			)
		}
	}()
}

// Record writes one click event and increments the link's click counter.
// The counter update is a single atomic UPDATE, safe under concurrent clicks.
func (c *ClickRecorder) Record(ctx context.Context, info ClickInfo) error {
	ua := ParseUserAgent(info.UserAgent)

	var country string
	if c.geo != nil {
		country = c.geo.LookupCountry(info.ClientIP)
	}

	err := c.queries.CreateLinkClick(ctx, store.CreateLinkClickParams{
		LinkID:     info.LinkID,
		ClickedAt:  time.Now().UTC(),
		UserAgent:  util.NullStringFromValue(info.UserAgent),
		Referrer:   util.NullStringFromValue(info.Referrer),
		DeviceType: util.NullStringFromValue(ua.DeviceType),
		Browser:    util.NullStringFromValue(ua.Browser),
		OS:         util.NullStringFromValue(ua.OS),
		IPAddress:  util.NullStringFromValue(info.ClientIP),
		Country:    util.NullStringFromValue(country),
	})
	if err != nil {
		return err
	}

	return c.queries.IncrementLinkClickCount(ctx, info.LinkID)
}

// ReferrerDomain extracts the host from a referrer URL for aggregation.
// Returns empty string for unparseable or empty referrers.
func ReferrerDomain(referrer string) string {
	if referrer == "" {
		return ""
	}
	u, err := url.Parse(referrer)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
