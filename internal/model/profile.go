package model

import (
	"database/sql"
	"time"
)

// ProfileSettings is the singleton row holding display, theme, SEO, and
// analytics configuration for the public page. The schema enforces a single
// row (id = 1); writes are upsert-style and replace the row wholesale.
type ProfileSettings struct {
	ID                 int64          `json:"id"`
	DisplayName        sql.NullString `json:"display_name"`
	Bio                sql.NullString `json:"bio"`
	ProfileImage       sql.NullString `json:"profile_image"`
	BackgroundType     string         `json:"background_type"`
	BackgroundValue    string         `json:"background_value"`
	Theme              string         `json:"theme"`
	CustomCSS          sql.NullString `json:"custom_css"`
	SEOTitle           sql.NullString `json:"seo_title"`
	SEODescription     sql.NullString `json:"seo_description"`
	SEOKeywords        sql.NullString `json:"seo_keywords"`
	OGTitle            sql.NullString `json:"og_title"`
	OGDescription      sql.NullString `json:"og_description"`
	OGImage            sql.NullString `json:"og_image"`
	TwitterCardType    string         `json:"twitter_card_type"`
	TwitterTitle       sql.NullString `json:"twitter_title"`
	TwitterDescription sql.NullString `json:"twitter_description"`
	TwitterImage       sql.NullString `json:"twitter_image"`
	GoogleAnalyticsID  sql.NullString `json:"google_analytics_id"`
	GoogleTagManagerID sql.NullString `json:"google_tag_manager_id"`
	FacebookPixelID    sql.NullString `json:"facebook_pixel_id"`
	CustomHeadCode     sql.NullString `json:"custom_head_code"`
	CustomBodyCode     sql.NullString `json:"custom_body_code"`
	RobotsDirective    string         `json:"robots_directive"`
	CanonicalURL       sql.NullString `json:"canonical_url"`
	HideFooter         bool           `json:"hide_footer"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
