package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/flexibio/flexibio-go/internal/model"
)

const profileColumns = `id, display_name, bio, profile_image, background_type, background_value,
	theme, custom_css, seo_title, seo_description, seo_keywords, og_title, og_description,
	og_image, twitter_card_type, twitter_title, twitter_description, twitter_image,
	google_analytics_id, google_tag_manager_id, facebook_pixel_id, custom_head_code,
	custom_body_code, robots_directive, canonical_url, hide_footer, created_at, updated_at`

// GetProfileSettings returns the singleton profile row.
// Returns sql.ErrNoRows when the profile has not been created yet.
func (q *Queries) GetProfileSettings(ctx context.Context) (model.ProfileSettings, error) {
	var p model.ProfileSettings
	err := q.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profile_settings WHERE id = 1`).Scan(
		&p.ID, &p.DisplayName, &p.Bio, &p.ProfileImage, &p.BackgroundType, &p.BackgroundValue,
		&p.Theme, &p.CustomCSS, &p.SEOTitle, &p.SEODescription, &p.SEOKeywords, &p.OGTitle,
		&p.OGDescription, &p.OGImage, &p.TwitterCardType, &p.TwitterTitle, &p.TwitterDescription,
		&p.TwitterImage, &p.GoogleAnalyticsID, &p.GoogleTagManagerID, &p.FacebookPixelID,
		&p.CustomHeadCode, &p.CustomBodyCode, &p.RobotsDirective, &p.CanonicalURL,
		&p.HideFooter, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// UpsertProfileSettingsParams holds the full writable state of the profile.
type UpsertProfileSettingsParams struct {
	DisplayName        sql.NullString
	Bio                sql.NullString
	ProfileImage       sql.NullString
	BackgroundType     string
	BackgroundValue    string
	Theme              string
	CustomCSS          sql.NullString
	SEOTitle           sql.NullString
	SEODescription     sql.NullString
	SEOKeywords        sql.NullString
	OGTitle            sql.NullString
	OGDescription      sql.NullString
	OGImage            sql.NullString
	TwitterCardType    string
	TwitterTitle       sql.NullString
	TwitterDescription sql.NullString
	TwitterImage       sql.NullString
	GoogleAnalyticsID  sql.NullString
	GoogleTagManagerID sql.NullString
	FacebookPixelID    sql.NullString
	CustomHeadCode     sql.NullString
	CustomBodyCode     sql.NullString
	RobotsDirective    string
	CanonicalURL       sql.NullString
	HideFooter         bool
}

// UpsertProfileSettings replaces the singleton profile row wholesale.
// No history is retained.
func (q *Queries) UpsertProfileSettings(ctx context.Context, arg UpsertProfileSettingsParams) (model.ProfileSettings, error) {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO profile_settings (
			id, display_name, bio, profile_image, background_type, background_value,
			theme, custom_css, seo_title, seo_description, seo_keywords, og_title,
			og_description, og_image, twitter_card_type, twitter_title,
			twitter_description, twitter_image, google_analytics_id,
			google_tag_manager_id, facebook_pixel_id, custom_head_code,
			custom_body_code, robots_directive, canonical_url, hide_footer,
			created_at, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			bio = excluded.bio,
			profile_image = excluded.profile_image,
			background_type = excluded.background_type,
			background_value = excluded.background_value,
			theme = excluded.theme,
			custom_css = excluded.custom_css,
			seo_title = excluded.seo_title,
			seo_description = excluded.seo_description,
			seo_keywords = excluded.seo_keywords,
			og_title = excluded.og_title,
			og_description = excluded.og_description,
			og_image = excluded.og_image,
			twitter_card_type = excluded.twitter_card_type,
			twitter_title = excluded.twitter_title,
			twitter_description = excluded.twitter_description,
			twitter_image = excluded.twitter_image,
			google_analytics_id = excluded.google_analytics_id,
			google_tag_manager_id = excluded.google_tag_manager_id,
			facebook_pixel_id = excluded.facebook_pixel_id,
			custom_head_code = excluded.custom_head_code,
			custom_body_code = excluded.custom_body_code,
			robots_directive = excluded.robots_directive,
			canonical_url = excluded.canonical_url,
			hide_footer = excluded.hide_footer,
			updated_at = excluded.updated_at`,
		arg.DisplayName, arg.Bio, arg.ProfileImage, arg.BackgroundType, arg.BackgroundValue,
		arg.Theme, arg.CustomCSS, arg.SEOTitle, arg.SEODescription, arg.SEOKeywords,
		arg.OGTitle, arg.OGDescription, arg.OGImage, arg.TwitterCardType, arg.TwitterTitle,
		arg.TwitterDescription, arg.TwitterImage, arg.GoogleAnalyticsID,
		arg.GoogleTagManagerID, arg.FacebookPixelID, arg.CustomHeadCode, arg.CustomBodyCode,
		arg.RobotsDirective, arg.CanonicalURL, arg.HideFooter, now, now)
	if err != nil {
		return model.ProfileSettings{}, err
	}
	return q.GetProfileSettings(ctx)
}
