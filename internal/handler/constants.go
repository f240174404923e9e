package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the public profile page.
	RouteRoot = "/"
	// RouteClick is the click redirect route.
	RouteClick = "/l/{code}"
	// RouteManifest is the web manifest route.
	RouteManifest = "/manifest.webmanifest"

	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RouteMagicLink is the magic link request route.
	RouteMagicLink = "/login/magic"
	// RouteMagicRedeem is the emailed magic link target.
	RouteMagicRedeem = "/auth/magic/{token}"
	// RouteForgotPassword is the reset request route.
	RouteForgotPassword = "/forgot-password"
	// RouteResetPassword is the emailed reset link target.
	RouteResetPassword = "/reset-password"

	// RouteAdmin is the dashboard root.
	RouteAdmin = "/admin"
	// RouteLinks is the link management route under /admin.
	RouteLinks = "/links"
	// RouteProfile is the profile settings route under /admin.
	RouteProfile = "/profile"
	// RouteUsers is the admin user management route under /admin.
	RouteUsers = "/users"
	// RouteEvents is the event log route under /admin.
	RouteEvents = "/events"
	// RouteAnalytics is the analytics overview route under /admin.
	RouteAnalytics = "/analytics"

	// RouteParamID is the ID parameter pattern.
	RouteParamID = "/{id}"
	// RouteSuffixNew is the suffix for "new" routes.
	RouteSuffixNew = "/new"
	// RouteSuffixReorder is the suffix for reorder routes.
	RouteSuffixReorder = "/reorder"
	// RouteSuffixDelete is the suffix for delete routes.
	RouteSuffixDelete = "/delete"
	// RouteSuffixUpload is the suffix for upload routes.
	RouteSuffixUpload = "/upload"
	// RouteSuffixSuggest is the suffix for the SEO suggestion route.
	RouteSuffixSuggest = "/suggest"
)

// Redirect targets used after form submissions.
const (
	redirectAdmin   = "/admin"
	redirectLogin   = "/login"
	redirectLinks   = "/admin/links"
	redirectProfile = "/admin/profile"
	redirectUsers   = "/admin/users"
)
