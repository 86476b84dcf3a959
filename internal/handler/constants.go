package handler

// Route pattern constants for chi router registration.
const (
	// RouteRoot is the root path.
	RouteRoot = "/"
	// RouteRegister is the registration route.
	RouteRegister = "/register"
	// RouteLogin is the login route.
	RouteLogin = "/login"
	// RouteLogout is the logout route.
	RouteLogout = "/logout"
	// RoutePost is the single post route. The parameter is a numeric
	// id with a slug fallback.
	RoutePost = "/post/{id}"
	// RouteNewPost is the post creation route.
	RouteNewPost = "/new-post"
	// RouteEditPost is the post edit route.
	RouteEditPost = "/edit-post/{id}"
	// RouteDeletePost is the post delete route.
	RouteDeletePost = "/delete/{id}"
	// RouteAbout is the about page route.
	RouteAbout = "/about"
	// RouteContact is the contact page route.
	RouteContact = "/contact"
	// RouteHealth is the health check route.
	RouteHealth = "/health"
)

// MaxCommentLength is the maximum accepted comment length in characters.
const MaxCommentLength = 500

// postDateFormat is the display date stamped on a post at creation.
const postDateFormat = "January 02, 2006"
