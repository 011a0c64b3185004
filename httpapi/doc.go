// Package httpapi is the HTTP boundary over authority.Engine: JSON
// request decoding, the fixed error-kind to status-code table, the
// router, and request logging.
//
// # Endpoints
//
//	POST /register   create an account            201
//	POST /login      verify credentials, mint pair 200
//	POST /refresh    rotate a refresh token        200
//	GET  /logout     terminate all sessions        204  (authenticated)
//	GET  /me         current user record           200  (authenticated)
//	GET  /admin      role probe                    200  (admin)
//	GET  /moderated  role probe                    200  (admin, moderator)
//	GET  /healthz    ledger availability           200
//
// Errors are returned as {"error": message, "code": kind}. The kind is
// stable API; the message is not.
package httpapi
