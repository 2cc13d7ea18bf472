// Package http exposes the layer registry over a JSON REST API.
//
// Routes (registered by the server package):
//
//	GET    /                                   service banner
//	GET    /health                             backend, account count and registry stats
//	POST   /api/v1/auth/register               create an account
//	POST   /api/v1/auth/login                  issue a bearer token
//	POST   /api/v1/auth/logout                 revoke a bearer token
//	GET    /api/v1/auth/me                     authenticated caller
//	POST   /api/v1/layers                      create a layer in the caller's namespace
//	GET    /api/v1/users/:user/layers          list a user's layers
//	GET    /api/v1/users/:user/layers/:name    resolve a layer link
//	GET    /api/v1/resolve?user=&name=         resolve, for names containing '/'
//
// Errors are returned as {"error": ..., "code": ...}.
package http
