// Package auth is the authorization core of the planning platform.
//
// # Catalog and matrix
//
// Every permission belongs to exactly one module. The role permission matrix maps
// the fixed role codes (ADMIN, PLANIF, VALID, REVISOR, AUDITOR) to permission sets.
// Both tables are built once at process start and never change afterwards; a
// permission or module that is not in the catalog makes route registration panic,
// so a typo can not silently resolve to "allowed" or "denied".
//
// # Resolution
//
// HasPermission, HasModuleAccess and friends are pure functions over the matrix.
// Unknown role codes and empty role sets resolve to no access.
//
// # Credentials
//
// Tokens signs and verifies HS256 bearer credentials carrying user id, email, role
// codes and an optional institution id. Validation never touches the database: the
// roles in a credential are the ones held when it was issued, until it expires or
// is refreshed.
//
// # Enforcement
//
// Guard is the fiber middleware that authenticates the caller and evaluates the
// route's requirements:
//
//	guard := auth.NewGuard(tokens)
//	app.Post("/api/usuarios",
//	    guard.Require(auth.RequirePermission(auth.PermCrearUsuario)),
//	    handler,
//	)
//	app.Get("/api/usuarios/:id/permisos",
//	    guard.Require(auth.SelfOrAdmin("id")),
//	    handler,
//	)
//
// Missing, invalid and expired credentials answer 401 with distinct codes; failed
// requirements answer 403 listing what was required and which roles the caller holds.
// Handlers read the caller through Claims or ClaimsFromContext.
package auth
