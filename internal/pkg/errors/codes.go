package errors

import "net/http"

var (
	ErrPointNotFound = New(
		"POINT_NOT_FOUND",
		"Point not found",
		http.StatusNotFound,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
		http.StatusBadRequest,
	)

	ErrInvalidBounds = New(
		"INVALID_BOUNDS",
		"Invalid viewport bounds",
		http.StatusBadRequest,
	)

	ErrInvalidZoom = New(
		"INVALID_ZOOM",
		"Invalid zoom level: must be between 0 and 22",
		http.StatusBadRequest,
	)

	ErrClusterNotFound = New(
		"CLUSTER_NOT_FOUND",
		"Cluster not found",
		http.StatusNotFound,
	)

	ErrInvalidAction = New(
		"INVALID_ACTION",
		"Unknown map action",
		http.StatusBadRequest,
	)

	ErrSessionRequired = New(
		"SESSION_REQUIRED",
		"User session is required for this operation",
		http.StatusUnauthorized,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrUpstreamUnavailable = New(
		"UPSTREAM_UNAVAILABLE",
		"Points service is temporarily unavailable",
		http.StatusServiceUnavailable,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
