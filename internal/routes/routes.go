// Package routes names the client's pages.
package routes

import "strings"

// Route paths.
const (
	Login     = "/"
	Bills     = "/employee/bills"
	NewBill   = "/employee/bill/new"
	Dashboard = "/admin/dashboard"
)

// Name returns a short label for path, used in logs and metrics.
func Name(path string) string {
	switch path {
	case Login:
		return "login"
	case Bills:
		return "bills"
	case NewBill:
		return "newbill"
	case Dashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// Known reports whether path is one of the client's pages.
func Known(path string) bool {
	return Name(path) != "unknown"
}

// Protected reports whether path requires a signed-in user.
func Protected(path string) bool {
	return path != Login && Known(path)
}

// AdminOnly reports whether path is reserved to administrators.
func AdminOnly(path string) bool {
	return path == Dashboard
}

// Normalize maps a location to a route path. Legacy hash locations such as
// "#employee/bills" or "#/employee/bills" resolve to the matching path; a
// trailing slash is ignored.
func Normalize(location string) string {
	path := strings.TrimPrefix(location, "#")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = Login
		}
	}
	return path
}
