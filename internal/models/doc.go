// Package models defines the domain records exchanged with the Billed backend.
//
// # Models
//
//   - Bill: an expense report submitted by an employee and reviewed by an admin
//   - User: an account, either an Employee or an Admin
//
// Field names and JSON tags mirror the backend's REST payloads exactly, since
// the client forwards records back to the backend on update.
package models
