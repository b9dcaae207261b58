// Package domain contains the core business entities, value objects, and
// domain logic of the application: users and their roles, tasks and their
// status lifecycle, the authenticated caller identity, and task analytics.
// It is independent of any specific infrastructure or delivery mechanism.
package domain
