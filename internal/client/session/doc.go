// Package session holds the client-side authentication state: the current
// user, the access and refresh tokens, and the authenticated flag.
//
// A Store is the single owner of that state. It persists a subset of it
// (see Snapshot) to a metadata.Repository so a restarted client comes back
// logged in, and it notifies subscribers after every change. The transient
// loading flag is never persisted.
//
// Writers are serialized and each write lands in storage before it becomes
// visible in memory, so readers never observe a half-applied update.
package session
