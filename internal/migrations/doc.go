// Package migrations embeds the Postgres schema for users, posts and refresh
// credentials and applies it with goose.
package migrations
