// Command mediaid identifies media releases by name, resolves them against
// TMDB, and prepares tracker upload artifacts from a qBittorrent instance.
package main
