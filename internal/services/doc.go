// Package services defines the shared error taxonomy used by the external
// collaborators (TMDB, qBittorrent, tracker uploads). Sentinel markers allow
// callers to distinguish transient network conditions from configuration
// problems without inspecting message text.
package services
