// Package services wraps the external systems the acquisition pipeline talks to.
//
// # Catalog
//
// [SpotifyService] implements [CatalogProvider] against the Spotify Web API. It authenticates with
// the client credentials flow, so no user login or callback server is involved; the
// [clientcredentials.Config] client caches the app token and renews it when it expires.
//
// # Extraction
//
// [YTDLP] implements [Extractor] on top of yt-dlp. Search uses the "ytsearchN:" pseudo URL with
// downloading disabled; Download extracts audio into a caller-chosen directory and file name, so
// two requests never share an output path.
//
// # Cover art
//
// [CoverClient] implements [CoverFetcher]. A non-200 answer is reported as "no cover" rather than
// an error. [Normalize] bounds the image size before it is embedded in tags.
//
// # Error Handling
//
// Services use sentinel errors from the shared package:
//   - [shared.ErrTrackNotFound] : catalog answered 404
//   - [shared.ErrAuthFailed] : catalog rejected the app credentials
//   - [shared.ErrAPIRequest] : any other failed catalog call
//   - [shared.ErrInvalidArgument] : empty track id, query or download options
package services
